package notion

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/jomei/notionapi"
)

// Predicate reports whether a property has an acceptable shape.
type Predicate func(notionapi.Property) bool

// OfType matches properties of any of the given types.
func OfType(types ...notionapi.PropertyType) Predicate {
	return func(p notionapi.Property) bool {
		if p == nil {
			return false
		}
		got := TypeOf(p)
		for _, t := range types {
			if got == t {
				return true
			}
		}
		return false
	}
}

// TypeOf reports the property type from the concrete value, so values built
// in code without a Type field resolve the same as decoded API responses.
func TypeOf(p notionapi.Property) notionapi.PropertyType {
	switch p.(type) {
	case *notionapi.TitleProperty, notionapi.TitleProperty:
		return notionapi.PropertyTypeTitle
	case *notionapi.RichTextProperty, notionapi.RichTextProperty:
		return notionapi.PropertyTypeRichText
	case *notionapi.CheckboxProperty, notionapi.CheckboxProperty:
		return notionapi.PropertyTypeCheckbox
	case *notionapi.SelectProperty, notionapi.SelectProperty:
		return notionapi.PropertyTypeSelect
	case *notionapi.MultiSelectProperty, notionapi.MultiSelectProperty:
		return notionapi.PropertyTypeMultiSelect
	case *notionapi.StatusProperty, notionapi.StatusProperty:
		return notionapi.PropertyTypeStatus
	case *notionapi.PeopleProperty, notionapi.PeopleProperty:
		return notionapi.PropertyTypePeople
	case *notionapi.FilesProperty, notionapi.FilesProperty:
		return notionapi.PropertyTypeFiles
	case *notionapi.URLProperty, notionapi.URLProperty:
		return notionapi.PropertyTypeURL
	case *notionapi.FormulaProperty, notionapi.FormulaProperty:
		return notionapi.PropertyTypeFormula
	case nil:
		return ""
	}
	return p.GetType()
}

// Match is the result of a property lookup.
type Match struct {
	Name     string
	Property notionapi.Property
	// Fallback is set when no preferred name matched.
	Fallback bool
}

// Find returns the first preferred name whose property satisfies any predicate.
// Otherwise it scans all properties in name order, trying each predicate in turn,
// and logs a warning describing the fallback. A zero Match means nothing fits.
func Find(props notionapi.Properties, preferred []string, preds ...Predicate) (Match, bool) {
	for _, name := range preferred {
		p, ok := props[name]
		if !ok {
			continue
		}
		for _, pred := range preds {
			if pred(p) {
				return Match{Name: name, Property: p}, true
			}
		}
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, pred := range preds {
		for _, name := range names {
			if pred(props[name]) {
				slog.Warn("preferred property not found, using first compatible property",
					"preferred", strings.Join(preferred, " / "),
					"property", name,
				)
				return Match{Name: name, Property: props[name], Fallback: true}, true
			}
		}
	}
	return Match{}, false
}

// PlainText concatenates the plain text of rich text fragments.
func PlainText(fragments []notionapi.RichText) string {
	var b strings.Builder
	for _, f := range fragments {
		b.WriteString(fragmentText(f))
	}
	return b.String()
}

// FirstFragment returns the plain text of the first fragment, or "".
func FirstFragment(fragments []notionapi.RichText) string {
	if len(fragments) == 0 {
		return ""
	}
	return fragmentText(fragments[0])
}

func fragmentText(f notionapi.RichText) string {
	if f.PlainText != "" {
		return f.PlainText
	}
	if f.Text != nil {
		return f.Text.Content
	}
	return ""
}

// CollapseWhitespace folds runs of whitespace into single spaces and trims.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TextValue builds the rich text payload used when writing a plain string.
func TextValue(content string) []notionapi.RichText {
	if content == "" {
		return []notionapi.RichText{}
	}
	return []notionapi.RichText{{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: content},
	}}
}

// FileURL returns the URL of the first file, externally hosted or uploaded.
func FileURL(files []notionapi.File) string {
	if len(files) == 0 {
		return ""
	}
	f := files[0]
	if f.External != nil && f.External.URL != "" {
		return f.External.URL
	}
	if f.File != nil {
		return f.File.URL
	}
	return ""
}
