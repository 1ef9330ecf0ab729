package notion

import (
	"log/slog"
	"strings"

	"github.com/jomei/notionapi"
)

// TaskID reads the ClickUp task id stored on a page.
// rich_text, url, title and string formulas are readable.
func TaskID(page notionapi.Page, property string) string {
	p, ok := page.Properties[property]
	if !ok || p == nil {
		return ""
	}

	switch v := p.(type) {
	case *notionapi.RichTextProperty:
		return strings.TrimSpace(FirstFragment(v.RichText))
	case *notionapi.URLProperty:
		return strings.TrimSpace(v.URL)
	case *notionapi.TitleProperty:
		return strings.TrimSpace(FirstFragment(v.Title))
	case *notionapi.FormulaProperty:
		if v.Formula.Type == notionapi.FormulaTypeString {
			return strings.TrimSpace(v.Formula.String)
		}
	}

	slog.Warn("task id property has a type that cannot be read",
		"page_id", string(page.ID),
		"property", property,
		"type", string(TypeOf(p)),
	)
	return ""
}

// TaskIDUpdate builds the property value that stores taskID on the page.
// It returns false when the property is missing or read-only (formulas),
// in which case the id is not written back and the next sync creates a new task.
func TaskIDUpdate(page notionapi.Page, property, taskID string) (notionapi.Property, bool) {
	p, ok := page.Properties[property]
	if !ok || p == nil {
		slog.Warn("task id property not found on page, create a rich_text property to store the ClickUp id",
			"page_id", string(page.ID),
			"property", property,
		)
		return nil, false
	}

	switch TypeOf(p) {
	case notionapi.PropertyTypeRichText:
		return notionapi.RichTextProperty{RichText: TextValue(taskID)}, true
	case notionapi.PropertyTypeURL:
		return notionapi.URLProperty{URL: taskID}, true
	case notionapi.PropertyTypeTitle:
		return notionapi.TitleProperty{Title: TextValue(taskID)}, true
	}

	slog.Warn("task id property type does not support write-back, the task will be recreated on every sync",
		"page_id", string(page.ID),
		"property", property,
		"type", string(TypeOf(p)),
	)
	return nil, false
}

// Checked reports whether a checkbox property is set.
func Checked(page notionapi.Page, property string) bool {
	if p, ok := page.Properties[property].(*notionapi.CheckboxProperty); ok {
		return p.Checkbox
	}
	return false
}
