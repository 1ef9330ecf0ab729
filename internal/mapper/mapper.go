// Package mapper turns a Notion page into a ClickUp task payload.
//
// Property names in the Notion database are not guaranteed, so every field is
// resolved through a list of preferred names and then falls back to the first
// property of a compatible type. Missing data never fails a mapping; it is
// logged and replaced by a default.
package mapper

import (
	"log/slog"
	"strings"

	"github.com/jomei/notionapi"

	"github.com/roksva123/taskbridge/internal/directory"
	"github.com/roksva123/taskbridge/internal/model"
	"github.com/roksva123/taskbridge/internal/notion"
)

const (
	titlePrefix   = "Task ::"
	untitled      = "Sem título"
	DefaultStatus = "in progress"
)

var (
	titleKeys       = []string{"Nome", "Name"}
	projectKeys     = []string{"Projetos", "Projetos do Notion", "Projeto", "Projects"}
	statusKeys      = []string{"Status"}
	ownerKeys       = []string{"Dono", "Donos", "Owner", "Responsável", "Responsaveis", "Responsáveis", "Assignee", "Assignees"}
	descriptionKeys = []string{"Descrição da necessidade", "Descrição", "Description"}
)

// statusMap translates Notion status names into ClickUp statuses.
var statusMap = map[string]string{
	"QA (WIP 3)": "qa",
	"Deploy":     "deploy",
	"Concluído":  "done",
}

// Mapper resolves owners through a user directory.
type Mapper struct {
	users *directory.Directory
	// reserved properties are written by the sync and never read as content.
	reserved map[string]bool
}

func New(users *directory.Directory, reserved ...string) *Mapper {
	m := &Mapper{users: users, reserved: make(map[string]bool, len(reserved))}
	for _, name := range reserved {
		m.reserved[name] = true
	}
	return m
}

// Map builds the task payload for a page.
func (m *Mapper) Map(page notionapi.Page) model.TaskPayload {
	slog.Debug("mapping page", "page_id", string(page.ID))

	return model.TaskPayload{
		Name:      TaskName(page),
		Status:    Status(page),
		Assignees: m.Assignees(page),
		Priority:  model.DefaultPriority,
	}
}

// TaskName composes "Task :: [project ]| title".
func TaskName(page notionapi.Page) string {
	name := titlePrefix
	if project := ProjectLabel(page); project != "" {
		name += " " + project
	}
	return name + " | " + Title(page)
}

// Title is the first fragment of the page title, or "Sem título".
func Title(page notionapi.Page) string {
	match, ok := notion.Find(page.Properties, titleKeys, notion.OfType(notionapi.PropertyTypeTitle))
	if !ok {
		return untitled
	}
	title, ok := match.Property.(*notionapi.TitleProperty)
	if !ok {
		return untitled
	}
	if text := notion.FirstFragment(title.Title); text != "" {
		return text
	}
	return untitled
}

// ProjectLabel is the selected project, first option for multi-selects.
func ProjectLabel(page notionapi.Page) string {
	match, ok := notion.Find(page.Properties, projectKeys,
		notion.OfType(notionapi.PropertyTypeSelect),
		notion.OfType(notionapi.PropertyTypeMultiSelect),
	)
	if !ok {
		return ""
	}

	switch p := match.Property.(type) {
	case *notionapi.SelectProperty:
		return p.Select.Name
	case *notionapi.MultiSelectProperty:
		if len(p.MultiSelect) > 0 {
			return p.MultiSelect[0].Name
		}
	}
	return ""
}

// Status translates the page status into the ClickUp vocabulary.
func Status(page notionapi.Page) string {
	match, ok := notion.Find(page.Properties, statusKeys,
		notion.OfType(notionapi.PropertyTypeStatus),
		notion.OfType(notionapi.PropertyTypeSelect),
	)
	if !ok {
		return DefaultStatus
	}

	var name string
	switch p := match.Property.(type) {
	case *notionapi.StatusProperty:
		name = p.Status.Name
	case *notionapi.SelectProperty:
		name = p.Select.Name
	}
	return TranslateStatus(name)
}

// TranslateStatus maps a Notion status name, falling back to DefaultStatus.
func TranslateStatus(name string) string {
	if name == "" {
		return DefaultStatus
	}
	if mapped, ok := statusMap[name]; ok {
		return mapped
	}
	slog.Warn("status not mapped, using default", "status", name, "default", DefaultStatus)
	return DefaultStatus
}

// Assignees resolves the page owners to ClickUp user ids.
// It returns nil when nobody resolves so the payload omits the field.
func (m *Mapper) Assignees(page notionapi.Page) []int64 {
	match, ok := notion.Find(page.Properties, ownerKeys,
		notion.OfType(notionapi.PropertyTypePeople),
		notion.OfType(notionapi.PropertyTypeMultiSelect),
	)
	if !ok {
		slog.Warn("no owner property found", "page_id", string(page.ID))
		return nil
	}
	return m.Resolve(OwnerIdentities(match.Property))
}

// OwnerIdentities extracts emails from people properties and labels from multi-selects.
func OwnerIdentities(prop notionapi.Property) []string {
	var keys []string
	switch p := prop.(type) {
	case *notionapi.PeopleProperty:
		for _, person := range p.People {
			if person.Person == nil || person.Person.Email == "" {
				slog.Warn("person in owner property has no email", "user_id", string(person.ID))
				continue
			}
			keys = append(keys, person.Person.Email)
		}
	case *notionapi.MultiSelectProperty:
		for _, opt := range p.MultiSelect {
			if opt.Name != "" {
				keys = append(keys, opt.Name)
			}
		}
		if len(keys) == 0 {
			slog.Warn("owner multi-select has no values")
		}
	}
	return keys
}

// Resolve maps identities through the directory, dropping unknown ones.
func (m *Mapper) Resolve(keys []string) []int64 {
	var ids []int64
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		id, ok := m.users.ClickUpID(key)
		if !ok {
			slog.Warn("identity not found in user directory, owner will not be assigned", "identity", key)
			continue
		}
		slog.Debug("mapped identity to clickup user", "identity", key, "clickup_id", id)
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil
	}
	return ids
}

// Description joins the description rich text, collapsing whitespace.
// An empty description is reported as "".
func (m *Mapper) Description(page notionapi.Page) string {
	for _, key := range descriptionKeys {
		if p, ok := page.Properties[key].(*notionapi.RichTextProperty); ok {
			if text := notion.CollapseWhitespace(notion.PlainText(p.RichText)); text != "" {
				return text
			}
		}
	}

	candidates := make(notionapi.Properties, len(page.Properties))
	for name, p := range page.Properties {
		if !m.reserved[name] {
			candidates[name] = p
		}
	}
	match, ok := notion.Find(candidates, descriptionKeys, notion.OfType(notionapi.PropertyTypeRichText))
	if !ok {
		return ""
	}
	p, ok := match.Property.(*notionapi.RichTextProperty)
	if !ok {
		return ""
	}
	return notion.CollapseWhitespace(notion.PlainText(p.RichText))
}
