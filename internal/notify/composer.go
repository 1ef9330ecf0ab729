package notify

import (
	"log/slog"

	"github.com/jomei/notionapi"

	"github.com/roksva123/taskbridge/internal/directory"
	"github.com/roksva123/taskbridge/internal/mapper"
	"github.com/roksva123/taskbridge/internal/notion"
)

var imageKeys = []string{"Arquivos e mídia", "Files & media"}

// Mentioned identifies a Teams user by UPN.
type Mentioned struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Entity is a Teams mention entity.
type Entity struct {
	Type      string    `json:"type"`
	Text      string    `json:"text"`
	Mentioned Mentioned `json:"mentioned"`
}

// ChatMessage is the completion message posted to Teams.
type ChatMessage struct {
	Text     string   `json:"text"`
	Entities []Entity `json:"entities,omitempty"`
}

// Composer turns a completed Notion page into a ChatMessage.
type Composer struct {
	mapper   *mapper.Mapper
	users    *directory.Directory
	mentions []string
}

// NewComposer creates a composer that always mentions the given display names.
func NewComposer(m *mapper.Mapper, users *directory.Directory, mentions []string) *Composer {
	return &Composer{mapper: m, users: users, mentions: mentions}
}

// Compose builds the message for page.
func (c *Composer) Compose(page notionapi.Page) ChatMessage {
	name := mapper.TaskName(page)
	description := c.mapper.Description(page)

	headline := "**Tarefa Concluída: " + name
	if description != "" {
		headline += " [" + description + "]"
	}
	headline += "**"

	msg := ChatMessage{Text: headline}
	if url := ImageURL(page); url != "" {
		msg.Text += "\nClique no link para visualizar o contexto da solicitação: [Visualizar imagem](" + url + ")"
	}
	msg.Entities = c.entities()
	return msg
}

func (c *Composer) entities() []Entity {
	var out []Entity
	for _, name := range c.mentions {
		entry, ok := c.users.Lookup(name)
		if !ok || entry.UPN() == "" {
			slog.Warn("mention target not found in user directory", "name", name)
			continue
		}
		out = append(out, Entity{
			Type:      "mention",
			Text:      "<at>" + entry.DisplayName + "</at>",
			Mentioned: Mentioned{ID: entry.UPN(), Name: entry.DisplayName},
		})
	}
	return out
}

// ImageURL returns the first attachment of the page's media property, if any.
func ImageURL(page notionapi.Page) string {
	match, ok := notion.Find(page.Properties, imageKeys, notion.OfType(notionapi.PropertyTypeFiles))
	if !ok {
		return ""
	}
	files, ok := match.Property.(*notionapi.FilesProperty)
	if !ok {
		return ""
	}
	return notion.FileURL(files.Files)
}
