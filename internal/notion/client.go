// Package notion wraps the Notion API for the sync jobs: flagged-page queries,
// page write-back, schema migration, and typed property lookup helpers.
package notion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jomei/notionapi"
)

// ErrPropertyType is returned when a schema property exists with another type.
var ErrPropertyType = errors.New("notion property has an unexpected type")

type databaseAPI interface {
	Query(ctx context.Context, id notionapi.DatabaseID, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	Get(ctx context.Context, id notionapi.DatabaseID) (*notionapi.Database, error)
	Update(ctx context.Context, id notionapi.DatabaseID, req *notionapi.DatabaseUpdateRequest) (*notionapi.Database, error)
}

type pageAPI interface {
	Update(ctx context.Context, id notionapi.PageID, req *notionapi.PageUpdateRequest) (*notionapi.Page, error)
}

// Client is bound to a single Notion database.
type Client struct {
	databases  databaseAPI
	pages      pageAPI
	databaseID notionapi.DatabaseID
}

// NewClient creates a client for the given integration token and database.
func NewClient(token, databaseID string, httpClient *http.Client) *Client {
	api := notionapi.NewClient(notionapi.Token(token), notionapi.WithHTTPClient(httpClient))
	return &Client{
		databases:  api.Database,
		pages:      api.Page,
		databaseID: notionapi.DatabaseID(databaseID),
	}
}

// QueryChecked returns every page whose checkbox property is true, following pagination.
func (c *Client) QueryChecked(ctx context.Context, property string) ([]notionapi.Page, error) {
	req := &notionapi.DatabaseQueryRequest{
		Filter: &notionapi.PropertyFilter{
			Property: property,
			Checkbox: &notionapi.CheckboxFilterCondition{Equals: true},
		},
	}

	var pages []notionapi.Page
	for {
		resp, err := c.databases.Query(ctx, c.databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("querying notion database: %w", err)
		}
		pages = append(pages, resp.Results...)
		if !resp.HasMore || resp.NextCursor == "" {
			return pages, nil
		}
		req.StartCursor = resp.NextCursor
	}
}

// UpdatePage writes the given properties in a single request.
func (c *Client) UpdatePage(ctx context.Context, pageID string, props notionapi.Properties) error {
	_, err := c.pages.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{Properties: props})
	if err != nil {
		return fmt.Errorf("updating notion page %s: %w", pageID, err)
	}
	return nil
}

// EnsureProperties adds missing checkbox or rich_text properties to the database schema.
// A property that exists with another type fails with ErrPropertyType and
// nothing is created, since pages cannot be written with those values.
func (c *Client) EnsureProperties(ctx context.Context, want map[string]notionapi.PropertyConfigType) error {
	db, err := c.databases.Get(ctx, c.databaseID)
	if err != nil {
		return fmt.Errorf("reading notion database schema: %w", err)
	}

	missing := notionapi.PropertyConfigs{}
	for name, typ := range want {
		if existing, ok := db.Properties[name]; ok {
			if got := existing.GetType(); got != typ {
				return fmt.Errorf("%w: %s is %s, want %s", ErrPropertyType, name, got, typ)
			}
			continue
		}
		cfg, err := propertyConfig(typ)
		if err != nil {
			return err
		}
		missing[name] = cfg
	}

	if len(missing) == 0 {
		return nil
	}

	for name := range missing {
		slog.Info("creating notion property", "property", name)
	}
	if _, err := c.databases.Update(ctx, c.databaseID, &notionapi.DatabaseUpdateRequest{Properties: missing}); err != nil {
		return fmt.Errorf("adding notion properties: %w", err)
	}
	return nil
}

func propertyConfig(typ notionapi.PropertyConfigType) (notionapi.PropertyConfig, error) {
	switch typ {
	case notionapi.PropertyConfigTypeCheckbox:
		return notionapi.CheckboxPropertyConfig{Type: notionapi.PropertyConfigTypeCheckbox}, nil
	case notionapi.PropertyConfigTypeRichText:
		return notionapi.RichTextPropertyConfig{Type: notionapi.PropertyConfigTypeRichText}, nil
	}
	return nil, fmt.Errorf("unsupported property type %q", typ)
}
