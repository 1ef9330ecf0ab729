// Package directory translates Notion identities (emails or display names)
// into ClickUp user ids and Microsoft Teams identities.
package directory

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed directory.yaml
var builtin []byte

// Entry is one person known to the integration.
type Entry struct {
	DisplayName string   `yaml:"display_name"`
	Email       string   `yaml:"email"`
	ClickUpID   *int64   `yaml:"clickup_id,omitempty"`
	TeamsUPN    string   `yaml:"teams_upn,omitempty"`
	Aliases     []string `yaml:"aliases,omitempty"`
}

// UPN returns the Teams identity, which defaults to the email.
func (e Entry) UPN() string {
	if e.TeamsUPN != "" {
		return e.TeamsUPN
	}
	return e.Email
}

// Keys returns every identity string that resolves to this entry.
func (e Entry) Keys() []string {
	keys := make([]string, 0, 2+len(e.Aliases))
	for _, k := range append([]string{e.Email, e.DisplayName}, e.Aliases...) {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

type file struct {
	Users []Entry `yaml:"users"`
}

// Directory is an immutable lookup table, safe for concurrent use.
type Directory struct {
	byKey map[string]Entry
	size  int
}

// Default returns the directory compiled into the binary.
func Default() *Directory {
	d, err := Parse(builtin)
	if err != nil {
		panic(fmt.Sprintf("builtin user directory: %v", err))
	}
	return d
}

// Load reads a directory file. An empty path returns the builtin directory.
func Load(path string) (*Directory, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading user directory: %w", err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing user directory %s: %w", path, err)
	}
	return d, nil
}

// Parse builds a directory from YAML. Keys must be unique across entries.
func Parse(data []byte) (*Directory, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	d := &Directory{byKey: make(map[string]Entry), size: len(f.Users)}
	for i, e := range f.Users {
		keys := e.Keys()
		if len(keys) == 0 {
			return nil, fmt.Errorf("entry %d has neither email nor display name", i)
		}
		for _, k := range keys {
			if prev, ok := d.byKey[k]; ok && prev.DisplayName != e.DisplayName {
				return nil, fmt.Errorf("identity %q is mapped twice (%s, %s)", k, prev.DisplayName, e.DisplayName)
			}
			d.byKey[k] = e
		}
	}
	return d, nil
}

// Lookup resolves an email or display name.
func (d *Directory) Lookup(key string) (Entry, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Entry{}, false
	}
	e, ok := d.byKey[key]
	return e, ok
}

// ClickUpID resolves an identity to a ClickUp user id.
// Identities without a ClickUp account report false.
func (d *Directory) ClickUpID(key string) (int64, bool) {
	e, ok := d.Lookup(key)
	if !ok || e.ClickUpID == nil {
		return 0, false
	}
	return *e.ClickUpID, true
}

// Len is the number of people in the directory.
func (d *Directory) Len() int {
	return d.size
}
