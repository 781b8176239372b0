package rustdoc

import (
	"encoding/json"
	"strconv"
)

// Crate is the top-level structure of rustdoc JSON output.
type Crate struct {
	Root           int                      `json:"root"`
	CrateVersion   *string                  `json:"crate_version"`
	Index          map[string]Item          `json:"index"`
	Paths          map[string]Summary       `json:"paths"`
	ExternalCrates map[string]ExternalCrate `json:"external_crates"`
	FormatVersion  int                      `json:"format_version"`
}

// ExternalCrate identifies a dependency crate by name.
type ExternalCrate struct {
	Name        string `json:"name"`
	HTMLRootURL string `json:"html_root_url"`
}

// Item is a single item in the rustdoc index.
type Item struct {
	ID      int             `json:"id"`
	CrateID int             `json:"crate_id"`
	Name    *string         `json:"name"`
	Docs    *string         `json:"docs"`
	Links   map[string]int  `json:"links"` // markdown text → item ID
	Inner   json.RawMessage `json:"inner"`
}

// Summary provides the path and kind for an item.
type Summary struct {
	CrateID int      `json:"crate_id"`
	Path    []string `json:"path"`
	Kind    string   `json:"kind"`
}

func (c *Crate) item(id int) (Item, bool) {
	it, ok := c.Index[itoa(id)]
	return it, ok
}

// local reports whether id names an item defined in this crate.
func (c *Crate) local(id int) (Item, bool) {
	it, ok := c.item(id)
	return it, ok && it.CrateID == 0
}

// innerKind extracts the kind from the inner JSON's single key.
func innerKind(inner json.RawMessage) string {
	if len(inner) == 0 {
		return "unknown"
	}
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(inner, &outer); err != nil {
		return "unknown"
	}
	for k := range outer {
		return k
	}
	return "unknown"
}

// unwrapInner extracts the inner data for a given kind from an Item's Inner field.
// Inner is shaped like {"struct": {...}} or {"enum": {...}}.
func unwrapInner(inner json.RawMessage, kind string) json.RawMessage {
	if len(inner) == 0 {
		return nil
	}
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(inner, &outer); err != nil {
		return nil
	}
	data, ok := outer[kind]
	if !ok {
		return nil
	}
	return data
}

func nameOf(it Item) string {
	if it.Name == nil {
		return ""
	}
	return *it.Name
}

func itoa(id int) string { return strconv.Itoa(id) }
