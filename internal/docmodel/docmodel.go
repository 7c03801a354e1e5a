// Package docmodel defines the in-memory representation of a documentation
// page: its metadata, its content tree of blocks and inline runs, and the
// navigation and table-of-contents records derived from it.
//
// Values in this package are produced by the content store and treated as
// immutable afterwards. Renderers only read them.
package docmodel

import (
	"strconv"
	"strings"
	"time"
)

// DocumentNode is one documentation page (or partial) after loading.
type DocumentNode struct {
	// ID is unique across the site, e.g. "help/faq".
	ID           string
	Title        string
	SidebarLabel string
	// Slug is the route of the page relative to the docs base, always starting with "/".
	Slug     string
	Position int
	// Group is the sidebar group (directory path with numeric prefixes stripped). Root is "".
	Group string
	// Source is the slash separated path relative to the content directory.
	Source      string
	Description string
	TOCMinLevel int
	TOCMaxLevel int
	Draft       bool
	// Partial marks reusable fragments that are never rendered as pages on their own.
	Partial bool
	// Component is the registry name of a partial.
	Component   string
	FrontMatter FrontMatter
	Blocks      []Block
	Fingerprint string
	LastUpdate  LastUpdate
}

// Label is the text shown in the sidebar and prev/next links.
func (d *DocumentNode) Label() string {
	if d.SidebarLabel != "" {
		return d.SidebarLabel
	}
	return d.Title
}

// Link returns the navigation record pointing at d.
func (d *DocumentNode) Link() *NavLink {
	return &NavLink{ID: d.ID, Title: d.Label(), Slug: d.Slug}
}

// LastUpdate records when and by whom the source file was last changed.
// The zero value means unknown.
type LastUpdate struct {
	Author string
	Time   time.Time
}

// IsZero reports whether no update information is available.
func (u LastUpdate) IsZero() bool { return u.Author == "" && u.Time.IsZero() }

// FrontMatter holds the scalar front matter values that have no dedicated
// field. Values are string, bool, int or []string.
type FrontMatter map[string]any

// String returns the value of key formatted as a string when it is scalar.
func (f FrontMatter) String(key string) (string, bool) {
	switch v := f[key].(type) {
	case string:
		return v, true
	case []string:
		return strings.Join(v, ", "), true
	case int:
		return strconv.Itoa(v), true
	default:
		return "", false
	}
}

// Bool returns the boolean value of key.
func (f FrontMatter) Bool(key string) (bool, bool) {
	v, ok := f[key].(bool)
	return v, ok
}

// TOCEntry is one line of a page's table of contents.
type TOCEntry struct {
	Level    int    `json:"level"`
	Text     string `json:"text"`
	AnchorID string `json:"anchor_id"`
}

// NavLink points at another document.
type NavLink struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// NavigationEdge holds the previous and next documents of a page in sidebar
// order. Either side may be nil.
type NavigationEdge struct {
	Prev *NavLink `json:"prev,omitempty"`
	Next *NavLink `json:"next,omitempty"`
}
