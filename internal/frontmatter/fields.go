package frontmatter

import (
	"bytes"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Default table of contents heading bounds.
const (
	DefaultTOCMinLevel = 2
	DefaultTOCMaxLevel = 3
)

// Fields are the decoded front matter of one document.
type Fields struct {
	ID           string
	Title        string
	SidebarLabel string
	// Position is nil when neither sidebar_position nor sidebarPosition is set.
	Position    *int
	TOCMinLevel int
	TOCMaxLevel int
	Slug        string
	Description string
	Draft       bool
	Component   string
	// Extra keeps unknown keys whose values are scalars or lists of scalars.
	Extra map[string]any
}

// FieldError reports a front matter key with an unusable value.
type FieldError struct {
	Field string
	// Line is relative to the first line inside the delimiters, 0 when unknown.
	Line   int
	Reason string
}

func (e *FieldError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("front matter field %q (line %d): %s", e.Field, e.Line, e.Reason)
	}
	return fmt.Sprintf("front matter field %q: %s", e.Field, e.Reason)
}

// Parse decodes raw front matter (without delimiters). An empty input yields
// zero Fields with default TOC bounds.
func Parse(raw []byte) (Fields, error) {
	f := Fields{TOCMinLevel: DefaultTOCMinLevel, TOCMaxLevel: DefaultTOCMaxLevel, Extra: map[string]any{}}
	if len(bytes.TrimSpace(raw)) == 0 {
		return f, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Fields{}, fmt.Errorf("invalid yaml: %w", err)
	}
	if len(doc.Content) == 0 {
		return f, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return Fields{}, &FieldError{Field: "(root)", Line: root.Line, Reason: "front matter must be a mapping"}
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i].Value, root.Content[i+1]
		if err := f.set(key, val); err != nil {
			return Fields{}, err
		}
	}
	return f, nil
}

func (f *Fields) set(key string, val *yaml.Node) error {
	switch key {
	case "id":
		return scalarString(key, val, &f.ID)
	case "title":
		return scalarString(key, val, &f.Title)
	case "sidebar_label":
		return scalarString(key, val, &f.SidebarLabel)
	case "slug":
		return scalarString(key, val, &f.Slug)
	case "description":
		return scalarString(key, val, &f.Description)
	case "component":
		return scalarString(key, val, &f.Component)
	case "sidebar_position", "sidebarPosition":
		var n int
		if err := scalarInt(key, val, &n); err != nil {
			return err
		}
		f.Position = &n
	case "toc_min_heading_level":
		return headingLevel(key, val, &f.TOCMinLevel)
	case "toc_max_heading_level":
		return headingLevel(key, val, &f.TOCMaxLevel)
	case "draft":
		if err := val.Decode(&f.Draft); err != nil {
			return &FieldError{Field: key, Line: val.Line, Reason: "must be a boolean"}
		}
	default:
		if v, ok := extraValue(val); ok {
			f.Extra[key] = v
		}
	}
	return nil
}

// Validate checks the fields every page must carry and the TOC bounds.
func (f Fields) Validate() error {
	if f.ID == "" {
		return &FieldError{Field: "id", Reason: "required"}
	}
	if f.Title == "" {
		return &FieldError{Field: "title", Reason: "required"}
	}
	if f.TOCMinLevel > f.TOCMaxLevel {
		return &FieldError{Field: "toc_min_heading_level", Reason: "must not exceed toc_max_heading_level"}
	}
	return nil
}

func scalarString(key string, val *yaml.Node, dst *string) error {
	if val.Kind != yaml.ScalarNode {
		return &FieldError{Field: key, Line: val.Line, Reason: "must be a string"}
	}
	*dst = val.Value
	return nil
}

func scalarInt(key string, val *yaml.Node, dst *int) error {
	if val.Kind != yaml.ScalarNode {
		return &FieldError{Field: key, Line: val.Line, Reason: "must be an integer"}
	}
	n, err := strconv.Atoi(val.Value)
	if err != nil {
		return &FieldError{Field: key, Line: val.Line, Reason: "must be an integer"}
	}
	*dst = n
	return nil
}

func headingLevel(key string, val *yaml.Node, dst *int) error {
	var n int
	if err := scalarInt(key, val, &n); err != nil {
		return err
	}
	if n < 1 || n > 6 {
		return &FieldError{Field: key, Line: val.Line, Reason: "must be between 1 and 6"}
	}
	*dst = n
	return nil
}

func extraValue(val *yaml.Node) (any, bool) {
	switch val.Kind {
	case yaml.ScalarNode:
		switch val.ShortTag() {
		case "!!bool":
			var b bool
			if err := val.Decode(&b); err == nil {
				return b, true
			}
		case "!!int":
			if n, err := strconv.Atoi(val.Value); err == nil {
				return n, true
			}
		case "!!null":
			return nil, false
		}
		return val.Value, true
	case yaml.SequenceNode:
		out := make([]string, 0, len(val.Content))
		for _, item := range val.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, false
			}
			out = append(out, item.Value)
		}
		return out, true
	default:
		return nil, false
	}
}
