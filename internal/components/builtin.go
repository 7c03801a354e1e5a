package components

import (
	"path"
	"path/filepath"

	"git.home.luguber.info/inful/docsite/internal/content"
	"git.home.luguber.info/inful/docsite/internal/docmodel"
)

// SidebarSource provides the sidebar groups of a content store.
type SidebarSource interface {
	Sidebar() []content.Group
}

// RegisterBuiltins adds the components every site has.
func RegisterBuiltins(reg *Registry, sidebar SidebarSource) error {
	return reg.Register("DocCardList", DocCardList(sidebar))
}

// DocCardList lists the other pages of the current page's group as cards
// (title link plus description). The `group` prop selects another group.
func DocCardList(sidebar SidebarSource) RenderFunc {
	return func(inv Invocation) ([]docmodel.Block, error) {
		group := ""
		if inv.Doc != nil {
			group = inv.Doc.Group
		}
		if g, ok := inv.Props["group"]; ok {
			group = g
		}

		var items [][]docmodel.Block
		for _, g := range sidebar.Sidebar() {
			if g.Name != group {
				continue
			}
			for _, d := range g.Docs {
				if inv.Doc != nil && d.ID == inv.Doc.ID {
					continue
				}
				card := []docmodel.Block{docmodel.Paragraph([]docmodel.InlineRun{
					docmodel.Link(relativeSource(inv.Doc, d), docmodel.Strong(docmodel.Text(d.Label()))),
				})}
				if d.Description != "" {
					card = append(card, docmodel.Paragraph([]docmodel.InlineRun{docmodel.Text(d.Description)}))
				}
				items = append(items, card)
			}
		}
		if len(items) == 0 {
			return nil, nil
		}
		return []docmodel.Block{docmodel.List(items, false, 0)}, nil
	}
}

// relativeSource links to target's source file the way an author would, so
// the renderer's Markdown link rewriting turns it into a permalink.
func relativeSource(from, target *docmodel.DocumentNode) string {
	if from == nil {
		return "/" + target.Source
	}
	rel, err := filepath.Rel(filepath.FromSlash(path.Dir(from.Source)), filepath.FromSlash(target.Source))
	if err != nil {
		return "/" + target.Source
	}
	return filepath.ToSlash(rel)
}
