package render

import (
	"strings"

	"git.home.luguber.info/inful/docsite/internal/docmodel"
	"git.home.luguber.info/inful/docsite/internal/frontmatter"
)

// Fragment is the HTML of one top level block. Blocks spliced in by a top
// level component reference become fragments of their own.
type Fragment struct {
	Kind docmodel.BlockKind
	// Line is the source line of the top level block in the page.
	Line int
	// Component is the outermost component that produced the fragment, "" for page content.
	Component string
	HTML      string
}

// RenderedPage bundles everything a layout needs for one document.
type RenderedPage struct {
	Doc       *docmodel.DocumentNode
	Fragments []Fragment
	// TOC holds every heading in document order, including those spliced in by components.
	TOC []docmodel.TOCEntry
	Nav docmodel.NavigationEdge
	// Components lists the names expanded while rendering, sorted.
	Components []string
}

// HTML concatenates the fragments.
func (p *RenderedPage) HTML() string {
	var b strings.Builder
	for _, f := range p.Fragments {
		b.WriteString(f.HTML)
	}
	return b.String()
}

// VisibleTOC applies the document's toc_min/toc_max heading levels.
func (p *RenderedPage) VisibleTOC() []docmodel.TOCEntry {
	lo, hi := frontmatter.DefaultTOCMinLevel, frontmatter.DefaultTOCMaxLevel
	if p.Doc != nil {
		if p.Doc.TOCMinLevel > 0 {
			lo = p.Doc.TOCMinLevel
		}
		if p.Doc.TOCMaxLevel > 0 {
			hi = p.Doc.TOCMaxLevel
		}
	}
	out := make([]docmodel.TOCEntry, 0, len(p.TOC))
	for _, e := range p.TOC {
		if e.Level >= lo && e.Level <= hi {
			out = append(out, e)
		}
	}
	return out
}
