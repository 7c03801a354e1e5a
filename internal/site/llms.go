package site

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/mdexport"
	"git.home.luguber.info/inful/docsite/internal/render"
)

// LLMsIndex renders llms.txt: the site title, its tagline and one link
// per document grouped like the sidebar.
func (s *Site) LLMsIndex() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", s.cfg.Site.Title)
	if d := s.cfg.Site.Description; d != "" {
		fmt.Fprintf(&b, "\n> %s\n", d)
	}
	for _, g := range s.docs.Sidebar() {
		label := g.Label
		if label == "" {
			label = "Docs"
		}
		fmt.Fprintf(&b, "\n## %s\n\n", label)
		for _, d := range g.Docs {
			fmt.Fprintf(&b, "- [%s](%s)", d.Title, s.absolute(d.Slug))
			if d.Description != "" {
				fmt.Fprintf(&b, ": %s", d.Description)
			}
			b.WriteByte('\n')
		}
	}
	return []byte(b.String())
}

// LLMsFull renders llms-full.txt: every page converted back to Markdown,
// in the order given.
func (s *Site) LLMsFull(pages []*render.RenderedPage) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", s.cfg.Site.Title)
	for _, p := range pages {
		md, err := mdexport.Document(p.Doc.Title, p.HTML(), s.cfg.Site.URL)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Doc.ID, err)
		}
		fmt.Fprintf(&b, "\n---\n\nSource: %s\n\n%s", s.absolute(p.Doc.Slug), md)
	}
	return []byte(b.String()), nil
}

func (s *Site) absolute(slug string) string {
	if s.cfg.Site.URL == "" {
		return s.cfg.DocURL(slug)
	}
	return s.cfg.Permalink(slug)
}
