package site

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/content"
	"git.home.luguber.info/inful/docsite/internal/docmodel"
	"git.home.luguber.info/inful/docsite/internal/render"
)

type fakeContent struct {
	groups []content.Group
}

func (f fakeContent) Sidebar() []content.Group { return f.groups }

func (f fakeContent) ByID(id string) (*docmodel.DocumentNode, error) {
	for _, g := range f.groups {
		for _, d := range g.Docs {
			if d.ID == id {
				return d, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: id %s", content.ErrNotFound, id)
}

var (
	introDoc = &docmodel.DocumentNode{
		ID: "introduction", Title: "Introduction", Slug: "/", Source: "01-Introduction.md",
		Description: "Welcome",
	}
	faqDoc = &docmodel.DocumentNode{
		ID: "help/faq", Title: "FAQ", SidebarLabel: "Frequently Asked", Slug: "/help/faq",
		Source: "06-help/01-FAQ.md", Group: "help",
		LastUpdate: docmodel.LastUpdate{Author: "Jane Doe", Time: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)},
	}
	testContent = fakeContent{groups: []content.Group{
		{Name: "", Docs: []*docmodel.DocumentNode{introDoc}},
		{Name: "help", Label: "Help", Docs: []*docmodel.DocumentNode{faqDoc}},
	}}
	fixedNow = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
)

func newTestSite(t *testing.T, mutate ...func(*config.Config)) *Site {
	t.Helper()
	cfg := config.Example()
	for _, m := range mutate {
		m(cfg)
	}
	s, err := New(cfg, testContent, Options{Now: fixedNow})
	require.NoError(t, err)
	return s
}

func TestOutputPath(t *testing.T) {
	s := newTestSite(t)
	assert.Equal(t, "docs/index.html", s.OutputPath("/"))
	assert.Equal(t, "docs/help/faq.html", s.OutputPath("/help/faq"))

	s = newTestSite(t, func(c *config.Config) { c.Build.TrailingSlash = true })
	assert.Equal(t, "docs/help/faq/index.html", s.OutputPath("/help/faq"))
	assert.Equal(t, "docs/index.html", s.OutputPath("/"))

	s = newTestSite(t, func(c *config.Config) { c.Content.RouteBase = "/" })
	assert.Equal(t, "help/faq.html", s.OutputPath("/help/faq"))
	assert.Equal(t, "index.html", s.OutputPath("/"))
}

func TestPage(t *testing.T) {
	s := newTestSite(t)
	page := &render.RenderedPage{
		Doc:       faqDoc,
		Fragments: []render.Fragment{{Kind: docmodel.BlockParagraph, HTML: "<p>Answers live here.</p>\n"}},
		TOC: []docmodel.TOCEntry{
			{Level: 2, Text: "Usage", AnchorID: "usage"},
			{Level: 3, Text: "Limits", AnchorID: "limits"},
			{Level: 4, Text: "Deep", AnchorID: "deep"},
		},
		Nav: docmodel.NavigationEdge{Prev: introDoc.Link()},
	}

	out, err := s.Page(page)
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, "<title>FAQ | Ignition Ewon® Connector</title>")
	assert.Contains(t, html, `<link rel="canonical" href="https://hms-networks.github.io/IgnitionEwonConnector/docs/help/faq">`)
	assert.Contains(t, html, `<link rel="icon" href="/IgnitionEwonConnector/img/favicon.ico">`)
	assert.Contains(t, html, `<link rel="stylesheet" href="/IgnitionEwonConnector/assets/docsite.css">`)
	assert.Contains(t, html, "<p>Answers live here.</p>")

	// navbar
	assert.Contains(t, html, `<a class="navbar-item" href="/IgnitionEwonConnector/docs/">Documentation</a>`)
	assert.Contains(t, html, `href="https://github.com/hms-networks/IgnitionEwonConnector/releases/latest" target="_blank"`)
	assert.Contains(t, html, `<img class="navbar-logo" src="/IgnitionEwonConnector/img/hms-logo-rgb.webp" alt="HMS Networks Logo">`)

	// sidebar
	assert.Contains(t, html, `<a href="/IgnitionEwonConnector/docs/help/faq" class="active" aria-current="page">Frequently Asked</a>`)
	assert.Contains(t, html, "<h3>Help</h3>")

	// toc honours the default heading bounds
	assert.Contains(t, html, `<li class="toc-indent-0"><a href="#usage">Usage</a></li>`)
	assert.Contains(t, html, `<li class="toc-indent-1"><a href="#limits">Limits</a></li>`)
	assert.NotContains(t, html, `href="#deep"`)

	assert.Contains(t, html, `<a class="pagination-prev" href="/IgnitionEwonConnector/docs/"><span>Previous</span> Introduction</a>`)
	assert.NotContains(t, html, "pagination-next")
	assert.Contains(t, html, `href="https://github.com/hms-networks/IgnitionEwonConnector/docs/06-help/01-FAQ.md"`)
	assert.Contains(t, html, "Last updated on Mar 5, 2024 by Jane Doe")
	assert.Contains(t, html, "Copyright © 2026 HMS Networks Inc.")
	assert.Contains(t, html, `<footer class="footer footer-dark">`)
}

func TestPage_Deterministic(t *testing.T) {
	s := newTestSite(t)
	page := &render.RenderedPage{Doc: introDoc, Nav: docmodel.NavigationEdge{Next: faqDoc.Link()}}

	first, err := s.Page(page)
	require.NoError(t, err)
	second, err := s.Page(page)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.NotContains(t, string(first), "last-updated")
}

func TestPage_EditLinksDisabled(t *testing.T) {
	s := newTestSite(t, func(c *config.Config) { c.Content.EditURL = "none" })
	out, err := s.Page(&render.RenderedPage{Doc: faqDoc})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "Edit this page")
}

func TestHome(t *testing.T) {
	s := newTestSite(t)
	out, err := s.Home()
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, "<title>Ignition Ewon® Connector</title>")
	assert.Contains(t, html, `<h1 class="hero-title">Ignition Ewon® Connector</h1>`)
	assert.Contains(t, html, `<a class="button" href="/IgnitionEwonConnector/docs">Documentation</a>`)
	assert.Contains(t, html, `<a class="button" href="/IgnitionEwonConnector/docs/quick-start-guide">Quick Start Guide</a>`)
	assert.Contains(t, html, `<a class="button" href="https://github.com/hms-networks/IgnitionEwonConnector" target="_blank"`)
	assert.Contains(t, html, `<img class="feature-image" src="/IgnitionEwonConnector/img/plc-animation.gif" alt="">`)
	assert.Contains(t, html, `<link rel="canonical" href="https://hms-networks.github.io/IgnitionEwonConnector/">`)
}

func TestHome_DisabledRedirects(t *testing.T) {
	s := newTestSite(t, func(c *config.Config) { c.Homepage.Disabled = true })
	out, err := s.Home()
	require.NoError(t, err)
	assert.Contains(t, string(out), `<meta http-equiv="refresh" content="0; url=/IgnitionEwonConnector/docs/">`)
}

func TestNotFound(t *testing.T) {
	out, err := newTestSite(t).NotFound()
	require.NoError(t, err)
	assert.Contains(t, string(out), "<h1>Page Not Found</h1>")
	assert.Contains(t, string(out), "<title>Page Not Found | Ignition Ewon® Connector</title>")
}

func TestSitemap(t *testing.T) {
	s := newTestSite(t)
	out, err := s.Sitemap([]*docmodel.DocumentNode{introDoc, faqDoc})
	require.NoError(t, err)
	xml := string(out)

	assert.True(t, strings.HasPrefix(xml, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, xml, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	assert.Contains(t, xml, "<loc>https://hms-networks.github.io/IgnitionEwonConnector/</loc>")
	assert.Contains(t, xml, "<loc>https://hms-networks.github.io/IgnitionEwonConnector/docs/</loc>")
	assert.Contains(t, xml, "<loc>https://hms-networks.github.io/IgnitionEwonConnector/docs/help/faq</loc>\n    <lastmod>2024-03-05</lastmod>")
	assert.Equal(t, 3, strings.Count(xml, "<url>"))

	s = newTestSite(t, func(c *config.Config) { c.Site.URL = "" })
	out, err = s.Sitemap([]*docmodel.DocumentNode{introDoc})
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestLLMsIndex(t *testing.T) {
	out := string(newTestSite(t).LLMsIndex())

	assert.True(t, strings.HasPrefix(out, "# Ignition Ewon® Connector\n\n> Synchronize Ewon Flexy data"))
	assert.Contains(t, out, "\n## Docs\n\n- [Introduction](https://hms-networks.github.io/IgnitionEwonConnector/docs/): Welcome\n")
	assert.Contains(t, out, "\n## Help\n\n- [FAQ](https://hms-networks.github.io/IgnitionEwonConnector/docs/help/faq)\n")
}

func TestLLMsFull(t *testing.T) {
	s := newTestSite(t)
	out, err := s.LLMsFull([]*render.RenderedPage{{
		Doc:       faqDoc,
		Fragments: []render.Fragment{{HTML: "<p>Answers live here.</p>"}},
	}})
	require.NoError(t, err)

	assert.Contains(t, string(out), "Source: https://hms-networks.github.io/IgnitionEwonConnector/docs/help/faq\n\n# FAQ\n\nAnswers live here.\n")
}
