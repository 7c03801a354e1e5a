// Package site lays rendered documents out as HTML pages (navbar, sidebar,
// table of contents, prev/next links, footer), produces the homepage and
// the site-wide files (sitemap.xml, llms.txt), and writes the output tree.
package site

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"path"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/content"
	"git.home.luguber.info/inful/docsite/internal/docmodel"
	"git.home.luguber.info/inful/docsite/internal/render"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed assets/docsite.css
var stylesheet []byte

// StylesheetPath is where the embedded stylesheet is written.
const StylesheetPath = "assets/docsite.css"

// Content is the part of the content store the layout needs.
type Content interface {
	Sidebar() []content.Group
	ByID(id string) (*docmodel.DocumentNode, error)
}

// Options configures New.
type Options struct {
	// Now stamps the {year} placeholder of the footer; time.Now when nil.
	Now func() time.Time
}

// Site renders the pages of one build. It is safe for concurrent use.
type Site struct {
	cfg    *config.Config
	docs   Content
	vars   *strings.Replacer
	chrome chrome

	doc      *template.Template
	home     *template.Template
	notFound *template.Template
	redirect *template.Template
}

// New parses the layout templates and resolves the navbar and footer.
func New(cfg *config.Config, docs Content, opts Options) (*Site, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Site{cfg: cfg, docs: docs, vars: varReplacer(cfg.Vars())}

	base, err := template.New("layout.html").Funcs(template.FuncMap{
		"indent": func(level int) int { return level - 2 },
	}).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	for name, dst := range map[string]**template.Template{
		"doc.html":  &s.doc,
		"home.html": &s.home,
		"404.html":  &s.notFound,
	} {
		t, err := template.Must(base.Clone()).ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		*dst = t
	}
	if s.redirect, err = template.ParseFS(templateFS, "templates/redirect.html"); err != nil {
		return nil, fmt.Errorf("parse redirect.html: %w", err)
	}

	s.chrome = s.buildChrome(opts.Now())
	return s, nil
}

func varReplacer(vars map[string]string) *strings.Replacer {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{site."+k+"}", v)
	}
	return strings.NewReplacer(pairs...)
}

// OutputPath is the output-relative file a document is written to:
// "<route_base>/<slug>.html", or "<route_base>/<slug>/index.html" with
// trailing slashes. The root document is always an index.html.
func (s *Site) OutputPath(slug string) string {
	dir := strings.Trim(s.cfg.Content.RouteBase, "/")
	rel := strings.Trim(slug, "/")
	switch {
	case rel == "":
		return path.Join(dir, "index.html")
	case s.cfg.Build.TrailingSlash:
		return path.Join(dir, rel, "index.html")
	default:
		return path.Join(dir, rel+".html")
	}
}

type link struct {
	Label    string
	URL      string
	External bool
	Active   bool
}

type image struct {
	Src string
	Alt string
}

type footerColumn struct {
	Title string
	Links []link
}

type chrome struct {
	Title     string
	HomeURL   string
	Logo      *image
	Left      []link
	Right     []link
	Style     string
	Columns   []footerColumn
	Copyright string
}

type pageData struct {
	Lang        string
	Title       string
	Description string
	Canonical   string
	Favicon     string
	Stylesheet  string
	Chrome      chrome
	Main        any
}

type sidebarGroup struct {
	Label string
	Items []link
}

type docView struct {
	Title      string
	HTML       template.HTML
	TOC        []docmodel.TOCEntry
	Sidebar    []sidebarGroup
	Prev       *link
	Next       *link
	EditURL    string
	LastUpdate string
}

type feature struct {
	Title       string
	Image       string
	Description string
}

type homeView struct {
	Title    string
	Tagline  string
	Buttons  []link
	Features []feature
}

// href expands placeholders and maps site paths below the base URL.
func (s *Site) href(raw string) link {
	u := s.vars.Replace(raw)
	if strings.Contains(u, "://") || strings.HasPrefix(u, "mailto:") {
		return link{URL: u, External: true}
	}
	return link{URL: s.cfg.SiteURL(u)}
}

func (s *Site) buildChrome(now time.Time) chrome {
	c := chrome{
		Title:     s.cfg.Navbar.Title,
		HomeURL:   s.cfg.SiteURL("/"),
		Style:     s.cfg.Footer.Style,
		Copyright: strings.ReplaceAll(s.cfg.Footer.Copyright, "{year}", strconv.Itoa(now.Year())),
	}
	if c.Title == "" {
		c.Title = s.cfg.Site.Title
	}
	if logo := s.cfg.Navbar.Logo; logo != nil && logo.Src != "" {
		c.Logo = &image{Src: s.cfg.SiteURL(logo.Src), Alt: logo.Alt}
	}
	for _, item := range s.cfg.Navbar.Items {
		var l link
		if item.DocID != "" {
			l = link{URL: s.cfg.DocURL("/")}
			if doc, err := s.docs.ByID(item.DocID); err == nil {
				l.URL = s.cfg.DocURL(doc.Slug)
			}
		} else {
			l = s.href(item.Href)
		}
		l.Label = item.Label
		if item.Position == config.NavbarRight {
			c.Right = append(c.Right, l)
		} else {
			c.Left = append(c.Left, l)
		}
	}
	for _, col := range s.cfg.Footer.Links {
		fc := footerColumn{Title: col.Title}
		for _, item := range col.Items {
			l := s.href(item.Href)
			l.Label = item.Label
			fc.Links = append(fc.Links, l)
		}
		c.Columns = append(c.Columns, fc)
	}
	return c
}

func (s *Site) page(title, description, canonical string, main any) pageData {
	full := s.cfg.Site.Title
	if title != "" && title != full {
		full = title + " | " + full
	}
	lang := s.cfg.Site.Language
	if lang == "" {
		lang = "en"
	}
	d := pageData{
		Lang:        lang,
		Title:       full,
		Description: description,
		Stylesheet:  s.cfg.SiteURL(StylesheetPath),
		Chrome:      s.chrome,
		Main:        main,
	}
	if s.cfg.Site.URL != "" {
		d.Canonical = canonical
	}
	if s.cfg.Site.Favicon != "" {
		d.Favicon = s.cfg.SiteURL(s.cfg.Site.Favicon)
	}
	return d
}

// Page lays out a rendered document.
func (s *Site) Page(p *render.RenderedPage) ([]byte, error) {
	doc := p.Doc
	v := docView{
		Title:   doc.Title,
		HTML:    template.HTML(p.HTML()), // #nosec G203 -- produced by the renderer, which escapes text
		TOC:     p.VisibleTOC(),
		Sidebar: s.sidebar(doc.ID),
		EditURL: s.cfg.EditURL(doc.Source),
	}
	if p.Nav.Prev != nil {
		v.Prev = &link{Label: p.Nav.Prev.Title, URL: s.cfg.DocURL(p.Nav.Prev.Slug)}
	}
	if p.Nav.Next != nil {
		v.Next = &link{Label: p.Nav.Next.Title, URL: s.cfg.DocURL(p.Nav.Next.Slug)}
	}
	if !doc.LastUpdate.IsZero() {
		v.LastUpdate = lastUpdated(doc.LastUpdate)
	}
	return execute(s.doc, s.page(doc.Title, doc.Description, s.cfg.Permalink(doc.Slug), v))
}

func lastUpdated(u docmodel.LastUpdate) string {
	var b strings.Builder
	b.WriteString("Last updated")
	if !u.Time.IsZero() {
		b.WriteString(" on " + u.Time.UTC().Format("Jan 2, 2006"))
	}
	if u.Author != "" {
		b.WriteString(" by " + u.Author)
	}
	return b.String()
}

func (s *Site) sidebar(activeID string) []sidebarGroup {
	groups := s.docs.Sidebar()
	out := make([]sidebarGroup, 0, len(groups))
	for _, g := range groups {
		sg := sidebarGroup{Label: g.Label}
		for _, d := range g.Docs {
			sg.Items = append(sg.Items, link{Label: d.Label(), URL: s.cfg.DocURL(d.Slug), Active: d.ID == activeID})
		}
		out = append(out, sg)
	}
	return out
}

// Home renders the landing page, or a redirect to the documentation root
// when the homepage is disabled.
func (s *Site) Home() ([]byte, error) {
	if s.cfg.Homepage.Disabled {
		return execute(s.redirect, map[string]string{"URL": s.cfg.DocURL("/")})
	}
	v := homeView{Title: s.cfg.Site.Title, Tagline: s.cfg.Site.Description}
	for _, b := range s.cfg.Homepage.Buttons {
		l := s.href(b.To)
		l.Label = b.Label
		v.Buttons = append(v.Buttons, l)
	}
	for _, f := range s.cfg.Homepage.Features {
		ft := feature{Title: f.Title, Description: f.Description}
		if f.Image != "" {
			ft.Image = s.cfg.SiteURL(f.Image)
		}
		v.Features = append(v.Features, ft)
	}
	description := s.cfg.Site.Meta
	if description == "" {
		description = s.cfg.Site.Description
	}
	canonical := strings.TrimSuffix(s.cfg.Site.URL, "/") + s.cfg.SiteURL("/")
	return execute(s.home, s.page("", description, canonical, v))
}

// NotFound renders 404.html.
func (s *Site) NotFound() ([]byte, error) {
	return execute(s.notFound, s.page("Page Not Found", "", "", nil))
}

// Stylesheet returns the embedded CSS.
func Stylesheet() []byte { return bytes.Clone(stylesheet) }

func execute(t *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute %s: %w", t.Name(), err)
	}
	return buf.Bytes(), nil
}
