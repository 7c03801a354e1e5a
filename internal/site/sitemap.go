package site

import (
	"encoding/xml"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/docmodel"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// Sitemap lists the homepage and every document. Without site.url there
// are no absolute URLs to list and it returns nil.
func (s *Site) Sitemap(docs []*docmodel.DocumentNode) ([]byte, error) {
	if s.cfg.Site.URL == "" {
		return nil, nil
	}
	set := urlset{Xmlns: sitemapNS}
	if !s.cfg.Homepage.Disabled {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        strings.TrimSuffix(s.cfg.Site.URL, "/") + s.cfg.SiteURL("/"),
			ChangeFreq: "weekly",
			Priority:   "0.5",
		})
	}
	for _, d := range docs {
		u := sitemapURL{Loc: s.cfg.Permalink(d.Slug), ChangeFreq: "weekly", Priority: "0.5"}
		if !d.LastUpdate.Time.IsZero() {
			u.LastMod = d.LastUpdate.Time.UTC().Format("2006-01-02")
		}
		set.URLs = append(set.URLs, u)
	}
	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}
