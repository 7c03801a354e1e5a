package config

import (
	"path"
	"path/filepath"
	"strings"
)

// SiteConfig is the site identity plus the repository coordinates links are
// derived from.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	// Meta is the homepage meta description.
	Meta string `yaml:"meta,omitempty"`
	// URL is the scheme and host the site is published on.
	URL string `yaml:"url,omitempty"`
	// BaseURL is the path prefix of every page, with leading and trailing slash.
	BaseURL  string `yaml:"base_url,omitempty"`
	Favicon  string `yaml:"favicon,omitempty"`
	Language string `yaml:"language,omitempty"`

	RepoHost      string `yaml:"repo_host,omitempty"`
	RepoOwnerName string `yaml:"repo_owner_name,omitempty"`
	RepoName      string `yaml:"repo_name,omitempty"`
	RepoBranch    string `yaml:"repo_branch,omitempty"`

	MinIgnitionVersion      string `yaml:"min_ignition_version,omitempty"`
	MinIgnitionVersionShort string `yaml:"min_ignition_version_short,omitempty"`
}

// RepoURL is the repository home page, or "" without owner and name.
func (s SiteConfig) RepoURL() string {
	if s.RepoOwnerName == "" || s.RepoName == "" {
		return ""
	}
	return strings.TrimSuffix(s.RepoHost, "/") + "/" + s.RepoOwnerName + "/" + s.RepoName
}

func (s SiteConfig) repoPath(suffix string) string {
	repo := s.RepoURL()
	if repo == "" {
		return ""
	}
	return repo + suffix
}

// RepoArchiveURL downloads the default branch as a zip archive.
func (s SiteConfig) RepoArchiveURL() string {
	return s.repoPath("/archive/refs/heads/" + s.RepoBranch + ".zip")
}

// RepoLatestReleaseURL points at the newest release.
func (s SiteConfig) RepoLatestReleaseURL() string { return s.repoPath("/releases/latest") }

// RepoNewIssueURL opens the issue form.
func (s SiteConfig) RepoNewIssueURL() string { return s.repoPath("/issues/new") }

// Vars returns the {site.<key>} substitutions: the site record, the derived
// repository URLs and content.vars, which win on conflict.
func (c *Config) Vars() map[string]string {
	s := c.Site
	vars := map[string]string{
		"title":                   s.Title,
		"description":             s.Description,
		"meta":                    s.Meta,
		"url":                     s.URL,
		"baseUrl":                 s.BaseURL,
		"repoOwnerName":           s.RepoOwnerName,
		"repoName":                s.RepoName,
		"repoUrl":                 s.RepoURL(),
		"repoArchiveUrl":          s.RepoArchiveURL(),
		"repoLatestReleaseUrl":    s.RepoLatestReleaseURL(),
		"repoNewIssueUrl":         s.RepoNewIssueURL(),
		"minIgnitionVersion":      s.MinIgnitionVersion,
		"minIgnitionVersionShort": s.MinIgnitionVersionShort,
	}
	for k, v := range c.Content.Vars {
		vars[k] = v
	}
	return vars
}

// DocsRoot is the URL path of the documentation root, e.g.
// "/IgnitionEwonConnector/docs".
func (c *Config) DocsRoot() string {
	root := strings.TrimSuffix(c.Site.BaseURL, "/")
	if rb := strings.Trim(c.Content.RouteBase, "/"); rb != "" {
		root += "/" + rb
	}
	return root
}

// DocURL maps a document slug to the URL path it is served from. The root
// document always keeps its trailing slash.
func (c *Config) DocURL(slug string) string {
	if slug == "" || slug == "/" {
		return c.DocsRoot() + "/"
	}
	u := c.DocsRoot() + "/" + strings.Trim(slug, "/")
	if c.Build.TrailingSlash {
		u += "/"
	}
	return u
}

// SiteURL maps a path below the site base (e.g. "/docs/quick-start-guide" or
// "img/logo.png") to a URL path. Absolute URLs are returned unchanged.
func (c *Config) SiteURL(p string) string {
	if p == "" || strings.Contains(p, "://") || strings.HasPrefix(p, "mailto:") || strings.HasPrefix(p, "#") {
		return p
	}
	base := c.Site.BaseURL
	if base == "" {
		base = "/"
	}
	if strings.HasPrefix(p, base) && base != "/" {
		return p
	}
	return base + strings.TrimPrefix(p, "/")
}

// Permalink is the absolute URL of a document.
func (c *Config) Permalink(slug string) string {
	return strings.TrimSuffix(c.Site.URL, "/") + c.DocURL(slug)
}

// EditURL links to the source of a document in the repository, or "" when
// edit links are disabled or no repository is configured.
func (c *Config) EditURL(source string) string {
	base := c.Content.EditURL
	if base == "none" {
		return ""
	}
	if base == "" {
		base = c.Site.RepoURL()
	}
	if base == "" {
		return ""
	}
	dir := filepath.ToSlash(filepath.Clean(c.Content.Dir))
	if filepath.IsAbs(c.Content.Dir) || strings.HasPrefix(dir, "..") {
		dir = path.Base(dir)
	}
	return strings.TrimSuffix(base, "/") + "/" + path.Join(dir, source)
}
