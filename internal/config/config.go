// Package config loads docsite.yaml: site identity, content location, page
// chrome (navbar, footer, homepage) and the build, preview and history
// settings.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up when no --config flag is given.
const DefaultFileName = "docsite.yaml"

// Config is the full docsite configuration.
type Config struct {
	Site       SiteConfig       `yaml:"site"`
	Content    ContentConfig    `yaml:"content"`
	Navbar     NavbarConfig     `yaml:"navbar,omitempty"`
	Footer     FooterConfig     `yaml:"footer,omitempty"`
	Homepage   HomepageConfig   `yaml:"homepage,omitempty"`
	Build      BuildConfig      `yaml:"build,omitempty"`
	Output     OutputConfig     `yaml:"output"`
	Preview    PreviewConfig    `yaml:"preview,omitempty"`
	History    HistoryConfig    `yaml:"history,omitempty"`
	Notify     NotifyConfig     `yaml:"notify,omitempty"`
	Monitoring MonitoringConfig `yaml:"monitoring,omitempty"`

	// baseDir anchors relative paths; it is the directory of the loaded file.
	baseDir string
}

// ContentConfig locates and interprets the Markdown sources.
type ContentConfig struct {
	Dir string `yaml:"dir"`
	// RouteBase is the URL segment documents are served under ("docs").
	RouteBase     string `yaml:"route_base"`
	IncludeDrafts bool   `yaml:"include_drafts,omitempty"`
	// IsolateGroups stops prev/next links at sidebar group boundaries.
	IsolateGroups         bool       `yaml:"isolate_groups,omitempty"`
	OnBrokenMarkdownLinks LinkPolicy `yaml:"on_broken_markdown_links"`
	// EditURL overrides the repository URL used for "Edit this page" links.
	// "none" disables them.
	EditURL        string `yaml:"edit_url,omitempty"`
	LastUpdateInfo bool   `yaml:"last_update_info,omitempty"`
	// Vars are extra {site.<key>} substitutions.
	Vars map[string]string `yaml:"vars,omitempty"`
}

// NavbarConfig describes the top navigation bar.
type NavbarConfig struct {
	Title string       `yaml:"title,omitempty"`
	Logo  *Logo        `yaml:"logo,omitempty"`
	Items []NavbarItem `yaml:"items,omitempty"`
}

// Logo is an image shown next to the navbar title.
type Logo struct {
	Alt string `yaml:"alt"`
	Src string `yaml:"src"`
}

// NavbarItem links either to a document (DocID) or to an arbitrary URL (Href).
type NavbarItem struct {
	Label    string         `yaml:"label"`
	DocID    string         `yaml:"doc_id,omitempty"`
	Href     string         `yaml:"href,omitempty"`
	Position NavbarPosition `yaml:"position,omitempty"`
}

// FooterConfig describes the page footer.
type FooterConfig struct {
	Style string         `yaml:"style,omitempty"`
	Links []FooterColumn `yaml:"links,omitempty"`
	// Copyright may contain {year}.
	Copyright string `yaml:"copyright,omitempty"`
}

// FooterColumn is a titled group of footer links.
type FooterColumn struct {
	Title string       `yaml:"title"`
	Items []FooterLink `yaml:"items"`
}

// FooterLink is a single footer entry.
type FooterLink struct {
	Label string `yaml:"label"`
	Href  string `yaml:"href"`
}

// HomepageConfig describes the landing page written to the site root.
type HomepageConfig struct {
	Disabled bool             `yaml:"disabled,omitempty"`
	Buttons  []HomepageButton `yaml:"buttons,omitempty"`
	Features []Feature        `yaml:"features,omitempty"`
}

// HomepageButton links from the hero banner. To may be a URL, a path below
// the site base or a {site.<key>} placeholder.
type HomepageButton struct {
	Label string `yaml:"label"`
	To    string `yaml:"to"`
}

// Feature is one column of the homepage feature list.
type Feature struct {
	Title       string `yaml:"title"`
	Image       string `yaml:"image,omitempty"`
	Description string `yaml:"description"`
}

// BuildConfig tunes the build pipeline.
type BuildConfig struct {
	// Workers bounds concurrent renders; runtime.NumCPU() when zero.
	Workers       int        `yaml:"workers,omitempty"`
	MaxDepth      int        `yaml:"max_depth,omitempty"`
	OnBrokenLinks LinkPolicy `yaml:"on_broken_links"`
	TrailingSlash bool       `yaml:"trailing_slash"`
}

// OutputConfig controls what is written and where.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"`
	StaticDir string `yaml:"static_dir,omitempty"`
	Sitemap   bool   `yaml:"sitemap"`
	LLMsTxt   bool   `yaml:"llms_txt"`
	// ReportFile is written inside Directory.
	ReportFile string `yaml:"report_file,omitempty"`
}

// PreviewConfig configures `docsite serve`.
type PreviewConfig struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Debounce string `yaml:"debounce,omitempty"`
	// RebuildEvery forces a periodic rebuild (e.g. "10m"), picking up git
	// metadata changes that do not touch watched files. Empty disables it.
	RebuildEvery string `yaml:"rebuild_every,omitempty"`
}

// HistoryConfig enables the SQLite build history.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
	// Keep is the number of builds retained.
	Keep int `yaml:"keep,omitempty"`
}

// NotifyConfig publishes build results to NATS when URL is set.
type NotifyConfig struct {
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
	Timeout string `yaml:"timeout,omitempty"`
}

// MonitoringConfig covers metrics and logging.
type MonitoringConfig struct {
	Metrics MonitoringMetrics `yaml:"metrics"`
	Logging MonitoringLogging `yaml:"logging"`
}

// MonitoringMetrics represents metrics configuration.
type MonitoringMetrics struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// MonitoringLogging represents logging configuration.
type MonitoringLogging struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// Load reads, normalizes, defaults and validates the configuration at configPath.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	baseDir := filepath.Dir(abs)
	if err := loadEnvFiles(baseDir); err != nil {
		slog.Debug("No .env file loaded", "dir", baseDir, "reason", err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.baseDir = baseDir
	return cfg, nil
}

// Parse decodes YAML after expanding ${ENV} references and applies the
// normalization, defaults and validation passes. Relative paths resolve
// against the working directory until Load sets the file's directory.
func Parse(data []byte) (*Config, error) {
	cfg := preset()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	res, err := NormalizeConfig(&cfg)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	for _, w := range res.Warnings {
		slog.Warn("Config normalization", "detail", w)
	}
	if err := applyDefaults(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// preset holds the boolean defaults that cannot be told apart from an
// explicit false after decoding.
func preset() Config {
	return Config{
		Output: OutputConfig{Clean: true, Sitemap: true, LLMsTxt: true},
	}
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	data, err := yaml.Marshal(Example())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Example returns the configuration written by Init.
func Example() *Config {
	return &Config{
		Site: SiteConfig{
			Title:                   "Ignition Ewon® Connector",
			Description:             "Synchronize Ewon Flexy data to Ignition's Tag Historian using the Ignition Ewon® Connector Module.",
			Meta:                    "Homepage for the HMS Networks Ignition Ewon® Connector Module.",
			URL:                     "https://hms-networks.github.io",
			BaseURL:                 "/IgnitionEwonConnector/",
			Favicon:                 "img/favicon.ico",
			RepoHost:                DefaultRepoHost,
			RepoOwnerName:           "hms-networks",
			RepoBranch:              DefaultRepoBranch,
			RepoName:                "IgnitionEwonConnector",
			MinIgnitionVersion:      "8.1.1",
			MinIgnitionVersionShort: "8.1",
		},
		Content: ContentConfig{
			Dir:                   "docs",
			RouteBase:             "docs",
			OnBrokenMarkdownLinks: LinkPolicyThrow,
		},
		Navbar: NavbarConfig{
			Logo: &Logo{Alt: "HMS Networks Logo", Src: "img/hms-logo-rgb.webp"},
			Items: []NavbarItem{
				{Label: "Documentation", DocID: "introduction", Position: NavbarLeft},
				{Label: "Download", Href: "{site.repoLatestReleaseUrl}", Position: NavbarLeft},
				{Label: "Source Code", Href: "{site.repoUrl}", Position: NavbarLeft},
				{Label: "HMS Networks", Href: "https://hms-networks.com", Position: NavbarRight},
			},
		},
		Footer: FooterConfig{
			Style: "dark",
			Links: []FooterColumn{
				{Title: "Flexy", Items: []FooterLink{
					{Label: "Product Page", Href: "https://www.ewon.biz/products/ewon-flexy"},
					{Label: "Support", Href: "https://www.ewon.biz/technical-support/support-home/select-your-ewon-devices"},
				}},
				{Title: "Talk2M", Items: []FooterLink{
					{Label: "Login", Href: "https://m2web.talk2m.com/"},
				}},
			},
			Copyright: "Copyright © {year} HMS Networks Inc. Built with docsite.",
		},
		Homepage: HomepageConfig{
			Buttons: []HomepageButton{
				{Label: "Documentation", To: "/docs"},
				{Label: "Quick Start Guide", To: "/docs/quick-start-guide"},
				{Label: "Download", To: "{site.repoLatestReleaseUrl}"},
				{Label: "Source Code", To: "{site.repoUrl}"},
			},
			Features: []Feature{
				{
					Title:       "Harness the power of your industrial machines",
					Image:       "img/plc-animation.gif",
					Description: "The Ewon Flexy is able to perform data acquisition with Modbus, EtherNet/IP and many other protocols.",
				},
				{
					Title:       "Easy cloud connection to Ignition",
					Image:       "img/ewon-connections.webp",
					Description: "Connect your Flexy to Ignition using DataMailbox historical data or live data through the M2Web API.",
				},
			},
		},
		Build: BuildConfig{OnBrokenLinks: LinkPolicyThrow},
		Output: OutputConfig{
			Directory:  "build",
			Clean:      true,
			StaticDir:  "static",
			Sitemap:    true,
			LLMsTxt:    true,
			ReportFile: DefaultReportFile,
		},
		Preview: PreviewConfig{Host: "localhost", Port: DefaultPreviewPort, Debounce: DefaultDebounce},
		History: HistoryConfig{Enabled: true, Path: DefaultHistoryPath, Keep: DefaultHistoryKeep},
		Monitoring: MonitoringConfig{
			Metrics: MonitoringMetrics{Enabled: true, Path: DefaultMetricsPath},
			Logging: MonitoringLogging{Level: LogLevelInfo, Format: LogFormatText},
		},
	}
}

// BaseDir returns the directory relative paths resolve against.
func (c *Config) BaseDir() string {
	if c.baseDir == "" {
		return "."
	}
	return c.baseDir
}

// SetBaseDir overrides the directory relative paths resolve against.
func (c *Config) SetBaseDir(dir string) { c.baseDir = dir }

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir(), p)
}

// ContentDir is the absolute or base-relative content directory.
func (c *Config) ContentDir() string { return c.resolve(c.Content.Dir) }

// OutputDir is the directory the site is written to.
func (c *Config) OutputDir() string { return c.resolve(c.Output.Directory) }

// StaticDir is the directory copied verbatim into the output, or "".
func (c *Config) StaticDir() string { return c.resolve(c.Output.StaticDir) }

// HistoryPath is the SQLite database file of the build history.
func (c *Config) HistoryPath() string { return c.resolve(c.History.Path) }
