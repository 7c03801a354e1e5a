package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ewonConfig = `site:
  title: "Ignition Ewon® Connector"
  description: Synchronize Ewon Flexy data to Ignition's Tag Historian.
  url: https://hms-networks.github.io
  base_url: IgnitionEwonConnector
  repo_owner_name: hms-networks
  repo_name: IgnitionEwonConnector
  min_ignition_version: 8.1.1
  min_ignition_version_short: "8.1"
content:
  dir: docs
  on_broken_markdown_links: WARN
navbar:
  items:
    - label: Documentation
      doc_id: introduction
    - label: HMS Networks
      href: https://hms-networks.com
      position: Right
build:
  workers: 2
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoad_AppliesNormalizationAndDefaults(t *testing.T) {
	p := writeConfig(t, ewonConfig)

	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "/IgnitionEwonConnector/", cfg.Site.BaseURL)
	assert.Equal(t, DefaultRepoHost, cfg.Site.RepoHost)
	assert.Equal(t, "en", cfg.Site.Language)
	assert.Equal(t, cfg.Site.Description, cfg.Site.Meta)
	assert.Equal(t, cfg.Site.Title, cfg.Navbar.Title)
	assert.Equal(t, LinkPolicyWarn, cfg.Content.OnBrokenMarkdownLinks)
	assert.Equal(t, DefaultRouteBase, cfg.Content.RouteBase)
	assert.Equal(t, NavbarLeft, cfg.Navbar.Items[0].Position)
	assert.Equal(t, NavbarRight, cfg.Navbar.Items[1].Position)
	assert.Equal(t, 2, cfg.Build.Workers)
	assert.Equal(t, DefaultMaxDepth, cfg.Build.MaxDepth)
	assert.Equal(t, LinkPolicyThrow, cfg.Build.OnBrokenLinks)
	assert.False(t, cfg.Build.TrailingSlash)

	assert.True(t, cfg.Output.Clean)
	assert.True(t, cfg.Output.Sitemap)
	assert.True(t, cfg.Output.LLMsTxt)
	assert.Equal(t, DefaultReportFile, cfg.Output.ReportFile)
	assert.Equal(t, DefaultPreviewPort, cfg.Preview.Port)
	assert.Equal(t, DefaultDebounce, cfg.Preview.Debounce)
	assert.Equal(t, LogFormatText, cfg.Monitoring.Logging.Format)

	dir := filepath.Dir(p)
	assert.Equal(t, filepath.Join(dir, "docs"), cfg.ContentDir())
	assert.Equal(t, filepath.Join(dir, DefaultOutputDir), cfg.OutputDir())
	assert.Equal(t, filepath.Join(dir, DefaultHistoryPath), cfg.HistoryPath())
	assert.Empty(t, cfg.StaticDir())
}

func TestLoad_ExplicitFalseSurvivesDefaults(t *testing.T) {
	p := writeConfig(t, "site:\n  title: T\noutput:\n  sitemap: false\n  llms_txt: false\n")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.False(t, cfg.Output.Sitemap)
	assert.False(t, cfg.Output.LLMsTxt)
	assert.True(t, cfg.Output.Clean)
	assert.Equal(t, runtime.NumCPU(), cfg.Build.Workers)
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("DOCSITE_TEST_TITLE", "From Env")
	p := writeConfig(t, "site:\n  title: ${DOCSITE_TEST_TITLE}\n")

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "From Env", cfg.Site.Title)
}

func TestLoad_ReadsDotEnvNextToConfig(t *testing.T) {
	const key = "DOCSITE_TEST_DOTENV_OWNER"
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	p := writeConfig(t, "site:\n  title: T\n  repo_owner_name: ${"+key+"}\n  repo_name: repo\n")
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(p), ".env"), []byte(key+"=acme\n"), 0o600))

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/repo", cfg.Site.RepoURL())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"malformed yaml", "site: [\n", "unmarshal"},
		{"missing title", "site:\n  description: x\n", "site.title is required"},
		{"relative url", "site:\n  title: T\n  url: example.com\n", "site.url"},
		{"owner without repo", "site:\n  title: T\n  repo_owner_name: acme\n", "must be set together"},
		{"navbar both targets", "site:\n  title: T\nnavbar:\n  items:\n    - label: X\n      doc_id: a\n      href: https://x\n", "exactly one of doc_id and href"},
		{"footer link without href", "site:\n  title: T\nfooter:\n  links:\n    - title: A\n      items:\n        - label: L\n", "label and href"},
		{"output equals content", "site:\n  title: T\ncontent:\n  dir: site\noutput:\n  directory: ./site\n", "must differ"},
		{"bad debounce", "site:\n  title: T\npreview:\n  debounce: soon\n", "preview.debounce"},
		{"bad port", "site:\n  title: T\npreview:\n  port: 70000\n", "preview.port"},
		{"bad var key", "site:\n  title: T\ncontent:\n  vars:\n    \"a-b\": x\n", "content.vars"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNormalizeConfig_Warnings(t *testing.T) {
	cfg := &Config{
		Content: ContentConfig{OnBrokenMarkdownLinks: "explode", RouteBase: "/guides/"},
		Build:   BuildConfig{OnBrokenLinks: "Ignore", Workers: -3},
		Site:    SiteConfig{BaseURL: "/"},
	}
	res, err := NormalizeConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, LinkPolicyThrow, cfg.Content.OnBrokenMarkdownLinks)
	assert.Equal(t, LinkPolicyIgnore, cfg.Build.OnBrokenLinks)
	assert.Equal(t, "guides", cfg.Content.RouteBase)
	assert.Equal(t, 0, cfg.Build.Workers)
	assert.Equal(t, "/", cfg.Site.BaseURL)
	assert.Len(t, res.Warnings, 4)
	assert.Contains(t, res.Warnings[0], "unknown content.on_broken_markdown_links 'explode'")

	_, err = NormalizeConfig(nil)
	assert.Error(t, err)
}

func TestNormalizeLinkPolicy(t *testing.T) {
	assert.Equal(t, LinkPolicyWarn, NormalizeLinkPolicy(" log "))
	assert.Equal(t, LinkPolicy(""), NormalizeLinkPolicy("nope"))
	assert.Equal(t, LogLevelWarn, NormalizeLogLevel("WARNING"))
	assert.Equal(t, LogFormatJSON, NormalizeLogFormat("json"))
}

func TestInit(t *testing.T) {
	p := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, Init(p, false))

	err := Init(p, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
	require.NoError(t, Init(p, true))

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "Ignition Ewon® Connector", cfg.Site.Title)
	assert.Equal(t, "https://github.com/hms-networks/IgnitionEwonConnector", cfg.Site.RepoURL())
	assert.Len(t, cfg.Navbar.Items, 4)
	assert.True(t, cfg.History.Enabled)
}
