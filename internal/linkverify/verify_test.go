package linkverify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/config"
	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

func writeSite(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	return dir
}

func TestExtract(t *testing.T) {
	page, err := Extract(strings.NewReader(`<html><body>
<h2 id="setup">Setup</h2><a name="legacy"></a>
<a href="/IgnitionEwonConnector/docs/faq#usage">FAQ <b>now</b></a>
<img src="../img/logo.png" alt="logo">
<a href="mailto:support@example.com">mail</a>
</body></html>`))
	require.NoError(t, err)

	assert.Contains(t, page.IDs, "setup")
	assert.Contains(t, page.IDs, "legacy")
	require.Len(t, page.Links, 3)
	assert.Equal(t, Link{URL: "/IgnitionEwonConnector/docs/faq#usage", Text: "FAQnow", Tag: "a", Attribute: "href"}, page.Links[0])
	assert.Equal(t, "img", page.Links[1].Tag)
	assert.Equal(t, "logo", page.Links[1].Text)
}

func TestShouldVerify(t *testing.T) {
	cases := map[string]bool{
		"/docs/x":                true,
		"../img/a.png":           true,
		"#anchor":                true,
		"https://github.com/a/b": false,
		"//cdn.example.com/x.js": false,
		"mailto:x@example.com":   false,
		"javascript:void(0)":     false,
		"":                       false,
	}
	for link, want := range cases {
		assert.Equal(t, want, shouldVerify(link), link)
	}
}

func siteFiles() map[string]string {
	return map[string]string{
		"index.html": `<a href="/IgnitionEwonConnector/docs/">Docs</a>
<a href="/IgnitionEwonConnector/img/logo.png">logo</a>`,
		"docs/index.html": `<h1 id="intro">Intro</h1>
<a href="/IgnitionEwonConnector/docs/change-log#v121">changes</a>
<a href="help/faq">faq</a>
<a href="#intro">top</a>`,
		"docs/change-log.html": `<h2 id="v121">v1.2.1</h2><a href="help/faq#usage">usage</a>`,
		"docs/help/faq.html":   `<h2 id="usage">Usage</h2><a href="../change-log">back</a>`,
		"img/logo.png":         "png",
	}
}

func TestVerify_CleanSite(t *testing.T) {
	dir := writeSite(t, siteFiles())

	res, err := Verify(context.Background(), dir, Options{BasePath: "/IgnitionEwonConnector/", Policy: config.LinkPolicyThrow})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Pages)
	assert.Equal(t, 7, res.Links)
	assert.Empty(t, res.Broken)
}

func TestVerify_BrokenLinks(t *testing.T) {
	files := siteFiles()
	files["docs/help/faq.html"] = `<h2 id="usage">Usage</h2>
<a href="../change-log#v999">bad anchor</a>
<a href="/IgnitionEwonConnector/docs/missing">missing</a>
<a href="/elsewhere/page">outside</a>`
	dir := writeSite(t, files)

	res, err := Verify(context.Background(), dir, Options{BasePath: "/IgnitionEwonConnector", Policy: config.LinkPolicyThrow})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrBrokenLinks)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryLinks))

	require.NotNil(t, res)
	assert.Equal(t, []BrokenLink{
		{Page: "docs/help/faq.html", Target: "../change-log#v999", Reason: ReasonMissingAnchor},
		{Page: "docs/help/faq.html", Target: "/IgnitionEwonConnector/docs/missing", Reason: ReasonMissingTarget},
		{Page: "docs/help/faq.html", Target: "/elsewhere/page", Reason: ReasonOutsideSite},
	}, res.Broken)
}

func TestVerify_WarnAndIgnoreDoNotFail(t *testing.T) {
	dir := writeSite(t, map[string]string{
		"index.html": `<a href="/nowhere">x</a>`,
	})

	for _, policy := range []config.LinkPolicy{config.LinkPolicyWarn, config.LinkPolicyIgnore} {
		res, err := Verify(context.Background(), dir, Options{BasePath: "/", Policy: policy})
		require.NoError(t, err, policy)
		assert.Len(t, res.Broken, 1)
	}
}

func TestVerify_TrailingSlashLayout(t *testing.T) {
	dir := writeSite(t, map[string]string{
		"docs/index.html":            `<a href="change-log/">c</a>`,
		"docs/change-log/index.html": `<a href="../">up</a><a href="../help/faq/#usage">faq</a>`,
		"docs/help/faq/index.html":   `<h2 id="usage">Usage</h2>`,
	})

	res, err := Verify(context.Background(), dir, Options{BasePath: "/", Policy: config.LinkPolicyThrow})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Links)
}

func TestVerify_Canceled(t *testing.T) {
	dir := writeSite(t, siteFiles())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Verify(ctx, dir, Options{BasePath: "/"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
