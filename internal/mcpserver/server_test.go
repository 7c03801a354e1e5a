package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/build"
	"git.home.luguber.info/inful/docsite/internal/config"
)

const testConfig = `
site:
  title: Ignition Ewon Connector
  url: https://hms-networks.github.io
  base_url: /IgnitionEwonConnector/
content:
  dir: docs
`

func writeFile(t *testing.T, root, rel, body string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
}

func newHandlers(t *testing.T) *Handlers {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "docs/01-introduction.md", "---\nid: introduction\ntitle: Introduction\nslug: /\ndescription: What the connector does\n---\n\n"+
		"The connector synchronizes Ewon Flexy data into the Ignition Tag Historian.\n\n<AccessingTagsPartial />\n")
	writeFile(t, root, "docs/_accessing-tags.md", "## Accessing Tags\n\nTags live in the Ewon folder.\n")
	writeFile(t, root, "docs/02-quick-start-guide.md", "---\nid: quick-start-guide\ntitle: Quick Start Guide\n---\n\n## Install\n\nInstall the module from the Ignition gateway.\n")
	writeFile(t, root, "docs/06-help/01-FAQ.md", "---\nid: faq\ntitle: FAQ\n---\n\n## Usage\n\nAsk about tags or the historian.\n")

	cfg, err := config.Parse([]byte(testConfig))
	require.NoError(t, err)
	cfg.SetBaseDir(root)
	session, err := build.NewBuilder().Open(context.Background(), cfg)
	require.NoError(t, err)
	return NewHandlers(session, Options{Domain: cfg.Site.URL})
}

func callRequest(name string, args any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Request: mcp.Request{Method: "tools/call"},
		Params:  mcp.CallToolParams{Name: name, Arguments: args},
	}
}

func decode(t *testing.T, res *mcp.CallToolResult, v any) {
	t.Helper()
	require.NotNil(t, res)
	require.False(t, res.IsError, "tool returned an error: %v", res.Content)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	require.NoError(t, json.Unmarshal([]byte(text.Text), v))
}

func errorText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.True(t, res.IsError)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestNewServer(t *testing.T) {
	h := newHandlers(t)
	s := NewServer(h.lib, Options{})
	require.NotNil(t, s)
}

func TestListDocuments(t *testing.T) {
	h := newHandlers(t)
	args := ListDocumentsRequest{}
	res, err := h.ListDocuments(context.Background(), callRequest("list_documents", args), args)
	require.NoError(t, err)

	var got ListDocumentsResponse
	decode(t, res, &got)
	ids := make([]string, 0, len(got.Documents))
	for _, d := range got.Documents {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"introduction", "quick-start-guide", "help/faq"}, ids)
	assert.Equal(t, "https://hms-networks.github.io/IgnitionEwonConnector/docs/quick-start-guide", got.Documents[1].URL)
	assert.Equal(t, "What the connector does", got.Documents[0].Description)
}

func TestListDocuments_Group(t *testing.T) {
	h := newHandlers(t)
	args := ListDocumentsRequest{Group: "help"}
	res, err := h.ListDocuments(context.Background(), callRequest("list_documents", args), args)
	require.NoError(t, err)

	var got ListDocumentsResponse
	decode(t, res, &got)
	require.Len(t, got.Documents, 1)
	assert.Equal(t, "help/faq", got.Documents[0].ID)
}

func TestGetDocument(t *testing.T) {
	h := newHandlers(t)
	args := GetDocumentRequest{ID: "introduction"}
	res, err := h.GetDocument(context.Background(), callRequest("get_document", args), args)
	require.NoError(t, err)

	var got GetDocumentResponse
	decode(t, res, &got)
	assert.Equal(t, "/", got.Slug)
	assert.True(t, len(got.Markdown) > 0)
	assert.Contains(t, got.Markdown, "# Introduction\n\n")
	assert.Contains(t, got.Markdown, "## Accessing Tags")
	require.Len(t, got.TOC, 1)
	assert.Equal(t, "accessing-tags", got.TOC[0].AnchorID)
}

func TestGetDocument_BySlug(t *testing.T) {
	h := newHandlers(t)
	args := GetDocumentRequest{Slug: "/help/faq"}
	res, err := h.GetDocument(context.Background(), callRequest("get_document", args), args)
	require.NoError(t, err)

	var got GetDocumentResponse
	decode(t, res, &got)
	assert.Equal(t, "help/faq", got.ID)
	assert.Contains(t, got.Markdown, "Ask about tags or the historian.")
}

func TestGetDocument_Validation(t *testing.T) {
	h := newHandlers(t)

	args := GetDocumentRequest{}
	res, err := h.GetDocument(context.Background(), callRequest("get_document", args), args)
	require.NoError(t, err)
	assert.Equal(t, "id or slug is required", errorText(t, res))

	args = GetDocumentRequest{ID: "missing"}
	res, err = h.GetDocument(context.Background(), callRequest("get_document", args), args)
	require.NoError(t, err)
	assert.Contains(t, errorText(t, res), "not found")
}

func TestSearchDocuments(t *testing.T) {
	h := newHandlers(t)
	args := SearchDocumentsRequest{Query: "Historian"}
	res, err := h.SearchDocuments(context.Background(), callRequest("search_documents", args), args)
	require.NoError(t, err)

	var got SearchDocumentsResponse
	decode(t, res, &got)
	require.Len(t, got.Results, 2)
	assert.Equal(t, "help/faq", got.Results[0].ID)
	assert.Equal(t, "introduction", got.Results[1].ID)
	assert.Contains(t, got.Results[1].Snippet, "Tag Historian")
}

func TestSearchDocuments_AllTermsMustMatch(t *testing.T) {
	h := newHandlers(t)
	args := SearchDocumentsRequest{Query: "install gateway"}
	res, err := h.SearchDocuments(context.Background(), callRequest("search_documents", args), args)
	require.NoError(t, err)

	var got SearchDocumentsResponse
	decode(t, res, &got)
	require.Len(t, got.Results, 1)
	assert.Equal(t, "quick-start-guide", got.Results[0].ID)

	args = SearchDocumentsRequest{Query: "install nothing-like-this"}
	res, err = h.SearchDocuments(context.Background(), callRequest("search_documents", args), args)
	require.NoError(t, err)
	decode(t, res, &got)
	assert.Empty(t, got.Results)
}

func TestSearchDocuments_Limit(t *testing.T) {
	h := newHandlers(t)
	args := SearchDocumentsRequest{Query: "the", Limit: 1}
	res, err := h.SearchDocuments(context.Background(), callRequest("search_documents", args), args)
	require.NoError(t, err)

	var got SearchDocumentsResponse
	decode(t, res, &got)
	assert.Len(t, got.Results, 1)
}

func TestSearchDocuments_RequiresQuery(t *testing.T) {
	h := newHandlers(t)
	args := SearchDocumentsRequest{}
	res, err := h.SearchDocuments(context.Background(), callRequest("search_documents", args), args)
	require.NoError(t, err)
	assert.Equal(t, "query is required", errorText(t, res))
}
