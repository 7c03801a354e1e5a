// Package mcpserver exposes the documentation as Model Context Protocol
// tools: listing, fetching as Markdown and searching documents.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"git.home.luguber.info/inful/docsite/internal/docmodel"
	"git.home.luguber.info/inful/docsite/internal/mdexport"
	"git.home.luguber.info/inful/docsite/internal/render"
	"git.home.luguber.info/inful/docsite/internal/version"
)

// Library is the read side of a loaded site.
type Library interface {
	Docs() []*docmodel.DocumentNode
	ByID(id string) (*docmodel.DocumentNode, error)
	Get(slug string) (*docmodel.DocumentNode, error)
	Render(doc *docmodel.DocumentNode) (*render.RenderedPage, error)
	URL(doc *docmodel.DocumentNode) string
}

// Options configure the exported Markdown.
type Options struct {
	// Name is the server name announced to clients; defaults to "docsite".
	Name string
	// Domain makes root-relative links in exported Markdown absolute.
	Domain string
}

type ListDocumentsRequest struct {
	Group string `json:"group"`
}

type DocumentSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	URL         string `json:"url"`
	Group       string `json:"group,omitempty"`
	Description string `json:"description,omitempty"`
}

type ListDocumentsResponse struct {
	Documents []DocumentSummary `json:"documents"`
}

type GetDocumentRequest struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

type GetDocumentResponse struct {
	DocumentSummary
	LastUpdated *time.Time          `json:"last_updated,omitempty"`
	TOC         []docmodel.TOCEntry `json:"toc"`
	Markdown    string              `json:"markdown"`
}

type SearchDocumentsRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type SearchDocumentsResponse struct {
	Results []SearchHit `json:"results"`
}

// Handlers holds the tool implementations; NewServer registers them.
type Handlers struct {
	lib   Library
	opts  Options
	index *index
}

func NewHandlers(lib Library, opts Options) *Handlers {
	return &Handlers{lib: lib, opts: opts, index: newIndex(lib, opts.Domain)}
}

// NewServer creates an MCP server with the list_documents, get_document and
// search_documents tools.
func NewServer(lib Library, opts Options) *server.MCPServer {
	name := opts.Name
	if name == "" {
		name = "docsite"
	}
	h := NewHandlers(lib, opts)
	s := server.NewMCPServer(name, version.Version, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List documentation pages in sidebar order"),
		mcp.WithString("group",
			mcp.Description("Only list pages of this sidebar group, e.g. 'help'"),
		),
	), mcp.NewTypedToolHandler(h.ListDocuments))

	s.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Get one documentation page as Markdown with its table of contents"),
		mcp.WithString("id",
			mcp.Description("The document id, e.g. 'help/faq'"),
		),
		mcp.WithString("slug",
			mcp.Description("The document slug, e.g. '/help/faq'; used when id is empty"),
		),
	), mcp.NewTypedToolHandler(h.GetDocument))

	s.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Full text search over titles, descriptions and page bodies"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Words that must all appear in a matching page"),
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum number of results (default %d, max %d)", defaultLimit, maxLimit)),
		),
	), mcp.NewTypedToolHandler(h.SearchDocuments))

	return s
}

func (h *Handlers) summary(doc *docmodel.DocumentNode) DocumentSummary {
	return DocumentSummary{
		ID:          doc.ID,
		Title:       doc.Title,
		Slug:        doc.Slug,
		URL:         h.lib.URL(doc),
		Group:       doc.Group,
		Description: doc.Description,
	}
}

func (h *Handlers) ListDocuments(_ context.Context, _ mcp.CallToolRequest, args ListDocumentsRequest) (*mcp.CallToolResult, error) {
	resp := ListDocumentsResponse{Documents: []DocumentSummary{}}
	for _, doc := range h.lib.Docs() {
		if args.Group != "" && doc.Group != args.Group {
			continue
		}
		resp.Documents = append(resp.Documents, h.summary(doc))
	}
	return jsonResult(resp)
}

func (h *Handlers) GetDocument(_ context.Context, _ mcp.CallToolRequest, args GetDocumentRequest) (*mcp.CallToolResult, error) {
	var (
		doc *docmodel.DocumentNode
		err error
	)
	switch {
	case args.ID != "":
		doc, err = h.lib.ByID(args.ID)
	case args.Slug != "":
		doc, err = h.lib.Get(args.Slug)
	default:
		return mcp.NewToolResultError("id or slug is required"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	page, err := h.lib.Render(doc)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to render document: %v", err)), nil
	}
	md, err := mdexport.Document(doc.Title, page.HTML(), h.opts.Domain)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp := GetDocumentResponse{
		DocumentSummary: h.summary(doc),
		TOC:             page.VisibleTOC(),
		Markdown:        md,
	}
	if !doc.LastUpdate.Time.IsZero() {
		ts := doc.LastUpdate.Time.UTC()
		resp.LastUpdated = &ts
	}
	return jsonResult(resp)
}

func (h *Handlers) SearchDocuments(_ context.Context, _ mcp.CallToolRequest, args SearchDocumentsRequest) (*mcp.CallToolResult, error) {
	if args.Query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	hits := h.index.search(args.Query, args.Limit)
	for i := range hits {
		hits[i].DocumentSummary = h.summary(hits[i].doc)
	}
	return jsonResult(SearchDocumentsResponse{Results: hits})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
