package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/docsite/internal/docmodel"
)

// Options controls how a Markdown body is turned into blocks.
type Options struct {
	// FirstLine is the file line the body starts on (after front matter).
	// Block line numbers are reported relative to it. Defaults to 1.
	FirstLine int
}

// SyntaxError reports body structure goldmark cannot see, such as an
// admonition that is never closed.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Parser converts Markdown bodies into docmodel blocks. It is safe for
// concurrent use.
type Parser struct {
	md goldmark.Markdown
}

// NewParser returns a Parser with GFM extensions and heading attributes
// (`## Title {#custom-id}`) enabled.
func NewParser() *Parser {
	return &Parser{md: goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAttribute()),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)}
}

var defaultParser = NewParser()

// Parse converts body with the shared default parser.
func Parse(body []byte, opts Options) ([]docmodel.Block, error) {
	return defaultParser.Parse(body, opts)
}

// Parse converts a Markdown body (front matter removed) into blocks.
//
// Admonitions (`:::note` ... `:::`) and partial references
// (`<SomePartial prop="x" />` on a line of its own) are recognised before the
// remaining text is handed to goldmark.
func (p *Parser) Parse(body []byte, opts Options) ([]docmodel.Block, error) {
	first := opts.FirstLine
	if first < 1 {
		first = 1
	}
	lines := strings.Split(strings.ReplaceAll(string(body), "\r\n", "\n"), "\n")
	return p.segment(lines, first)
}

// parseChunk runs goldmark over plain Markdown lines starting at file line start.
func (p *Parser) parseChunk(lines []string, start int) []docmodel.Block {
	src := []byte(strings.Join(lines, "\n"))
	if len(bytes.TrimSpace(src)) == 0 {
		return nil
	}
	root := p.md.Parser().Parse(text.NewReader(src))
	c := &converter{md: p.md, src: src, startLine: start}
	return c.blocks(root)
}
