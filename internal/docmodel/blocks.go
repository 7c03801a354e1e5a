package docmodel

import "strings"

// BlockKind discriminates the Block variants.
type BlockKind int

const (
	BlockHeading BlockKind = iota + 1
	BlockParagraph
	BlockList
	BlockPartial
	BlockAdmonition
	BlockCode
	BlockQuote
	BlockRule
	BlockHTML
)

var blockKindNames = map[BlockKind]string{
	BlockHeading:    "heading",
	BlockParagraph:  "paragraph",
	BlockList:       "list",
	BlockPartial:    "partial",
	BlockAdmonition: "admonition",
	BlockCode:       "code",
	BlockQuote:      "quote",
	BlockRule:       "rule",
	BlockHTML:       "html",
}

func (k BlockKind) String() string {
	if s, ok := blockKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Block is a tagged variant; only the fields of its Kind are meaningful.
//
//	Heading:    Level, Runs, AnchorID (explicit {#id}, may be empty)
//	Paragraph:  Runs
//	List:       Items, Ordered, Start
//	Partial:    Component, Props
//	Admonition: AdmonitionKind, Title, Body
//	Code:       Language, Text
//	Quote:      Body
//	HTML:       Text (raw markup)
type Block struct {
	Kind BlockKind
	// Line is the 1-based line in the source file, 0 when unknown.
	Line int

	Level    int
	Runs     []InlineRun
	AnchorID string

	Items   [][]Block
	Ordered bool
	Start   int

	Component string
	Props     map[string]string

	AdmonitionKind string
	Title          string
	Body           []Block

	Language string
	Text     string
}

func Heading(level int, runs []InlineRun, anchorID string) Block {
	return Block{Kind: BlockHeading, Level: level, Runs: runs, AnchorID: anchorID}
}

func Paragraph(runs []InlineRun) Block {
	return Block{Kind: BlockParagraph, Runs: runs}
}

func List(items [][]Block, ordered bool, start int) Block {
	return Block{Kind: BlockList, Items: items, Ordered: ordered, Start: start}
}

func PartialReference(component string, props map[string]string) Block {
	return Block{Kind: BlockPartial, Component: component, Props: props}
}

func Admonition(kind, title string, body []Block) Block {
	return Block{Kind: BlockAdmonition, AdmonitionKind: kind, Title: title, Body: body}
}

func Code(language, text string) Block {
	return Block{Kind: BlockCode, Language: language, Text: text}
}

func Quote(body []Block) Block {
	return Block{Kind: BlockQuote, Body: body}
}

func Rule() Block {
	return Block{Kind: BlockRule}
}

func HTML(raw string) Block {
	return Block{Kind: BlockHTML, Text: raw}
}

// At returns a copy of b carrying the given source line.
func (b Block) At(line int) Block {
	b.Line = line
	return b
}

// Walk visits blocks depth first in document order, descending into list
// items, admonition and quote bodies. Returning false from fn stops the walk.
func Walk(blocks []Block, fn func(Block) bool) bool {
	for _, b := range blocks {
		if !fn(b) {
			return false
		}
		switch b.Kind {
		case BlockList:
			for _, item := range b.Items {
				if !Walk(item, fn) {
					return false
				}
			}
		case BlockAdmonition, BlockQuote:
			if !Walk(b.Body, fn) {
				return false
			}
		}
	}
	return true
}

// FirstParagraphText returns the plain text of the first paragraph found by
// Walk, or "" when there is none.
func FirstParagraphText(blocks []Block) string {
	var out string
	Walk(blocks, func(b Block) bool {
		if b.Kind == BlockParagraph {
			out = strings.Join(strings.Fields(PlainText(b.Runs)), " ")
			return out == ""
		}
		return true
	})
	return out
}

// MapText returns a deep copy of blocks with fn applied to every literal
// text run (not code spans, code blocks or raw HTML) and to admonition titles.
func MapText(blocks []Block, fn func(string) string) []Block {
	if blocks == nil {
		return nil
	}
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		b.Runs = mapRuns(b.Runs, fn)
		if b.Title != "" {
			b.Title = fn(b.Title)
		}
		if b.Items != nil {
			items := make([][]Block, len(b.Items))
			for j, item := range b.Items {
				items[j] = MapText(item, fn)
			}
			b.Items = items
		}
		b.Body = MapText(b.Body, fn)
		out[i] = b
	}
	return out
}

func mapRuns(runs []InlineRun, fn func(string) string) []InlineRun {
	if runs == nil {
		return nil
	}
	out := make([]InlineRun, len(runs))
	for i, r := range runs {
		switch r.Kind {
		case RunText, RunImage:
			r.Text = fn(r.Text)
		}
		r.Children = mapRuns(r.Children, fn)
		out[i] = r
	}
	return out
}
