package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/docsite/internal/docmodel"
)

type converter struct {
	md        goldmark.Markdown
	src       []byte
	startLine int
}

func (c *converter) blocks(parent gmast.Node) []docmodel.Block {
	var out []docmodel.Block
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if b, ok := c.block(n); ok {
			out = append(out, b.At(c.line(n)))
		}
	}
	return out
}

func (c *converter) block(n gmast.Node) (docmodel.Block, bool) {
	switch node := n.(type) {
	case *gmast.Heading:
		anchor := ""
		if v, ok := node.AttributeString("id"); ok {
			if b, ok := v.([]byte); ok {
				anchor = string(b)
			}
		}
		return docmodel.Heading(node.Level, c.inlines(node), anchor), true
	case *gmast.Paragraph, *gmast.TextBlock:
		return docmodel.Paragraph(c.inlines(n)), true
	case *gmast.List:
		items := make([][]docmodel.Block, 0, node.ChildCount())
		for item := node.FirstChild(); item != nil; item = item.NextSibling() {
			items = append(items, c.blocks(item))
		}
		start := 0
		if node.IsOrdered() {
			start = node.Start
		}
		return docmodel.List(items, node.IsOrdered(), start), true
	case *gmast.FencedCodeBlock:
		return docmodel.Code(string(node.Language(c.src)), c.lines(node)), true
	case *gmast.CodeBlock:
		return docmodel.Code("", c.lines(node)), true
	case *gmast.Blockquote:
		return docmodel.Quote(c.blocks(node)), true
	case *gmast.ThematicBreak:
		return docmodel.Rule(), true
	case *gmast.HTMLBlock:
		raw := c.lines(node)
		if node.HasClosure() {
			raw += string(node.ClosureLine.Value(c.src))
		}
		return docmodel.HTML(raw), true
	default:
		// Tables and other extension blocks keep goldmark's own HTML.
		var buf bytes.Buffer
		if err := c.md.Renderer().Render(&buf, c.src, n); err != nil {
			return docmodel.Block{}, false
		}
		return docmodel.HTML(buf.String()), true
	}
}

func (c *converter) lines(n gmast.Node) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(c.src))
	}
	return b.String()
}

func (c *converter) inlines(parent gmast.Node) []docmodel.InlineRun {
	var out []docmodel.InlineRun
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		out = c.appendInline(out, n)
	}
	return mergeText(out)
}

func (c *converter) appendInline(out []docmodel.InlineRun, n gmast.Node) []docmodel.InlineRun {
	switch node := n.(type) {
	case *gmast.Text:
		v := node.Segment.Value(c.src)
		if !node.IsRaw() {
			v = util.ResolveEntityNames(util.ResolveNumericReferences(util.UnescapePunctuations(v)))
		}
		out = append(out, docmodel.Text(string(v)))
		switch {
		case node.HardLineBreak():
			out = append(out, docmodel.InlineRun{Kind: docmodel.RunBreak})
		case node.SoftLineBreak():
			out = append(out, docmodel.Text("\n"))
		}
	case *gmast.String:
		out = append(out, docmodel.Text(string(node.Value)))
	case *gmast.CodeSpan:
		out = append(out, docmodel.CodeSpan(c.codeText(node)))
	case *gmast.Emphasis:
		if node.Level >= 2 {
			out = append(out, docmodel.Strong(c.inlines(node)...))
		} else {
			out = append(out, docmodel.Emphasis(c.inlines(node)...))
		}
	case *east.Strikethrough:
		out = append(out, docmodel.InlineRun{Kind: docmodel.RunStrike, Children: c.inlines(node)})
	case *gmast.Link:
		link := docmodel.Link(string(node.Destination), c.inlines(node)...)
		link.Title = string(node.Title)
		out = append(out, link)
	case *gmast.AutoLink:
		url := string(node.URL(c.src))
		href := url
		if node.AutoLinkType == gmast.AutoLinkEmail && !strings.HasPrefix(strings.ToLower(url), "mailto:") {
			href = "mailto:" + url
		}
		out = append(out, docmodel.Link(href, docmodel.Text(string(node.Label(c.src)))))
	case *gmast.Image:
		img := docmodel.Image(string(node.Destination), docmodel.PlainText(c.inlines(node)))
		img.Title = string(node.Title)
		out = append(out, img)
	case *gmast.RawHTML:
		var b strings.Builder
		for i := 0; i < node.Segments.Len(); i++ {
			seg := node.Segments.At(i)
			b.Write(seg.Value(c.src))
		}
		out = append(out, docmodel.InlineRun{Kind: docmodel.RunHTML, Text: b.String()})
	case *east.TaskCheckBox:
		box := `<input type="checkbox" disabled="" />`
		if node.IsChecked {
			box = `<input type="checkbox" checked="" disabled="" />`
		}
		out = append(out, docmodel.InlineRun{Kind: docmodel.RunHTML, Text: box})
	default:
		for child := n.FirstChild(); child != nil; child = child.NextSibling() {
			out = c.appendInline(out, child)
		}
	}
	return out
}

func (c *converter) codeText(n gmast.Node) string {
	var b strings.Builder
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		t, ok := child.(*gmast.Text)
		if !ok {
			continue
		}
		v := t.Segment.Value(c.src)
		if bytes.HasSuffix(v, []byte("\n")) {
			b.Write(v[:len(v)-1])
			b.WriteByte(' ')
			continue
		}
		b.Write(v)
	}
	return b.String()
}

// line maps a node to its 1-based file line using the first source byte it covers.
func (c *converter) line(n gmast.Node) int {
	off := firstOffset(n)
	if off < 0 {
		return 0
	}
	return c.startLine + bytes.Count(c.src[:off], []byte("\n"))
}

func firstOffset(n gmast.Node) int {
	if n.Type() == gmast.TypeBlock && n.Lines().Len() > 0 {
		return n.Lines().At(0).Start
	}
	if t, ok := n.(*gmast.Text); ok {
		return t.Segment.Start
	}
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if off := firstOffset(child); off >= 0 {
			return off
		}
	}
	return -1
}

func mergeText(runs []docmodel.InlineRun) []docmodel.InlineRun {
	out := runs[:0]
	for _, r := range runs {
		if r.Kind == docmodel.RunText && len(out) > 0 && out[len(out)-1].Kind == docmodel.RunText {
			out[len(out)-1].Text += r.Text
			continue
		}
		out = append(out, r)
	}
	return out
}
