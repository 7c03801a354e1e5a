package docmodel

import "strings"

// RunKind discriminates inline runs.
type RunKind int

const (
	RunText RunKind = iota + 1
	RunCode
	RunEmphasis
	RunStrong
	RunStrike
	RunLink
	RunImage
	RunBreak
	RunHTML
)

// InlineRun is a span of inline content. Text holds literal text (text,
// code, raw html) or the alt text of an image. Href is a link target or an
// image source. Emphasis, strong, strike and link runs nest Children.
type InlineRun struct {
	Kind     RunKind
	Text     string
	Href     string
	Title    string
	Children []InlineRun
}

func Text(s string) InlineRun { return InlineRun{Kind: RunText, Text: s} }

func CodeSpan(s string) InlineRun { return InlineRun{Kind: RunCode, Text: s} }

func Emphasis(children ...InlineRun) InlineRun {
	return InlineRun{Kind: RunEmphasis, Children: children}
}

func Strong(children ...InlineRun) InlineRun {
	return InlineRun{Kind: RunStrong, Children: children}
}

func Link(href string, children ...InlineRun) InlineRun {
	return InlineRun{Kind: RunLink, Href: href, Children: children}
}

func Image(src, alt string) InlineRun { return InlineRun{Kind: RunImage, Href: src, Text: alt} }

// PlainText flattens runs to their visible text.
func PlainText(runs []InlineRun) string {
	var b strings.Builder
	writePlain(&b, runs)
	return b.String()
}

func writePlain(b *strings.Builder, runs []InlineRun) {
	for _, r := range runs {
		switch r.Kind {
		case RunText, RunCode:
			b.WriteString(r.Text)
		case RunBreak:
			b.WriteByte(' ')
		case RunImage:
			b.WriteString(r.Text)
		case RunHTML:
		default:
			writePlain(b, r.Children)
		}
	}
}
