package markdown

import (
	"fmt"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/docmodel"
)

// AdmonitionKinds lists the recognised `:::kind` names.
var AdmonitionKinds = map[string]bool{
	"note":    true,
	"tip":     true,
	"info":    true,
	"caution": true,
	"warning": true,
	"danger":  true,
}

var (
	admonitionOpen  = regexp.MustCompile(`^ {0,3}(:{3,})([a-z]+)(?:\[([^\]]*)\])?(?:[ \t]+(.*?))?[ \t]*$`)
	admonitionClose = regexp.MustCompile(`^ {0,3}(:{3,})[ \t]*$`)
	partialTag      = regexp.MustCompile(`^ {0,3}<(\p{Lu}[\p{L}\p{N}_]*)(?:[ \t][^<>]*)?/>[ \t]*$`)
	importLine      = regexp.MustCompile(`^import\s+[\w{},\s*]+\s+from\s+['"][^'"]+['"];?\s*$`)
	fenceOpen       = regexp.MustCompile("^ {0,3}(`{3,}|~{3,})")
)

type frame struct {
	colons int
	kind   string
	title  string
	line   int
	blocks []docmodel.Block
	buf    []string
	bufAt  int
}

type fence struct {
	char byte
	size int
}

func (p *Parser) segment(lines []string, first int) ([]docmodel.Block, error) {
	stack := []*frame{{}}
	var open *fence

	flush := func(f *frame) {
		if len(f.buf) > 0 {
			f.blocks = append(f.blocks, p.parseChunk(f.buf, f.bufAt)...)
		}
		f.buf = nil
	}

	for i, line := range lines {
		lineNo := first + i
		top := stack[len(stack)-1]

		if open != nil {
			if closesFence(line, open) {
				open = nil
			}
			top.push(line, lineNo)
			continue
		}
		if m := fenceOpen.FindStringSubmatch(line); m != nil {
			open = &fence{char: m[1][0], size: len(m[1])}
			top.push(line, lineNo)
			continue
		}

		switch {
		case admonitionClose.MatchString(line) && len(stack) > 1:
			colons := len(admonitionClose.FindStringSubmatch(line)[1])
			if colons != top.colons {
				return nil, &SyntaxError{Line: lineNo, Msg: fmt.Sprintf(
					"closing fence %q does not match admonition %q opened on line %d",
					strings.TrimSpace(line), strings.Repeat(":", top.colons)+top.kind, top.line)}
			}
			flush(top)
			stack = stack[:len(stack)-1]
			parent := stack[len(stack)-1]
			flush(parent)
			parent.blocks = append(parent.blocks, docmodel.Admonition(top.kind, top.title, top.blocks).At(top.line))
		case isAdmonitionOpen(line):
			m := admonitionOpen.FindStringSubmatch(line)
			title := m[3]
			if title == "" {
				title = m[4]
			}
			flush(top)
			stack = append(stack, &frame{colons: len(m[1]), kind: m[2], title: strings.TrimSpace(title), line: lineNo})
		case partialTag.MatchString(line):
			ref, err := parsePartialTag(line)
			if err != nil {
				return nil, &SyntaxError{Line: lineNo, Msg: err.Error()}
			}
			flush(top)
			top.blocks = append(top.blocks, ref.At(lineNo))
		case len(stack) == 1 && importLine.MatchString(line):
			// MDX style imports of partials carry no content.
		default:
			top.push(line, lineNo)
		}
	}

	if len(stack) > 1 {
		top := stack[len(stack)-1]
		return nil, &SyntaxError{Line: top.line, Msg: fmt.Sprintf("admonition %q is never closed", top.kind)}
	}
	flush(stack[0])
	return stack[0].blocks, nil
}

func (f *frame) push(line string, lineNo int) {
	if len(f.buf) == 0 {
		f.bufAt = lineNo
	}
	f.buf = append(f.buf, line)
}

func isAdmonitionOpen(line string) bool {
	m := admonitionOpen.FindStringSubmatch(line)
	return m != nil && AdmonitionKinds[m[2]]
}

func closesFence(line string, f *fence) bool {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return false
	}
	n := 0
	for n < len(trimmed) && trimmed[n] == f.char {
		n++
	}
	return n >= f.size && strings.TrimSpace(trimmed[n:]) == ""
}
