package markdown

import (
	"errors"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/docsite/internal/docmodel"
)

var errNotSelfClosing = errors.New("partial reference must be a self-closing tag")

// parsePartialTag reads `<Name a="b" c={"d"} flag />`. Component name and
// attribute keys keep the case they are written in.
func parsePartialTag(line string) (docmodel.Block, error) {
	line = strings.TrimSpace(line)
	m := partialTag.FindStringSubmatch(line)
	if m == nil || !strings.HasSuffix(line, "/>") {
		return docmodel.Block{}, errNotSelfClosing
	}

	var props map[string]string
	for _, a := range scanAttrs(line[1+len(m[1]) : len(line)-2]) {
		if props == nil {
			props = make(map[string]string)
		}
		props[a.key] = a.val
	}
	return docmodel.PartialReference(m[1], props), nil
}

type attr struct{ key, val string }

// scanAttrs splits a tag body into attributes in source order. Quoted
// values are entity decoded; {expression} values are unwrapped by jsxValue.
func scanAttrs(s string) []attr {
	var attrs []attr
	i := 0
	for {
		i = skipTagSpace(s, i)
		if i >= len(s) {
			return attrs
		}
		start := i
		for i < len(s) && !isTagSpace(s[i]) && s[i] != '=' {
			i++
		}
		a := attr{key: s[start:i]}
		j := skipTagSpace(s, i)
		if j < len(s) && s[j] == '=' {
			j = skipTagSpace(s, j+1)
			end := attrValueEnd(s, j)
			a.val = attrValue(s[j:end])
			i = end
		}
		if a.key != "" {
			attrs = append(attrs, a)
		} else {
			i++
		}
	}
}

func attrValue(raw string) string {
	if len(raw) >= 2 && (raw[0] == '"' || raw[0] == '\'') && raw[len(raw)-1] == raw[0] {
		return html.UnescapeString(raw[1 : len(raw)-1])
	}
	return jsxValue(raw)
}

// attrValueEnd returns the offset just past the value starting at i.
func attrValueEnd(s string, i int) int {
	if i >= len(s) {
		return i
	}
	switch s[i] {
	case '"', '\'':
		if end := strings.IndexByte(s[i+1:], s[i]); end >= 0 {
			return i + end + 2
		}
		return len(s)
	case '{':
		depth := 0
		var quote byte
		for ; i < len(s); i++ {
			c := s[i]
			switch {
			case quote != 0:
				if c == quote {
					quote = 0
				}
			case c == '"' || c == '\'':
				quote = c
			case c == '{':
				depth++
			case c == '}':
				depth--
				if depth == 0 {
					return i + 1
				}
			}
		}
		return len(s)
	}
	for i < len(s) && !isTagSpace(s[i]) {
		i++
	}
	return i
}

func skipTagSpace(s string, i int) int {
	for i < len(s) && isTagSpace(s[i]) {
		i++
	}
	return i
}

func isTagSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

// jsxValue unwraps expression attributes such as {"x"} or {'x'}.
func jsxValue(v string) string {
	if len(v) < 2 || v[0] != '{' || v[len(v)-1] != '}' {
		return v
	}
	v = strings.TrimSpace(v[1 : len(v)-1])
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}
