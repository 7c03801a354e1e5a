// Package frontmatter splits YAML front matter from a Markdown body and
// decodes the fields a documentation page understands.
package frontmatter

import (
	"bytes"
	"errors"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// front matter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Split separates YAML front matter (`---` delimited) from the Markdown body.
//
// If the document does not start with a delimiter, had is false and body is
// the full input. bodyLine is the 1-based file line the body starts on.
func Split(content []byte) (frontmatter []byte, body []byte, bodyLine int, had bool, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, 1, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], 3, true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		// A closing delimiter on the very last line without a newline.
		trailer := []byte(nl + "---")
		if bytes.HasSuffix(content, trailer) {
			end := len(content) - len(trailer)
			fm := content[start : end+len(nl)]
			return fm, []byte{}, 3 + bytes.Count(fm, []byte("\n")), true, nil
		}
		return nil, nil, 0, false, ErrMissingClosingDelimiter
	}

	end := start + idx + len(nl)
	fm := content[start:end]
	return fm, content[start+idx+len(closeSeq):], 2 + bytes.Count(fm, []byte("\n")) + 1, true, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
