package render

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBrokenMarkdownLink marks a link to a Markdown file that is not part of the site.
var ErrBrokenMarkdownLink = errors.New("broken markdown link")

// RenderError is the failure of one document. Location is "<source>:<line>"
// of the top level block being rendered.
type RenderError struct {
	DocID    string
	Location string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s (%s): %v", e.DocID, e.Location, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// CyclicReferenceError reports a component that (directly or indirectly)
// includes itself, or an expansion deeper than the configured bound. Chain
// lists the component names from the outermost reference to the offending one.
type CyclicReferenceError struct {
	Chain    []string
	MaxDepth int
}

func (e *CyclicReferenceError) Error() string {
	chain := strings.Join(e.Chain, " -> ")
	if e.MaxDepth > 0 {
		return fmt.Sprintf("component nesting exceeds depth %d: %s", e.MaxDepth, chain)
	}
	return "cyclic component reference: " + chain
}
