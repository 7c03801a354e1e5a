// Package slug turns heading and file names into URL-safe anchor ids.
//
// The rules follow the GitHub flavour used by most documentation tools:
// lowercase, punctuation removed, every space replaced with a hyphen. Accented
// letters are folded to their base letter so "Übersicht" becomes "ubersicht".
package slug

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Make returns the anchor form of s. It never returns an error; an input made
// only of punctuation yields "".
func Make(s string) string {
	folded := fold(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_', r == '-':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('-')
		}
	}
	return b.String()
}

func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Slugger hands out unique anchors for a single page. The first occurrence of
// a slug is returned unchanged, repeats get "-1", "-2", ... appended.
// A Slugger is not safe for concurrent use.
type Slugger struct {
	seen map[string]int
}

// NewSlugger returns an empty Slugger.
func NewSlugger() *Slugger {
	return &Slugger{seen: make(map[string]int)}
}

// Slug slugifies text and makes the result unique.
func (s *Slugger) Slug(text string) string {
	return s.Reserve(Make(text))
}

// Reserve makes an already computed id unique, e.g. an explicit {#id}.
func (s *Slugger) Reserve(id string) string {
	if id == "" {
		id = "section"
	}
	candidate := id
	for {
		if _, taken := s.seen[candidate]; !taken {
			break
		}
		s.seen[id]++
		candidate = id + "-" + strconv.Itoa(s.seen[id])
	}
	s.seen[candidate] = 0
	return candidate
}
