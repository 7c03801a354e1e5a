package mcpserver

import (
	"cmp"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"git.home.luguber.info/inful/docsite/internal/docmodel"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/mdexport"
)

const (
	defaultLimit = 10
	maxLimit     = 50
	snippetWidth = 80
	// bodyHitCap bounds the weight of repeated body matches of one term.
	bodyHitCap = 10
)

// SearchHit is one matching page.
type SearchHit struct {
	DocumentSummary
	Score   int    `json:"score"`
	Snippet string `json:"snippet,omitempty"`

	doc *docmodel.DocumentNode
}

type entry struct {
	doc   *docmodel.DocumentNode
	title string
	desc  string
	body  string
	lower string
}

// index renders every document to Markdown on first use.
type index struct {
	lib     Library
	domain  string
	once    sync.Once
	entries []entry
}

func newIndex(lib Library, domain string) *index {
	return &index{lib: lib, domain: domain}
}

func (ix *index) load() {
	ix.once.Do(func() {
		for _, doc := range ix.lib.Docs() {
			page, err := ix.lib.Render(doc)
			if err != nil {
				slog.Warn("Skipping document in search index", logfields.DocID(doc.ID), logfields.Error(err))
				continue
			}
			body, err := mdexport.Convert(page.HTML(), ix.domain)
			if err != nil {
				slog.Warn("Skipping document in search index", logfields.DocID(doc.ID), logfields.Error(err))
				continue
			}
			ix.entries = append(ix.entries, entry{
				doc:   doc,
				title: strings.ToLower(doc.Title),
				desc:  strings.ToLower(doc.Description),
				body:  body,
				lower: strings.ToLower(body),
			})
		}
		slog.Debug("Search index built", logfields.Count(len(ix.entries)))
	})
}

// search returns pages containing every term of query, best first. Title
// matches weigh 5, description matches 3 and body occurrences 1 each.
func (ix *index) search(query string, limit int) []SearchHit {
	ix.load()
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return []SearchHit{}
	}

	hits := []SearchHit{}
	for _, e := range ix.entries {
		score, ok := e.score(terms)
		if !ok {
			continue
		}
		hits = append(hits, SearchHit{Score: score, Snippet: e.snippet(terms), doc: e.doc})
	}
	slices.SortStableFunc(hits, func(a, b SearchHit) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return strings.Compare(a.doc.ID, b.doc.ID)
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

func (e entry) score(terms []string) (int, bool) {
	total := 0
	for _, t := range terms {
		s := 0
		if strings.Contains(e.title, t) {
			s += 5
		}
		if strings.Contains(e.desc, t) {
			s += 3
		}
		s += min(strings.Count(e.lower, t), bodyHitCap)
		if s == 0 {
			return 0, false
		}
		total += s
	}
	return total, true
}

// snippet is the body text around the first occurrence of any term, on one line.
func (e entry) snippet(terms []string) string {
	at := -1
	for _, t := range terms {
		if i := strings.Index(e.lower, t); i >= 0 && (at < 0 || i < at) {
			at = i
		}
	}
	if at < 0 {
		return ""
	}
	// Lowercasing may change byte lengths; offsets are only valid in body
	// when it did not.
	src := e.body
	if len(src) != len(e.lower) {
		src = e.lower
	}
	start := max(0, at-snippetWidth)
	end := min(len(src), at+snippetWidth)
	for start > 0 && !utf8.RuneStart(src[start]) {
		start--
	}
	for end < len(src) && !utf8.RuneStart(src[end]) {
		end++
	}
	s := strings.Join(strings.Fields(src[start:end]), " ")
	if start > 0 {
		s = "…" + s
	}
	if end < len(src) {
		s += "…"
	}
	return s
}
