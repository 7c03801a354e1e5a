// Package content loads a directory of Markdown documents into an indexed,
// immutable Store: documents by slug, id and source path, the sidebar order
// and the prev/next navigation derived from it.
package content

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/docsite/internal/docmodel"
	"git.home.luguber.info/inful/docsite/internal/frontmatter"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/markdown"
)

// Options controls Load.
type Options struct {
	// IncludeDrafts keeps documents with `draft: true`.
	IncludeDrafts bool
	// IsolateGroups stops prev/next links at sidebar group boundaries.
	IsolateGroups bool
	// LastUpdate reads author and time of the last commit touching each file.
	LastUpdate bool
	// Parser overrides the default Markdown parser.
	Parser *markdown.Parser
}

// Group is one sidebar section.
type Group struct {
	// Name is the directory path without ordering prefixes; "" for the root group.
	Name  string
	Label string
	Docs  []*docmodel.DocumentNode
}

// Store is the loaded, read-only document index. All methods are safe for
// concurrent use.
type Store struct {
	root     string
	docs     []*docmodel.DocumentNode
	groups   []Group
	partials []*docmodel.DocumentNode
	bySlug   map[string]*docmodel.DocumentNode
	byID     map[string]*docmodel.DocumentNode
	bySource map[string]*docmodel.DocumentNode
	nav      map[string]docmodel.NavigationEdge
	loadedAt time.Time
}

// Load reads every Markdown file below dir. It either returns a complete
// Store or a *LoadError; there is no partial result.
func Load(ctx context.Context, dir string, opts Options) (*Store, error) {
	start := time.Now()
	if opts.Parser == nil {
		opts.Parser = markdown.NewParser()
	}
	if info, err := os.Stat(dir); err != nil {
		return nil, &LoadError{Path: dir, Err: err}
	} else if !info.IsDir() {
		return nil, &LoadError{Path: dir, Err: errors.New("not a directory")}
	}

	files, err := discover(dir)
	if err != nil {
		return nil, &LoadError{Err: fmt.Errorf("walk %s: %w", dir, err)}
	}

	var history *gitHistory
	if opts.LastUpdate {
		history = openGitHistory(dir)
	}

	s := &Store{
		root:     dir,
		bySlug:   make(map[string]*docmodel.DocumentNode),
		byID:     make(map[string]*docmodel.DocumentNode),
		bySource: make(map[string]*docmodel.DocumentNode),
	}
	components := make(map[string]string)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := loadFile(f, opts.Parser)
		if err != nil {
			return nil, err
		}
		if doc.Draft && !opts.IncludeDrafts {
			slog.Debug("Skipping draft", logfields.DocID(doc.ID), logfields.Path(f.rel))
			continue
		}
		if history != nil {
			doc.LastUpdate = history.lastUpdate(f.abs)
		}

		if doc.Partial {
			if other, dup := components[doc.Component]; dup {
				return nil, &LoadError{Path: f.rel, Err: fmt.Errorf("%w: %q also declared by %s", ErrDuplicateComponent, doc.Component, other)}
			}
			components[doc.Component] = f.rel
			s.partials = append(s.partials, doc)
			s.bySource[doc.Source] = doc
			continue
		}
		if other, dup := s.byID[doc.ID]; dup {
			return nil, &LoadError{Path: f.rel, Err: fmt.Errorf("%w: %q also used by %s", ErrDuplicateID, doc.ID, other.Source)}
		}
		if other, dup := s.bySlug[doc.Slug]; dup {
			return nil, &LoadError{Path: f.rel, Err: fmt.Errorf("%w: %q also used by %s", ErrSlugCollision, doc.Slug, other.Source)}
		}
		s.byID[doc.ID] = doc
		s.bySlug[doc.Slug] = doc
		s.bySource[doc.Source] = doc
		s.docs = append(s.docs, doc)
	}

	s.buildSidebar(files)
	s.buildNavigation(opts.IsolateGroups)
	s.loadedAt = time.Now()

	slog.Info("Content loaded",
		logfields.Path(dir),
		logfields.Count(len(s.docs)),
		slog.Int("partials", len(s.partials)),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	return s, nil
}

func loadFile(f sourceFile, parser *markdown.Parser) (*docmodel.DocumentNode, error) {
	// #nosec G304 -- path comes from walking the configured content directory.
	raw, err := os.ReadFile(f.abs)
	if err != nil {
		return nil, &LoadError{Path: f.rel, Err: err}
	}

	fmRaw, body, bodyLine, _, err := frontmatter.Split(raw)
	if err != nil {
		return nil, &LoadError{Path: f.rel, Line: 1, Err: err}
	}
	fields, err := frontmatter.Parse(fmRaw)
	if err != nil {
		line := 1
		var fe *frontmatter.FieldError
		if errors.As(err, &fe) && fe.Line > 0 {
			line = fe.Line + 1
		}
		return nil, &LoadError{Path: f.rel, Line: line, Err: err}
	}
	if !f.partial {
		if err := fields.Validate(); err != nil {
			return nil, &LoadError{Path: f.rel, Line: 1, Err: err}
		}
	}

	blocks, err := parser.Parse(body, markdown.Options{FirstLine: bodyLine})
	if err != nil {
		line := 0
		var se *markdown.SyntaxError
		if errors.As(err, &se) {
			line = se.Line
		}
		return nil, &LoadError{Path: f.rel, Line: line, Err: err}
	}

	doc := &docmodel.DocumentNode{
		Title:        fields.Title,
		SidebarLabel: fields.SidebarLabel,
		Group:        f.group,
		Source:       f.rel,
		Description:  fields.Description,
		TOCMinLevel:  fields.TOCMinLevel,
		TOCMaxLevel:  fields.TOCMaxLevel,
		Draft:        fields.Draft,
		Partial:      f.partial,
		FrontMatter:  docmodel.FrontMatter(fields.Extra),
		Blocks:       blocks,
		Fingerprint:  mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(fmRaw), "\n"), string(body)),
	}
	if doc.Description == "" {
		doc.Description = docmodel.FirstParagraphText(blocks)
	}

	if f.partial {
		doc.ID = f.rel
		doc.Component = fields.Component
		if doc.Component == "" {
			doc.Component = componentName(f.name)
		}
		return doc, nil
	}

	doc.ID = path.Join(f.group, fields.ID)
	doc.Slug = resolveSlug(f.group, fields.Slug, fields.ID)
	switch {
	case fields.Position != nil:
		doc.Position = *fields.Position
	case f.prefix > 0:
		doc.Position = f.prefix
	default:
		doc.Position = f.order
	}
	return doc, nil
}

func resolveSlug(group, fmSlug, id string) string {
	var s string
	switch {
	case strings.HasPrefix(fmSlug, "/"):
		s = fmSlug
	case fmSlug != "":
		s = path.Join("/", group, fmSlug)
	default:
		s = path.Join("/", group, path.Base(id))
	}
	return path.Clean("/" + strings.TrimPrefix(s, "/"))
}

// compareDocs orders by position; equal positions put the larger id first.
func compareDocs(a, b *docmodel.DocumentNode) int {
	if c := cmp.Compare(a.Position, b.Position); c != 0 {
		return c
	}
	return strings.Compare(b.ID, a.ID)
}

func (s *Store) buildSidebar(files []sourceFile) {
	dirs := make(map[string]string)
	for _, f := range files {
		if _, seen := dirs[f.group]; !seen {
			dirs[f.group] = f.dir
		}
	}

	byGroup := make(map[string][]*docmodel.DocumentNode)
	for _, d := range s.docs {
		byGroup[d.Group] = append(byGroup[d.Group], d)
	}

	names := make([]string, 0, len(byGroup))
	for name := range byGroup {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int { return compareDirs(dirs[a], dirs[b]) })

	s.groups = make([]Group, 0, len(names))
	s.docs = s.docs[:0]
	for _, name := range names {
		docs := byGroup[name]
		slices.SortStableFunc(docs, compareDocs)
		s.groups = append(s.groups, Group{Name: name, Label: groupLabel(name), Docs: docs})
		s.docs = append(s.docs, docs...)
	}
	slices.SortFunc(s.partials, func(a, b *docmodel.DocumentNode) int { return strings.Compare(a.Source, b.Source) })
}

func (s *Store) buildNavigation(isolate bool) {
	s.nav = make(map[string]docmodel.NavigationEdge, len(s.docs))
	link := func(seq []*docmodel.DocumentNode) {
		for i, d := range seq {
			var edge docmodel.NavigationEdge
			if i > 0 {
				edge.Prev = seq[i-1].Link()
			}
			if i+1 < len(seq) {
				edge.Next = seq[i+1].Link()
			}
			s.nav[d.Slug] = edge
		}
	}
	if !isolate {
		link(s.docs)
		return
	}
	for _, g := range s.groups {
		link(g.Docs)
	}
}

// Get returns the page with the given slug.
func (s *Store) Get(slug string) (*docmodel.DocumentNode, error) {
	if d, ok := s.bySlug[slug]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, slug)
}

// ByID returns the page with the given id.
func (s *Store) ByID(id string) (*docmodel.DocumentNode, error) {
	if d, ok := s.byID[id]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("%w: id %s", ErrNotFound, id)
}

// BySource returns the page or partial loaded from a content relative path.
func (s *Store) BySource(rel string) (*docmodel.DocumentNode, bool) {
	d, ok := s.bySource[path.Clean(rel)]
	return d, ok
}

// Navigation returns the prev/next links of a page.
func (s *Store) Navigation(slug string) (docmodel.NavigationEdge, error) {
	edge, ok := s.nav[slug]
	if !ok {
		return docmodel.NavigationEdge{}, fmt.Errorf("%w: %s", ErrNotFound, slug)
	}
	return edge, nil
}

// Docs returns every page in sidebar order.
func (s *Store) Docs() []*docmodel.DocumentNode { return slices.Clone(s.docs) }

// Sidebar returns the groups in display order.
func (s *Store) Sidebar() []Group { return slices.Clone(s.groups) }

// Partials returns the loaded partials ordered by source path.
func (s *Store) Partials() []*docmodel.DocumentNode { return slices.Clone(s.partials) }

// GroupOf returns the group a page belongs to.
func (s *Store) GroupOf(doc *docmodel.DocumentNode) (Group, bool) {
	for _, g := range s.groups {
		if g.Name == doc.Group {
			return g, true
		}
	}
	return Group{}, false
}

// Root is the content directory the store was loaded from.
func (s *Store) Root() string { return s.root }

// LoadedAt is when Load finished.
func (s *Store) LoadedAt() time.Time { return s.loadedAt }

// Fingerprint summarises every document fingerprint in sidebar order, so an
// unchanged tree yields the same value.
func (s *Store) Fingerprint() string {
	parts := make([]string, 0, len(s.docs)+len(s.partials))
	for _, d := range s.docs {
		parts = append(parts, d.ID+"="+d.Fingerprint)
	}
	for _, p := range s.partials {
		parts = append(parts, p.ID+"="+p.Fingerprint)
	}
	return mdfp.CalculateFingerprintFromParts("", strings.Join(parts, "\n"))
}
