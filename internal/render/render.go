// Package render turns a loaded document into HTML fragments, a table of
// contents and prev/next links, expanding component references through an
// explicit components.Registry.
package render

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/components"
	"git.home.luguber.info/inful/docsite/internal/docmodel"
	"git.home.luguber.info/inful/docsite/internal/slug"
)

// DefaultMaxDepth bounds nested component expansion.
const DefaultMaxDepth = 8

// LinkPolicy decides what happens to a Markdown link whose target is unknown.
type LinkPolicy string

const (
	LinkPolicyThrow  LinkPolicy = "throw"
	LinkPolicyWarn   LinkPolicy = "warn"
	LinkPolicyIgnore LinkPolicy = "ignore"
)

// Options configures a Renderer.
type Options struct {
	// MaxDepth bounds component nesting; DefaultMaxDepth when <= 0.
	MaxDepth int
	// Vars are substituted for {site.<key>} placeholders in text and link targets.
	Vars map[string]string
	// Links rewrites links to Markdown sources. Nil leaves them untouched
	// and treats every one of them as broken.
	Links LinkResolver
	// OnBrokenMarkdownLinks defaults to LinkPolicyThrow.
	OnBrokenMarkdownLinks LinkPolicy
}

// Renderer renders documents. It holds no per-document state and is safe
// for concurrent use as long as the registry is not modified.
type Renderer struct {
	registry *components.Registry
	maxDepth int
	vars     *varSubstituter
	links    LinkResolver
	policy   LinkPolicy
}

// New returns a Renderer resolving components through registry.
func New(registry *components.Registry, opts Options) *Renderer {
	if registry == nil {
		registry = components.NewRegistry()
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.OnBrokenMarkdownLinks == "" {
		opts.OnBrokenMarkdownLinks = LinkPolicyThrow
	}
	return &Renderer{
		registry: registry,
		maxDepth: opts.MaxDepth,
		vars:     newVarSubstituter(opts.Vars),
		links:    opts.Links,
		policy:   opts.OnBrokenMarkdownLinks,
	}
}

// Render renders doc completely. On failure it returns a *RenderError and no page.
func (r *Renderer) Render(doc *docmodel.DocumentNode, nav docmodel.NavigationEdge) (*RenderedPage, error) {
	ru := r.newRun(doc)
	page := &RenderedPage{Doc: doc, Nav: nav}
	for frag, err := range ru.fragments() {
		if err != nil {
			return nil, err
		}
		page.Fragments = append(page.Fragments, frag)
	}
	page.TOC = ru.toc
	page.Components = slices.Sorted(maps.Keys(ru.expanded))
	return page, nil
}

// Fragments renders doc lazily, one fragment per step. After an error the
// sequence ends. The table of contents is only available through Render.
func (r *Renderer) Fragments(doc *docmodel.DocumentNode) iter.Seq2[Fragment, error] {
	return r.newRun(doc).fragments()
}

// State is the lifecycle of a single render call.
type State int

const (
	StateStart State = iota
	StateTraversing
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateTraversing:
		return "traversing"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// run is the mutable state of rendering one document.
type run struct {
	r        *Renderer
	doc      *docmodel.DocumentNode
	state    State
	slugger  *slug.Slugger
	toc      []docmodel.TOCEntry
	stack    []frame
	expanded map[string]struct{}
	line     int
}

// frame is one component expansion in progress.
type frame struct {
	component string
	origin    *docmodel.DocumentNode
}

func (r *Renderer) newRun(doc *docmodel.DocumentNode) *run {
	return &run{
		r:        r,
		doc:      doc,
		slugger:  slug.NewSlugger(),
		expanded: make(map[string]struct{}),
	}
}

func (ru *run) fragments() iter.Seq2[Fragment, error] {
	return func(yield func(Fragment, error) bool) {
		if ru.state != StateStart {
			yield(Fragment{}, ru.fail(fmt.Errorf("render run reused in state %s", ru.state)))
			return
		}
		ru.state = StateTraversing
		for _, b := range ru.doc.Blocks {
			ru.line = b.Line
			if !ru.topLevel(b, "", yield) {
				return
			}
		}
		ru.state = StateComplete
	}
}

// topLevel emits b as one fragment, or the blocks of a component reference
// as separate fragments. It returns false when traversal must stop.
func (ru *run) topLevel(b docmodel.Block, component string, yield func(Fragment, error) bool) bool {
	if b.Kind == docmodel.BlockPartial {
		blocks, err := ru.expand(b)
		if err != nil {
			yield(Fragment{}, ru.fail(err))
			return false
		}
		if component == "" {
			component = b.Component
		}
		for _, child := range blocks {
			if !ru.topLevel(child, component, yield) {
				return false
			}
		}
		ru.stack = ru.stack[:len(ru.stack)-1]
		return true
	}

	var sb strings.Builder
	if err := ru.writeBlock(&sb, b); err != nil {
		yield(Fragment{}, ru.fail(err))
		return false
	}
	return yield(Fragment{Kind: b.Kind, Line: ru.line, Component: component, HTML: sb.String()}, nil)
}

// expand resolves a reference and pushes it on the ancestor stack. The
// caller pops after rendering the returned blocks.
func (ru *run) expand(b docmodel.Block) ([]docmodel.Block, error) {
	if slices.ContainsFunc(ru.stack, func(f frame) bool { return f.component == b.Component }) {
		return nil, &CyclicReferenceError{Chain: ru.chain(b.Component)}
	}
	if len(ru.stack) >= ru.r.maxDepth {
		return nil, &CyclicReferenceError{Chain: ru.chain(b.Component), MaxDepth: ru.r.maxDepth}
	}
	fn, err := ru.r.registry.Resolve(b.Component)
	if err != nil {
		return nil, err
	}
	blocks, err := fn(components.Invocation{Doc: ru.doc, Props: b.Props, Depth: len(ru.stack)})
	if err != nil {
		return nil, fmt.Errorf("component %s: %w", b.Component, err)
	}
	ru.expanded[b.Component] = struct{}{}
	ru.stack = append(ru.stack, frame{component: b.Component, origin: ru.r.registry.Origin(b.Component)})
	return blocks, nil
}

func (ru *run) chain(next string) []string {
	names := make([]string, 0, len(ru.stack)+1)
	for _, f := range ru.stack {
		names = append(names, f.component)
	}
	return append(names, next)
}

// linkBase is the document relative links are resolved against: the
// innermost expanding partial, or the page itself.
func (ru *run) linkBase() *docmodel.DocumentNode {
	if n := len(ru.stack); n > 0 && ru.stack[n-1].origin != nil {
		return ru.stack[n-1].origin
	}
	return ru.doc
}

func (ru *run) fail(err error) error {
	ru.state = StateFailed
	return &RenderError{
		DocID:    ru.doc.ID,
		Location: fmt.Sprintf("%s:%d", ru.doc.Source, ru.line),
		Err:      err,
	}
}
