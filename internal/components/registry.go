// Package components maps the custom elements used in documents (partial
// references such as <AccessingTagsPartial />) to render functions.
//
// A Registry is an explicit value handed to the renderer. Lookups happen at
// render time, so a component registered after the content was loaded still
// resolves.
package components

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"git.home.luguber.info/inful/docsite/internal/docmodel"
)

// ErrRegistryFrozen is returned by Register once rendering has started.
var ErrRegistryFrozen = errors.New("component registry is frozen")

// DuplicateRegistrationError reports a second Register call for a name.
type DuplicateRegistrationError struct {
	Name string
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("component %q is already registered", e.Name)
}

// UnresolvedComponentError reports a reference to a name nobody registered.
type UnresolvedComponentError struct {
	Name string
}

func (e *UnresolvedComponentError) Error() string {
	return fmt.Sprintf("component %q is not registered", e.Name)
}

// Invocation is what a component sees when it is expanded.
type Invocation struct {
	// Doc is the page being rendered, not the partial that contains the reference.
	Doc   *docmodel.DocumentNode
	Props map[string]string
	// Depth is the number of enclosing component expansions.
	Depth int
}

// RenderFunc expands a component into blocks. The returned blocks may
// contain further partial references; the renderer expands those too.
type RenderFunc func(inv Invocation) ([]docmodel.Block, error)

// Registry is a name keyed dispatch table. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	fns     map[string]RenderFunc
	origins map[string]*docmodel.DocumentNode
	frozen  bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		fns:     make(map[string]RenderFunc),
		origins: make(map[string]*docmodel.DocumentNode),
	}
}

// Register adds fn under name.
func (r *Registry) Register(name string, fn RenderFunc) error {
	return r.RegisterFrom(name, nil, fn)
}

// RegisterFrom adds fn under name as the expansion of origin, the document
// its blocks come from. Relative links in those blocks resolve against
// origin's source.
func (r *Registry) RegisterFrom(name string, origin *docmodel.DocumentNode, fn RenderFunc) error {
	if name == "" {
		return errors.New("component name must not be empty")
	}
	if fn == nil {
		return fmt.Errorf("component %q: render function must not be nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("register %q: %w", name, ErrRegistryFrozen)
	}
	if _, exists := r.fns[name]; exists {
		return &DuplicateRegistrationError{Name: name}
	}
	r.fns[name] = fn
	if origin != nil {
		r.origins[name] = origin
	}
	return nil
}

// Origin returns the document name was registered from, or nil for
// components that are not backed by a document.
func (r *Registry) Origin(name string) *docmodel.DocumentNode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.origins[name]
}

// Resolve looks name up.
func (r *Registry) Resolve(name string) (RenderFunc, error) {
	r.mu.RLock()
	fn, ok := r.fns[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnresolvedComponentError{Name: name}
	}
	return fn, nil
}

// Freeze rejects further registrations.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether Freeze was called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.fns))
	for name := range r.fns {
		names = append(names, name)
	}
	r.mu.RUnlock()
	slices.Sort(names)
	return names
}
