package content

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned (wrapped with the slug) by lookups for unknown documents.
	ErrNotFound = errors.New("document not found")

	// ErrDuplicateID indicates two documents resolve to the same id.
	ErrDuplicateID = errors.New("duplicate document id")

	// ErrSlugCollision indicates two documents resolve to the same slug.
	ErrSlugCollision = errors.New("slug collision")

	// ErrDuplicateComponent indicates two partials declare the same component name.
	ErrDuplicateComponent = errors.New("duplicate partial component")
)

// LoadError aborts a whole load. Path is relative to the content directory.
type LoadError struct {
	Path string
	Line int
	Err  error
}

func (e *LoadError) Error() string {
	switch {
	case e.Path == "":
		return fmt.Sprintf("load content: %v", e.Err)
	case e.Line > 0:
		return fmt.Sprintf("load %s:%d: %v", e.Path, e.Line, e.Err)
	default:
		return fmt.Sprintf("load %s: %v", e.Path, e.Err)
	}
}

func (e *LoadError) Unwrap() error { return e.Err }
