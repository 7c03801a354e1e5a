// Package history persists build events in SQLite and projects them into
// per-build summaries for `docsite history` and the preview status page.
package history

import (
	"context"
	"time"
)

// Store persists and retrieves events.
type Store interface {
	Append(ctx context.Context, e Event) error
	GetByBuildID(ctx context.Context, buildID string) ([]Event, error)
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)
	// Prune deletes the events of all but the newest keep builds.
	Prune(ctx context.Context, keep int) error
	Close() error
}
