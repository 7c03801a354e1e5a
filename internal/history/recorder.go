package history

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// Recorder appends events to a Store and keeps a Projection current. A nil
// *Recorder discards everything, so callers need no enabled checks.
type Recorder struct {
	store      Store
	projection *Projection
	keep       int
}

// NewRecorder wires store and projection. keep bounds the stored builds.
func NewRecorder(store Store, projection *Projection, keep int) *Recorder {
	return &Recorder{store: store, projection: projection, keep: keep}
}

// BuildStarted records the start of a build.
func (r *Recorder) BuildStarted(ctx context.Context, buildID string, meta BuildStartedMeta) {
	if r == nil {
		return
	}
	e, err := NewBuildStarted(buildID, meta)
	r.record(ctx, e, err)
}

// DocumentFailed records a per-document render error.
func (r *Recorder) DocumentFailed(ctx context.Context, buildID string, f DocumentFailure) {
	if r == nil {
		return
	}
	e, err := NewDocumentFailed(buildID, f)
	r.record(ctx, e, err)
}

// BuildCompleted records the end of a build and prunes old builds.
func (r *Recorder) BuildCompleted(ctx context.Context, buildID string, meta BuildCompletedMeta) {
	if r == nil {
		return
	}
	e, err := NewBuildCompleted(buildID, meta)
	r.record(ctx, e, err)
}

// record persists e. Failures are logged, never returned: a build must not
// fail because its history could not be written.
func (r *Recorder) record(ctx context.Context, e Event, err error) {
	if err != nil {
		slog.Warn("Build history event not created", logfields.Error(err))
		return
	}
	if err := r.store.Append(context.WithoutCancel(ctx), e); err != nil {
		slog.Warn("Build history append failed", logfields.BuildID(e.BuildID()), logfields.Error(err))
		return
	}
	if r.projection != nil {
		r.projection.Apply(e)
	}
	if e.Type() == TypeBuildCompleted && r.keep > 0 {
		if err := r.store.Prune(context.WithoutCancel(ctx), r.keep); err != nil {
			slog.Warn("Build history prune failed", logfields.Error(err))
		}
	}
}

// Projection returns the read model, or nil.
func (r *Recorder) Projection() *Projection {
	if r == nil {
		return nil
	}
	return r.projection
}
