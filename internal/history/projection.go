package history

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"
)

const statusRunning = "running"

// BuildSummary is the read model of one build.
type BuildSummary struct {
	BuildID     string            `json:"build_id"`
	Trigger     string            `json:"trigger,omitempty"`
	Status      string            `json:"status"` // running, success, warning, failed, canceled
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Duration    time.Duration     `json:"duration,omitempty"`
	Documents   int               `json:"documents"`
	Rendered    int               `json:"rendered"`
	Written     int               `json:"written"`
	BrokenLinks int               `json:"broken_links"`
	Failures    []DocumentFailure `json:"failures,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// Projection keeps the newest builds in memory, rebuilt from a Store and
// updated with Apply as events are emitted.
type Projection struct {
	mu      sync.RWMutex
	store   Store
	builds  map[string]*BuildSummary
	history []*BuildSummary // completed, newest first
	maxSize int
}

// NewProjection creates a projection over store keeping maxSize completed builds.
func NewProjection(store Store, maxSize int) *Projection {
	if maxSize <= 0 {
		maxSize = 50
	}
	return &Projection{
		store:   store,
		builds:  make(map[string]*BuildSummary),
		maxSize: maxSize,
	}
}

// Rebuild replays every stored event.
func (p *Projection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.builds = make(map[string]*BuildSummary)
	p.history = nil
	for _, e := range events {
		p.applyLocked(e)
	}
	slices.SortStableFunc(p.history, func(a, b *BuildSummary) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	p.trimLocked()
	return nil
}

// Apply folds a single event into the projection.
func (p *Projection) Apply(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyLocked(e)
}

func (p *Projection) applyLocked(e Event) {
	id := e.BuildID()
	if id == "" {
		return
	}
	s, ok := p.builds[id]
	if !ok {
		s = &BuildSummary{BuildID: id, Status: statusRunning, StartedAt: e.Timestamp()}
		p.builds[id] = s
	}

	switch e.Type() {
	case TypeBuildStarted:
		var meta BuildStartedMeta
		if err := json.Unmarshal(e.Payload(), &meta); err == nil {
			s.Trigger = meta.Trigger
		}
		s.StartedAt = e.Timestamp()
		s.Status = statusRunning

	case TypeDocumentFailed:
		var f DocumentFailure
		if err := json.Unmarshal(e.Payload(), &f); err == nil {
			s.Failures = append(s.Failures, f)
		}

	case TypeBuildCompleted:
		var meta BuildCompletedMeta
		if err := json.Unmarshal(e.Payload(), &meta); err == nil {
			s.Status = meta.Outcome
			s.Documents = meta.Documents
			s.Rendered = meta.Rendered
			s.Written = meta.Written
			s.BrokenLinks = meta.BrokenLinks
			s.Error = meta.Error
		}
		done := e.Timestamp()
		s.CompletedAt = &done
		s.Duration = done.Sub(s.StartedAt)
		p.addToHistoryLocked(s)
	}
}

func (p *Projection) addToHistoryLocked(s *BuildSummary) {
	for _, h := range p.history {
		if h.BuildID == s.BuildID {
			return
		}
	}
	p.history = append([]*BuildSummary{s}, p.history...)
	p.trimLocked()
}

// trimLocked bounds history and drops finished builds that fell out of it.
func (p *Projection) trimLocked() {
	if len(p.history) > p.maxSize {
		p.history = p.history[:p.maxSize]
	}
	keep := make(map[string]struct{}, len(p.history))
	for _, h := range p.history {
		keep[h.BuildID] = struct{}{}
	}
	for id, s := range p.builds {
		if s.Status == statusRunning {
			continue
		}
		if _, ok := keep[id]; !ok {
			delete(p.builds, id)
		}
	}
}

// History returns completed builds, newest first.
func (p *Projection) History() []BuildSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]BuildSummary, len(p.history))
	for i, s := range p.history {
		out[i] = *s
	}
	return out
}

// Build returns the summary of one build.
func (p *Projection) Build(buildID string) (BuildSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.builds[buildID]
	if !ok {
		return BuildSummary{}, false
	}
	return *s, true
}

// Active returns a build that started but has not completed.
func (p *Projection) Active() (BuildSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, s := range p.builds {
		if s.Status == statusRunning {
			return *s, true
		}
	}
	return BuildSummary{}, false
}

// Last returns the most recently completed build.
func (p *Projection) Last() (BuildSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.history) == 0 {
		return BuildSummary{}, false
	}
	return *p.history[0], true
}
