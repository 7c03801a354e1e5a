package history

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// BuildStartedMeta describes the inputs of a build.
type BuildStartedMeta struct {
	Trigger    string `json:"trigger"` // cli, watch, schedule
	ContentDir string `json:"content_dir"`
	Workers    int    `json:"workers"`
	Version    string `json:"version,omitempty"`
}

// DocumentFailure is a per-document render error.
type DocumentFailure struct {
	DocID    string `json:"doc_id"`
	Location string `json:"location"`
	Error    string `json:"error"`
}

// BuildCompletedMeta summarizes a finished build.
type BuildCompletedMeta struct {
	Outcome     string `json:"outcome"` // success, warning, failed, canceled
	Documents   int    `json:"documents"`
	Rendered    int    `json:"rendered"`
	Failed      int    `json:"failed"`
	Written     int    `json:"written"`
	BrokenLinks int    `json:"broken_links"`
	DurationMS  int64  `json:"duration_ms"`
	Error       string `json:"error,omitempty"`
}

func newEvent(buildID, eventType string, v any) (*BaseEvent, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, errors.StorageError("failed to marshal "+eventType+" payload").WithCause(err).
			WithContext("build_id", buildID).
			Build()
	}
	return &BaseEvent{
		EventBuildID:   buildID,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   payload,
	}, nil
}

// NewBuildStarted creates a BuildStarted event.
func NewBuildStarted(buildID string, meta BuildStartedMeta) (Event, error) {
	return newEvent(buildID, TypeBuildStarted, meta)
}

// NewDocumentFailed creates a DocumentFailed event.
func NewDocumentFailed(buildID string, f DocumentFailure) (Event, error) {
	return newEvent(buildID, TypeDocumentFailed, f)
}

// NewBuildCompleted creates a BuildCompleted event.
func NewBuildCompleted(buildID string, meta BuildCompletedMeta) (Event, error) {
	return newEvent(buildID, TypeBuildCompleted, meta)
}
