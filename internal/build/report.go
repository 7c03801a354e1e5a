package build

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/docsite/internal/linkverify"
)

// Outcome is the final state of a build.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Stage names, used for durations, metrics and log attributes.
const (
	StageLoad     = "load"
	StageRegister = "register"
	StageRender   = "render"
	StageWrite    = "write"
	StageVerify   = "verify"
)

// DocumentError is one document that failed to render.
type DocumentError struct {
	DocID string `json:"doc_id"`
	// Location is "<source>:<line>" of the failing block.
	Location string `json:"location"`
	Message  string `json:"message"`
}

func (e DocumentError) String() string {
	return fmt.Sprintf("%s (%s): %s", e.DocID, e.Location, e.Message)
}

// Report captures what a build did.
type Report struct {
	SchemaVersion int
	BuildID       string
	Trigger       string
	Start         time.Time
	End           time.Time
	Outcome       Outcome

	Documents   int
	Partials    int
	Rendered    int
	Written     int
	Unchanged   int
	Removed     int
	StaticFiles int

	StageDurations map[string]time.Duration
	Errors         []DocumentError
	Warnings       []string
	BrokenLinks    []linkverify.BrokenLink
	// Err is the error Run returned, if any.
	Err error
}

func newReport(buildID, trigger string, start time.Time) *Report {
	return &Report{
		SchemaVersion:  1,
		BuildID:        buildID,
		Trigger:        trigger,
		Start:          start,
		StageDurations: make(map[string]time.Duration),
	}
}

// Failed is the number of documents that did not render.
func (r *Report) Failed() int { return len(r.Errors) }

// Duration is the wall time of the build.
func (r *Report) Duration() time.Duration { return r.End.Sub(r.Start) }

// Summary returns a one-line human readable summary.
func (r *Report) Summary() string {
	return fmt.Sprintf("build=%s documents=%d rendered=%d failed=%d written=%d unchanged=%d broken_links=%d duration=%s outcome=%s",
		r.BuildID, r.Documents, r.Rendered, r.Failed(), r.Written, r.Unchanged, len(r.BrokenLinks),
		r.Duration().Truncate(time.Millisecond), r.Outcome)
}

func (r *Report) deriveOutcome(canceled bool) {
	switch {
	case canceled:
		r.Outcome = OutcomeCanceled
	case r.Err != nil || len(r.Errors) > 0:
		r.Outcome = OutcomeFailed
	case len(r.Warnings) > 0 || len(r.BrokenLinks) > 0:
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}

type reportJSON struct {
	SchemaVersion    int                     `json:"schema_version"`
	BuildID          string                  `json:"build_id"`
	Trigger          string                  `json:"trigger"`
	Start            time.Time               `json:"start"`
	End              time.Time               `json:"end"`
	DurationMS       int64                   `json:"duration_ms"`
	Outcome          Outcome                 `json:"outcome"`
	Documents        int                     `json:"documents"`
	Partials         int                     `json:"partials"`
	Rendered         int                     `json:"rendered"`
	Failed           int                     `json:"failed"`
	Written          int                     `json:"written"`
	Unchanged        int                     `json:"unchanged"`
	Removed          int                     `json:"removed"`
	StaticFiles      int                     `json:"static_files"`
	StageDurationsMS map[string]int64        `json:"stage_durations_ms"`
	Errors           []DocumentError         `json:"errors"`
	Warnings         []string                `json:"warnings"`
	BrokenLinks      []linkverify.BrokenLink `json:"broken_links"`
	Error            string                  `json:"error,omitempty"`
}

// MarshalJSON renders durations as milliseconds and never emits null lists.
func (r *Report) MarshalJSON() ([]byte, error) {
	out := reportJSON{
		SchemaVersion:    r.SchemaVersion,
		BuildID:          r.BuildID,
		Trigger:          r.Trigger,
		Start:            r.Start,
		End:              r.End,
		DurationMS:       r.Duration().Milliseconds(),
		Outcome:          r.Outcome,
		Documents:        r.Documents,
		Partials:         r.Partials,
		Rendered:         r.Rendered,
		Failed:           r.Failed(),
		Written:          r.Written,
		Unchanged:        r.Unchanged,
		Removed:          r.Removed,
		StaticFiles:      r.StaticFiles,
		StageDurationsMS: make(map[string]int64, len(r.StageDurations)),
		Errors:           r.Errors,
		Warnings:         r.Warnings,
		BrokenLinks:      r.BrokenLinks,
	}
	for k, v := range r.StageDurations {
		out.StageDurationsMS[k] = v.Milliseconds()
	}
	if out.Errors == nil {
		out.Errors = []DocumentError{}
	}
	if out.Warnings == nil {
		out.Warnings = []string{}
	}
	if out.BrokenLinks == nil {
		out.BrokenLinks = []linkverify.BrokenLink{}
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return json.Marshal(out)
}

// Persist writes the report as indented JSON to dir/name, atomically.
func (r *Report) Persist(dir, name string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure report dir: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	path := filepath.Join(dir, name)
	tmp := path + ".tmp"
	// #nosec G306 -- the report is published with the site
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp report json: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename json: %w", err)
	}
	return nil
}
