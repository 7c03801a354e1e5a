package errors

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("bad flag").Build(), 2},
		{"config", ConfigError("bad config").Build(), 7},
		{"content", ContentError("slug collision").Build(), 11},
		{"render", RenderError("2 documents failed").Build(), 12},
		{"links", LinksError("broken links").Build(), 13},
		{"wrapped render", fmt.Errorf("build: %w", RenderError("x").Build()), 12},
		{"unclassified", errors.New("unknown"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	cause := errors.New("yaml: line 3: mapping values are not allowed")
	err := WrapError(cause, CategoryContent, "content load failed").
		Fatal().
		WithContext("path", "docs/02-CHANGELOG.md").
		Build()

	t.Run("non-verbose shows message, cause and context", func(t *testing.T) {
		msg := NewCLIErrorAdapter(false, slog.Default()).FormatError(err)
		if !strings.HasPrefix(msg, "Error: content load failed: yaml") {
			t.Errorf("unexpected message: %q", msg)
		}
		if !strings.Contains(msg, "path: docs/02-CHANGELOG.md") {
			t.Errorf("expected context in message: %q", msg)
		}
	})

	t.Run("verbose shows classification", func(t *testing.T) {
		msg := NewCLIErrorAdapter(true, slog.Default()).FormatError(err)
		if !strings.Contains(msg, "[content:fatal]") {
			t.Errorf("expected classification prefix, got %q", msg)
		}
	})

	t.Run("unclassified", func(t *testing.T) {
		msg := NewCLIErrorAdapter(false, slog.Default()).FormatError(errors.New("boom"))
		if msg != "Error: boom" {
			t.Errorf("unexpected message: %q", msg)
		}
	})
}

func TestCLIErrorAdapter_Report(t *testing.T) {
	var logBuf, out bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logBuf, nil)))
	adapter.out = &out

	code := adapter.Report(ContentError("duplicate slug").Build())

	if code != 11 {
		t.Errorf("expected exit code 11, got %d", code)
	}
	if !strings.Contains(out.String(), "duplicate slug") {
		t.Errorf("expected message on output, got %q", out.String())
	}
	if !strings.Contains(logBuf.String(), "category=content") {
		t.Errorf("expected fatal error to be logged, got %q", logBuf.String())
	}
}
