// Package notify publishes build results to NATS so other systems (chat
// bots, deploy jobs) can react to finished builds and broken links.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// BuildEvent is published once per finished build on <subject>.completed.
type BuildEvent struct {
	BuildID     string          `json:"build_id"`
	Site        string          `json:"site"`
	Outcome     string          `json:"outcome"`
	Documents   int             `json:"documents"`
	Rendered    int             `json:"rendered"`
	Failed      int             `json:"failed"`
	BrokenLinks int             `json:"broken_links"`
	DurationMS  int64           `json:"duration_ms"`
	Errors      []DocumentError `json:"errors,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

// DocumentError is a per-document failure carried by BuildEvent.
type DocumentError struct {
	DocID    string `json:"doc_id"`
	Location string `json:"location"`
	Message  string `json:"message"`
}

// BrokenLinkEvent is published per broken link on <subject>.broken_link.
type BrokenLinkEvent struct {
	BuildID string    `json:"build_id"`
	Page    string    `json:"page"`
	Target  string    `json:"target"`
	Reason  string    `json:"reason"`
	Time    time.Time `json:"timestamp"`
}

// Publisher sends build notifications.
type Publisher interface {
	PublishBuild(ctx context.Context, e BuildEvent) error
	PublishBrokenLink(ctx context.Context, e BrokenLinkEvent) error
	Close() error
}

// NoopPublisher drops every notification.
type NoopPublisher struct{}

func (NoopPublisher) PublishBuild(context.Context, BuildEvent) error           { return nil }
func (NoopPublisher) PublishBrokenLink(context.Context, BrokenLinkEvent) error { return nil }
func (NoopPublisher) Close() error                                             { return nil }

// NATSPublisher publishes JSON messages on a NATS connection.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	timeout time.Duration
}

// New returns a NATS publisher when cfg.URL is set and a NoopPublisher otherwise.
func New(cfg config.NotifyConfig) (Publisher, error) {
	if cfg.URL == "" {
		return NoopPublisher{}, nil
	}
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil || timeout <= 0 {
		timeout = 5 * time.Second
	}
	return NewNATSPublisher(cfg.URL, cfg.Subject, timeout)
}

// NewNATSPublisher connects to url.
func NewNATSPublisher(url, subject string, timeout time.Duration) (*NATSPublisher, error) {
	if subject == "" {
		return nil, errors.New("notify subject is required")
	}
	conn, err := nats.Connect(url,
		nats.Name("docsite"),
		nats.Timeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS notifications enabled", logfields.URL(url), "subject", subject)
	return &NATSPublisher{conn: conn, subject: subject, timeout: timeout}, nil
}

// Subject returns the subject a message kind is published on.
func Subject(base, kind string) string { return base + "." + kind }

func (p *NATSPublisher) publish(ctx context.Context, kind string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", kind, err)
	}
	subject := Subject(p.subject, kind)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush %s: %w", subject, err)
	}
	return nil
}

// PublishBuild publishes e on <subject>.completed.
func (p *NATSPublisher) PublishBuild(ctx context.Context, e BuildEvent) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if err := p.publish(ctx, "completed", e); err != nil {
		return err
	}
	slog.Debug("Published build event", logfields.BuildID(e.BuildID), logfields.Outcome(e.Outcome))
	return nil
}

// PublishBrokenLink publishes e on <subject>.broken_link.
func (p *NATSPublisher) PublishBrokenLink(ctx context.Context, e BrokenLinkEvent) error {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	return p.publish(ctx, "broken_link", e)
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
