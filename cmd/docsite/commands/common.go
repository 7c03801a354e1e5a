// Package commands implements the docsite CLI commands.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docsite/internal/build"
	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/history"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/notify"
)

// Global is bound into every command's Run.
type Global struct {
	// Out receives user-facing output; logs go to stderr.
	Out io.Writer
}

func NewGlobal(out io.Writer) *Global { return &Global{Out: out} }

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"docsite.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build the static site"`
	Serve   ServeCmd   `cmd:"" help:"Build, serve locally and rebuild on changes"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	Check   CheckCmd   `cmd:"" help:"Verify internal links of a built site"`
	History HistoryCmd `cmd:"" help:"List recent builds"`
	MCP     MCPCmd     `cmd:"" name:"mcp" help:"Expose the documents as MCP tools"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	setupLogging(c.Verbose, config.MonitoringLogging{})
	return nil
}

// setupLogging installs the default logger. --verbose wins over the
// configured level.
func setupLogging(verbose bool, lc config.MonitoringLogging) {
	level := slog.LevelInfo
	switch lc.Level {
	case config.LogLevelDebug:
		level = slog.LevelDebug
	case config.LogLevelWarn:
		level = slog.LevelWarn
	case config.LogLevelError:
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if lc.Format == config.LogFormatJSON {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

// loadConfig reads the configuration and applies its logging section.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, errors.ConfigError("failed to load configuration").WithCause(err).
			WithContext("path", c.Config).
			Build()
	}
	setupLogging(c.Verbose, cfg.Monitoring.Logging)
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// services are the collaborators of a builder, opened from the configuration.
type services struct {
	builder    *build.Builder
	registry   *prom.Registry
	projection *history.Projection
	closers    []func() error
}

func openServices(ctx context.Context, cfg *config.Config) (*services, error) {
	s := &services{builder: build.NewBuilder()}

	if cfg.Monitoring.Metrics.Enabled {
		s.registry = prom.NewRegistry()
		s.builder.WithRecorder(metrics.NewPrometheusRecorder(s.registry))
	}

	if cfg.History.Enabled {
		p := cfg.HistoryPath()
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			return nil, errors.StorageError("create history directory").WithCause(err).
				WithContext("path", p).Build()
		}
		store, err := history.OpenSQLite(p)
		if err != nil {
			return nil, errors.StorageError("open build history").WithCause(err).
				WithContext("path", p).Build()
		}
		s.closers = append(s.closers, store.Close)
		s.projection = history.NewProjection(store, cfg.History.Keep)
		if err := s.projection.Rebuild(ctx); err != nil {
			slog.Warn("Build history replay failed", logfields.Path(p), logfields.Error(err))
		}
		s.builder.WithHistory(history.NewRecorder(store, s.projection, cfg.History.Keep))
	}

	pub, err := notify.New(cfg.Notify)
	if err != nil {
		slog.Warn("Build notifications disabled", logfields.URL(cfg.Notify.URL), logfields.Error(err))
		pub = notify.NoopPublisher{}
	}
	s.closers = append(s.closers, pub.Close)
	s.builder.WithPublisher(pub)
	return s, nil
}

func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			slog.Warn("Close failed", logfields.Error(err))
		}
	}
}
