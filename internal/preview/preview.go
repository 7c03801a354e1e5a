// Package preview implements `docsite serve`: it builds the site, serves the
// output directory and rebuilds whenever the content, static assets or the
// configuration file change.
package preview

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"git.home.luguber.info/inful/docsite/internal/build"
	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/history"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

const shutdownTimeout = 5 * time.Second

// Options are the optional collaborators of a Server.
type Options struct {
	// ConfigPath is watched; a change reloads the configuration through Reload.
	ConfigPath string
	Reload     func() (*config.Config, error)
	// Metrics is mounted at monitoring.metrics.path when set.
	Metrics http.Handler
	History *history.Projection
}

// Server is a local preview: one HTTP listener, one filesystem watcher and a
// single rebuild worker.
type Server struct {
	service build.Service
	opts    Options
	errs    *errors.HTTPErrorAdapter

	debounce     time.Duration
	rebuildEvery time.Duration

	// requests holds at most one pending rebuild; further triggers coalesce.
	requests chan string

	mu       sync.RWMutex
	cfg      *config.Config
	last     *build.Report
	lastErr  error
	building bool
	addr     string
}

// New validates the preview settings of cfg.
func New(cfg *config.Config, service build.Service, opts Options) (*Server, error) {
	if cfg == nil {
		return nil, errors.ConfigError("config required").Build()
	}
	debounce, err := parseDuration("preview.debounce", cfg.Preview.Debounce)
	if err != nil {
		return nil, err
	}
	every, err := parseDuration("preview.rebuild_every", cfg.Preview.RebuildEvery)
	if err != nil {
		return nil, err
	}
	return &Server{
		service:      service,
		opts:         opts,
		errs:         errors.NewHTTPErrorAdapter(nil),
		debounce:     debounce,
		rebuildEvery: every,
		requests:     make(chan string, 1),
		cfg:          cfg,
	}, nil
}

func parseDuration(field, raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, errors.ConfigError("invalid duration").
			WithContext("field", field).
			WithContext("value", raw).
			Build()
	}
	return d, nil
}

func (s *Server) config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Addr is the address the server listens on once Run has started it.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Request queues a rebuild unless one is already pending.
func (s *Server) Request(trigger string) {
	select {
	case s.requests <- trigger:
	default:
	}
}

// Run builds once, then serves and watches until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	cfg := s.config()
	s.rebuild(ctx, build.TriggerCLI)

	w, err := s.newWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	ln, err := net.Listen("tcp", net.JoinHostPort(cfg.Preview.Host, strconv.Itoa(cfg.Preview.Port)))
	if err != nil {
		return errors.NetworkError("preview listen failed").WithCause(err).
			WithContext("port", cfg.Preview.Port).
			Build()
	}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	slog.Info("Preview server listening", logfields.URL("http://"+s.Addr()+cfg.SiteURL("/")))

	sched, err := s.startSchedule()
	if err != nil {
		_ = srv.Close()
		return err
	}

	workerCtx, stopWorker := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.worker(workerCtx)
	}()

	d := newDebouncer(s.debounce, func() { s.Request(build.TriggerWatch) })
	runErr := s.loop(ctx, w, d, serveErr)

	slog.Info("Shutting down preview server")
	d.Stop()
	if sched != nil {
		if err := sched.Shutdown(); err != nil {
			slog.Warn("Scheduler shutdown failed", logfields.Error(err))
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP server shutdown error", logfields.Error(err))
	}
	stopWorker()
	wg.Wait()
	return runErr
}

func (s *Server) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case trigger := <-s.requests:
			s.rebuild(ctx, trigger)
		}
	}
}

func (s *Server) rebuild(ctx context.Context, trigger string) {
	s.mu.Lock()
	s.building = true
	cfg := s.cfg
	s.mu.Unlock()

	report, err := s.service.Run(ctx, build.Request{Config: cfg, Trigger: trigger})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.building = false
	if report != nil {
		s.last = report
	}
	s.lastErr = err
	if err != nil {
		slog.Warn("Rebuild failed", "trigger", trigger, logfields.Error(err))
	}
}

// reloadConfig swaps in a freshly loaded configuration; on failure the
// previous one stays active.
func (s *Server) reloadConfig() {
	if s.opts.Reload == nil {
		return
	}
	cfg, err := s.opts.Reload()
	if err != nil {
		slog.Warn("Config reload failed; keeping previous configuration", logfields.Path(s.opts.ConfigPath), logfields.Error(err))
		return
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	slog.Info("Configuration reloaded", logfields.Path(s.opts.ConfigPath))
}
