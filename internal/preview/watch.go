package preview

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// newWatcher watches the content and static trees recursively and the
// directory of the configuration file.
func (s *Server) newWatcher() (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.FileSystemError("create watcher").WithCause(err).Build()
	}
	cfg := s.config()
	if err := addDirsRecursive(w, cfg.ContentDir()); err != nil {
		_ = w.Close()
		return nil, errors.FileSystemError("watch content directory").WithCause(err).
			WithContext("path", cfg.ContentDir()).
			Build()
	}
	if cfg.Output.StaticDir != "" {
		if fi, err := os.Stat(cfg.StaticDir()); err == nil && fi.IsDir() {
			_ = addDirsRecursive(w, cfg.StaticDir())
		}
	}
	if s.opts.ConfigPath != "" {
		if err := w.Add(filepath.Dir(s.opts.ConfigPath)); err != nil {
			slog.Warn("Watch add failed", logfields.Path(s.opts.ConfigPath), logfields.Error(err))
		}
	}
	return w, nil
}

func (s *Server) loop(ctx context.Context, w *fsnotify.Watcher, d *debouncer, serveErr <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-serveErr:
			if ok && err != nil {
				return errors.NetworkError("preview server failed").WithCause(err).Build()
			}
			serveErr = nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			s.handleEvent(w, ev, d)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (s *Server) handleEvent(w *fsnotify.Watcher, ev fsnotify.Event, d *debouncer) {
	if shouldIgnoreEvent(ev.Name) || ev.Op == fsnotify.Chmod {
		return
	}
	if s.opts.ConfigPath != "" && filepath.Clean(ev.Name) == filepath.Clean(s.opts.ConfigPath) {
		s.reloadConfig()
		cfg := s.config()
		_ = addDirsRecursive(w, cfg.ContentDir())
		slog.Debug("Config change detected", logfields.Path(ev.Name))
		d.Trigger()
		return
	}
	if !s.watched(ev.Name) {
		return
	}
	if ev.Op.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(w, ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), "op", ev.Op.String())
	d.Trigger()
}

// watched reports whether name lies in the content or static tree. Events
// from the configuration directory that are not the config file are dropped.
func (s *Server) watched(name string) bool {
	cfg := s.config()
	roots := []string{cfg.ContentDir()}
	if cfg.Output.StaticDir != "" {
		roots = append(roots, cfg.StaticDir())
	}
	out := filepath.Clean(cfg.OutputDir())
	name = filepath.Clean(name)
	if within(out, name) {
		return false
	}
	for _, root := range roots {
		if within(filepath.Clean(root), name) {
			return true
		}
	}
	return false
}

func within(root, name string) bool {
	rel, err := filepath.Rel(root, name)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	if _, err := os.Stat(root); err != nil {
		return err
	}
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.Add(p); err != nil {
			slog.Warn("Watch add failed", logfields.Path(p), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnoreEvent drops hidden files, editor swap and backup files and
// OS metadata files.
func shouldIgnoreEvent(p string) bool {
	base := filepath.Base(p)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"),
		strings.HasSuffix(base, ".swp"),
		strings.HasSuffix(base, ".swx"),
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db":
		return true
	}
	return false
}

// debouncer collapses bursts of Trigger calls into one call of fire, delay
// after the last trigger.
type debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	fire    func()
	stopped bool
}

func newDebouncer(delay time.Duration, fire func()) *debouncer {
	return &debouncer{delay: delay, fire: fire}
}

func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.delay <= 0 {
		go d.fire()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
