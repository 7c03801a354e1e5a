package site

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// Writer writes files below an output root. Files whose content did not
// change are left alone so watchers and HTTP caches see stable mtimes.
type Writer struct {
	root string

	mu        sync.Mutex
	seen      map[string]struct{}
	written   int
	unchanged int
}

// NewWriter returns a Writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{root: dir, seen: make(map[string]struct{})}
}

// Root is the output directory.
func (w *Writer) Root() string { return w.root }

// Write stores data at the slash separated path rel.
func (w *Writer) Write(rel string, data []byte) error {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("output path escapes output directory: %s", rel)
	}
	full := filepath.Join(w.root, clean)

	w.mu.Lock()
	w.seen[filepath.ToSlash(clean)] = struct{}{}
	w.mu.Unlock()

	// #nosec G304 -- full is confined to the output root above.
	if existing, err := os.ReadFile(full); err == nil && bytes.Equal(existing, data) {
		w.mu.Lock()
		w.unchanged++
		w.mu.Unlock()
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	tmp := full + ".tmp"
	// #nosec G306 -- generated site files are public
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	w.mu.Lock()
	w.written++
	w.mu.Unlock()
	return nil
}

// CopyDir copies every regular file below src into the output root.
func (w *Writer) CopyDir(src string) (int, error) {
	n := 0
	err := filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		// #nosec G304 -- p comes from walking the configured static directory.
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		n++
		return w.Write(filepath.ToSlash(rel), data)
	})
	return n, err
}

// Prune removes files below the root that were not written during this run
// and the directories left empty by that. It returns the removed file paths.
func (w *Writer) Prune(keep ...string) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, k := range keep {
		w.seen[k] = struct{}{}
	}

	var removed, dirs []string
	err := filepath.WalkDir(w.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(w.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel != "." {
				dirs = append(dirs, p)
			}
			return nil
		}
		if _, ok := w.seen[rel]; ok {
			return nil
		}
		if err := os.Remove(p); err != nil {
			return err
		}
		removed = append(removed, rel)
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return removed, err
	}
	// Deepest first so parents empty out after their children.
	slices.Reverse(dirs)
	for _, d := range dirs {
		_ = os.Remove(d) // fails unless empty
	}
	return removed, nil
}

// Stats returns how many files were written and how many were already up
// to date.
func (w *Writer) Stats() (written, unchanged int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written, w.unchanged
}
