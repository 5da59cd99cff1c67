// Package store persists the assistant's file artifacts. Today that is the
// way summary table written after every way/node lookup.
//
// Every write replaces the previous artifact wholesale: the new content goes
// to a temp file in the same directory and is renamed over the target, so a
// reader never sees a half-written file. Concurrent writers are not
// coordinated; the last rename wins.
//
// Dependency rule: store imports overpass only. It never imports api,
// assistant, or ai.
package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store owns the location of the way summary artifact.
type Store struct {
	waySummaryPath string
}

// New creates a Store writing the way summary to waySummaryPath. An empty
// path disables the artifact; writes become no-ops.
func New(waySummaryPath string) *Store {
	return &Store{waySummaryPath: waySummaryPath}
}

// WaySummaryPath is the artifact location, or "" when disabled.
func (s *Store) WaySummaryPath() string {
	return s.waySummaryPath
}

// writeFn writes the full artifact content. Returning a non-nil error causes
// withTempFile to discard the temp file and leave the old artifact in place.
type writeFn func(w io.Writer) error

// withTempFile writes through fn into a temp file next to path and renames it
// over path on success. On any error (including panics) the temp file is
// removed and path is untouched.
func withTempFile(path string, fn writeFn) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("store: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
		if p := recover(); p != nil {
			panic(p) // re-panic after cleanup
		}
	}()

	if err := fn(tmp); err != nil {
		return fmt.Errorf("store: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("store: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		committed = true
		return fmt.Errorf("store: rename: %w", err)
	}

	committed = true
	return nil
}
