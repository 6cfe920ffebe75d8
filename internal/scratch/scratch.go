// Package scratch manages the temporary files a single request needs while
// its audio is synthesized and transcoded.
//
// A [Space] is a private temporary directory. Every intermediate file of a
// request is created inside it and the whole directory is removed by
// [Space.Release], so one deferred call covers success, backend failure and
// transcode failure alike.
package scratch

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// ErrReleased is returned when a file is requested from a released space.
var ErrReleased = errors.New("scratch space already released")

// Space is a request-scoped scratch directory. It is safe for concurrent use
// but is normally owned by a single request.
type Space struct {
	mu       sync.Mutex
	dir      string
	released bool
}

// New creates a fresh scratch space under base. An empty base uses the
// operating system's temporary directory. The prefix is included in the
// directory name to make leftovers attributable.
func New(base, prefix string) (*Space, error) {
	if prefix == "" {
		prefix = "ttsbroker"
	}
	dir, err := os.MkdirTemp(base, prefix+"-")
	if err != nil {
		return nil, fmt.Errorf("creating scratch space: %w", err)
	}
	return &Space{dir: dir}, nil
}

// Dir returns the directory backing the space.
func (s *Space) Dir() string {
	return s.dir
}

// Path reserves a new, uniquely named, empty file in the space and returns
// its path. The suffix should include the extension (e.g. ".aiff") because
// some converters infer the container from it.
func (s *Space) Path(pattern string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return "", ErrReleased
	}
	f, err := os.CreateTemp(s.dir, pattern)
	if err != nil {
		return "", fmt.Errorf("creating scratch file: %w", err)
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("closing scratch file: %w", err)
	}
	return name, nil
}

// Discard removes a single file from the space early. Paths outside the
// space are ignored.
func (s *Space) Discard(path string) {
	if filepath.Dir(path) != s.dir {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("removing scratch file", "path", path, "error", err)
	}
}

// Release deletes the space and everything in it. It is idempotent.
func (s *Space) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil
	}
	s.released = true
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("releasing scratch space %s: %w", s.dir, err)
	}
	return nil
}
