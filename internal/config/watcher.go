package config

import (
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/san-kum/blobsim/internal/world"
)

// Watcher re-reads a config file on demand and reports a new revision
// only when the file content changed.
type Watcher struct {
	path    string
	hash    uint64
	current *File
}

func NewWatcher(path string) (*Watcher, error) {
	w := &Watcher{path: path}
	if _, _, err := w.Poll(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Watcher) Path() string   { return w.path }
func (w *Watcher) Current() *File { return w.current }

// Poll reads the file. It returns the parsed file and true when its
// content differs from the last successful poll. A file that fails to
// read, parse or validate leaves the current revision in place.
func (w *Watcher) Poll() (*File, bool, error) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return w.current, false, fmt.Errorf("config: watch %s: %w", w.path, err)
	}

	sum := xxhash.Sum64(data)
	if w.current != nil && sum == w.hash {
		return w.current, false, nil
	}

	cfg, err := Parse(data)
	if err != nil {
		return w.current, false, err
	}
	if err := cfg.Validate(); err != nil {
		return w.current, false, err
	}

	w.hash = sum
	w.current = cfg
	return cfg, true, nil
}

// Reload polls the file and returns its physics constants.
func (w *Watcher) Reload() (world.Config, bool, error) {
	cfg, changed, err := w.Poll()
	if cfg == nil {
		return world.Config{}, false, err
	}
	return cfg.Physics(), changed, err
}
