// Package reload restarts an override session when its config file changes.
package reload

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDelay is how long the reloader waits after the last write.
const DefaultDelay = 500 * time.Millisecond

// Func is called once per settled burst of writes.
type Func func() error

// Reloader watches config files for changes and triggers a reload.
// It watches each file's directory so that editors which save by writing
// a temporary file and renaming it over the original are seen too.
type Reloader struct {
	watcher *fsnotify.Watcher
	reload  Func
	logger  *slog.Logger
	paths   []string
	targets map[string]bool
	delay   time.Duration
}

// NewReloader creates a file watcher for the given paths. Empty and
// nonexistent paths are skipped.
func NewReloader(reload Func, logger *slog.Logger, paths ...string) (*Reloader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	r := &Reloader{
		watcher: watcher,
		reload:  reload,
		logger:  logger,
		targets: make(map[string]bool),
		delay:   DefaultDelay,
	}
	dirs := make(map[string]bool)
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		dir := filepath.Dir(p)
		if !dirs[dir] {
			if err := watcher.Add(dir); err != nil {
				watcher.Close()
				return nil, fmt.Errorf("failed to watch %q: %w", dir, err)
			}
			dirs[dir] = true
		}
		r.targets[filepath.Clean(p)] = true
		r.paths = append(r.paths, p)
	}
	return r, nil
}

// Paths returns the files actually being watched.
func (r *Reloader) Paths() []string {
	return append([]string(nil), r.paths...)
}

// changes reports whether ev touched the content of a watched file.
// A rename into place arrives as a create on the target name.
func (r *Reloader) changes(ev fsnotify.Event) bool {
	if !r.targets[filepath.Clean(ev.Name)] {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)
}

// Run reloads once per settled burst of changes and blocks until ctx is
// cancelled. Reloads run on the calling goroutine. Reload failures are
// logged and never stop the watcher.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.watcher.Close()

	settle := time.NewTimer(r.delay)
	settle.Stop()
	defer settle.Stop()
	var last string

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if r.changes(ev) {
				last = ev.Name
				settle.Reset(r.delay)
			}

		case <-settle.C:
			if err := r.reload(); err != nil {
				r.logger.Error("config reload failed", "file", last, "error", err)
				continue
			}
			r.logger.Info("config reloaded", "file", last)

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("file watcher error", "error", err)
		}
	}
}
