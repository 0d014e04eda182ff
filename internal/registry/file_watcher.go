package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"selfscan/pkg/logging"
)

// FileWatcher reloads the registry when the applications file changes.
//
// The parent directory is watched rather than the file itself so that
// atomic replace-by-rename (editors, mounted ConfigMap symlink swaps) is
// picked up.
type FileWatcher struct {
	path     string
	debounce time.Duration
	reload   func(ctx context.Context) error

	mu    sync.Mutex
	timer *time.Timer
}

// NewFileWatcher creates a watcher for path that calls reload after changes
// settle for debounce.
func NewFileWatcher(path string, debounce time.Duration, reload func(ctx context.Context) error) *FileWatcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &FileWatcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		reload:   reload,
	}
}

// Run watches until ctx is cancelled.
func (w *FileWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	logging.Info("Registry", "Watching %s for application changes", w.path)

	defer w.stopTimer()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			logging.Debug("Registry", "Applications file event: %s", event)
			w.schedule(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Error("Registry", err, "Applications file watcher error")
		}
	}
}

func (w *FileWatcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	name := filepath.Clean(event.Name)
	if name == w.path {
		return true
	}
	// Kubernetes ConfigMap volumes swap a ..data symlink.
	return filepath.Base(name) == "..data"
}

func (w *FileWatcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		if err := w.reload(ctx); err != nil {
			logging.Error("Registry", err, "Failed to reload applications after file change")
		}
	})
}

func (w *FileWatcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}
