package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	m "afluent.dev/pkg/afluent/internal/model"
)

// DefaultDebounce groups bursts of writes to one report into one change.
const DefaultDebounce = 200 * time.Millisecond

// FileWatcher calls back when a file changes.
type FileWatcher interface {
	// Watch blocks until ctx is done, calling onChange after every settled
	// change of path. Errors from onChange are logged and watching goes on.
	Watch(ctx context.Context, path m.Path, onChange func() error) error
}

// FSNotifyWatcher implements FileWatcher with fsnotify.
type FSNotifyWatcher struct {
	debounce time.Duration
}

// NewFSNotifyWatcher returns a watcher that waits debounce after the last
// event before reporting a change.
func NewFSNotifyWatcher(debounce time.Duration) *FSNotifyWatcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &FSNotifyWatcher{debounce: debounce}
}

// Watch observes the parent directory so that editors and test harnesses
// that replace the file through a rename are noticed too.
func (w *FSNotifyWatcher) Watch(ctx context.Context, path m.Path, onChange func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	defer func() {
		_ = watcher.Close()
	}()

	target, err := filepath.Abs(string(path))
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	slog.Info("watching for changes", "path", target)

	timer := time.NewTimer(w.debounce)
	timer.Stop()

	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Op&fsnotify.Chmod == fsnotify.Chmod || filepath.Clean(event.Name) != target {
				continue
			}

			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				continue
			}

			timer.Reset(w.debounce)

		case <-timer.C:
			if err := onChange(); err != nil {
				slog.Error("refresh after change failed", "path", target, "error", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			slog.Warn("watcher error", "error", err)
		}
	}
}
