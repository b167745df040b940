package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events editors produce on save.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads a config file when it changes on disk.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(*File)
	onError  func(error)
}

// NewWatcher returns a watcher for path. onChange receives every successfully
// reloaded file; onError receives load and watch errors (may be nil).
func NewWatcher(path string, onChange func(*File), onError func(error)) *Watcher {
	if onError == nil {
		onError = func(error) {}
	}
	return &Watcher{path: filepath.Clean(path), debounce: DefaultDebounce, onChange: onChange, onError: onError}
}

// WithDebounce overrides DefaultDebounce.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	if d > 0 {
		w.debounce = d
	}
	return w
}

// Run watches until ctx is done. The directory is watched rather than the
// file so that rename-on-save editors keep being followed.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("config: watch %s: %w", w.path, err)
	}

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.onError(fmt.Errorf("config: watch %s: %w", w.path, err))
		case <-timer.C:
			f, err := Load(w.path)
			if err != nil {
				w.onError(err)
				continue
			}
			w.onChange(f)
		}
	}
}

// Watch is NewWatcher(path, onChange, onError).Run(ctx).
func Watch(ctx context.Context, path string, onChange func(*File), onError func(error)) error {
	return NewWatcher(path, onChange, onError).Run(ctx)
}
