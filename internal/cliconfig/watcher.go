package cliconfig

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/gesturebridge/internal/ports"
)

// DefaultReloadDelay debounces bursts of file events.
const DefaultReloadDelay = 100 * time.Millisecond

// Watcher reloads the config file when it changes and hands the parsed file
// to a callback.
type Watcher struct {
	path     string
	delay    time.Duration
	logger   ports.Logger
	onChange func(FileConfig)

	mu       sync.Mutex
	debounce *time.Timer
}

// NewWatcher creates a watcher for path. onChange runs on a timer goroutine.
func NewWatcher(path string, logger ports.Logger, onChange func(FileConfig)) *Watcher {
	return &Watcher{
		path:     path,
		delay:    DefaultReloadDelay,
		logger:   logger,
		onChange: onChange,
	}
}

// Run watches the file's directory until ctx is done. Editors replace files
// rather than writing them, so the directory is watched, not the file.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	defer watcher.Close()
	defer w.stopPending()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("config watcher: watch %s: %w", dir, err)
	}
	w.logger.Info("watching config file", ports.String("path", w.path))

	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.schedule(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", ports.Err(err))
		}
	}
}

func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(w.delay, func() {
		if ctx.Err() != nil {
			return
		}
		w.reload()
	})
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
}

func (w *Watcher) reload() {
	fc, err := LoadFileConfig(w.path)
	if err != nil {
		w.logger.Warn("config reload failed", ports.String("path", w.path), ports.Err(err))
		return
	}
	w.logger.Info("config file reloaded", ports.String("path", w.path))
	w.onChange(fc)
}

// ReloadTickInterval returns the tick interval from a reloaded file. ok is
// false when the file does not set it or the key is pinned by a flag or the
// environment.
func ReloadTickInterval(fc FileConfig, pinned map[string]bool) (d time.Duration, ok bool, err error) {
	if fc.TickInterval == "" || pinned["tick"] {
		return 0, false, nil
	}
	d, err = time.ParseDuration(fc.TickInterval)
	if err != nil {
		return 0, false, fmt.Errorf("parse tick: %w", err)
	}
	if d < 0 {
		return 0, false, fmt.Errorf("parse tick: negative interval %s", d)
	}
	return d, true, nil
}
