// Package watch re-imports a process sheet whenever it changes on disk and
// publishes the resulting snapshot.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"procintel/internal/importer"
	"procintel/internal/logging"
	"procintel/internal/types"
)

// Sink receives each re-imported snapshot. *store.LocalStore implements it.
type Sink interface {
	SaveSnapshot(ctx context.Context, snap types.Snapshot) error
}

// Stats tracks watcher activity.
type Stats struct {
	Events       int
	Reloads      int
	Errors       int
	LastReload   time.Time
	LastRows     int
	LastWarnings int
	LastError    string
}

// Watcher watches one CSV file. The parent directory is watched so editors
// that save by rename are still seen.
type Watcher struct {
	mu       sync.RWMutex
	watcher  *fsnotify.Watcher
	path     string
	importer *importer.Importer
	sink     Sink
	onReload func(*importer.Result)

	pending     time.Time
	debounceDur time.Duration
	tick        time.Duration

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
	stats   Stats
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long the file must stay quiet before reloading.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounceDur = d
		}
	}
}

// OnReload registers a callback invoked after each successful reload.
func OnReload(fn func(*importer.Result)) Option {
	return func(w *Watcher) { w.onReload = fn }
}

// New creates a watcher for the sheet at path.
func New(path string, im *importer.Importer, sink Sink, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		watcher:     fw,
		path:        abs,
		importer:    im,
		sink:        sink,
		debounceDur: 500 * time.Millisecond,
		tick:        100 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Start performs an initial reload and begins watching. Non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logging.Watch("Watching %s", w.path)

	if _, err := os.Stat(w.path); err == nil {
		if err := w.Reload(ctx); err != nil {
			logging.WatchError("Initial import failed: %v", err)
		}
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.watcher.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.WatchError("Error closing watcher: %v", err)
	}
	logging.Watch("Stopped watching %s", w.path)
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.WatchError("fsnotify: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-ticker.C:
			w.processDebounced(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return
	}
	logging.Get(logging.CategoryWatch).Debug("%s %s", event.Op, event.Name)

	w.mu.Lock()
	w.stats.Events++
	w.pending = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) processDebounced(ctx context.Context) {
	w.mu.Lock()
	if w.pending.IsZero() || time.Since(w.pending) < w.debounceDur {
		w.mu.Unlock()
		return
	}
	w.pending = time.Time{}
	w.mu.Unlock()

	if err := w.Reload(ctx); err != nil {
		logging.WatchError("Reload failed: %v", err)
	}
}

// Reload imports the sheet and publishes the snapshot to the sink. A file
// that disappeared between the event and the reload is skipped.
func (w *Watcher) Reload(ctx context.Context) error {
	res, err := w.importer.ImportFile(w.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Get(logging.CategoryWatch).Debug("Sheet gone, skipping reload: %s", w.path)
			return nil
		}
		w.recordError(err)
		return err
	}
	if err := w.sink.SaveSnapshot(ctx, res.Snapshot); err != nil {
		err = fmt.Errorf("publish snapshot: %w", err)
		w.recordError(err)
		return err
	}

	w.mu.Lock()
	w.stats.Reloads++
	w.stats.LastReload = time.Now()
	w.stats.LastRows = res.Rows
	w.stats.LastWarnings = len(res.Warnings)
	w.stats.LastError = ""
	cb := w.onReload
	w.mu.Unlock()

	logging.Watch("Reloaded %s: %d rows, %d warnings", filepath.Base(w.path), res.Rows, len(res.Warnings))
	if cb != nil {
		cb(res)
	}
	return nil
}

func (w *Watcher) recordError(err error) {
	w.mu.Lock()
	w.stats.Errors++
	w.stats.LastError = err.Error()
	w.mu.Unlock()
}

// GetStats returns a copy of the watcher statistics.
func (w *Watcher) GetStats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// IsWatching reports whether the event loop is running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}
