// Package watch reloads a dataset file when it changes on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/recera/relgraph/pkg/dataset"
)

// DefaultDebounce collapses the burst of events an editor save produces.
const DefaultDebounce = 300 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	// OnError receives load failures; the previous dataset stays in use.
	OnError func(error)
	Logger  *slog.Logger
}

// Watcher reloads one dataset file. The parent directory is watched so that
// editors which replace the file by rename are still picked up.
type Watcher struct {
	path     string
	name     string
	onReload func(*dataset.Dataset)
	opts     Options
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
	reloads  atomic.Uint64
}

// New starts watching path. onReload is called from Run's goroutine with
// every successfully parsed version of the file.
func New(path string, onReload func(*dataset.Dataset), opts Options) (*Watcher, error) {
	if _, err := dataset.FormatFromPath(path); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		path:     abs,
		name:     filepath.Base(abs),
		onReload: onReload,
		opts:     opts,
		logger:   logger.With("component", "watch", "path", abs),
		watcher:  fw,
	}, nil
}

// Run delivers reloads until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	debounce := time.NewTimer(0)
	<-debounce.C // drain initial timer
	defer debounce.Stop()

	pending := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != w.name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			pending = true
			debounce.Reset(w.opts.Debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)

		case <-debounce.C:
			if pending {
				pending = false
				w.reload()
			}
		}
	}
}

func (w *Watcher) reload() {
	ds, err := dataset.Load(w.path)
	if err != nil {
		w.logger.Error("reload failed", "error", err)
		if w.opts.OnError != nil {
			w.opts.OnError(err)
		}
		return
	}
	n := w.reloads.Add(1)
	w.logger.Info("dataset reloaded", "resources", len(ds.Resources), "relations", len(ds.Relations), "reload", n)
	if w.onReload != nil {
		w.onReload(ds)
	}
}

// Reloads returns how many successful reloads have been delivered.
func (w *Watcher) Reloads() uint64 { return w.reloads.Load() }

// Close stops the underlying fsnotify watcher; Run returns shortly after.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
