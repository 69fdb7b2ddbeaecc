package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"quicksearch/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a catalog file into a Catalog whenever the file changes.
// The parent directory is watched so editors that replace files atomically
// are still picked up.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	catalog  *Catalog
	path     string
	debounce time.Duration
	onReload func(error)
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// NewWatcher creates a watcher that keeps target in sync with the file at path.
// onReload, if non-nil, is called after every reload attempt with its result.
func NewWatcher(path string, target *Catalog, onReload func(error)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog watcher: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to resolve catalog path: %w", err)
	}
	return &Watcher{
		watcher:  fw,
		catalog:  target,
		path:     abs,
		debounce: 150 * time.Millisecond,
		onReload: onReload,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. It is non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}
	w.running = true
	logging.Catalog("watching catalog file: %s", w.path)
	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for its goroutine to exit.
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
		logging.CatalogWarn("error closing catalog watcher: %v", err)
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	var pending <-chan time.Time
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.CatalogWarn("catalog watcher error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	next, err := Load(w.path)
	if err != nil {
		logging.CatalogWarn("catalog reload failed, keeping previous snapshot: %v", err)
	} else {
		w.catalog.Replace(next)
		logging.Catalog("catalog reloaded: %d products", len(next.Products()))
	}
	if w.onReload != nil {
		w.onReload(err)
	}
}
