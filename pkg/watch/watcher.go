package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Config.Debounce is zero.
const DefaultDebounce = 200 * time.Millisecond

// Config contains configuration for a Watcher.
type Config struct {
	// Paths are the files to watch.
	Paths []string

	// Debounce is the quiet period after the last change before the
	// callback runs.
	// Default: 200ms
	Debounce time.Duration
}

// Watcher reports changes to a fixed set of files.
//
// It watches each file's directory rather than the file itself, so editors
// that save by writing a temporary file and renaming it are still seen.
type Watcher struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	config   Config
	files    map[string]bool
	debounce *Debouncer

	// queued holds changed paths until the debounced burst settles; ready
	// wakes the Watch loop, which is the only caller of onChange.
	queueMu sync.Mutex
	queued  map[string]bool
	ready   chan struct{}

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a watcher for cfg.Paths.
func New(cfg Config, logger *slog.Logger) (*Watcher, error) {
	if len(cfg.Paths) == 0 {
		return nil, errors.New("no paths to watch")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	files := make(map[string]bool, len(cfg.Paths))
	for _, p := range cfg.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %q: %w", p, err)
		}
		files[abs] = true
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher:  fw,
		logger:   logger.With("component", "watch"),
		config:   cfg,
		files:    files,
		debounce: NewDebouncer(cfg.Debounce),
		queued:   make(map[string]bool),
		ready:    make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch blocks until ctx is done or Stop is called, calling onChange with
// each changed path after a debounced burst of changes. onChange runs on
// the calling goroutine, so calls never overlap and none is in flight once
// Watch returns. Errors returned by onChange are logged and watching
// continues.
func (w *Watcher) Watch(ctx context.Context, onChange func(path string) error) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer close(w.doneCh)
	defer w.debounce.Stop()

	dirs := make(map[string]bool)
	for f := range w.files {
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %q: %w", dir, err)
		}
	}

	w.logger.Info("watching for changes",
		"paths", w.config.Paths,
		"debounce_ms", w.config.Debounce.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-w.stopCh:
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}

			w.logger.Debug("file event", "path", event.Name, "op", event.Op.String())

			w.queue(event.Name)
			w.debounce.Trigger(w.signal)

		case <-w.ready:
			for _, name := range w.drain() {
				if ctx.Err() != nil {
					return nil
				}
				if err := onChange(name); err != nil {
					w.logger.Error("change handler failed", "path", name, "error", err)
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

// Stop stops a running Watch and releases the watcher. Stop is safe to
// call more than once and before Watch.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		select {
		case <-w.stopCh:
		default:
			close(w.stopCh)
		}
		<-w.doneCh
	}

	w.debounce.Stop()
	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

func (w *Watcher) queue(name string) {
	w.queueMu.Lock()
	w.queued[name] = true
	w.queueMu.Unlock()
}

// signal wakes the Watch loop without blocking; one wakeup drains every
// queued path.
func (w *Watcher) signal() {
	select {
	case w.ready <- struct{}{}:
	default:
	}
}

// drain returns the queued paths in sorted order and clears the queue.
func (w *Watcher) drain() []string {
	w.queueMu.Lock()
	defer w.queueMu.Unlock()

	names := make([]string, 0, len(w.queued))
	for name := range w.queued {
		names = append(names, name)
	}
	clear(w.queued)
	slices.Sort(names)
	return names
}

// relevant reports whether event touches a watched file with content
// changes.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return w.files[abs]
}
