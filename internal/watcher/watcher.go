// Package watcher reports changes to the video file being edited.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cutline/cutline/internal/logging"
)

const defaultDebounce = 200 * time.Millisecond

type EventType int

const (
	// EventModify means the file was rewritten or replaced.
	EventModify EventType = iota
	// EventDelete means the file is gone, either removed or renamed away.
	EventDelete
)

func (t EventType) String() string {
	if t == EventDelete {
		return "deleted"
	}
	return "modified"
}

// Event is one settled change to the watched file.
type Event struct {
	Path string
	Type EventType
}

// FileWatcher follows a single file. It watches the parent directory so
// that atomic saves (write to temp, rename over) are seen as a modify.
type FileWatcher struct {
	fs       *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration
	events   chan Event

	mu     sync.Mutex
	target string
	dir    string
}

// Option configures a FileWatcher.
type Option func(*FileWatcher)

// WithDebounce sets how long events must be quiet before one is reported.
func WithDebounce(d time.Duration) Option {
	return func(w *FileWatcher) { w.debounce = d }
}

func New(logger *slog.Logger, opts ...Option) (*FileWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	w := &FileWatcher{
		fs:       fw,
		logger:   logger,
		debounce: defaultDebounce,
		events:   make(chan Event, 16),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Events delivers settled changes. It is closed when Run returns.
func (w *FileWatcher) Events() <-chan Event { return w.events }

// Watch switches the watcher to path.
func (w *FileWatcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()

	if dir != w.dir {
		if w.dir != "" {
			w.fs.Remove(w.dir)
		}
		if err := w.fs.Add(dir); err != nil {
			w.dir = ""
			w.target = ""
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		w.dir = dir
	}
	w.target = abs
	w.logger.Debug("watching source", "path", abs)
	return nil
}

// Target returns the file currently watched.
func (w *FileWatcher) Target() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.target
}

// Run processes file system events until ctx is cancelled.
func (w *FileWatcher) Run(ctx context.Context) error {
	defer close(w.events)
	defer w.fs.Close()

	var timer *time.Timer
	var timerC <-chan time.Time
	pending := ""

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.logger.Debug("watcher stopped")
			return nil

		case <-timerC:
			timerC = nil
			path := pending
			pending = ""
			if path != w.Target() {
				continue
			}
			ev := Event{Path: path, Type: EventModify}
			if _, err := os.Stat(path); err != nil {
				ev.Type = EventDelete
			}
			w.logger.Info("source changed on disk", "event", ev.Type.String())
			select {
			case w.events <- ev:
			case <-ctx.Done():
				return nil
			}

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.Target() {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			pending = filepath.Clean(ev.Name)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}
