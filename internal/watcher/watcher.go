// Package watcher reports, debounced, when a layout file changes on disk.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/dropzone/internal/log"
)

// DefaultDebounce is how long the file must stay quiet before a change is
// reported.
const DefaultDebounce = 300 * time.Millisecond

// Config selects the file to watch.
type Config struct {
	Path        string
	DebounceDur time.Duration
}

// DefaultConfig watches path with DefaultDebounce.
func DefaultConfig(path string) Config {
	return Config{Path: path, DebounceDur: DefaultDebounce}
}

// Watcher turns bursts of fsnotify events for one file into single
// notifications.
type Watcher struct {
	fs      *fsnotify.Watcher
	target  string
	quiet   time.Duration
	changes chan struct{}
	quit    chan struct{}
	closer  sync.Once
	err     error
}

// New prepares a watcher. Nothing is observed until Start.
func New(cfg Config) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	quiet := cfg.DebounceDur
	if quiet <= 0 {
		quiet = DefaultDebounce
	}
	return &Watcher{
		fs:      fs,
		target:  filepath.Clean(cfg.Path),
		quiet:   quiet,
		changes: make(chan struct{}, 1),
		quit:    make(chan struct{}),
	}, nil
}

// Start watches the parent directory of the file, so saves that replace
// the file by rename are still seen. The returned channel holds at most
// one pending notification.
func (w *Watcher) Start() (<-chan struct{}, error) {
	dir := filepath.Dir(w.target)
	if err := w.fs.Add(dir); err != nil {
		return nil, fmt.Errorf("watching directory %s: %w", dir, err)
	}
	log.Debug(log.CatWatcher, "watching", "path", w.target, "debounce", w.quiet)
	go w.run()
	return w.changes, nil
}

// Stop ends the watch. Later calls return the first call's result.
func (w *Watcher) Stop() error {
	w.closer.Do(func() {
		close(w.quit)
		w.err = w.fs.Close()
	})
	return w.err
}

func (w *Watcher) run() {
	timer := time.NewTimer(w.quiet)
	timer.Stop()
	defer timer.Stop()

	var fire <-chan time.Time
	for {
		select {
		case <-w.quit:
			return

		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.matches(ev) {
				continue
			}
			// Go 1.23+ timers discard a stale tick on Reset.
			timer.Reset(w.quiet)
			fire = timer.C

		case <-fire:
			fire = nil
			w.notify()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "watch error", err, "path", w.target)
		}
	}
}

func (w *Watcher) notify() {
	select {
	case w.changes <- struct{}{}:
		log.Debug(log.CatWatcher, "file changed", "path", w.target)
	default:
	}
}

func (w *Watcher) matches(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	return filepath.Clean(ev.Name) == w.target
}
