// Package watcher reports edits to manifest files. Events inside the
// debounce window are merged into one Change.
package watcher

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/modkit/internal/log"
)

// DefaultDebounce is the quiet period used by DefaultConfig.
const DefaultDebounce = 500 * time.Millisecond

var ErrNoPaths = errors.New("watcher requires at least one path")

// Change lists the watched files touched since the previous Change, sorted.
type Change struct {
	Paths []string
}

type Config struct {
	Paths    []string
	Debounce time.Duration
}

func DefaultConfig(paths ...string) Config {
	return Config{Paths: paths, Debounce: DefaultDebounce}
}

// Watcher delivers at most one pending Change at a time. A Change that is
// not received before the next window closes absorbs that window's paths.
type Watcher struct {
	fs       *fsnotify.Watcher
	files    map[string]struct{}
	debounce time.Duration
	out      chan Change
	quit     chan struct{}
	stop     sync.Once
}

// New resolves cfg.Paths to absolute form. Nothing is watched until Start.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Paths) == 0 {
		return nil, ErrNoPaths
	}
	files := make(map[string]struct{}, len(cfg.Paths))
	for _, p := range cfg.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		files[abs] = struct{}{}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		fs:       fsw,
		files:    files,
		debounce: debounce,
		out:      make(chan Change, 1),
		quit:     make(chan struct{}),
	}, nil
}

// Start watches the parent directory of every file, since editors commonly
// save by renaming a temp file over the original.
func (w *Watcher) Start() (<-chan Change, error) {
	var dirs []string
	for f := range w.files {
		dirs = append(dirs, filepath.Dir(f))
	}
	slices.Sort(dirs)
	for _, dir := range slices.Compact(dirs) {
		if err := w.fs.Add(dir); err != nil {
			return nil, fmt.Errorf("watching directory %s: %w", dir, err)
		}
		log.Debug(log.CatWatcher, "Watching directory", "dir", dir)
	}
	go w.run()
	return w.out, nil
}

// Stop ends the watch. Calling it again is a no-op.
func (w *Watcher) Stop() error {
	var err error
	w.stop.Do(func() {
		close(w.quit)
		err = w.fs.Close()
	})
	return err
}

func (w *Watcher) run() {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	touched := make(map[string]struct{})
	var fire <-chan time.Time

	for {
		select {
		case <-w.quit:
			return

		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			path, ok := w.match(ev)
			if !ok {
				continue
			}
			touched[path] = struct{}{}
			timer.Reset(w.debounce)
			fire = timer.C

		case <-fire:
			fire = nil
			w.emit(touched)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "Watch error", err)
		}
	}
}

// emit sends the touched set, merging it into an unreceived Change if one
// is still queued, and resets touched.
func (w *Watcher) emit(touched map[string]struct{}) {
	select {
	case prev := <-w.out:
		for _, p := range prev.Paths {
			touched[p] = struct{}{}
		}
	default:
	}
	paths := make([]string, 0, len(touched))
	for p := range touched {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	clear(touched)

	w.out <- Change{Paths: paths}
	log.Debug(log.CatWatcher, "Manifest change detected", "paths", len(paths))
}

// match returns the watched file ev refers to, if any.
func (w *Watcher) match(ev fsnotify.Event) (string, bool) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return "", false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return "", false
	}
	_, ok := w.files[abs]
	return abs, ok
}
