// Package watch reports changes to a set of files.
//
// Directories are watched rather than the files themselves, because many
// editors save by writing a new file and renaming it over the old one,
// which drops a watch placed on the file.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when New is given zero.
const DefaultDebounce = 100 * time.Millisecond

// ErrClosed is returned by Watch and Run after Close.
var ErrClosed = errors.New("watch: watcher closed")

// Watcher collapses bursts of file system events on watched files into one
// callback per quiet period.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration

	mu     sync.Mutex
	files  map[string]bool
	dirs   map[string]bool
	closed bool
}

// New creates a watcher. A zero debounce selects DefaultDebounce.
func New(debounce time.Duration) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		fs:       fs,
		debounce: debounce,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
	}, nil
}

// Watch adds files to the watched set.
func (w *Watcher) Watch(files ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		if err := w.addDir(filepath.Dir(abs)); err != nil {
			return err
		}
		w.files[abs] = true
	}
	return nil
}

// Set replaces the watched set with files. Directories that no longer hold
// a watched file stop being watched.
func (w *Watcher) Set(files ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	next := make(map[string]bool, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		next[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := w.addDir(dir); err != nil {
			return err
		}
	}
	for dir := range w.dirs {
		if !dirs[dir] {
			// fsnotify drops the watch itself when the directory is removed.
			_ = w.fs.Remove(dir)
			delete(w.dirs, dir)
		}
	}
	w.files = next
	return nil
}

// addDir watches dir once. w.mu must be held.
func (w *Watcher) addDir(dir string) error {
	if w.dirs[dir] {
		return nil
	}
	if err := w.fs.Add(dir); err != nil {
		return fmt.Errorf("watch: %s: %w", dir, err)
	}
	w.dirs[dir] = true
	return nil
}

func (w *Watcher) watched(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.files[abs]
}

// Run delivers changes until ctx is done or the watcher is closed. onChange
// receives the last changed file of each burst and runs on the Run
// goroutine. Errors from the file system are passed to onError when it is
// not nil.
func (w *Watcher) Run(ctx context.Context, onChange func(name string), onError func(error)) error {
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending string
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case e, ok := <-w.fs.Events:
			if !ok {
				return ErrClosed
			}
			if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) && !e.Has(fsnotify.Rename) {
				continue
			}
			if !w.watched(e.Name) {
				continue
			}
			pending = e.Name
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			onChange(pending)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return ErrClosed
			}
			if onError != nil {
				onError(err)
			}
		}
	}
}

// Close stops watching. A running Run returns ErrClosed.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()
	return w.fs.Close()
}
