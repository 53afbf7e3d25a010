// Package watch re-runs verification when scope files change on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes a set of scope files and invokes a callback once per
// settled change. Editors tend to save through rename-and-replace and to
// emit several events per save, so the watcher listens on parent
// directories and debounces per path.
type Watcher struct {
	fw       *fsnotify.Watcher
	debounce time.Duration
	onChange func(path string)

	// OnError receives watch backend errors. Set it before Run.
	OnError func(error)

	mu      sync.Mutex
	files   map[string]string
	pending map[string]*time.Timer
}

// New creates a watcher that calls onChange with the originally added path
// after a change has been quiet for the debounce interval.
func New(debounce time.Duration, onChange func(path string)) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("watch: onChange callback is required")
	}
	if debounce < 0 {
		debounce = 0
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fw:       fw,
		debounce: debounce,
		onChange: onChange,
		files:    make(map[string]string),
		pending:  make(map[string]*time.Timer),
	}, nil
}

// Add registers one file. The file's directory is watched so the watch
// survives atomic replacement of the file itself.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.files[abs] = path
	w.mu.Unlock()
	return w.fw.Add(filepath.Dir(abs))
}

// Run delivers change callbacks until the context is cancelled or the
// watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule(ev.Name)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			if w.OnError != nil {
				w.OnError(err)
			}
		}
	}
}

// schedule arms or re-arms the debounce timer for one path. Events for
// files that were never added are dropped here.
func (w *Watcher) schedule(name string) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	display, watched := w.files[abs]
	if !watched {
		return
	}
	if t, ok := w.pending[abs]; ok {
		t.Stop()
	}
	w.pending[abs] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, abs)
		w.mu.Unlock()
		w.onChange(display)
	})
}

// Close stops the watcher and cancels pending callbacks.
func (w *Watcher) Close() error {
	w.mu.Lock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()
	return w.fw.Close()
}
