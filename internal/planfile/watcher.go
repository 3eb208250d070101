package planfile

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce is the quiet period after the last write before a change is
// reported. Editors often write a file in several steps.
const debounce = 100 * time.Millisecond

// Change is a reloaded schedule file. Err is set when the file was removed
// or no longer parses; Doc is nil in that case.
type Change struct {
	File string
	Doc  *Document
	Err  error
}

// Watcher monitors one schedule file for changes using fsnotify. The parent
// directory is watched so that editors which replace the file by rename are
// still seen.
type Watcher struct {
	File    string
	Changes <-chan Change // Read-only external channel

	changes chan Change
	quit    chan struct{}
	done    chan struct{}
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher for the schedule file at path.
func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("planfile: resolve %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("planfile: create watcher: %w", err)
	}

	ch := make(chan Change, 16)
	return &Watcher{
		File:    abs,
		Changes: ch,
		changes: ch,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		watcher: fw,
	}, nil
}

// Start begins watching the file.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.File)); err != nil {
		return fmt.Errorf("planfile: watch %s: %w", w.File, err)
	}
	go w.loop()
	return nil
}

// Stop closes the watcher and the Changes channel. A change that no reader
// is waiting for is dropped.
func (w *Watcher) Stop() {
	close(w.quit)
	w.watcher.Close()
	<-w.done // Wait for loop to exit
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	var pending time.Time
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				if !pending.IsZero() {
					w.emit()
				}
				return
			}
			if filepath.Clean(event.Name) != w.File {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				pending = time.Now()
			}

		case <-ticker.C:
			if !pending.IsZero() && time.Since(pending) >= debounce {
				pending = time.Time{}
				w.emit()
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal.
		}
	}
}

func (w *Watcher) emit() {
	doc, err := Load(w.File)
	select {
	case w.changes <- Change{File: w.File, Doc: doc, Err: err}:
	case <-w.quit:
	}
}
