// Package watcher reloads a single file when it changes on disk.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"formula-editor/internal/logger"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 150 * time.Millisecond

// ChangeFunc is called with the watched path after it settles.
type ChangeFunc func(path string)

// Watcher monitors one file by watching its directory, so that files
// replaced by rename are still seen.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	debounce  time.Duration
	onChange  ChangeFunc
	log       logger.Logger

	pending chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
	stop    sync.Once
}

// New creates a watcher for path. Call Start to begin delivering changes.
func New(path string, debounce time.Duration, onChange ChangeFunc) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		path:      absPath,
		debounce:  debounce,
		onChange:  onChange,
		log:       logger.GetLogger().With(logger.String("component", "watcher")),
		pending:   make(chan struct{}, 1),
		done:      make(chan struct{}),
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Start watches the file's directory and starts the event and debounce loops.
func (w *Watcher) Start() error {
	if err := w.fsWatcher.Add(filepath.Dir(w.path)); err != nil {
		w.fsWatcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}

	w.wg.Add(2)
	go w.eventLoop()
	go w.debounceLoop()

	w.log.Info("watching file", logger.String("path", w.path))
	return nil
}

// Stop shuts the loops down and releases the watcher. It is safe to call
// more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stop.Do(func() {
		close(w.done)
		w.wg.Wait()
		err = w.fsWatcher.Close()
	})
	return err
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			select {
			case w.pending <- struct{}{}:
			default:
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", logger.Err(err))
		}
	}
}

// debounceLoop fires onChange once events have stopped arriving for the
// debounce interval.
func (w *Watcher) debounceLoop() {
	defer w.wg.Done()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.done:
			return

		case <-w.pending:
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C

		case <-fire:
			fire = nil
			w.log.Debug("file changed", logger.String("path", w.path))
			if w.onChange != nil {
				w.onChange(w.path)
			}
		}
	}
}
