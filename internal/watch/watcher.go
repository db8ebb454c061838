// Package watch reports changes to a fixed set of files, debounced.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"atsmatch/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when a zero delay is given
const DefaultDebounce = 500 * time.Millisecond

// fingerprint identifies one version of a file
type fingerprint struct {
	modTime time.Time
	size    int64
	exists  bool
}

// Watcher calls onChange after any watched file is written, created, renamed
// or removed and then stays quiet for the debounce delay. Editors that save by
// rename are handled by also watching each file's directory.
type Watcher struct {
	mu sync.Mutex

	files    []string
	seen     map[string]fingerprint
	debounce time.Duration
	onChange func(changed []string)
	logger   *errors.Logger

	fsWatcher *fsnotify.Watcher
	timer     *time.Timer
	fire      chan struct{}
	stop      chan struct{}
	done      chan struct{}
	running   bool
}

// New creates a watcher for files. Paths are made absolute.
func New(files []string, debounce time.Duration, onChange func(changed []string), logger *errors.Logger) (*Watcher, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}
	if onChange == nil {
		return nil, fmt.Errorf("change callback is required")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	abs := make([]string, 0, len(files))
	for _, f := range files {
		p, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", f, err)
		}
		abs = append(abs, p)
	}

	return &Watcher{
		files:    abs,
		seen:     make(map[string]fingerprint, len(abs)),
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
		fire:     make(chan struct{}, 1),
	}, nil
}

// Start begins watching in a background goroutine
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher is already running")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	dirs := map[string]bool{}
	for _, f := range w.files {
		w.seen[f] = stat(f)
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	w.fsWatcher = fsw
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	w.running = true
	go w.loop()

	if w.logger != nil {
		w.logger.Info("File watcher started", "files", w.files, "debounce", w.debounce)
	}
	return nil
}

// Stop stops the watcher and waits for its goroutine to exit
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.stop)
	if w.timer != nil {
		w.timer.Stop()
	}
	err := w.fsWatcher.Close()
	done := w.done
	w.mu.Unlock()

	<-done
	if w.logger != nil {
		w.logger.Info("File watcher stopped")
	}
	return err
}

// Run watches until ctx is cancelled
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return w.Stop()
}

// Files returns the absolute paths being watched
func (w *Watcher) Files() []string {
	return append([]string(nil), w.files...)
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				w.schedule()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.LogError(err, "File watcher error")
			}

		case <-w.fire:
			if changed := w.changedFiles(); len(changed) > 0 {
				if w.logger != nil {
					w.logger.Debug("Watched files changed", "files", changed)
				}
				w.onChange(changed)
			}

		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	name := filepath.Clean(event.Name)
	for _, f := range w.files {
		if name == f {
			return true
		}
	}
	return false
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.fire <- struct{}{}:
		default:
		}
	})
}

// changedFiles compares every file against its last fingerprint
func (w *Watcher) changedFiles() []string {
	var changed []string
	for _, f := range w.files {
		fp := stat(f)
		if fp != w.seen[f] {
			w.seen[f] = fp
			changed = append(changed, f)
		}
	}
	return changed
}

func stat(file string) fingerprint {
	info, err := os.Stat(file)
	if err != nil {
		return fingerprint{}
	}
	return fingerprint{modTime: info.ModTime(), size: info.Size(), exists: true}
}
