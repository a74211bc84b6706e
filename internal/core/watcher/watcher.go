// Package watcher reports changed source files after a quiet period.
package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"duml/internal/shared/observability"
	"duml/internal/shared/util"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
)

type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debounce  time.Duration
	filter    *util.PathFilter
	onChange  func([]string)

	callbackMu sync.Mutex

	// dirs were added by a recursive walk and accept any source file;
	// files were named explicitly and are accepted wherever they live.
	dirs  map[string]bool
	files map[string]bool

	pending   map[string]time.Time
	hashes    map[string]uint64
	pendingMu sync.Mutex
	timer     *time.Timer
}

// NewWatcher calls onChange with the sorted set of changed files once no
// further event arrived for debounce. Rewrites that leave a file's content
// unchanged are dropped.
func NewWatcher(debounce time.Duration, filter *util.PathFilter, onChange func([]string)) (*Watcher, error) {
	if onChange == nil || filter == nil {
		return nil, os.ErrInvalid
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher: fsw,
		debounce:  debounce,
		filter:    filter,
		onChange:  onChange,
		dirs:      make(map[string]bool),
		files:     make(map[string]bool),
		pending:   make(map[string]time.Time),
		hashes:    make(map[string]uint64),
	}, nil
}

func (w *Watcher) SetDebounce(debounce time.Duration) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	w.debounce = debounce
}

// Watch registers directories recursively and files individually, then
// starts the event loop.
func (w *Watcher) Watch(paths []string) error {
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.IsDir() {
			if err := w.watchRecursive(path, true); err != nil {
				return err
			}
			continue
		}
		if err := w.watchFile(path); err != nil {
			return err
		}
	}

	go w.run()
	return nil
}

func (w *Watcher) watchFile(path string) error {
	clean := filepath.Clean(path)
	w.pendingMu.Lock()
	w.files[clean] = true
	w.pendingMu.Unlock()
	w.remember(clean)
	return w.fsWatcher.Add(filepath.Dir(clean))
}

// watchRecursive adds root and its subdirectories. With seed set the
// current content of existing sources becomes the baseline for change
// detection.
func (w *Watcher) watchRecursive(root string, seed bool) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path != root && w.filter.SkipDir(path) {
				return filepath.SkipDir
			}
			w.pendingMu.Lock()
			w.dirs[filepath.Clean(path)] = true
			w.pendingMu.Unlock()
			return w.fsWatcher.Add(path)
		}

		if seed && w.filter.Source(path) {
			w.remember(filepath.Clean(path))
		}
		return nil
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()

			if event.Op&fsnotify.Create == fsnotify.Create {
				info, err := os.Stat(event.Name)
				if err == nil && info.IsDir() {
					if w.watchedDir(filepath.Dir(event.Name)) && !w.filter.SkipDir(event.Name) {
						if err := w.watchRecursive(event.Name, false); err != nil {
							slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
						} else {
							w.enqueueExistingFiles(event.Name)
						}
					}
					continue
				}
			}

			if !w.accepts(event.Name) {
				continue
			}

			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create ||
				event.Op&fsnotify.Remove == fsnotify.Remove ||
				event.Op&fsnotify.Rename == fsnotify.Rename {
				w.scheduleChange(filepath.Clean(event.Name))
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) watchedDir(dir string) bool {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	return w.dirs[filepath.Clean(dir)]
}

func (w *Watcher) accepts(path string) bool {
	clean := filepath.Clean(path)
	w.pendingMu.Lock()
	explicit := w.files[clean]
	w.pendingMu.Unlock()
	if explicit {
		return true
	}
	return w.watchedDir(filepath.Dir(clean)) && w.filter.Source(clean)
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = time.Now()

	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.debounce, func() {
		w.flushChanges()
	})
}

func (w *Watcher) flushChanges() {
	w.pendingMu.Lock()
	candidates := make([]string, 0, len(w.pending))
	for path := range w.pending {
		candidates = append(candidates, path)
	}
	w.pending = make(map[string]time.Time)
	w.pendingMu.Unlock()

	paths := candidates[:0]
	for _, path := range candidates {
		if w.changed(path) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)

	if len(paths) > 0 {
		w.callbackMu.Lock()
		defer w.callbackMu.Unlock()
		w.onChange(paths)
	}
}

// changed compares the file's content hash with the last one seen. Removed
// files always count as changed.
func (w *Watcher) changed(path string) bool {
	data, err := os.ReadFile(path)

	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	if err != nil {
		delete(w.hashes, path)
		return true
	}
	sum := xxhash.Sum64(data)
	if prev, ok := w.hashes[path]; ok && prev == sum {
		return false
	}
	w.hashes[path] = sum
	return true
}

func (w *Watcher) remember(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	w.pendingMu.Lock()
	w.hashes[path] = xxhash.Sum64(data)
	w.pendingMu.Unlock()
}

func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}

func (w *Watcher) enqueueExistingFiles(root string) {
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		if !w.filter.Source(path) {
			return nil
		}
		w.scheduleChange(filepath.Clean(path))
		return nil
	})
}
