// Package watch implements magellan's filesystem watcher + debouncer
// (spec §4.9), adapted from the teacher's internal/indexing.FileWatcher:
// an fsnotify-backed recursive directory watch feeding a debouncer that
// coalesces bursts into a single sorted dirty-paths batch, with the
// producer/consumer lock ordering spec §4.9 mandates:
// acquire(dirty_paths) -> signal(wakeup) -> release(dirty_paths).
package watch

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/magellan/internal/diagnostics"
	"github.com/standardbeagle/magellan/internal/filter"
)

// DefaultDebounce matches spec §4.9's default debounce_ms of 500ms.
const DefaultDebounce = 500 * time.Millisecond

// Batch is the debounced output: only paths, never event kinds, because
// the reconciler derives the required action from current filesystem
// state rather than from what fsnotify reported.
type Batch struct {
	DirtyPaths []string
}

// Watcher owns one fsnotify source, a recursive set of directory
// watches, and the coalescing debounce timer.
type Watcher struct {
	fsw      *fsnotify.Watcher
	root     string
	filter   *filter.Filter
	debounce time.Duration
	diag     *diagnostics.Stream

	mu    sync.Mutex
	dirty map[string]bool
	timer *time.Timer

	// wakeup has capacity 1 with non-blocking send (spec §4.9): the
	// consumer always re-reads the full dirty set under lock rather
	// than trusting the number of signals received.
	wakeup chan struct{}

	stop chan struct{}
	wg   sync.WaitGroup
}

// New builds a Watcher rooted at root. debounce <= 0 uses DefaultDebounce.
func New(root string, f *filter.Filter, debounce time.Duration, diag *diagnostics.Stream) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if diag == nil {
		diag = diagnostics.New(nil)
	}
	w := &Watcher{
		fsw:      fsw,
		root:     root,
		filter:   f,
		debounce: debounce,
		diag:     diag,
		dirty:    make(map[string]bool),
		wakeup:   make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
	return w, nil
}

// Start adds watches for every directory under root (skipping whatever
// the filter would skip) and begins the event loop.
func (w *Watcher) Start() error {
	if err := w.addWatchesRecursive(w.root); err != nil {
		return err
	}
	w.wg.Add(1)
	go w.processEvents()
	return nil
}

// Stop tears down the fsnotify source and waits for the event loop to
// exit. Pending debounced events are discarded, matching the teacher's
// own "don't flush on shutdown" rule: the index is being torn down
// anyway, and flushing risks deadlocking against whatever mutex the
// shutdown sequence holds.
func (w *Watcher) Stop() error {
	close(w.stop)
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

// Wakeup is the capacity-1 signal channel the indexer pipeline selects
// on to know a batch is ready to drain.
func (w *Watcher) Wakeup() <-chan struct{} { return w.wakeup }

// DrainBatch atomically takes and clears the current dirty set, sorted
// for deterministic downstream processing order (spec §4.9).
func (w *Watcher) DrainBatch() Batch {
	w.mu.Lock()
	paths := make([]string, 0, len(w.dirty))
	for p := range w.dirty {
		paths = append(paths, p)
	}
	w.dirty = make(map[string]bool)
	w.mu.Unlock()

	sort.Strings(paths)
	return Batch{DirtyPaths: paths}
}

func (w *Watcher) addWatchesRecursive(root string) error {
	visited := make(map[string]bool)
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		real, err := filepath.EvalSymlinks(path)
		if err != nil {
			return nil
		}
		if visited[real] {
			return filepath.SkipDir
		}
		visited[real] = true

		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			rel = path
		}
		if rel != "." {
			decision := w.filter.Evaluate(rel, true)
			if !decision.Included {
				return filepath.SkipDir
			}
		}
		if err := w.fsw.Add(path); err != nil {
			w.diag.Emitf(diagnostics.StagePathValidation, path, "failed to watch directory: %v", err)
		}
		return nil
	})
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()
	for {
		select {
		case <-w.stop:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.diag.Emitf(diagnostics.StagePathValidation, "", "watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	info, err := os.Stat(path)
	if err != nil {
		// A non-existent path emitted by the OS still flows through as
		// a dirty path (spec §4.9); the reconciler treats it as a
		// delete from current filesystem state, not from event.Op.
		w.markDirty(path)
		return
	}

	if info.IsDir() {
		if event.Op&fsnotify.Create != 0 {
			rel, relErr := filepath.Rel(w.root, path)
			if relErr != nil {
				rel = path
			}
			if w.filter.Evaluate(rel, true).Included {
				if err := w.fsw.Add(path); err != nil {
					w.diag.Emitf(diagnostics.StagePathValidation, path, "failed to watch new directory: %v", err)
				}
			}
		}
		return
	}

	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = path
	}
	if !w.filter.Evaluate(rel, false).Included {
		return
	}
	w.markDirty(path)
}

func (w *Watcher) markDirty(path string) {
	w.mu.Lock()
	w.dirty[path] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.signal)
	w.mu.Unlock()
}

// signal follows spec §4.9's mandated lock ordering exactly:
// acquire(dirty_paths) -> signal(wakeup) -> release(dirty_paths).
func (w *Watcher) signal() {
	w.mu.Lock()
	select {
	case w.wakeup <- struct{}{}:
	default:
	}
	w.mu.Unlock()
}
