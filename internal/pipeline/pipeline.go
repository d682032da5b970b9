// Package pipeline implements magellan's indexer pipeline (spec §4.10):
// the two entry points that drive the reconciler over scanner output and
// watcher batches, reporting progress and never letting a per-file
// error abort the run.
package pipeline

import (
	"github.com/standardbeagle/magellan/internal/diagnostics"
	"github.com/standardbeagle/magellan/internal/reconcile"
	"github.com/standardbeagle/magellan/internal/scan"
	"github.com/standardbeagle/magellan/internal/watch"
)

// ProgressFunc is invoked after each reconciled path; total is the
// scanner's up-front count when known, or 0 for the watch loop.
type ProgressFunc func(processed, total int, path string, outcome reconcile.Outcome)

// ScanInitial walks every file under the scanner's root, parses them
// concurrently via ParseAll's bounded worker pool, then feeds the
// results to the reconciler one at a time in lexicographic order so the
// single-writer store mutation stays exactly as serial as it always
// was (spec §5's parallel-parse note; spec §4.10: resolution is
// "cheaper than per-file passes").
func ScanInitial(r *reconcile.Reconciler, s *scan.Scanner, progress ProgressFunc) error {
	entries, err := s.Scan()
	if err != nil {
		return err
	}
	total := len(entries)
	parsed := s.ParseAll(entries)
	for i, pe := range parsed {
		outcome, err := r.ReconcileParsed(pe)
		if err != nil {
			continue // per-file errors never abort the loop (spec §4.10)
		}
		if progress != nil {
			progress(i+1, total, pe.Path, outcome)
		}
	}
	return r.ResolveBatch()
}

// RunWatch loops: wait on wakeup, drain the dirty set under lock,
// reconcile each path in sorted order, then run cross-file resolution
// once per batch. bound, if > 0, limits the number of batches processed
// so tests can terminate deterministically (spec §4.10).
func RunWatch(r *reconcile.Reconciler, w *watch.Watcher, diag *diagnostics.Stream, bound int, progress ProgressFunc) error {
	if diag == nil {
		diag = diagnostics.New(nil)
	}
	processed := 0
	for {
		if bound > 0 && processed >= bound {
			return nil
		}
		<-w.Wakeup()
		batch := w.DrainBatch()
		if len(batch.DirtyPaths) == 0 {
			continue
		}
		for _, path := range batch.DirtyPaths {
			outcome, err := r.ReconcileFilePath(path)
			if err != nil {
				diag.Emitf(diagnostics.StageReconcile, path, "reconcile failed: %v", err)
				continue
			}
			if progress != nil {
				progress(0, 0, path, outcome)
			}
		}
		if err := r.ResolveBatch(); err != nil {
			diag.Emitf(diagnostics.StageResolve, "", "cross-file resolution failed: %v", err)
		}
		processed++
	}
}
