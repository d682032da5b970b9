// Package reconcile implements magellan's reconciler (spec §4.7): the
// single entry point that derives a file's facts from its current
// on-disk state, re-deriving everything inside one transaction so a
// reader never observes a half-updated file.
package reconcile

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"time"

	"github.com/standardbeagle/magellan/internal/diagnostics"
	"github.com/standardbeagle/magellan/internal/filter"
	"github.com/standardbeagle/magellan/internal/graph"
	"github.com/standardbeagle/magellan/internal/pathvalidate"
	"github.com/standardbeagle/magellan/internal/scan"
)

// Outcome is the terminal state of one reconcile_file_path call.
type Outcome string

const (
	Deleted   Outcome = "Deleted"
	Unchanged Outcome = "Unchanged"
	Reindexed Outcome = "Reindexed"
	Skipped   Outcome = "Skipped"
)

// Reconciler wires path validation, the graph facade, and language
// detection together to implement reconcile_file_path.
type Reconciler struct {
	validator *pathvalidate.Validator
	g         *graph.Graph
	diag      *diagnostics.Stream
}

// New builds a Reconciler over an already-open Graph.
func New(validator *pathvalidate.Validator, g *graph.Graph, diag *diagnostics.Stream) *Reconciler {
	if diag == nil {
		diag = g.Diagnostics()
	}
	return &Reconciler{validator: validator, g: g, diag: diag}
}

// ReconcileFilePath runs the full 5-step algorithm of spec §4.7 for a
// single path. candidate need not exist; a missing path is treated as a
// delete, never an error.
func (r *Reconciler) ReconcileFilePath(candidate string) (Outcome, error) {
	existsHint := pathvalidate.PathShouldExist
	if _, err := os.Stat(candidate); err != nil {
		existsHint = pathvalidate.PathMayBeDeleted
	}

	canonical, err := r.validator.Validate(candidate, existsHint)
	if err != nil {
		var verr *pathvalidate.ValidationError
		if errors.As(err, &verr) {
			switch verr.Code {
			case pathvalidate.OutsideRoot, pathvalidate.SuspiciousTraversal, pathvalidate.SymlinkEscape:
				r.diag.Emitf(diagnostics.StagePathValidation, candidate, "rejected: %s", verr.Code)
				return Skipped, nil
			case pathvalidate.CannotCanonicalize:
				// Vanished path: treat exactly like step 2's not-exists case.
				return r.deleteOutcome(candidate)
			}
		}
		return Skipped, err
	}

	info, statErr := os.Stat(canonical)
	if statErr != nil || info.IsDir() {
		return r.deleteOutcome(canonical)
	}

	bytes, err := os.ReadFile(canonical)
	if err != nil {
		r.diag.Emitf(diagnostics.StageRead, canonical, "read failed: %v", err)
		return Skipped, nil
	}
	sum := sha256.Sum256(bytes)
	newHash := hex.EncodeToString(sum[:])

	files, err := r.g.Files()
	if err != nil {
		return Skipped, err
	}
	var existingHash string
	var existed bool
	for _, f := range files {
		if f.Path == canonical {
			existingHash, existed = f.ContentHash, true
			break
		}
	}
	if existed && existingHash == newHash {
		return Unchanged, nil
	}

	language, ok := filter.LanguageForPath(canonical)
	if !ok {
		r.diag.Emitf(diagnostics.StageExtract, canonical, "no language detected for path, skipping")
		return Skipped, nil
	}

	backend := r.g.Backend()
	err = backend.WithTx(func(tx graph.Backend) error {
		txGraph, err := graph.Open(tx, r.diag)
		if err != nil {
			return err
		}
		if err := txGraph.DeleteFileFacts(canonical); err != nil {
			return err
		}
		_, err = txGraph.IndexFile(canonical, language, bytes)
		return err
	})
	if err != nil {
		r.diag.Emitf(diagnostics.StageReconcile, canonical, "reindex failed: %v", err)
		return Skipped, err
	}
	return Reindexed, nil
}

// ReconcileParsed is ReconcileFilePath's counterpart for a file already
// read and extracted ahead of time by scan.Scanner.ParseAll's bounded
// parallel fan-out (spec §5): it re-validates the path and re-checks
// the on-disk content hash exactly like ReconcileFilePath, but persists
// pe.Facts directly instead of re-reading and re-parsing the file, so
// the expensive parse work happens off the single-writer path while the
// graph mutation itself stays exactly as serial as ReconcileFilePath's.
func (r *Reconciler) ReconcileParsed(pe scan.ParsedEntry) (Outcome, error) {
	if pe.Bytes == nil {
		return Skipped, nil
	}

	canonical, err := r.validator.Validate(pe.Path, pathvalidate.PathShouldExist)
	if err != nil {
		var verr *pathvalidate.ValidationError
		if errors.As(err, &verr) {
			switch verr.Code {
			case pathvalidate.OutsideRoot, pathvalidate.SuspiciousTraversal, pathvalidate.SymlinkEscape:
				r.diag.Emitf(diagnostics.StagePathValidation, pe.Path, "rejected: %s", verr.Code)
				return Skipped, nil
			case pathvalidate.CannotCanonicalize:
				return r.deleteOutcome(pe.Path)
			}
		}
		return Skipped, err
	}

	info, statErr := os.Stat(canonical)
	if statErr != nil || info.IsDir() {
		return r.deleteOutcome(canonical)
	}

	files, err := r.g.Files()
	if err != nil {
		return Skipped, err
	}
	var existingHash string
	var existed bool
	for _, f := range files {
		if f.Path == canonical {
			existingHash, existed = f.ContentHash, true
			break
		}
	}
	if existed && existingHash == pe.ContentHash {
		return Unchanged, nil
	}

	backend := r.g.Backend()
	err = backend.WithTx(func(tx graph.Backend) error {
		txGraph, err := graph.Open(tx, r.diag)
		if err != nil {
			return err
		}
		if err := txGraph.DeleteFileFacts(canonical); err != nil {
			return err
		}
		_, err = txGraph.IndexParsedFile(canonical, pe.Language, pe.ContentHash, time.Now(), pe.Facts, pe.Bytes)
		return err
	})
	if err != nil {
		r.diag.Emitf(diagnostics.StageReconcile, canonical, "reindex failed: %v", err)
		return Skipped, err
	}
	return Reindexed, nil
}

func (r *Reconciler) deleteOutcome(path string) (Outcome, error) {
	backend := r.g.Backend()
	err := backend.WithTx(func(tx graph.Backend) error {
		txGraph, err := graph.Open(tx, r.diag)
		if err != nil {
			return err
		}
		return txGraph.DeleteFileFacts(path)
	})
	if err != nil {
		r.diag.Emitf(diagnostics.StageReconcile, path, "delete failed: %v", err)
		return Skipped, err
	}
	return Deleted, nil
}

// ResolveBatch runs the cross-file resolution passes once (spec §4.6's
// ordering rule); callers invoke this after a batch of
// ReconcileFilePath calls, never per file.
func (r *Reconciler) ResolveBatch() error {
	return r.g.ResolveAll()
}
