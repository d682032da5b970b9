// Package scan implements magellan's scanner (spec §4.8): a restartable,
// lexicographically-ordered directory walk that turns a root into a
// sorted stream of (path, language) pairs, adapted from the teacher's
// internal/indexing.FileScanner — same symlink-cycle guard, same
// early-directory-pruning shape, simplified to the spec's narrower
// contract (no task channel, no memory-pressure brake, no priority
// queue: those belonged to the teacher's own concurrent pipeline, not
// to this one's deterministic single-producer walk).
package scan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/standardbeagle/magellan/internal/diagnostics"
	"github.com/standardbeagle/magellan/internal/extract"
	"github.com/standardbeagle/magellan/internal/filter"
	"github.com/standardbeagle/magellan/internal/model"
	"github.com/standardbeagle/magellan/internal/pathvalidate"
)

// Entry is one selected file, paired with its detected language.
type Entry struct {
	Path     string
	Language string
}

// ParsedEntry pairs a scanned Entry with its already-extracted facts,
// the product of ParseAll's bounded parallel fan-out (spec §5:
// "Scanner may parallelize parsing across files using a work-stealing
// pool, but results are collected into a deterministically sorted batch
// before being fed to the reconciler"). Bytes is nil when the file
// could not be read; the reconciler treats that as Skipped. A file whose
// language has no extractor keeps its Bytes with empty Facts.
type ParsedEntry struct {
	Entry
	Bytes       []byte
	ContentHash string
	Facts       model.ExtractResult
}

// Scanner walks a root directory, honoring the same four-stage filter
// precedence chain as the watcher, in lexicographic depth-first order
// (filepath.Walk already visits each directory's children sorted by
// name, which is what spec §4.8 requires).
type Scanner struct {
	root      string
	filter    *filter.Filter
	validator *pathvalidate.Validator
	diag      *diagnostics.Stream
}

// New builds a Scanner. f and v must already be configured for root.
func New(root string, f *filter.Filter, v *pathvalidate.Validator, diag *diagnostics.Stream) *Scanner {
	if diag == nil {
		diag = diagnostics.New(nil)
	}
	return &Scanner{root: root, filter: f, validator: v, diag: diag}
}

// Scan walks s.root and returns every selected (path, language) pair in
// lexicographic order. It carries no hidden state between calls, so
// calling it again after the tree changes on disk reflects the new
// state (spec §4.8: "must be restartable").
func (s *Scanner) Scan() ([]Entry, error) {
	visitedDirs := make(map[string]bool)
	var entries []Entry

	err := filepath.Walk(s.root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			s.diag.Emitf(diagnostics.StagePathValidation, path, "walk error: %v", walkErr)
			return nil
		}

		if info.IsDir() {
			realPath, err := filepath.EvalSymlinks(path)
			if err != nil {
				s.diag.Emitf(diagnostics.StagePathValidation, path, "unresolvable symlink: %v", err)
				return nil
			}
			if visitedDirs[realPath] {
				return filepath.SkipDir
			}
			visitedDirs[realPath] = true
		}

		if path == s.root {
			return nil
		}

		relPath, err := filepath.Rel(s.root, path)
		if err != nil {
			relPath = path
		}

		if _, err := s.validator.Validate(path, pathvalidate.PathShouldExist); err != nil {
			s.diag.Emitf(diagnostics.StagePathValidation, path, "rejected: %v", err)
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		decision := s.filter.Evaluate(relPath, info.IsDir())
		if !decision.Included {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !info.IsDir() {
			entries = append(entries, Entry{Path: path, Language: decision.Language})
		}
		return nil
	})

	return entries, err
}

// ParseAll reads and extracts every entry's facts concurrently, bounded
// by a weighted semaphore sized to GOMAXPROCS, then returns them in the
// same order entries was given in (the order Scan already produces:
// ascending lexicographic path order) — parallel work product, still a
// deterministically sorted batch per spec §5's parallelism note. A
// per-file read failure degrades that entry to a nil-Bytes ParsedEntry
// rather than aborting the batch.
func (s *Scanner) ParseAll(entries []Entry) []ParsedEntry {
	results := make([]ParsedEntry, len(entries))
	sem := semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0)))
	var g errgroup.Group
	ctx := context.Background()
	for i, e := range entries {
		i, e := i, e
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = ParsedEntry{Entry: e}
			continue
		}
		g.Go(func() error {
			defer sem.Release(1)
			results[i] = s.parseOne(e)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *Scanner) parseOne(e Entry) ParsedEntry {
	bytes, err := os.ReadFile(e.Path)
	if err != nil {
		s.diag.Emitf(diagnostics.StageRead, e.Path, "read failed: %v", err)
		return ParsedEntry{Entry: e}
	}
	sum := sha256.Sum256(bytes)
	hash := hex.EncodeToString(sum[:])

	var facts model.ExtractResult
	if ext, ok := extract.Dispatch(e.Language); ok {
		facts = ext.Extract(e.Path, bytes, s.diag)
	} else {
		s.diag.Emitf(diagnostics.StageExtract, e.Path, "no extractor registered for language %q", e.Language)
	}
	facts.SortDeterministic()

	return ParsedEntry{Entry: e, Bytes: bytes, ContentHash: hash, Facts: facts}
}
