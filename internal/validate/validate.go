// Package validate implements magellan's preflight and graph validators
// (spec §4.12): structured, sorted error reports that drive the CLI's
// exit code rather than ad-hoc stderr prints.
package validate

import (
	"os"
	"path/filepath"
	"sort"

	magerrors "github.com/standardbeagle/magellan/internal/errors"
	"github.com/standardbeagle/magellan/internal/graph"
)

// Env is the set of preconditions pre_run_validate checks before any
// indexing begins.
type Env struct {
	DBPath     string
	Root       string
	InputPaths []string
}

// PreValidationReport carries every precondition failure found, sorted
// by (code, message) for deterministic output.
type PreValidationReport struct {
	Errors []*magerrors.MagError
}

func (r PreValidationReport) OK() bool { return len(r.Errors) == 0 }

// PreRunValidate checks the DB parent directory exists, the root path
// exists, and each input path exists (spec §4.12).
func PreRunValidate(env Env) PreValidationReport {
	var errs []*magerrors.MagError

	if env.DBPath != "" {
		parent := filepath.Dir(env.DBPath)
		if _, err := os.Stat(parent); err != nil {
			errs = append(errs, magerrors.NewValidationError(
				magerrors.CodeDBParentMissing,
				"database parent directory does not exist: "+parent,
				err,
			).WithFile(env.DBPath))
		}
	}

	if env.Root != "" {
		if info, err := os.Stat(env.Root); err != nil || !info.IsDir() {
			if err == nil {
				err = os.ErrInvalid
			}
			errs = append(errs, magerrors.NewValidationError(
				magerrors.CodeRootPathMissing,
				"root path does not exist or is not a directory: "+env.Root,
				err,
			).WithFile(env.Root))
		}
	}

	for _, p := range env.InputPaths {
		if _, err := os.Stat(p); err != nil {
			errs = append(errs, magerrors.NewValidationError(
				magerrors.CodeInputPathMissing,
				"input path does not exist: "+p,
				err,
			).WithFile(p))
		}
	}

	sortErrors(errs)
	return PreValidationReport{Errors: errs}
}

// ValidationReport carries every orphan-fact failure found in a graph.
type ValidationReport struct {
	Errors []*magerrors.MagError
}

func (r ValidationReport) OK() bool { return len(r.Errors) == 0 }

// ValidateGraph runs the orphan checks of spec §4.12 against g's current
// contents: every Reference's file must exist, every Call's caller/callee
// symbol id (when set) must resolve to a real Symbol.
func ValidateGraph(g *graph.Graph) (ValidationReport, error) {
	backend := g.Backend()

	files, err := backend.Files()
	if err != nil {
		return ValidationReport{}, err
	}
	fileIDs := make(map[int64]bool, len(files))
	for _, f := range files {
		fileIDs[f.ID] = true
	}

	symbols, err := backend.AllSymbols()
	if err != nil {
		return ValidationReport{}, err
	}
	symbolIDs := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		symbolIDs[s.SymbolID] = true
	}

	var errs []*magerrors.MagError

	refs, err := backend.AllReferences()
	if err != nil {
		return ValidationReport{}, err
	}
	for _, r := range refs {
		if !fileIDs[r.FileID] {
			errs = append(errs, magerrors.NewValidationError(
				magerrors.CodeOrphanReference,
				"reference has no containing file: "+r.ReferencedName,
				nil,
			).WithSpan(r.Span))
		}
	}

	calls, err := backend.AllCalls()
	if err != nil {
		return ValidationReport{}, err
	}
	for _, c := range calls {
		if c.CallerSymbolID != nil && !symbolIDs[*c.CallerSymbolID] {
			errs = append(errs, magerrors.NewValidationError(
				magerrors.CodeOrphanCallCaller,
				"call's caller symbol does not exist: "+c.CallerName,
				nil,
			).WithSpan(c.Span))
		}
		if c.CalleeSymbolID != nil && !symbolIDs[*c.CalleeSymbolID] {
			errs = append(errs, magerrors.NewValidationError(
				magerrors.CodeOrphanCallCallee,
				"call's callee symbol does not exist: "+c.CalleeName,
				nil,
			).WithSpan(c.Span))
		}
	}

	sortErrors(errs)
	return ValidationReport{Errors: errs}, nil
}

func sortErrors(errs []*magerrors.MagError) {
	sort.Slice(errs, func(i, j int) bool {
		if errs[i].Code != errs[j].Code {
			return errs[i].Code < errs[j].Code
		}
		return errs[i].Message < errs[j].Message
	})
}
