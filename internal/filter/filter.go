// Package filter implements magellan's file filter (spec §4.3): a fixed
// precedence chain of internal ignores, gitignore rules, include
// patterns, and exclude patterns, plus pure-extension language
// detection — grounded on the teacher's gitignore parser and its
// doublestar-based include/exclude matching (internal/indexing/watcher.go,
// pipeline_types.go).
package filter

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// SkipReason enumerates why a path was not selected for indexing.
type SkipReason string

const (
	ReasonNotAFile        SkipReason = "NotAFile"
	ReasonGitignored      SkipReason = "Gitignored"
	ReasonExcluded        SkipReason = "Excluded"
	ReasonUnknownLanguage SkipReason = "UnknownLanguage"
	ReasonInternalIgnored SkipReason = "InternalIgnored"
)

// Decision is the filter's per-path verdict: either Included (with its
// detected language) or Skipped (with a structured reason). NotAFile
// must never be used to suppress a delete event — callers that already
// know a path no longer exists should not consult the filter for that
// path's existence at all; the reconciler treats non-existence itself
// as the delete signal (spec §4.3).
type Decision struct {
	Included bool
	Language string
	Reason   SkipReason
}

// internalIgnoredDirs are hard-coded directory-name ignores: VCS
// metadata and common build output, applied before any user configuration.
var internalIgnoredDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"target":       true,
	"dist":         true,
	"build":        true,
	".idea":        true,
	".vscode":      true,
}

// languageByExt is the pure-extension language table (spec §4.3: "purely
// by file extension; unknown ⇒ UnknownLanguage skip").
var languageByExt = map[string]string{
	".rs":  "rust",
	".py":  "python",
	".pyi": "python",
	".java": "java",
	".js":  "javascript",
	".jsx": "javascript",
	".mjs": "javascript",
	".cjs": "javascript",
	".ts":  "typescript",
	".tsx": "typescript",
	".c":   "c",
	".h":   "c",
	".cpp": "cpp",
	".cc":  "cpp",
	".cxx": "cpp",
	".hpp": "cpp",
	".hh":  "cpp",
}

// Filter evaluates the four-stage precedence chain of spec §4.3.
type Filter struct {
	dbPath     string // the database file path, always internally ignored
	gitignore  *Gitignore
	useGit     bool
	includes   []string
	excludes   []string
}

// Config configures a Filter.
type Config struct {
	DBPath           string
	RespectGitignore bool
	Root             string
	Include          []string
	Exclude          []string
}

// New builds a Filter from cfg, loading .gitignore from cfg.Root when
// RespectGitignore is set.
func New(cfg Config) (*Filter, error) {
	f := &Filter{
		dbPath:   cfg.DBPath,
		useGit:   cfg.RespectGitignore,
		includes: cfg.Include,
		excludes: cfg.Exclude,
	}
	if cfg.RespectGitignore {
		f.gitignore = NewGitignore()
		if err := f.gitignore.LoadFile(cfg.Root); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// isDBFile reports whether relPath is magellan's own database file or a
// sidecar (-wal/-shm/-journal), which must never be watched or indexed
// (spec §6.3).
func (f *Filter) isDBFile(relPath string) bool {
	if f.dbPath == "" {
		return false
	}
	base := filepath.Base(f.dbPath)
	target := filepath.Base(relPath)
	if target == base {
		return true
	}
	for _, suffix := range []string{"-wal", "-shm", "-journal"} {
		if target == base+suffix {
			return true
		}
	}
	return false
}

func isInternalIgnored(relPath string) bool {
	for _, part := range strings.Split(filepath.ToSlash(relPath), "/") {
		if internalIgnoredDirs[part] {
			return true
		}
	}
	return false
}

// Evaluate runs the four-stage precedence chain against relPath (slash
// or native separators accepted), reporting Included(language) or
// Skipped(reason). isDir lets directory-only gitignore rules match.
func (f *Filter) Evaluate(relPath string, isDir bool) Decision {
	slashPath := filepath.ToSlash(relPath)

	// Stage 1: internal ignores (hard-coded), including the DB file itself.
	if f.isDBFile(slashPath) || isInternalIgnored(slashPath) {
		return Decision{Reason: ReasonInternalIgnored}
	}

	// Stage 2: gitignore.
	if f.gitignore != nil && f.gitignore.Match(slashPath, isDir) {
		return Decision{Reason: ReasonGitignored}
	}

	// Stage 3: include patterns — if any are configured, the path must
	// match at least one.
	if len(f.includes) > 0 && !matchesAny(f.includes, slashPath) {
		return Decision{Reason: ReasonExcluded}
	}

	// Stage 4: exclude patterns.
	if matchesAny(f.excludes, slashPath) {
		return Decision{Reason: ReasonExcluded}
	}

	if isDir {
		return Decision{Included: true}
	}

	lang, ok := languageByExt[strings.ToLower(filepath.Ext(slashPath))]
	if !ok {
		return Decision{Reason: ReasonUnknownLanguage}
	}
	return Decision{Included: true, Language: lang}
}

func matchesAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if matched, _ := doublestar.Match(pattern, path); matched {
			return true
		}
	}
	return false
}

// LanguageForPath is a standalone extension-based language lookup, used
// by the reconciler when a decision was made earlier in the pipeline and
// only the language is needed.
func LanguageForPath(path string) (string, bool) {
	lang, ok := languageByExt[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}
