// Package config loads magellan's project configuration from
// `.magellan.kdl`, the same way the teacher loads `.lci.kdl`: a plain
// struct of nested structs populated by a hand-written KDL-document
// walker, falling back to built-in defaults when no file is present.
package config

import (
	"os"
)

// Config is magellan's full project configuration (spec §6.1 ambient
// config scope: Project, Index, Watch, Backend, Languages, Include/Exclude).
type Config struct {
	Version   int
	Project   Project
	Index     Index
	Watch     Watch
	Backend   Backend
	Languages []string
	Include   []string
	Exclude   []string
}

// Project identifies the watched workspace.
type Project struct {
	Root string
	Name string
}

// Index controls scan-time limits and gitignore handling (spec §4.3,
// §4.8).
type Index struct {
	MaxFileSize      int64
	MaxTotalSizeMB   int64
	MaxFileCount     int
	FollowSymlinks   bool
	RespectGitignore bool
}

// Watch controls the filesystem watcher and debouncer (spec §4.9).
type Watch struct {
	Enabled     bool
	DebounceMs  int
	IdleTimeout int // seconds; parsed from config, but the watch loop does not read it and never exits on idle
}

// BackendKind selects one of the two storage modes of spec §6.2.
type BackendKind string

const (
	BackendSQLite BackendKind = "sqlite"
	BackendKV     BackendKind = "kv"
)

// Backend configures the graph store's storage mode (spec §6.2).
type Backend struct {
	Kind BackendKind
	Path string // DB file path; must lie outside Project.Root (spec §6.3)
}

// Load reads magellan configuration for root, preferring `.magellan.kdl`
// at root and falling back to built-in defaults when absent.
func Load(root string) (*Config, error) {
	cfg, err := LoadKDL(root)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		return cfg, nil
	}
	return Default(root), nil
}

// Default returns magellan's built-in configuration for a watched root.
func Default(root string) *Config {
	absRoot := root
	if root == "" {
		if cwd, err := os.Getwd(); err == nil {
			absRoot = cwd
		}
	}

	cfg := &Config{
		Version: 1,
		Project: Project{Root: absRoot},
		Index: Index{
			MaxFileSize:      10 * 1024 * 1024,
			MaxTotalSizeMB:   500,
			MaxFileCount:     200000,
			FollowSymlinks:   false,
			RespectGitignore: true,
		},
		Watch: Watch{
			Enabled:     true,
			DebounceMs:  500,
			IdleTimeout: 0,
		},
		Backend: Backend{
			Kind: BackendSQLite,
			Path: ".magellan/graph.db",
		},
		Languages: []string{"rust", "python", "java", "javascript", "typescript", "c", "cpp"},
		Include:   []string{},
		Exclude:   defaultExclusions(),
	}
	cfg.EnrichExclusionsWithBuildArtifacts()
	return cfg
}

// EnrichExclusionsWithBuildArtifacts detects build output directories
// from language-specific project files (package.json, Cargo.toml, ...)
// and folds their output directories into Exclude, deduplicated.
func (c *Config) EnrichExclusionsWithBuildArtifacts() {
	if c.Project.Root == "" {
		return
	}
	detector := NewBuildArtifactDetector(c.Project.Root)
	detected := detector.DetectOutputDirectories()
	if len(detected) > 0 {
		c.Exclude = append(c.Exclude, detected...)
		c.Exclude = DeduplicatePatterns(c.Exclude)
	}
}

func defaultExclusions() []string {
	return []string{
		// Database files must never be watched (spec §6.3) — also
		// enforced structurally by internal/filter's isDBFile check.
		"**/.magellan/**",

		// VCS metadata
		"**/.git/**",
		"**/.hg/**",
		"**/.svn/**",

		// Hidden directories
		"**/.*/**",

		// Package managers & dependencies
		"**/node_modules/**",
		"**/vendor/**",
		"**/bower_components/**",

		// Build artifacts & output
		"**/dist/**",
		"**/build/**",
		"**/out/**",
		"**/target/**",
		"**/bin/**",
		"**/obj/**",
		"**/*.min.js",
		"**/*.min.css",

		// Test directories (symbols under test are still real code the
		// extractor must see unless the project explicitly excludes
		// them; magellan does not exclude test files by default, unlike
		// the teacher's search-tool exclusions, since call/reference
		// graphs over test code are valid query targets).

		// Python build caches
		"**/__pycache__/**",
		"**/*.pyc",

		// OS files
		"**/.DS_Store",
		"**/Thumbs.db",

		// Editor temp files
		"**/*.swp",
		"**/*.swo",
		"**/*~",

		// Logs
		"**/*.log",
	}
}
