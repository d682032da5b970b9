package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_SetsProjectRoot(t *testing.T) {
	cfg := Default("/some/workspace")
	assert.Equal(t, "/some/workspace", cfg.Project.Root)
	assert.Contains(t, cfg.Exclude, "**/.git/**")
	assert.Contains(t, cfg.Exclude, "**/.magellan/**")
}

func TestDefault_FallsBackToCwd(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)

	cfg := Default("")
	assert.Equal(t, cwd, cfg.Project.Root)
}

func TestLoad_NoKDLFile_UsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Project.Root)
	assert.Equal(t, BackendSQLite, cfg.Backend.Kind)
}

func TestLoad_ReadsMagellanKDL(t *testing.T) {
	dir := t.TempDir()
	kdlPath := filepath.Join(dir, ".magellan.kdl")
	require.NoError(t, os.WriteFile(kdlPath, []byte(`
project {
    name "demo"
}
backend {
    kind "kv"
}
`), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.Project.Name)
	assert.Equal(t, BackendKV, cfg.Backend.Kind)
	assert.Equal(t, dir, cfg.Project.Root)
}

func TestEnrichExclusionsWithBuildArtifacts_Deduplicates(t *testing.T) {
	cfg := &Config{
		Project: Project{Root: t.TempDir()},
		Exclude: []string{"**/dist/**"},
	}
	cfg.EnrichExclusionsWithBuildArtifacts()

	seen := map[string]int{}
	for _, p := range cfg.Exclude {
		seen[p]++
	}
	for pattern, count := range seen {
		assert.Equal(t, 1, count, "pattern %q duplicated", pattern)
	}
}
