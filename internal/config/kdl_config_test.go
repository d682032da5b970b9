package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKDL_Defaults(t *testing.T) {
	cfg, err := parseKDL("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, int64(10*1024*1024), cfg.Index.MaxFileSize)
	assert.True(t, cfg.Index.RespectGitignore)
	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, 500, cfg.Watch.DebounceMs)
	assert.Equal(t, BackendSQLite, cfg.Backend.Kind)
}

func TestParseKDL_IndexSection(t *testing.T) {
	kdlContent := `
index {
    max_file_size "5MB"
    max_file_count 5000
    respect_gitignore false
    follow_symlinks true
}
`
	cfg, err := parseKDL(kdlContent)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, int64(5*1024*1024), cfg.Index.MaxFileSize)
	assert.Equal(t, 5000, cfg.Index.MaxFileCount)
	assert.False(t, cfg.Index.RespectGitignore)
	assert.True(t, cfg.Index.FollowSymlinks)
}

func TestParseKDL_WatchSection(t *testing.T) {
	kdlContent := `
watch {
    enabled false
    debounce_ms 750
}
`
	cfg, err := parseKDL(kdlContent)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.False(t, cfg.Watch.Enabled)
	assert.Equal(t, 750, cfg.Watch.DebounceMs)
}

func TestParseKDL_BackendSection(t *testing.T) {
	kdlContent := `
backend {
    kind "kv"
    path "/tmp/magellan.db"
}
`
	cfg, err := parseKDL(kdlContent)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, BackendKV, cfg.Backend.Kind)
	assert.Equal(t, "/tmp/magellan.db", cfg.Backend.Path)
}

func TestParseKDL_FullConfig(t *testing.T) {
	kdlContent := `
project {
    root "."
    name "test-project"
}

index {
    max_file_size "5MB"
    max_file_count 5000
    respect_gitignore true
}

watch {
    debounce_ms 250
}

languages "rust" "python"

exclude "**/.git/**" "**/node_modules/**"
`
	cfg, err := parseKDL(kdlContent)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "test-project", cfg.Project.Name)
	assert.Equal(t, int64(5*1024*1024), cfg.Index.MaxFileSize)
	assert.Equal(t, 5000, cfg.Index.MaxFileCount)
	assert.Equal(t, 250, cfg.Watch.DebounceMs)
	assert.Equal(t, []string{"rust", "python"}, cfg.Languages)
	assert.Contains(t, cfg.Exclude, "**/.git/**")
	assert.Contains(t, cfg.Exclude, "**/node_modules/**")
}

func TestLoadKDL_MissingFile(t *testing.T) {
	cfg, err := LoadKDL(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, cfg)
}
