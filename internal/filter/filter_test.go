package filter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_UnknownLanguage(t *testing.T) {
	f, err := New(Config{})
	require.NoError(t, err)
	d := f.Evaluate("README.md", false)
	assert.False(t, d.Included)
	assert.Equal(t, ReasonUnknownLanguage, d.Reason)
}

func TestEvaluate_KnownLanguage(t *testing.T) {
	f, err := New(Config{})
	require.NoError(t, err)
	d := f.Evaluate("src/main.rs", false)
	assert.True(t, d.Included)
	assert.Equal(t, "rust", d.Language)
}

func TestEvaluate_InternalIgnoredDir(t *testing.T) {
	f, err := New(Config{})
	require.NoError(t, err)
	d := f.Evaluate("node_modules/pkg/index.js", false)
	assert.False(t, d.Included)
	assert.Equal(t, ReasonInternalIgnored, d.Reason)
}

func TestEvaluate_DBFileIgnored(t *testing.T) {
	f, err := New(Config{DBPath: "/work/.magellan.db"})
	require.NoError(t, err)
	assert.Equal(t, ReasonInternalIgnored, f.Evaluate(".magellan.db", false).Reason)
	assert.Equal(t, ReasonInternalIgnored, f.Evaluate(".magellan.db-wal", false).Reason)
}

func TestEvaluate_Gitignore(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("vendor/\n*.generated.go\n"), 0644))

	f, err := New(Config{RespectGitignore: true, Root: root})
	require.NoError(t, err)

	assert.Equal(t, ReasonGitignored, f.Evaluate("vendor/pkg/a.go", false).Reason)
	// .go is not in our language table so without gitignore it would be
	// UnknownLanguage; gitignore still takes precedence over that stage.
	assert.Equal(t, ReasonGitignored, f.Evaluate("foo.generated.go", false).Reason)
}

func TestEvaluate_IncludeMustMatch(t *testing.T) {
	f, err := New(Config{Include: []string{"src/**"}})
	require.NoError(t, err)
	assert.True(t, f.Evaluate("src/a.rs", false).Included)
	assert.Equal(t, ReasonExcluded, f.Evaluate("other/a.rs", false).Reason)
}

func TestEvaluate_ExcludeWins(t *testing.T) {
	f, err := New(Config{Exclude: []string{"**/*_test.rs"}})
	require.NoError(t, err)
	assert.Equal(t, ReasonExcluded, f.Evaluate("src/a_test.rs", false).Reason)
}

func TestLanguageForPath(t *testing.T) {
	lang, ok := LanguageForPath("a.ts")
	assert.True(t, ok)
	assert.Equal(t, "typescript", lang)

	_, ok = LanguageForPath("a.unknown")
	assert.False(t, ok)
}
