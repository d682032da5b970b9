package validate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/magellan/internal/diagnostics"
	"github.com/standardbeagle/magellan/internal/errors"
	"github.com/standardbeagle/magellan/internal/graph"
	"github.com/standardbeagle/magellan/internal/graph/kvstore"
)

func TestPreRunValidate_AllPresentIsOK(t *testing.T) {
	root := t.TempDir()
	input := filepath.Join(root, "a.rs")
	require.NoError(t, os.WriteFile(input, []byte("fn a() {}"), 0644))

	report := PreRunValidate(Env{
		DBPath:     filepath.Join(root, ".magellan.db"),
		Root:       root,
		InputPaths: []string{input},
	})
	assert.True(t, report.OK())
}

func TestPreRunValidate_MissingRootAndInput(t *testing.T) {
	root := t.TempDir()
	report := PreRunValidate(Env{
		DBPath:     filepath.Join(root, ".magellan.db"),
		Root:       filepath.Join(root, "nope"),
		InputPaths: []string{filepath.Join(root, "ghost.rs")},
	})
	require.False(t, report.OK())

	var codes []errors.Code
	for _, e := range report.Errors {
		codes = append(codes, e.Code)
	}
	assert.Contains(t, codes, errors.CodeRootPathMissing)
	assert.Contains(t, codes, errors.CodeInputPathMissing)
	// Sorted by (code, message): VALIDATION-005 before VALIDATION-006.
	assert.True(t, report.Errors[0].Code <= report.Errors[len(report.Errors)-1].Code)
}

func TestPreRunValidate_DBParentMissing(t *testing.T) {
	root := t.TempDir()
	report := PreRunValidate(Env{DBPath: filepath.Join(root, "nope", "magellan.db")})
	require.False(t, report.OK())
	assert.Equal(t, errors.CodeDBParentMissing, report.Errors[0].Code)
}

func TestValidateGraph_CleanGraphIsOK(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.rs")
	require.NoError(t, os.WriteFile(path, []byte("fn a() {}"), 0644))

	g, err := graph.Open(kvstore.New(), diagnostics.New(nil))
	require.NoError(t, err)
	bytes, err := os.ReadFile(path)
	require.NoError(t, err)
	_, err = g.IndexFile(path, "rust", bytes)
	require.NoError(t, err)

	report, err := ValidateGraph(g)
	require.NoError(t, err)
	assert.True(t, report.OK())
}
