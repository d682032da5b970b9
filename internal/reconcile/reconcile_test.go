package reconcile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/magellan/internal/diagnostics"
	"github.com/standardbeagle/magellan/internal/filter"
	"github.com/standardbeagle/magellan/internal/graph"
	"github.com/standardbeagle/magellan/internal/graph/kvstore"
	"github.com/standardbeagle/magellan/internal/pathvalidate"
	"github.com/standardbeagle/magellan/internal/scan"
)

func mustParse(t *testing.T, root, path string) scan.ParsedEntry {
	t.Helper()
	f, err := filter.New(filter.Config{})
	require.NoError(t, err)
	s := scan.New(root, f, pathvalidate.New(root), nil)
	entries, err := s.Scan()
	require.NoError(t, err)
	for _, e := range entries {
		if e.Path == path {
			parsed := s.ParseAll([]scan.Entry{e})
			require.Len(t, parsed, 1)
			return parsed[0]
		}
	}
	t.Fatalf("path %q not found among scanned entries", path)
	return scan.ParsedEntry{}
}

func newTestReconciler(t *testing.T, root string) *Reconciler {
	t.Helper()
	g, err := graph.Open(kvstore.New(), diagnostics.New(nil))
	require.NoError(t, err)
	return New(pathvalidate.New(root), g, nil)
}

func TestReconcileFilePath_NewFileIsReindexed(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "main.rs")
	require.NoError(t, os.WriteFile(path, []byte("fn main() {}"), 0644))

	r := newTestReconciler(t, root)
	outcome, err := r.ReconcileFilePath(path)
	require.NoError(t, err)
	assert.Equal(t, Reindexed, outcome)

	syms, err := r.g.SymbolsInFile(mustCanonical(t, path))
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "main", syms[0].SimpleName)
}

func TestReconcileFilePath_UnchangedOnSecondCall(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "main.rs")
	require.NoError(t, os.WriteFile(path, []byte("fn main() {}"), 0644))

	r := newTestReconciler(t, root)
	_, err := r.ReconcileFilePath(path)
	require.NoError(t, err)

	outcome, err := r.ReconcileFilePath(path)
	require.NoError(t, err)
	assert.Equal(t, Unchanged, outcome)
}

func TestReconcileFilePath_ModifiedFileReindexes(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "main.rs")
	require.NoError(t, os.WriteFile(path, []byte("fn main() {}"), 0644))

	r := newTestReconciler(t, root)
	_, err := r.ReconcileFilePath(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("fn main() {}\nfn helper() {}"), 0644))
	outcome, err := r.ReconcileFilePath(path)
	require.NoError(t, err)
	assert.Equal(t, Reindexed, outcome)

	syms, err := r.g.SymbolsInFile(mustCanonical(t, path))
	require.NoError(t, err)
	assert.Len(t, syms, 2)
}

func TestReconcileFilePath_MissingFileDeletes(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "main.rs")
	require.NoError(t, os.WriteFile(path, []byte("fn main() {}"), 0644))

	r := newTestReconciler(t, root)
	_, err := r.ReconcileFilePath(path)
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	outcome, err := r.ReconcileFilePath(path)
	require.NoError(t, err)
	assert.Equal(t, Deleted, outcome)

	files, err := r.g.Files()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestReconcileFilePath_NeverIndexedMissingFileIsNoop(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "ghost.rs")

	r := newTestReconciler(t, root)
	outcome, err := r.ReconcileFilePath(path)
	require.NoError(t, err)
	assert.Equal(t, Deleted, outcome)
}

func TestReconcileFilePath_OutsideRootIsSkipped(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	path := filepath.Join(outside, "evil.rs")
	require.NoError(t, os.WriteFile(path, []byte("fn main() {}"), 0644))

	r := newTestReconciler(t, root)
	outcome, err := r.ReconcileFilePath(path)
	require.NoError(t, err)
	assert.Equal(t, Skipped, outcome)
}

func TestResolveBatch_ResolvesCallAcrossFiles(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a.rs")
	b := filepath.Join(root, "b.rs")
	require.NoError(t, os.WriteFile(a, []byte("fn helper() {}"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("fn main() { helper(); }"), 0644))

	r := newTestReconciler(t, root)
	_, err := r.ReconcileFilePath(a)
	require.NoError(t, err)
	_, err = r.ReconcileFilePath(b)
	require.NoError(t, err)
	require.NoError(t, r.ResolveBatch())

	calls, err := r.g.Backend().AllCalls()
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.NotNil(t, calls[0].CalleeSymbolID)
}

func TestReconcileParsed_NewFileIsReindexed(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "main.rs")
	require.NoError(t, os.WriteFile(path, []byte("fn main() {}"), 0644))

	r := newTestReconciler(t, root)
	pe := mustParse(t, root, path)
	outcome, err := r.ReconcileParsed(pe)
	require.NoError(t, err)
	assert.Equal(t, Reindexed, outcome)

	syms, err := r.g.SymbolsInFile(mustCanonical(t, path))
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "main", syms[0].SimpleName)
}

func TestReconcileParsed_UnchangedOnSecondCall(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "main.rs")
	require.NoError(t, os.WriteFile(path, []byte("fn main() {}"), 0644))

	r := newTestReconciler(t, root)
	pe := mustParse(t, root, path)
	_, err := r.ReconcileParsed(pe)
	require.NoError(t, err)

	outcome, err := r.ReconcileParsed(mustParse(t, root, path))
	require.NoError(t, err)
	assert.Equal(t, Unchanged, outcome)
}

func TestReconcileParsed_ModifiedFileReindexes(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "main.rs")
	require.NoError(t, os.WriteFile(path, []byte("fn main() {}"), 0644))

	r := newTestReconciler(t, root)
	_, err := r.ReconcileParsed(mustParse(t, root, path))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("fn main() {}\nfn helper() {}"), 0644))
	outcome, err := r.ReconcileParsed(mustParse(t, root, path))
	require.NoError(t, err)
	assert.Equal(t, Reindexed, outcome)

	syms, err := r.g.SymbolsInFile(mustCanonical(t, path))
	require.NoError(t, err)
	assert.Len(t, syms, 2)
}

func TestReconcileParsed_MissingFileDeletes(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "main.rs")
	require.NoError(t, os.WriteFile(path, []byte("fn main() {}"), 0644))

	r := newTestReconciler(t, root)
	pe := mustParse(t, root, path)
	_, err := r.ReconcileParsed(pe)
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	outcome, err := r.ReconcileParsed(pe)
	require.NoError(t, err)
	assert.Equal(t, Deleted, outcome)

	files, err := r.g.Files()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestReconcileParsed_NilBytesIsSkipped(t *testing.T) {
	root := t.TempDir()
	r := newTestReconciler(t, root)

	outcome, err := r.ReconcileParsed(scan.ParsedEntry{Entry: scan.Entry{Path: filepath.Join(root, "ghost.rs"), Language: "rust"}})
	require.NoError(t, err)
	assert.Equal(t, Skipped, outcome)
}

func TestReconcileParsed_OutsideRootIsSkipped(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	path := filepath.Join(outside, "evil.rs")
	require.NoError(t, os.WriteFile(path, []byte("fn main() {}"), 0644))

	r := newTestReconciler(t, root)
	pe := mustParse(t, outside, path)
	outcome, err := r.ReconcileParsed(pe)
	require.NoError(t, err)
	assert.Equal(t, Skipped, outcome)
}

func mustCanonical(t *testing.T, path string) string {
	t.Helper()
	abs, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	return abs
}
