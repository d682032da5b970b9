package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/magellan/internal/diagnostics"
	"github.com/standardbeagle/magellan/internal/filter"
	"github.com/standardbeagle/magellan/internal/graph"
	"github.com/standardbeagle/magellan/internal/graph/kvstore"
	"github.com/standardbeagle/magellan/internal/pathvalidate"
	"github.com/standardbeagle/magellan/internal/reconcile"
	"github.com/standardbeagle/magellan/internal/scan"
	"github.com/standardbeagle/magellan/internal/watch"
)

func TestScanInitial_IndexesAllFilesAndResolvesCalls(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.rs"), []byte("fn helper() {}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.rs"), []byte("fn main() { helper(); }"), 0644))

	g, err := graph.Open(kvstore.New(), diagnostics.New(nil))
	require.NoError(t, err)

	f, err := filter.New(filter.Config{})
	require.NoError(t, err)
	v := pathvalidate.New(root)
	s := scan.New(root, f, v, nil)
	r := reconcile.New(v, g, nil)

	var processedPaths []string
	err = ScanInitial(r, s, func(processed, total int, path string, outcome reconcile.Outcome) {
		processedPaths = append(processedPaths, path)
	})
	require.NoError(t, err)
	assert.Len(t, processedPaths, 2)

	calls, err := g.Backend().AllCalls()
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.NotNil(t, calls[0].CalleeSymbolID)
}

func TestRunWatch_BoundedLoopProcessesOneBatch(t *testing.T) {
	root := t.TempDir()

	g, err := graph.Open(kvstore.New(), diagnostics.New(nil))
	require.NoError(t, err)

	f, err := filter.New(filter.Config{})
	require.NoError(t, err)
	v := pathvalidate.New(root)
	r := reconcile.New(v, g, nil)

	w, err := watch.New(root, f, 50*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	path := filepath.Join(root, "main.rs")
	require.NoError(t, os.WriteFile(path, []byte("fn main() {}"), 0644))

	var seen []string
	err = RunWatch(r, w, nil, 1, func(processed, total int, path string, outcome reconcile.Outcome) {
		seen = append(seen, path)
	})
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, path, seen[0])

	syms, err := g.SymbolsInFile(seen[0])
	require.NoError(t, err)
	assert.Len(t, syms, 1)
}
