package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/magellan/internal/diagnostics"
	"github.com/standardbeagle/magellan/internal/graph/kvstore"
)

func newTestGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := Open(kvstore.New(), diagnostics.New(nil))
	require.NoError(t, err)
	return g
}

func TestResolveAll_ResolvesUnambiguousCall(t *testing.T) {
	g := newTestGraph(t)
	_, err := g.IndexFile("helper.rs", "rust", []byte("fn helper() {}"))
	require.NoError(t, err)
	_, err = g.IndexFile("main.rs", "rust", []byte("fn main() { helper(); }"))
	require.NoError(t, err)

	require.NoError(t, g.ResolveAll())

	calls, err := g.backend.AllCalls()
	require.NoError(t, err)
	require.Len(t, calls, 1)
	require.NotNil(t, calls[0].CalleeSymbolID)

	helper, ok, err := g.backend.SymbolByID(*calls[0].CalleeSymbolID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "helper", helper.SimpleName)
}

func TestResolveAll_LeavesAmbiguousCallUnresolved(t *testing.T) {
	g := newTestGraph(t)
	_, err := g.IndexFile("a.rs", "rust", []byte("fn dup() {}"))
	require.NoError(t, err)
	_, err = g.IndexFile("b.rs", "rust", []byte("fn dup() {}"))
	require.NoError(t, err)
	_, err = g.IndexFile("c.rs", "rust", []byte("fn main() { dup(); }"))
	require.NoError(t, err)

	require.NoError(t, g.ResolveAll())

	calls, err := g.backend.AllCalls()
	require.NoError(t, err)
	var sawDupCall bool
	for _, c := range calls {
		if c.CalleeName == "dup" {
			sawDupCall = true
			assert.Nil(t, c.CalleeSymbolID)
		}
	}
	assert.True(t, sawDupCall)
}

func TestResolveAll_IsIdempotent(t *testing.T) {
	g := newTestGraph(t)
	_, err := g.IndexFile("helper.rs", "rust", []byte("fn helper() {}"))
	require.NoError(t, err)
	_, err = g.IndexFile("main.rs", "rust", []byte("fn main() { helper(); }"))
	require.NoError(t, err)

	require.NoError(t, g.ResolveAll())
	before, err := g.backend.AllCalls()
	require.NoError(t, err)

	require.NoError(t, g.ResolveAll())
	after, err := g.backend.AllCalls()
	require.NoError(t, err)

	require.Equal(t, len(before), len(after))
	for i := range before {
		assert.Equal(t, before[i].CalleeSymbolID, after[i].CalleeSymbolID)
	}
}

func TestModuleToPathHint(t *testing.T) {
	cases := map[string]string{
		`use crate::util::helper;`: "crate/util/helper",
		`import foo.bar`:           "foo/bar",
		`#include "foo/bar.h"`:     "foo/bar/h",
		``:                         "",
	}
	for in, want := range cases {
		assert.Equal(t, want, moduleToPathHint(in), "input %q", in)
	}
}

func TestAmbiguousCandidates(t *testing.T) {
	g := newTestGraph(t)
	_, err := g.IndexFile("a.rs", "rust", []byte("fn dup() {}"))
	require.NoError(t, err)
	_, err = g.IndexFile("b.rs", "rust", []byte("fn dup() {}"))
	require.NoError(t, err)

	candidates, err := g.AmbiguousCandidates("dup")
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}
