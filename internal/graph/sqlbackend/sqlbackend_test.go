package sqlbackend

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/magellan/internal/model"
	"github.com/standardbeagle/magellan/internal/span"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.EnsureSchema())
	return s
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.EnsureSchema())
	v, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.NotZero(t, v)
}

func TestUpsertFileReplacesContentHash(t *testing.T) {
	s := openTestStore(t)

	id, err := s.UpsertFile(model.File{Path: "a.rs", ContentHash: "h1", Language: "rust", LastIndexedAt: time.Unix(0, 0)})
	require.NoError(t, err)

	id2, err := s.UpsertFile(model.File{Path: "a.rs", ContentHash: "h2", Language: "rust", LastIndexedAt: time.Unix(0, 0)})
	require.NoError(t, err)
	assert.Equal(t, id, id2)

	f, ok, err := s.FileByPath("a.rs")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "h2", f.ContentHash)
}

func TestSymbolCRUD(t *testing.T) {
	s := openTestStore(t)
	fileID, err := s.UpsertFile(model.File{Path: "a.rs"})
	require.NoError(t, err)

	ids, err := s.InsertSymbols(fileID, []model.Symbol{
		{SymbolID: "sym1", SimpleName: "helper", DisplayFQN: "a::helper", KindNormalized: model.KindFn, Span: span.Span{ByteStart: 0, ByteEnd: 10}},
	})
	require.NoError(t, err)
	require.Len(t, ids, 1)

	sym, ok, err := s.SymbolByID("sym1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "helper", sym.SimpleName)

	byFQN, err := s.SymbolsByDisplayFQN("a::helper")
	require.NoError(t, err)
	assert.Len(t, byFQN, 1)

	require.NoError(t, s.DeleteSymbols(ids))
	_, ok, err = s.SymbolByID("sym1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReferenceAndCallResolutionUpdates(t *testing.T) {
	s := openTestStore(t)
	fileID, err := s.UpsertFile(model.File{Path: "a.rs"})
	require.NoError(t, err)

	refIDs, err := s.InsertReferences(fileID, []model.Reference{
		{ReferencedName: "helper", Kind: model.RefRead, Span: span.Span{ByteStart: 0, ByteEnd: 5}},
	})
	require.NoError(t, err)

	target := "sym1"
	require.NoError(t, s.UpdateReferenceTarget(refIDs[0], &target))

	refs, err := s.ReferencesTo("sym1")
	require.NoError(t, err)
	assert.Len(t, refs, 1)

	callIDs, err := s.InsertCalls(fileID, []model.Call{
		{CallerName: "main", CalleeName: "helper", Span: span.Span{ByteStart: 10, ByteEnd: 20}},
	})
	require.NoError(t, err)

	caller, callee := "caller-sym", "callee-sym"
	require.NoError(t, s.UpdateCallTargets(callIDs[0], &caller, &callee))

	callers, err := s.CallersOf("callee-sym")
	require.NoError(t, err)
	assert.Len(t, callers, 1)

	callees, err := s.CalleesOf("caller-sym")
	require.NoError(t, err)
	assert.Len(t, callees, 1)
}

func TestDeleteFileRemovesIt(t *testing.T) {
	s := openTestStore(t)
	fileID, err := s.UpsertFile(model.File{Path: "a.rs"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteFile(fileID))

	files, err := s.Files()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestExecutionLogLifecycle(t *testing.T) {
	s := openTestStore(t)
	rec := model.ExecutionRecord{
		ExecutionID: "exec-1",
		ToolVersion: "0.1.0",
		Root:        "/repo",
		StartedAt:   time.Unix(100, 0),
		Outcome:     model.OutcomeRunning,
	}
	require.NoError(t, s.StartExecution(rec))
	require.NoError(t, s.FinishExecution("exec-1", time.Unix(200, 0), model.OutcomeOK, model.Counters{Files: 1, Symbols: 2}))

	recent, err := s.ListRecentExecutions(10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, model.OutcomeOK, recent[0].Outcome)
	assert.Equal(t, 2, recent[0].Counters.Symbols)
}

func TestChunkRoundTrip(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.UpsertChunk(model.CodeChunk{
		FilePath:    "a.rs",
		ByteStart:   0,
		ByteEnd:     10,
		Content:     "fn helper() {}",
		ContentHash: 12345,
		SymbolName:  "helper",
		SymbolKind:  model.KindFn,
		CreatedAt:   time.Unix(0, 0),
	}))

	c, ok, err := s.ChunkBySpan("a.rs", 0, 10)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "fn helper() {}", c.Content)

	byName, err := s.ChunksBySymbolName("helper")
	require.NoError(t, err)
	assert.Len(t, byName, 1)

	require.NoError(t, s.DeleteChunksForFile("a.rs"))
	_, ok, err = s.ChunkBySpan("a.rs", 0, 10)
	require.NoError(t, err)
	assert.False(t, ok)
}
