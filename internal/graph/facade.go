package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/magellan/internal/diagnostics"
	"github.com/standardbeagle/magellan/internal/extract"
	"github.com/standardbeagle/magellan/internal/model"
)

// Graph is the public facade (spec §4.6): the reconciler and query
// surface talk to a Graph, reaching the Backend only through
// Graph.Backend (for WithTx and full-table scans), so both storage modes
// present exactly one contract.
type Graph struct {
	backend Backend
	diag    *diagnostics.Stream
}

// Open wraps an already-constructed Backend (sqlbackend.Store or
// kvstore.Store), ensuring its schema and meta record exist (spec §4.6:
// "ensures a magellan_meta record exists").
func Open(backend Backend, diag *diagnostics.Stream) (*Graph, error) {
	if err := backend.EnsureSchema(); err != nil {
		return nil, err
	}
	if diag == nil {
		diag = diagnostics.New(nil)
	}
	return &Graph{backend: backend, diag: diag}, nil
}

func (g *Graph) Close() error { return g.backend.Close() }

// IndexFile runs the fact extractor for language and persists every
// resulting fact (spec §4.7 index_file). It does not run cross-file
// resolution passes itself — callers batch those once per reconcile
// round (spec §4.6's ordering rule).
func (g *Graph) IndexFile(path, language string, bytes []byte) (IndexResult, error) {
	sum := sha256.Sum256(bytes)
	hash := hex.EncodeToString(sum[:])

	var result model.ExtractResult
	if ext, ok := extract.Dispatch(language); ok {
		result = ext.Extract(path, bytes, g.diag)
	} else {
		g.diag.Emitf(diagnostics.StageExtract, path, "no extractor registered for language %q", language)
	}
	result.SortDeterministic()

	return g.IndexParsedFile(path, language, hash, time.Now(), result, bytes)
}

// IndexParsedFile persists an already-extracted ExtractResult for path
// without running the extractor itself — the counterpart to IndexFile
// for callers that parsed ahead of time across a bounded worker pool
// (spec §5: "Scanner may parallelize parsing across files ... results
// are collected into a deterministically sorted batch before being fed
// to the reconciler"). The persistence step below remains exactly what
// IndexFile always did; only the source of result changes.
func (g *Graph) IndexParsedFile(path, language, contentHash string, lastIndexedAt time.Time, result model.ExtractResult, bytes []byte) (IndexResult, error) {
	fileID, err := g.backend.UpsertFile(model.File{
		Path:          path,
		ContentHash:   contentHash,
		LastIndexedAt: lastIndexedAt,
		Language:      language,
	})
	if err != nil {
		return IndexResult{}, err
	}

	if _, err := g.backend.InsertSymbols(fileID, result.Symbols); err != nil {
		return IndexResult{}, err
	}
	if _, err := g.backend.InsertReferences(fileID, result.References); err != nil {
		return IndexResult{}, err
	}
	if _, err := g.backend.InsertCalls(fileID, result.Calls); err != nil {
		return IndexResult{}, err
	}
	if _, err := g.backend.InsertImports(fileID, result.Imports); err != nil {
		return IndexResult{}, err
	}
	if err := g.backend.ReplaceAstNodes(fileID, result.AstNodes); err != nil {
		return IndexResult{}, err
	}

	for _, sym := range result.Symbols {
		text, ok := safeSlice(bytes, sym.Span.ByteStart, sym.Span.ByteEnd)
		if !ok {
			continue
		}
		if err := g.backend.UpsertChunk(model.CodeChunk{
			FilePath:    path,
			ByteStart:   sym.Span.ByteStart,
			ByteEnd:     sym.Span.ByteEnd,
			Content:     text,
			ContentHash: xxhash.Sum64String(text),
			SymbolName:  sym.SimpleName,
			SymbolKind:  sym.KindNormalized,
			CreatedAt:   time.Now(),
		}); err != nil {
			return IndexResult{}, err
		}
	}

	if err := g.computeAndStoreMetrics(path, fileID, result); err != nil {
		return IndexResult{}, err
	}

	return IndexResult{
		Files:      1,
		Symbols:    len(result.Symbols),
		References: len(result.References),
		Calls:      len(result.Calls),
	}, nil
}

func safeSlice(b []byte, start, end uint32) (string, bool) {
	if int(end) > len(b) || start > end {
		return "", false
	}
	return string(b[start:end]), true
}

// computeAndStoreMetrics computes FileMetrics/SymbolMetrics per the
// teacher's analysis/metrics_calculator.go aggregation approach:
// cyclomatic complexity from structural AST node counts, file-level
// complexity_score as the sum (not average) of its symbols' scores
// (SPEC_FULL.md's Open Question resolution).
func (g *Graph) computeAndStoreMetrics(path string, fileID int64, result model.ExtractResult) error {
	now := time.Now()
	var fileComplexity float64
	loc := countLines(result)

	callerFanOut := map[string]int{}
	for _, c := range result.Calls {
		callerFanOut[c.CallerName]++
	}

	for _, sym := range result.Symbols {
		cyclomatic := cyclomaticFor(sym, result.AstNodes)
		fileComplexity += float64(cyclomatic)

		sm := model.SymbolMetrics{
			SymbolID:    sym.SymbolID,
			SimpleName:  sym.SimpleName,
			Kind:        sym.KindNormalized,
			FilePath:    path,
			LOC:         int(sym.Span.EndLine - sym.Span.StartLine + 1),
			FanOut:      callerFanOut[sym.SimpleName],
			Cyclomatic:  cyclomatic,
			LastUpdated: now,
		}
		if err := g.backend.UpsertSymbolMetrics(sm); err != nil {
			return err
		}
	}

	fm := model.FileMetrics{
		FilePath:        path,
		SymbolCount:     len(result.Symbols),
		LOC:             loc,
		EstimatedLOC:    loc,
		FanOut:          len(result.Calls),
		ComplexityScore: fileComplexity,
		LastUpdated:     now,
	}
	return g.backend.UpsertFileMetrics(fm)
}

// cyclomaticFor counts decision-point AST nodes (if/for/while/switch/
// try) whose span falls within sym's span, plus the baseline of 1 every
// function has (teacher's calculateCyclomaticComplexity convention).
func cyclomaticFor(sym model.Symbol, nodes []model.AstNode) int {
	complexity := 1
	for _, n := range nodes {
		if n.Span.ByteStart < sym.Span.ByteStart || n.Span.ByteEnd > sym.Span.ByteEnd {
			continue
		}
		switch n.Kind {
		case "if_statement", "for_statement", "while_statement", "switch_statement", "try_statement":
			complexity++
		}
	}
	return complexity
}

func countLines(result model.ExtractResult) int {
	maxLine := 0
	for _, sym := range result.Symbols {
		if sym.Span.EndLine > maxLine {
			maxLine = sym.Span.EndLine
		}
	}
	return maxLine
}

// DeleteFileFacts removes every fact rooted at path, atomically from the
// caller's point of view (spec §4.7 delete_file_facts).
func (g *Graph) DeleteFileFacts(path string) error {
	f, ok, err := g.backend.FileByPath(path)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	symbols, err := g.backend.SymbolsInFile(f.ID)
	if err != nil {
		return err
	}
	symbolIDs := make([]int64, 0, len(symbols))
	for _, s := range symbols {
		symbolIDs = append(symbolIDs, s.ID)
	}
	sort.Slice(symbolIDs, func(i, j int) bool { return symbolIDs[i] < symbolIDs[j] })

	refs, err := g.backend.ReferencesForFile(f.ID)
	if err != nil {
		return err
	}
	refIDs := idsOfRefs(refs)

	calls, err := g.backend.CallsForFile(f.ID)
	if err != nil {
		return err
	}
	callIDs := idsOfCalls(calls)

	imports, err := g.backend.ImportsForFile(f.ID)
	if err != nil {
		return err
	}
	importIDs := idsOfImports(imports)

	if err := g.backend.DeleteSymbols(symbolIDs); err != nil {
		return err
	}
	if err := g.backend.DeleteReferences(refIDs); err != nil {
		return err
	}
	if err := g.backend.DeleteCalls(callIDs); err != nil {
		return err
	}
	if err := g.backend.DeleteImports(importIDs); err != nil {
		return err
	}
	if err := g.backend.DeleteAstNodes(f.ID); err != nil {
		return err
	}
	if err := g.backend.DeleteChunksForFile(path); err != nil {
		return err
	}
	if err := g.backend.DeleteFile(f.ID); err != nil {
		return err
	}
	if err := g.backend.DeleteFileMetrics(path); err != nil {
		return err
	}

	symbolIDStrs := make([]string, 0, len(symbols))
	for _, s := range symbols {
		symbolIDStrs = append(symbolIDStrs, s.SymbolID)
	}
	return g.backend.DeleteSymbolMetrics(symbolIDStrs)
}

func idsOfRefs(refs []model.Reference) []int64 {
	ids := make([]int64, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func idsOfCalls(calls []model.Call) []int64 {
	ids := make([]int64, 0, len(calls))
	for _, c := range calls {
		ids = append(ids, c.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func idsOfImports(imports []model.Import) []int64 {
	ids := make([]int64, 0, len(imports))
	for _, im := range imports {
		ids = append(ids, im.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// --- Queries (spec §4.6) ---

func (g *Graph) SymbolsInFile(path string) ([]model.Symbol, error) {
	f, ok, err := g.backend.FileByPath(path)
	if err != nil || !ok {
		return nil, err
	}
	return g.backend.SymbolsInFile(f.ID)
}

func (g *Graph) SymbolByID(symbolID string) (*model.Symbol, bool, error) {
	return g.backend.SymbolByID(symbolID)
}

func (g *Graph) SymbolsByDisplayFQN(fqn string) ([]model.Symbol, error) {
	return g.backend.SymbolsByDisplayFQN(fqn)
}

func (g *Graph) ReferencesTo(symbolID string) ([]model.Reference, error) {
	return g.backend.ReferencesTo(symbolID)
}

func (g *Graph) CallersOf(symbolID string) ([]model.Call, error) {
	return g.backend.CallersOf(symbolID)
}

func (g *Graph) CalleesOf(symbolID string) ([]model.Call, error) {
	return g.backend.CalleesOf(symbolID)
}

func (g *Graph) Files() ([]model.File, error) {
	return g.backend.Files()
}

func (g *Graph) CountByKind() (Counts, error) {
	syms, err := g.backend.AllSymbols()
	if err != nil {
		return Counts{}, err
	}
	refs, err := g.backend.AllReferences()
	if err != nil {
		return Counts{}, err
	}
	calls, err := g.backend.AllCalls()
	if err != nil {
		return Counts{}, err
	}
	imports, err := g.backend.AllImports()
	if err != nil {
		return Counts{}, err
	}
	files, err := g.backend.Files()
	if err != nil {
		return Counts{}, err
	}
	return Counts{Files: len(files), Symbols: len(syms), References: len(refs), Calls: len(calls), Imports: len(imports)}, nil
}

func (g *Graph) AstForFile(path string) ([]model.AstNode, error) {
	f, ok, err := g.backend.FileByPath(path)
	if err != nil || !ok {
		return nil, err
	}
	return g.backend.AstForFile(f.ID)
}

func (g *Graph) AstByKind(kind string) ([]model.AstNode, error) {
	return g.backend.AstByKind(kind)
}

// Backend exposes the underlying Backend for resolution passes and the
// validator, which need the full-graph read operations directly.
func (g *Graph) Backend() Backend { return g.backend }

// Diagnostics exposes the stream so callers (reconciler, pipeline) share
// one sink.
func (g *Graph) Diagnostics() *diagnostics.Stream { return g.diag }
