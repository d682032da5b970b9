// Package graph implements magellan's graph store facade (spec §4.6):
// a single Graph facade over the Backend interface, implemented by one
// of two pluggable backends
// (internal/graph/sqlbackend, internal/graph/kvstore), plus the
// cross-file resolution passes that run once per batch against the
// full graph contents rather than per file.
package graph

import (
	"time"

	"github.com/standardbeagle/magellan/internal/model"
)

// Counts is the per-kind tally returned by CountByKind.
type Counts struct {
	Files      int
	Symbols    int
	References int
	Calls      int
	Imports    int
}

// IndexResult is what index_file returns to the reconciler (spec §4.7
// step 7).
type IndexResult struct {
	Files      int
	Symbols    int
	References int
	Calls      int
}

// Backend is the storage-level contract both sqlbackend and kvstore
// implement (spec §6.5). Graph (facade.go) wraps a Backend with the
// cross-file resolution passes and the higher-level reconcile entry
// points; Graph.Backend exposes it to callers that need it directly.
type Backend interface {
	// Schema / lifecycle.
	EnsureSchema() error
	SchemaVersion() (int, error)
	Close() error

	// File nodes.
	UpsertFile(f model.File) (int64, error)
	FileByPath(path string) (*model.File, bool, error)
	DeleteFile(fileID int64) error
	Files() ([]model.File, error)

	// Symbol nodes.
	InsertSymbols(fileID int64, symbols []model.Symbol) ([]int64, error)
	SymbolsInFile(fileID int64) ([]model.Symbol, error)
	SymbolByID(symbolID string) (*model.Symbol, bool, error)
	SymbolsByDisplayFQN(fqn string) ([]model.Symbol, error)
	AllSymbols() ([]model.Symbol, error)
	DeleteSymbols(ids []int64) error

	// Reference/Call/Import nodes.
	InsertReferences(fileID int64, refs []model.Reference) ([]int64, error)
	InsertCalls(fileID int64, calls []model.Call) ([]int64, error)
	InsertImports(fileID int64, imports []model.Import) ([]int64, error)
	ReferencesForFile(fileID int64) ([]model.Reference, error)
	CallsForFile(fileID int64) ([]model.Call, error)
	ImportsForFile(fileID int64) ([]model.Import, error)
	AllReferences() ([]model.Reference, error)
	AllCalls() ([]model.Call, error)
	AllImports() ([]model.Import, error)
	UpdateReferenceTarget(id int64, symbolID *string) error
	UpdateCallTargets(id int64, caller, callee *string) error
	UpdateImportTarget(id int64, fileID *int64) error
	ReferencesTo(symbolID string) ([]model.Reference, error)
	CallersOf(symbolID string) ([]model.Call, error)
	CalleesOf(symbolID string) ([]model.Call, error)
	DeleteReferences(ids []int64) error
	DeleteCalls(ids []int64) error
	DeleteImports(ids []int64) error

	// AST nodes.
	ReplaceAstNodes(fileID int64, nodes []model.AstNode) error
	AstForFile(fileID int64) ([]model.AstNode, error)
	AstByKind(kind string) ([]model.AstNode, error)
	DeleteAstNodes(fileID int64) error

	// Chunks.
	UpsertChunk(c model.CodeChunk) error
	ChunkBySpan(filePath string, byteStart, byteEnd uint32) (*model.CodeChunk, bool, error)
	ChunksForFile(filePath string) ([]model.CodeChunk, error)
	ChunksBySymbolName(name string) ([]model.CodeChunk, error)
	DeleteChunksForFile(filePath string) error

	// Metrics.
	UpsertFileMetrics(m model.FileMetrics) error
	FileMetrics(path string) (*model.FileMetrics, bool, error)
	UpsertSymbolMetrics(m model.SymbolMetrics) error
	SymbolMetrics(symbolID string) (*model.SymbolMetrics, bool, error)
	DeleteFileMetrics(path string) error
	DeleteSymbolMetrics(symbolIDs []string) error

	// Execution log.
	StartExecution(r model.ExecutionRecord) error
	FinishExecution(executionID string, finishedAt time.Time, outcome model.ExecutionOutcome, counters model.Counters) error
	ListRecentExecutions(limit int) ([]model.ExecutionRecord, error)

	// Transaction boundary: reconcile wraps delete+index in one
	// transaction (spec §4.7 step 5). WithTx is a no-op passthrough for
	// backends without real transactions (kvstore), and a real
	// BEGIN/COMMIT/ROLLBACK for sqlbackend.
	WithTx(fn func(tx Backend) error) error
}
