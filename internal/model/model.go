// Package model defines magellan's graph entities (spec §3.2): the facts
// the extractors produce and the graph store persists.
package model

import (
	"time"

	"github.com/standardbeagle/magellan/internal/span"
)

// SymbolKind is the normalized symbol kind vocabulary (spec §3.2, §6.6).
type SymbolKind string

const (
	KindFn      SymbolKind = "fn"
	KindMethod  SymbolKind = "method"
	KindStruct  SymbolKind = "struct"
	KindEnum    SymbolKind = "enum"
	KindTrait   SymbolKind = "trait"
	KindModule  SymbolKind = "module"
	KindVariable SymbolKind = "variable"
	KindConst   SymbolKind = "const"
	KindType    SymbolKind = "type"
	KindUnion   SymbolKind = "union"
	KindImpl    SymbolKind = "impl"
	KindUnknown SymbolKind = "unknown"
)

// ReferenceKind enumerates how an identifier use relates to its target.
type ReferenceKind string

const (
	RefCall        ReferenceKind = "call"
	RefRead        ReferenceKind = "read"
	RefWrite       ReferenceKind = "write"
	RefTypeRef     ReferenceKind = "type_ref"
	RefImport      ReferenceKind = "import"
	RefInheritance ReferenceKind = "inheritance"
)

// File is the node representing one indexed source file.
type File struct {
	ID            int64
	Path          string // canonical, workspace-relative when possible
	ContentHash   string // SHA-256 hex of the bytes that produced its facts
	LastIndexedAt time.Time
	Language      string
}

// Symbol is a named definition extracted from a file.
type Symbol struct {
	ID             int64
	SymbolID       string // BLAKE3-derived stable identifier (span.SymbolID)
	FileID         int64
	CanonicalFQN   string
	DisplayFQN     string
	SimpleName     string
	KindNormalized SymbolKind
	KindRaw        string
	Span           span.Span
	Language       string
}

// Reference is a use of an identifier; Target is nil until cross-file
// resolution attaches a target_symbol_id (or leaves it permanently
// unresolved).
type Reference struct {
	ID                 int64
	FileID             int64
	ContainingSymbolID *int64 // the symbol or file scope the use appears in
	ReferencedName     string
	TargetSymbolID     *string
	Span               span.Span
	Kind               ReferenceKind
}

// Call is a call-site fact; CallerSymbolID/CalleeSymbolID start nil and
// are populated by call resolution (spec §4.6).
type Call struct {
	ID             int64
	FileID         int64
	CallerName     string
	CalleeName     string
	CallerSymbolID *string
	CalleeSymbolID *string
	Span           span.Span
}

// Import is an import/use/include statement; ResolvedFileID is set once
// import resolution finds the target file.
type Import struct {
	ID              int64
	FileID          int64
	ImportPath      string
	ResolvedFileID  *int64
	Span            span.Span
}

// CodeChunk holds the exact source text for a (file, span) pair.
type CodeChunk struct {
	ID          int64
	FilePath    string
	ByteStart   uint32
	ByteEnd     uint32
	Content     string
	ContentHash uint64 // xxhash64 fast-path fingerprint, not a security hash
	SymbolName  string
	SymbolKind  SymbolKind
	CreatedAt   time.Time
}

// AstNode is a structural grammar node retained for complexity/nesting
// queries; Parent is nil at the root of a file's tree.
type AstNode struct {
	ID       int64
	FileID   int64
	Kind     string
	Span     span.Span
	ParentID *int64
}

// FileMetrics aggregates symbol/size/complexity facts for one file.
type FileMetrics struct {
	FilePath        string
	SymbolCount     int
	LOC             int
	EstimatedLOC    int
	FanIn           int
	FanOut          int
	ComplexityScore float64
	LastUpdated     time.Time
}

// SymbolMetrics aggregates facts for one symbol.
type SymbolMetrics struct {
	SymbolID   string
	SimpleName string
	Kind       SymbolKind
	FilePath   string
	LOC        int
	FanIn      int
	FanOut     int
	Cyclomatic int
	LastUpdated time.Time
}

// ExecutionOutcome is the terminal state of one indexing invocation.
type ExecutionOutcome string

const (
	OutcomeRunning          ExecutionOutcome = "running"
	OutcomeOK               ExecutionOutcome = "ok"
	OutcomeError            ExecutionOutcome = "error"
	OutcomeValidationFailed ExecutionOutcome = "validation_failed"
)

// ExecutionRecord is one row of the append-only execution log.
type ExecutionRecord struct {
	ExecutionID string
	ToolVersion string
	Args        []string
	Root        string
	DBPath      string
	StartedAt   time.Time
	FinishedAt  *time.Time
	Outcome     ExecutionOutcome
	Counters    Counters
}

// Counters are the per-execution totals recorded on completion.
type Counters struct {
	Files      int
	Symbols    int
	References int
	Calls      int
}

// EdgeType enumerates the relationship kinds carried by graph edges.
type EdgeType string

const (
	EdgeDefines    EdgeType = "DEFINES"
	EdgeCalls      EdgeType = "CALLS"
	EdgeReferences EdgeType = "REFERENCES"
)

// ExtractResult is the per-file output contract every language extractor
// produces (spec §4.4). Extraction never fails the pipeline: a grammar
// that produces no tree yields a zero-value ExtractResult plus a
// diagnostic, and a tree with syntax errors still yields whatever facts
// its nodes carry, never a pipeline abort.
type ExtractResult struct {
	Symbols    []Symbol
	References []Reference
	Calls      []Call
	Imports    []Import
	AstNodes   []AstNode
}
