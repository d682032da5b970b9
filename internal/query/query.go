// Package query implements magellan's query surface (spec §4.11): read
// operations over the graph facade that always return results in the
// canonical (file_path, start_line, start_col, byte_start, name) sort
// order and wrap every hit in a stable match_id.
package query

import (
	"sort"

	"github.com/google/uuid"

	"github.com/standardbeagle/magellan/internal/errors"
	"github.com/standardbeagle/magellan/internal/graph"
	"github.com/standardbeagle/magellan/internal/model"
	"github.com/standardbeagle/magellan/internal/span"
)

// SymbolMatch is the query-surface shape for one symbol hit (spec §6.1).
type SymbolMatch struct {
	MatchID  string     `json:"match_id"`
	Span     span.Span  `json:"span"`
	SpanID   string     `json:"span_id"`
	Name     string     `json:"name"`
	Kind     string     `json:"kind"`
	Parent   string     `json:"parent,omitempty"`
	SymbolID string     `json:"symbol_id,omitempty"`
}

// ReferenceMatch is the query-surface shape for one reference hit.
type ReferenceMatch struct {
	MatchID          string    `json:"match_id"`
	Span             span.Span `json:"span"`
	SpanID           string    `json:"span_id"`
	ReferencedSymbol string    `json:"referenced_symbol"`
	ReferenceKind    string    `json:"reference_kind,omitempty"`
	TargetSymbolID   string    `json:"target_symbol_id,omitempty"`
}

// CallMatch is the query-surface shape for one call hit, in either
// direction (spec §4.11: "mirror-symmetric shapes").
type CallMatch struct {
	MatchID        string    `json:"match_id"`
	Span           span.Span `json:"span"`
	SpanID         string    `json:"span_id"`
	ReferencedName string    `json:"referenced_name"`
	CallerSymbolID string    `json:"caller_symbol_id,omitempty"`
	CalleeSymbolID string    `json:"callee_symbol_id,omitempty"`
}

// Surface wraps a Graph with the read-only query operations the CLI's
// query command and the MCP-style tool surface both call through.
type Surface struct {
	g *graph.Graph
}

// New builds a query Surface over an already-open Graph.
func New(g *graph.Graph) *Surface {
	return &Surface{g: g}
}

// SymbolsInFile returns every symbol defined in path, sorted canonically.
func (s *Surface) SymbolsInFile(path string) ([]SymbolMatch, error) {
	symbols, err := s.g.SymbolsInFile(path)
	if err != nil {
		return nil, err
	}
	out := make([]SymbolMatch, 0, len(symbols))
	for _, sym := range symbols {
		out = append(out, symbolMatch(sym))
	}
	sortSymbolMatches(out)
	return out, nil
}

// SymbolByFQN resolves a display FQN to exactly one symbol, surfacing a
// CodeAmbiguousFQN error with every candidate when more than one symbol
// shares the name (this ledger's Open Question resolution: ambiguity is
// never silently resolved to an arbitrary pick).
func (s *Surface) SymbolByFQN(fqn string) (*SymbolMatch, error) {
	candidates, err := s.g.SymbolsByDisplayFQN(fqn)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		candidates, err = s.symbolsBySimpleName(fqn)
		if err != nil {
			return nil, err
		}
	}
	if len(candidates) == 0 {
		return nil, errors.NewQueryError(errors.CodeUnknownSymbol, "no symbol named "+fqn, nil)
	}
	if len(candidates) > 1 {
		return nil, ambiguousError(fqn, candidates)
	}
	m := symbolMatch(candidates[0])
	return &m, nil
}

func (s *Surface) symbolsBySimpleName(name string) ([]model.Symbol, error) {
	all, err := s.g.Backend().AllSymbols()
	if err != nil {
		return nil, err
	}
	var out []model.Symbol
	for _, sym := range all {
		if sym.SimpleName == name {
			out = append(out, sym)
		}
	}
	return out, nil
}

func ambiguousError(name string, candidates []model.Symbol) error {
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, c.DisplayFQN)
	}
	return errors.NewQueryError(errors.CodeAmbiguousFQN, "ambiguous symbol name "+name, nil).
		WithRemediation("candidates: " + joinStrings(names, ", "))
}

func joinStrings(parts []string, sep string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return out
}

// ReferencesTo returns every reference that resolved to symbolID
// ("incoming" direction), sorted canonically.
func (s *Surface) ReferencesTo(symbolID string) ([]ReferenceMatch, error) {
	refs, err := s.g.ReferencesTo(symbolID)
	if err != nil {
		return nil, err
	}
	out := make([]ReferenceMatch, 0, len(refs))
	for _, r := range refs {
		out = append(out, referenceMatch(r))
	}
	sortReferenceMatches(out)
	return out, nil
}

// CallersOf returns every call site whose callee resolved to symbolID
// ("incoming" direction for calls).
func (s *Surface) CallersOf(symbolID string) ([]CallMatch, error) {
	calls, err := s.g.CallersOf(symbolID)
	if err != nil {
		return nil, err
	}
	out := make([]CallMatch, 0, len(calls))
	for _, c := range calls {
		out = append(out, callMatch(c, c.CallerName))
	}
	sortCallMatches(out)
	return out, nil
}

// CalleesOf returns every call site whose caller resolved to symbolID
// ("outgoing" direction for calls) — the mirror of CallersOf.
func (s *Surface) CalleesOf(symbolID string) ([]CallMatch, error) {
	calls, err := s.g.CalleesOf(symbolID)
	if err != nil {
		return nil, err
	}
	out := make([]CallMatch, 0, len(calls))
	for _, c := range calls {
		out = append(out, callMatch(c, c.CalleeName))
	}
	sortCallMatches(out)
	return out, nil
}

// AstForFile returns the AST node spans for path in ascending byte_start
// order as the backend returns them (kvstore keeps the
// (byte_start, byte_end, kind) order IndexFile sorted them into; a
// parent that starts at the same byte as its child comes after it) —
// spec §4.11's named exception to the canonical sort for "semantic
// ordering."
func (s *Surface) AstForFile(path string) ([]model.AstNode, error) {
	return s.g.AstForFile(path)
}

func symbolMatch(sym model.Symbol) SymbolMatch {
	return SymbolMatch{
		MatchID:  uuid.NewString(),
		Span:     sym.Span,
		SpanID:   sym.Span.ID(),
		Name:     sym.SimpleName,
		Kind:     string(sym.KindNormalized),
		SymbolID: sym.SymbolID,
	}
}

func referenceMatch(r model.Reference) ReferenceMatch {
	m := ReferenceMatch{
		MatchID:          uuid.NewString(),
		Span:             r.Span,
		SpanID:           r.Span.ID(),
		ReferencedSymbol: r.ReferencedName,
		ReferenceKind:    string(r.Kind),
	}
	if r.TargetSymbolID != nil {
		m.TargetSymbolID = *r.TargetSymbolID
	}
	return m
}

func callMatch(c model.Call, referencedName string) CallMatch {
	m := CallMatch{
		MatchID:        uuid.NewString(),
		Span:           c.Span,
		SpanID:         c.Span.ID(),
		ReferencedName: referencedName,
	}
	if c.CallerSymbolID != nil {
		m.CallerSymbolID = *c.CallerSymbolID
	}
	if c.CalleeSymbolID != nil {
		m.CalleeSymbolID = *c.CalleeSymbolID
	}
	return m
}

func sortSymbolMatches(matches []SymbolMatch) {
	sort.Slice(matches, func(i, j int) bool { return lessMatch(matches[i].Span, matches[i].Name, matches[j].Span, matches[j].Name) })
}

func sortReferenceMatches(matches []ReferenceMatch) {
	sort.Slice(matches, func(i, j int) bool {
		return lessMatch(matches[i].Span, matches[i].ReferencedSymbol, matches[j].Span, matches[j].ReferencedSymbol)
	})
}

func sortCallMatches(matches []CallMatch) {
	sort.Slice(matches, func(i, j int) bool {
		return lessMatch(matches[i].Span, matches[i].ReferencedName, matches[j].Span, matches[j].ReferencedName)
	})
}

// lessMatch implements the canonical sort key of spec §4.11:
// (file_path, start_line, start_col, byte_start, name).
func lessMatch(a span.Span, aName string, b span.Span, bName string) bool {
	if a.FilePath != b.FilePath {
		return a.FilePath < b.FilePath
	}
	if a.StartLine != b.StartLine {
		return a.StartLine < b.StartLine
	}
	if a.StartCol != b.StartCol {
		return a.StartCol < b.StartCol
	}
	if a.ByteStart != b.ByteStart {
		return a.ByteStart < b.ByteStart
	}
	return aName < bName
}
