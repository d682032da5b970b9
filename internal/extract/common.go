// Package extract implements magellan's language-dispatched fact
// extractors (spec §4.4): AST traversal producing SymbolFact,
// ReferenceFact, CallFact, ImportFact, and AstNode lists with
// byte-precise spans, grounded on the teacher's tree-sitter traversal
// (internal/parser/unified_extractor.go) but stripped to the
// non-semantic facts the spec asks for — no complexity/side-effect/
// performance tracking.
package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/magellan/internal/diagnostics"
	"github.com/standardbeagle/magellan/internal/model"
	"github.com/standardbeagle/magellan/internal/span"
)

// scopeFrame is one entry of the scope stack maintained during traversal
// (spec §9 "Scope stack"): a (kind, name) pair pushed on entering a
// module/namespace/class/impl and popped on leaving it.
type scopeFrame struct {
	kind model.SymbolKind
	name string
}

// scopeStack builds canonical/display FQNs from the current nesting.
type scopeStack struct {
	frames    []scopeFrame
	separator string
	pkgName   string
	filePath  string
}

func newScopeStack(pkgName, filePath, separator string) *scopeStack {
	return &scopeStack{separator: separator, pkgName: pkgName, filePath: filePath}
}

func (s *scopeStack) push(kind model.SymbolKind, name string) {
	s.frames = append(s.frames, scopeFrame{kind, name})
}

func (s *scopeStack) pop() {
	if len(s.frames) > 0 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// funcStack tracks the nearest enclosing function/method *definition*
// name for call attribution, independent of scopeStack's FQN-container
// frames: every fn/method pushes here regardless of whether its defRule
// also pushes a scope frame, so a call inside a plain top-level function
// still attributes to that function rather than falling back to the
// file's package name.
type funcStack struct {
	names []string
}

func (f *funcStack) push(name string) { f.names = append(f.names, name) }

func (f *funcStack) pop() {
	if len(f.names) > 0 {
		f.names = f.names[:len(f.names)-1]
	}
}

func (f *funcStack) current(fallback string) string {
	if len(f.names) == 0 {
		return fallback
	}
	return f.names[len(f.names)-1]
}

func (s *scopeStack) chain() string {
	names := make([]string, 0, len(s.frames))
	for _, f := range s.frames {
		names = append(names, f.name)
	}
	out := ""
	for i, n := range names {
		if i > 0 {
			out += s.separator
		}
		out += n
	}
	return out
}

// canonicalFQN builds "{package}::{file}::{KindWord} {name}" — identity
// used only for symbol_id derivation (spec §3.3), independent of display
// formatting.
func (s *scopeStack) canonicalFQN(kind model.SymbolKind, simpleName string) string {
	return s.pkgName + "::" + s.filePath + "::" + kindWord(kind) + " " + simpleName
}

// displayFQN builds the human-facing "{package}{sep}{scope_chain}{sep}{name}".
func (s *scopeStack) displayFQN(simpleName string) string {
	chain := s.chain()
	if chain == "" {
		return s.pkgName + s.separator + simpleName
	}
	return s.pkgName + s.separator + chain + s.separator + simpleName
}

func kindWord(k model.SymbolKind) string {
	switch k {
	case model.KindFn:
		return "Fn"
	case model.KindMethod:
		return "Method"
	case model.KindStruct:
		return "Struct"
	case model.KindEnum:
		return "Enum"
	case model.KindTrait:
		return "Trait"
	case model.KindModule:
		return "Module"
	case model.KindVariable:
		return "Variable"
	case model.KindConst:
		return "Const"
	case model.KindType:
		return "Type"
	case model.KindUnion:
		return "Union"
	case model.KindImpl:
		return "Impl"
	default:
		return "Unknown"
	}
}

// ctx carries the shared mutable state every language walker threads
// through its recursive descent.
type ctx struct {
	path     string
	source   []byte
	language string
	diag     *diagnostics.Stream
	scopes   *scopeStack
	funcs    *funcStack
	result   *model.ExtractResult

	nextAstID int64
}

// makeSpan builds a span.Span from a tree-sitter node, dropping the node
// with a diagnostic when the grammar hands back an invalid or zero-width
// range (spec §4.1, §9).
func (c *ctx) makeSpan(n *tree_sitter.Node) (span.Span, bool) {
	start := uint32(n.StartByte())
	end := uint32(n.EndByte())
	if start == end {
		c.diag.Emitf(diagnostics.StageExtract, c.path, "dropped zero-width %s span at byte %d", n.Kind(), start)
		return span.Span{}, false
	}
	sp, err := span.Make(c.path, start, end, c.source)
	if err != nil {
		c.diag.Emitf(diagnostics.StageExtract, c.path, "dropped invalid span for %s: %v", n.Kind(), err)
		return span.Span{}, false
	}
	return sp, true
}

// text extracts the UTF-8 substring for a node, verifying character
// boundaries before slicing (spec §4.1: "any extraction of a UTF-8
// substring ... must verify is_char_boundary"). Returns ok=false rather
// than panicking on a boundary violation.
func (c *ctx) text(n *tree_sitter.Node) (string, bool) {
	if n == nil {
		return "", false
	}
	start := uint32(n.StartByte())
	end := uint32(n.EndByte())
	if int(end) > len(c.source) || start > end {
		return "", false
	}
	if !isCharBoundary(c.source, start) || !isCharBoundary(c.source, end) {
		c.diag.Emitf(diagnostics.StageExtract, c.path, "UTF-8 boundary violation extracting %s", n.Kind())
		return "", false
	}
	return string(c.source[start:end]), true
}

func isCharBoundary(src []byte, off uint32) bool {
	if off == 0 || int(off) == len(src) {
		return true
	}
	if int(off) > len(src) {
		return false
	}
	return src[off]&0xC0 != 0x80
}

// fieldText reads a named child field and returns its text, or ("",
// false) if the field is absent or fails boundary checks.
func (c *ctx) fieldText(n *tree_sitter.Node, field string) (string, bool) {
	child := n.ChildByFieldName(field)
	if child == nil {
		return "", false
	}
	return c.text(child)
}

// addSymbol records a definition fact at the current scope and returns
// its symbol_id for callers that need to push a new scope frame
// afterward; ok is false when the node's span was dropped.
func (c *ctx) addSymbol(n *tree_sitter.Node, kind model.SymbolKind, rawKind, simpleName string) (symbolID string, ok bool) {
	sp, ok := c.makeSpan(n)
	if !ok {
		return "", false
	}
	spanID := sp.ID()
	fqn := c.scopes.canonicalFQN(kind, simpleName)
	display := c.scopes.displayFQN(simpleName)
	id := span.SymbolID(c.language, fqn, spanID)

	c.result.Symbols = append(c.result.Symbols, model.Symbol{
		SymbolID:       id,
		CanonicalFQN:   fqn,
		DisplayFQN:     display,
		SimpleName:     simpleName,
		KindNormalized: kind,
		KindRaw:        rawKind,
		Span:           sp,
		Language:       c.language,
	})
	return id, true
}

// addCall records a call-site fact plus its mirror Reference (kind=call),
// since a call is always also a reference use of its callee's name.
func (c *ctx) addCall(n *tree_sitter.Node, callerName, calleeName string) {
	sp, ok := c.makeSpan(n)
	if !ok {
		return
	}
	c.result.Calls = append(c.result.Calls, model.Call{
		CallerName: callerName,
		CalleeName: calleeName,
		Span:       sp,
	})
	c.result.References = append(c.result.References, model.Reference{
		ReferencedName: calleeName,
		Span:           sp,
		Kind:           model.RefCall,
	})
}

// addReference records a non-call identifier use.
func (c *ctx) addReference(n *tree_sitter.Node, name string, kind model.ReferenceKind) {
	sp, ok := c.makeSpan(n)
	if !ok {
		return
	}
	c.result.References = append(c.result.References, model.Reference{
		ReferencedName: name,
		Span:           sp,
		Kind:           kind,
	})
}

// addImport records an import/use/include fact.
func (c *ctx) addImport(n *tree_sitter.Node, path string) {
	sp, ok := c.makeSpan(n)
	if !ok {
		return
	}
	c.result.Imports = append(c.result.Imports, model.Import{
		ImportPath: path,
		Span:       sp,
	})
}

// addAstNode records a structural grammar node for complexity/nesting
// queries. parentID is the local index of the enclosing AstNode already
// appended to c.result.AstNodes, or -1 at the root.
func (c *ctx) addAstNode(n *tree_sitter.Node, parentLocalID int64) (localID int64, ok bool) {
	sp, ok := c.makeSpan(n)
	if !ok {
		return 0, false
	}
	localID = c.nextAstID
	c.nextAstID++

	var parent *int64
	if parentLocalID >= 0 {
		p := parentLocalID
		parent = &p
	}
	c.result.AstNodes = append(c.result.AstNodes, model.AstNode{
		ID:       localID,
		Kind:     n.Kind(),
		Span:     sp,
		ParentID: parent,
	})
	return localID, true
}

// isAstInteresting reports whether a node kind belongs to the coarse
// "structural" set retained for nesting/complexity queries (spec §4.4):
// the shared structuralKinds (control flow, blocks, calls, returns) plus
// a language's extra kinds. Function and declaration nodes are not in the
// shared set; they are kept only where a language's extra set lists them.
func isAstInteresting(kind string, extra map[string]bool) bool {
	if structuralKinds[kind] {
		return true
	}
	return extra != nil && extra[kind]
}

var structuralKinds = map[string]bool{
	"if_statement":          true,
	"for_statement":         true,
	"while_statement":       true,
	"switch_statement":      true,
	"try_statement":         true,
	"block":                 true,
	"compound_statement":    true,
	"call_expression":       true,
	"return_statement":      true,
}
