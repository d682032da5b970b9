package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/magellan/internal/diagnostics"
	"github.com/standardbeagle/magellan/internal/model"
)

// grammarSpec describes one language's node-kind vocabulary to the
// shared walker: which node kinds introduce a symbol definition, which
// introduce a scope frame, which are call sites, and which are
// import/use statements. Each language extractor builds one of these and
// hands it to walk, rather than re-implementing traversal.
type grammarSpec struct {
	// definitions maps a grammar node kind to the SymbolKind it
	// introduces, and whether entering it also pushes a scope frame
	// (true for containers like impl/class/module, false for leaves
	// like a function with no nested definitions of interest).
	definitions map[string]defRule

	// nameField is the field name holding a definition's identifier,
	// consulted when a kind-specific override isn't present in
	// nameFieldOverride.
	nameField string
	// nameFieldOverride lets specific kinds use a different field name
	// (e.g. Rust's impl_item has no "name" field).
	nameFieldOverride map[string]string

	callKinds   map[string]bool // node kinds that are call expressions
	calleeField string          // field holding the callee sub-expression

	importKinds map[string]bool // node kinds that are import/use/include statements

	separator string

	// nameExtractors overrides field-based name lookup for kinds whose
	// identifier isn't a direct field (e.g. C's function_definition,
	// whose "declarator" field is a possibly-pointer-wrapped
	// function_declarator rather than the bare identifier).
	nameExtractors map[string]func(c *ctx, n *tree_sitter.Node) (string, bool)
}

type defRule struct {
	kind       model.SymbolKind
	pushesScope bool
}

// walk performs the shared recursive descent: push scope on containers,
// record a Symbol on definitions, record Call+Reference on calls, record
// Import on import statements, and record an AstNode for every
// structurally interesting node.
func walk(c *ctx, spec *grammarSpec, n *tree_sitter.Node, parentAstID int64) {
	if n == nil {
		return
	}
	kind := n.Kind()

	localAstID := parentAstID
	if isAstInteresting(kind, nil) {
		if id, ok := c.addAstNode(n, parentAstID); ok {
			localAstID = id
		}
	}

	pushedScope := false
	pushedFunc := false
	if rule, ok := spec.definitions[kind]; ok {
		name := definitionName(c, spec, n, kind)
		if name != "" {
			if _, ok := c.addSymbol(n, rule.kind, kind, name); ok {
				if rule.pushesScope {
					c.scopes.push(rule.kind, name)
					pushedScope = true
				}
				if rule.kind == model.KindFn || rule.kind == model.KindMethod {
					c.funcs.push(name)
					pushedFunc = true
				}
			}
		}
	}

	if spec.callKinds[kind] {
		handleCall(c, spec, n)
	}
	if spec.importKinds[kind] {
		handleImport(c, n)
	}

	count := n.ChildCount()
	for i := uint(0); i < count; i++ {
		walk(c, spec, n.Child(i), localAstID)
	}

	if pushedScope {
		c.scopes.pop()
	}
	if pushedFunc {
		c.funcs.pop()
	}
}

func definitionName(c *ctx, spec *grammarSpec, n *tree_sitter.Node, kind string) string {
	if extractor, ok := spec.nameExtractors[kind]; ok {
		name, ok := extractor(c, n)
		if !ok {
			return ""
		}
		return name
	}

	field := spec.nameField
	if override, ok := spec.nameFieldOverride[kind]; ok {
		field = override
	}
	if field == "" {
		return ""
	}
	name, ok := c.fieldText(n, field)
	if !ok {
		return ""
	}
	return name
}

// handleCall records a call fact from a grammar's call-expression node,
// reading the callee's name via the spec's calleeField and falling back
// to the raw text of the callee subtree (covers member-access callees
// like a.b()).
func handleCall(c *ctx, spec *grammarSpec, n *tree_sitter.Node) {
	callee := n.ChildByFieldName(spec.calleeField)
	if callee == nil {
		return
	}
	name, ok := c.text(callee)
	if !ok {
		return
	}
	callerName := c.funcs.current(c.scopes.currentName())
	c.addCall(n, callerName, lastSegment(name))
}

// lastSegment trims a qualified callee expression like "self.helper",
// "obj.Method", or "std::io::Read::read" down to its final identifier
// segment, matching the spec's simple-name call resolution (spec §4.6).
// Member-access callees use "." in every tracked grammar regardless of
// a language's path separator, so splitting on "." (and "::" for
// explicit qualified paths) covers both.
func lastSegment(s string) string {
	cut := s
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return s[i+1:]
		}
		if i >= 1 && s[i-1] == ':' && s[i] == ':' {
			return s[i+1:]
		}
	}
	return cut
}

func handleImport(c *ctx, n *tree_sitter.Node) {
	text, ok := c.text(n)
	if !ok {
		return
	}
	c.addImport(n, text)
}

func (s *scopeStack) currentName() string {
	if len(s.frames) == 0 {
		return s.pkgName
	}
	return s.frames[len(s.frames)-1].name
}

// runExtract wires a grammarSpec + tree_sitter.Parser into the
// Extractor.Extract contract shared by every language.
func runExtract(language, separator string, parser *tree_sitter.Parser, spec *grammarSpec, path string, source []byte, diag *diagnostics.Stream) model.ExtractResult {
	if diag == nil {
		diag = diagnostics.New(nil)
	}
	result := model.ExtractResult{}
	tree := parser.Parse(source, nil)
	if tree == nil {
		diag.Emitf(diagnostics.StageExtract, path, "grammar failed to produce a parse tree")
		return result
	}
	defer tree.Close()

	c := &ctx{
		path:     path,
		source:   source,
		language: language,
		diag:     diag,
		scopes:   newScopeStack(packageNameFor(path), path, separator),
		funcs:    &funcStack{},
		result:   &result,
	}
	walk(c, spec, tree.RootNode(), -1)
	return result
}
