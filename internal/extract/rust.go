package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"

	"github.com/standardbeagle/magellan/internal/diagnostics"
	"github.com/standardbeagle/magellan/internal/model"
)

// rustExtractor grounds its node-kind vocabulary on the teacher's Rust
// setup (internal/parser/parser_language_setup.go's setupRust) and on
// the standard tree-sitter-rust grammar's node kinds.
type rustExtractor struct {
	parser *tree_sitter.Parser
	spec   *grammarSpec
}

func newRustExtractor() *rustExtractor {
	parser := tree_sitter.NewParser()
	lang := tree_sitter.NewLanguage(tree_sitter_rust.Language())
	_ = parser.SetLanguage(lang)

	spec := &grammarSpec{
		definitions: map[string]defRule{
			"function_item":    {model.KindFn, false},
			"struct_item":      {model.KindStruct, false},
			"enum_item":        {model.KindEnum, false},
			"trait_item":       {model.KindTrait, true},
			"mod_item":         {model.KindModule, true},
			"const_item":       {model.KindConst, false},
			"static_item":      {model.KindConst, false},
			"type_item":        {model.KindType, false},
			"union_item":       {model.KindUnion, false},
			"impl_item":        {model.KindImpl, true},
		},
		nameField: "name",
		nameFieldOverride: map[string]string{
			"impl_item": "type",
		},
		callKinds:   map[string]bool{"call_expression": true},
		calleeField: "function",
		importKinds: map[string]bool{"use_declaration": true},
		separator:   "::",
	}

	return &rustExtractor{parser: parser, spec: spec}
}

func (r *rustExtractor) Language() string { return "rust" }

func (r *rustExtractor) Extract(path string, source []byte, diag *diagnostics.Stream) model.ExtractResult {
	return runExtract("rust", "::", r.parser, r.spec, path, source, diag)
}
