package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/standardbeagle/magellan/internal/diagnostics"
	"github.com/standardbeagle/magellan/internal/model"
)

// typescriptExtractor extends the JavaScript vocabulary with
// interface/type-alias definitions (spec §4.4: TypeScript is a superset
// of the JavaScript fact set).
type typescriptExtractor struct {
	parser *tree_sitter.Parser
	spec   *grammarSpec
}

func newTypeScriptExtractor() *typescriptExtractor {
	parser := tree_sitter.NewParser()
	lang := tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	_ = parser.SetLanguage(lang)

	spec := javascriptSpec()
	spec.definitions["interface_declaration"] = defRule{model.KindTrait, true}
	spec.definitions["type_alias_declaration"] = defRule{model.KindType, false}

	return &typescriptExtractor{parser: parser, spec: spec}
}

func (t *typescriptExtractor) Language() string { return "typescript" }

func (t *typescriptExtractor) Extract(path string, source []byte, diag *diagnostics.Stream) model.ExtractResult {
	return runExtract("typescript", ".", t.parser, t.spec, path, source, diag)
}
