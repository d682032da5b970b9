package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"

	"github.com/standardbeagle/magellan/internal/diagnostics"
	"github.com/standardbeagle/magellan/internal/model"
)

func javascriptSpec() *grammarSpec {
	return &grammarSpec{
		definitions: map[string]defRule{
			"function_declaration": {model.KindFn, false},
			"method_definition":    {model.KindMethod, false},
			"class_declaration":    {model.KindStruct, true},
		},
		nameField:   "name",
		callKinds:   map[string]bool{"call_expression": true},
		calleeField: "function",
		importKinds: map[string]bool{"import_statement": true},
		separator:   ".",
	}
}

type javascriptExtractor struct {
	parser *tree_sitter.Parser
	spec   *grammarSpec
}

func newJavaScriptExtractor() *javascriptExtractor {
	parser := tree_sitter.NewParser()
	lang := tree_sitter.NewLanguage(tree_sitter_javascript.Language())
	_ = parser.SetLanguage(lang)
	return &javascriptExtractor{parser: parser, spec: javascriptSpec()}
}

func (j *javascriptExtractor) Language() string { return "javascript" }

func (j *javascriptExtractor) Extract(path string, source []byte, diag *diagnostics.Stream) model.ExtractResult {
	return runExtract("javascript", ".", j.parser, j.spec, path, source, diag)
}
