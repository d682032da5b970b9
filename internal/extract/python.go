package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/standardbeagle/magellan/internal/diagnostics"
	"github.com/standardbeagle/magellan/internal/model"
)

type pythonExtractor struct {
	parser *tree_sitter.Parser
	spec   *grammarSpec
}

func newPythonExtractor() *pythonExtractor {
	parser := tree_sitter.NewParser()
	lang := tree_sitter.NewLanguage(tree_sitter_python.Language())
	_ = parser.SetLanguage(lang)

	spec := &grammarSpec{
		definitions: map[string]defRule{
			"function_definition": {model.KindFn, false},
			"class_definition":    {model.KindStruct, true},
		},
		nameField:   "name",
		callKinds:   map[string]bool{"call": true},
		calleeField: "function",
		importKinds: map[string]bool{
			"import_statement":      true,
			"import_from_statement": true,
		},
		separator: ".",
	}
	return &pythonExtractor{parser: parser, spec: spec}
}

func (p *pythonExtractor) Language() string { return "python" }

func (p *pythonExtractor) Extract(path string, source []byte, diag *diagnostics.Stream) model.ExtractResult {
	return runExtract("python", ".", p.parser, p.spec, path, source, diag)
}
