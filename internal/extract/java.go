package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"github.com/standardbeagle/magellan/internal/diagnostics"
	"github.com/standardbeagle/magellan/internal/model"
)

type javaExtractor struct {
	parser *tree_sitter.Parser
	spec   *grammarSpec
}

func newJavaExtractor() *javaExtractor {
	parser := tree_sitter.NewParser()
	lang := tree_sitter.NewLanguage(tree_sitter_java.Language())
	_ = parser.SetLanguage(lang)

	spec := &grammarSpec{
		definitions: map[string]defRule{
			"method_declaration":    {model.KindMethod, false},
			"class_declaration":     {model.KindStruct, true},
			"interface_declaration": {model.KindTrait, true},
			"enum_declaration":      {model.KindEnum, true},
		},
		nameField:   "name",
		callKinds:   map[string]bool{"method_invocation": true},
		calleeField: "name",
		importKinds: map[string]bool{"import_declaration": true},
		separator:   ".",
	}
	return &javaExtractor{parser: parser, spec: spec}
}

func (j *javaExtractor) Language() string { return "java" }

func (j *javaExtractor) Extract(path string, source []byte, diag *diagnostics.Stream) model.ExtractResult {
	return runExtract("java", ".", j.parser, j.spec, path, source, diag)
}
