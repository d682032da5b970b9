package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"

	"github.com/standardbeagle/magellan/internal/diagnostics"
	"github.com/standardbeagle/magellan/internal/model"
)

// cppExtractor extends the C vocabulary with classes and namespaces
// (spec §4.4: C++ is a superset of the C fact set).
type cppExtractor struct {
	parser *tree_sitter.Parser
	spec   *grammarSpec
}

func newCppExtractor() *cppExtractor {
	parser := tree_sitter.NewParser()
	lang := tree_sitter.NewLanguage(tree_sitter_cpp.Language())
	_ = parser.SetLanguage(lang)

	spec := cSpec()
	spec.definitions["class_specifier"] = defRule{model.KindStruct, true}
	spec.definitions["namespace_definition"] = defRule{model.KindModule, true}
	spec.nameFieldOverride["class_specifier"] = "name"
	spec.nameFieldOverride["namespace_definition"] = "name"

	return &cppExtractor{parser: parser, spec: spec}
}

func (c *cppExtractor) Language() string { return "cpp" }

func (c *cppExtractor) Extract(path string, source []byte, diag *diagnostics.Stream) model.ExtractResult {
	return runExtract("cpp", "::", c.parser, c.spec, path, source, diag)
}
