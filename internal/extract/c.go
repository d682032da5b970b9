package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_c "github.com/tree-sitter/tree-sitter-c/bindings/go"

	"github.com/standardbeagle/magellan/internal/diagnostics"
	"github.com/standardbeagle/magellan/internal/model"
)

// cSpec is shared by the C and C++ extractors, since tree-sitter-cpp's
// grammar is a strict superset of tree-sitter-c's node kinds for the
// constructs magellan tracks.
func cSpec() *grammarSpec {
	return &grammarSpec{
		definitions: map[string]defRule{
			"function_definition": {model.KindFn, false},
			"struct_specifier":    {model.KindStruct, false},
			"enum_specifier":      {model.KindEnum, false},
			"union_specifier":     {model.KindUnion, false},
			"type_definition":     {model.KindType, false},
		},
		nameFieldOverride: map[string]string{
			"struct_specifier": "name",
			"enum_specifier":   "name",
			"union_specifier":  "name",
		},
		nameExtractors: map[string]func(c *ctx, n *tree_sitter.Node) (string, bool){
			"function_definition": declaratorName,
			"type_definition":     typedefName,
		},
		callKinds:   map[string]bool{"call_expression": true},
		calleeField: "function",
		importKinds: map[string]bool{"preproc_include": true},
		separator:   "::",
	}
}

// declaratorName unwraps a C/C++ declarator chain (pointer_declarator,
// function_declarator, reference_declarator) down to its bare
// identifier, since a function_definition's "declarator" field is never
// the identifier itself.
func declaratorName(c *ctx, n *tree_sitter.Node) (string, bool) {
	d := n.ChildByFieldName("declarator")
	for d != nil {
		switch d.Kind() {
		case "identifier", "field_identifier", "qualified_identifier", "destructor_name", "operator_name":
			return c.text(d)
		default:
			next := d.ChildByFieldName("declarator")
			if next == nil {
				return c.text(d)
			}
			d = next
		}
	}
	return "", false
}

// typedefName reads a type_definition's declarator the same way, falling
// back to its "type" field when the declarator is itself unnamed.
func typedefName(c *ctx, n *tree_sitter.Node) (string, bool) {
	if name, ok := declaratorName(c, n); ok {
		return name, true
	}
	return c.fieldText(n, "type")
}

type cExtractor struct {
	parser *tree_sitter.Parser
	spec   *grammarSpec
}

func newCExtractor() *cExtractor {
	parser := tree_sitter.NewParser()
	lang := tree_sitter.NewLanguage(tree_sitter_c.Language())
	_ = parser.SetLanguage(lang)
	return &cExtractor{parser: parser, spec: cSpec()}
}

func (c *cExtractor) Language() string { return "c" }

func (c *cExtractor) Extract(path string, source []byte, diag *diagnostics.Stream) model.ExtractResult {
	return runExtract("c", "::", c.parser, c.spec, path, source, diag)
}
