package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/magellan/internal/model"
)

func TestRustExtractor_MainFunction(t *testing.T) {
	e := newRustExtractor()
	result := e.Extract("a.rs", []byte("fn main() {}"), nil)

	require.Len(t, result.Symbols, 1)
	sym := result.Symbols[0]
	assert.Equal(t, model.KindFn, sym.KindNormalized)
	assert.Equal(t, "main", sym.SimpleName)
	assert.Equal(t, uint32(0), sym.Span.ByteStart)
	assert.Equal(t, uint32(12), sym.Span.ByteEnd)
}

func TestRustExtractor_CallBetweenFunctions(t *testing.T) {
	e := newRustExtractor()
	result := e.Extract("b.rs", []byte("fn helper() {}\nfn main() { helper(); }"), nil)

	require.Len(t, result.Symbols, 2)
	require.Len(t, result.Calls, 1)
	assert.Equal(t, "main", result.Calls[0].CallerName)
	assert.Equal(t, "helper", result.Calls[0].CalleeName)

	// the call must also surface as a Reference of kind call.
	var sawCallRef bool
	for _, ref := range result.References {
		if ref.Kind == model.RefCall && ref.ReferencedName == "helper" {
			sawCallRef = true
		}
	}
	assert.True(t, sawCallRef)
}

func TestRustExtractor_StructAndImpl(t *testing.T) {
	e := newRustExtractor()
	src := `struct Widget { size: i32 }

impl Widget {
    fn area(&self) -> i32 { self.size }
}
`
	result := e.Extract("widget.rs", []byte(src), nil)

	var sawStruct, sawMethod bool
	for _, sym := range result.Symbols {
		if sym.KindNormalized == model.KindStruct && sym.SimpleName == "Widget" {
			sawStruct = true
		}
		if sym.SimpleName == "area" {
			sawMethod = true
			assert.Contains(t, sym.DisplayFQN, "Widget")
		}
	}
	assert.True(t, sawStruct)
	assert.True(t, sawMethod)
}

func TestRustExtractor_UseDeclarationRecordsImport(t *testing.T) {
	e := newRustExtractor()
	result := e.Extract("lib.rs", []byte("use std::collections::HashMap;\nfn main() {}"), nil)

	require.Len(t, result.Imports, 1)
	assert.Contains(t, result.Imports[0].ImportPath, "HashMap")
}

func TestPythonExtractor_FunctionAndClass(t *testing.T) {
	e := newPythonExtractor()
	src := "def greet():\n    pass\n\nclass Greeter:\n    def hello(self):\n        greet()\n"
	result := e.Extract("g.py", []byte(src), nil)

	var names []string
	for _, sym := range result.Symbols {
		names = append(names, sym.SimpleName)
	}
	assert.Contains(t, names, "greet")
	assert.Contains(t, names, "Greeter")
	assert.Contains(t, names, "hello")

	require.NotEmpty(t, result.Calls)
	assert.Equal(t, "greet", result.Calls[0].CalleeName)
	assert.Equal(t, "hello", result.Calls[0].CallerName)
}

func TestJavaExtractor_ClassMethodAndCall(t *testing.T) {
	e := newJavaExtractor()
	src := "class Greeter {\n  void hello() {\n    greet();\n  }\n}\n"
	result := e.Extract("Greeter.java", []byte(src), nil)

	var sawClass, sawMethod bool
	for _, sym := range result.Symbols {
		if sym.KindNormalized == model.KindStruct {
			sawClass = true
		}
		if sym.KindNormalized == model.KindMethod {
			sawMethod = true
		}
	}
	assert.True(t, sawClass)
	assert.True(t, sawMethod)

	require.Len(t, result.Calls, 1)
	assert.Equal(t, "hello", result.Calls[0].CallerName, "call inside a method must attribute to the method, not its enclosing class")
	assert.Equal(t, "greet", result.Calls[0].CalleeName)
}

func TestJavaScriptExtractor_FunctionDeclarationAndCall(t *testing.T) {
	e := newJavaScriptExtractor()
	result := e.Extract("a.js", []byte("function greet() {}\nfunction main() { greet(); }"), nil)

	require.Len(t, result.Symbols, 2)
	require.Len(t, result.Calls, 1)
	assert.Equal(t, "main", result.Calls[0].CallerName)
	assert.Equal(t, "greet", result.Calls[0].CalleeName)
}

func TestTypeScriptExtractor_InterfaceAndTypeAlias(t *testing.T) {
	e := newTypeScriptExtractor()
	src := "interface Shape {\n  area(): number\n}\n\ntype ID = string\n"
	result := e.Extract("shape.ts", []byte(src), nil)

	var sawInterface, sawAlias bool
	for _, sym := range result.Symbols {
		if sym.KindNormalized == model.KindTrait && sym.SimpleName == "Shape" {
			sawInterface = true
		}
		if sym.KindNormalized == model.KindType && sym.SimpleName == "ID" {
			sawAlias = true
		}
	}
	assert.True(t, sawInterface)
	assert.True(t, sawAlias)
}

func TestCExtractor_FunctionDefinitionName(t *testing.T) {
	e := newCExtractor()
	result := e.Extract("a.c", []byte("int add(int a, int b) {\n  return a + b;\n}\n"), nil)

	require.Len(t, result.Symbols, 1)
	assert.Equal(t, "add", result.Symbols[0].SimpleName)
	assert.Equal(t, model.KindFn, result.Symbols[0].KindNormalized)
}

func TestCExtractor_PointerDeclaratorFunctionName(t *testing.T) {
	e := newCExtractor()
	result := e.Extract("a.c", []byte("char *dup(const char *s) {\n  return 0;\n}\n"), nil)

	require.Len(t, result.Symbols, 1)
	assert.Equal(t, "dup", result.Symbols[0].SimpleName)
}

func TestCppExtractor_ClassAndNamespace(t *testing.T) {
	e := newCppExtractor()
	src := "namespace geo {\nclass Point {\n  int x;\n};\n}\n"
	result := e.Extract("point.cpp", []byte(src), nil)

	var sawNamespace, sawClass bool
	for _, sym := range result.Symbols {
		if sym.KindNormalized == model.KindModule && sym.SimpleName == "geo" {
			sawNamespace = true
		}
		if sym.KindNormalized == model.KindStruct && sym.SimpleName == "Point" {
			sawClass = true
		}
	}
	assert.True(t, sawNamespace)
	assert.True(t, sawClass)
}

func TestDispatch_UnknownLanguage(t *testing.T) {
	_, ok := Dispatch("cobol")
	assert.False(t, ok)
}

func TestDispatch_KnownLanguages(t *testing.T) {
	for _, lang := range []string{"rust", "python", "java", "javascript", "typescript", "c", "cpp"} {
		_, ok := Dispatch(lang)
		assert.True(t, ok, lang)
	}
}
