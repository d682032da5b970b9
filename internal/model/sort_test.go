package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/standardbeagle/magellan/internal/span"
)

func sp(start, end uint32) span.Span {
	return span.Span{ByteStart: start, ByteEnd: end}
}

func TestSortDeterministic_Symbols(t *testing.T) {
	r := &ExtractResult{
		Symbols: []Symbol{
			{SimpleName: "b", KindNormalized: KindFn, Span: sp(10, 20)},
			{SimpleName: "a", KindNormalized: KindFn, Span: sp(0, 5)},
			{SimpleName: "c", KindNormalized: KindConst, Span: sp(0, 5)},
		},
	}
	r.SortDeterministic()

	names := []string{r.Symbols[0].SimpleName, r.Symbols[1].SimpleName, r.Symbols[2].SimpleName}
	assert.Equal(t, []string{"c", "a", "b"}, names)
}

func TestSortDeterministic_References(t *testing.T) {
	r := &ExtractResult{
		References: []Reference{
			{ReferencedName: "z", Kind: RefRead, Span: sp(5, 9)},
			{ReferencedName: "y", Kind: RefWrite, Span: sp(5, 9)},
			{ReferencedName: "x", Kind: RefRead, Span: sp(0, 1)},
		},
	}
	r.SortDeterministic()

	names := []string{r.References[0].ReferencedName, r.References[1].ReferencedName, r.References[2].ReferencedName}
	assert.Equal(t, []string{"x", "z", "y"}, names)
}

func TestSortDeterministic_Calls(t *testing.T) {
	r := &ExtractResult{
		Calls: []Call{
			{CalleeName: "bar", Span: sp(0, 10)},
			{CalleeName: "baz", Span: sp(0, 10)},
			{CalleeName: "foo", Span: sp(0, 1)},
		},
	}
	r.SortDeterministic()

	names := []string{r.Calls[0].CalleeName, r.Calls[1].CalleeName, r.Calls[2].CalleeName}
	assert.Equal(t, []string{"foo", "bar", "baz"}, names)
}

func TestSortDeterministic_ImportsAndAstNodes(t *testing.T) {
	r := &ExtractResult{
		Imports: []Import{
			{ImportPath: "pkg/b", Span: sp(0, 1)},
			{ImportPath: "pkg/a", Span: sp(0, 1)},
		},
		AstNodes: []AstNode{
			{Kind: "if_statement", Span: sp(2, 3)},
			{Kind: "for_statement", Span: sp(0, 1)},
		},
	}
	r.SortDeterministic()

	assert.Equal(t, "pkg/a", r.Imports[0].ImportPath)
	assert.Equal(t, "pkg/b", r.Imports[1].ImportPath)

	assert.Equal(t, "for_statement", r.AstNodes[0].Kind)
	assert.Equal(t, "if_statement", r.AstNodes[1].Kind)
}

func TestSortDeterministic_IsStableAcrossRepeatCalls(t *testing.T) {
	build := func() *ExtractResult {
		return &ExtractResult{
			Symbols: []Symbol{
				{SimpleName: "helper", KindNormalized: KindFn, Span: sp(20, 40)},
				{SimpleName: "main", KindNormalized: KindFn, Span: sp(0, 15)},
			},
		}
	}
	first := build()
	first.SortDeterministic()
	second := build()
	second.SortDeterministic()

	assert.Equal(t, first.Symbols, second.Symbols)
}
