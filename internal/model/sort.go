package model

import "sort"

// SortDeterministic orders every fact vector of r by
// (byte_start, byte_end, kind, name) as required by spec §4.4, so two
// independent extractions of identical bytes always produce identical
// output order.
func (r *ExtractResult) SortDeterministic() {
	sort.Slice(r.Symbols, func(i, j int) bool {
		a, b := r.Symbols[i], r.Symbols[j]
		if a.Span.ByteStart != b.Span.ByteStart {
			return a.Span.ByteStart < b.Span.ByteStart
		}
		if a.Span.ByteEnd != b.Span.ByteEnd {
			return a.Span.ByteEnd < b.Span.ByteEnd
		}
		if a.KindNormalized != b.KindNormalized {
			return a.KindNormalized < b.KindNormalized
		}
		return a.SimpleName < b.SimpleName
	})
	sort.Slice(r.References, func(i, j int) bool {
		a, b := r.References[i], r.References[j]
		if a.Span.ByteStart != b.Span.ByteStart {
			return a.Span.ByteStart < b.Span.ByteStart
		}
		if a.Span.ByteEnd != b.Span.ByteEnd {
			return a.Span.ByteEnd < b.Span.ByteEnd
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.ReferencedName < b.ReferencedName
	})
	sort.Slice(r.Calls, func(i, j int) bool {
		a, b := r.Calls[i], r.Calls[j]
		if a.Span.ByteStart != b.Span.ByteStart {
			return a.Span.ByteStart < b.Span.ByteStart
		}
		if a.Span.ByteEnd != b.Span.ByteEnd {
			return a.Span.ByteEnd < b.Span.ByteEnd
		}
		return a.CalleeName < b.CalleeName
	})
	sort.Slice(r.Imports, func(i, j int) bool {
		a, b := r.Imports[i], r.Imports[j]
		if a.Span.ByteStart != b.Span.ByteStart {
			return a.Span.ByteStart < b.Span.ByteStart
		}
		if a.Span.ByteEnd != b.Span.ByteEnd {
			return a.Span.ByteEnd < b.Span.ByteEnd
		}
		return a.ImportPath < b.ImportPath
	})
	sort.Slice(r.AstNodes, func(i, j int) bool {
		a, b := r.AstNodes[i], r.AstNodes[j]
		if a.Span.ByteStart != b.Span.ByteStart {
			return a.Span.ByteStart < b.Span.ByteStart
		}
		if a.Span.ByteEnd != b.Span.ByteEnd {
			return a.Span.ByteEnd < b.Span.ByteEnd
		}
		return a.Kind < b.Kind
	})
}
