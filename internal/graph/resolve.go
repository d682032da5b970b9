package graph

import (
	"strings"

	"github.com/standardbeagle/magellan/internal/model"
)

// ResolveAll runs the three cross-file passes (import, reference, call)
// against the full current graph contents, in that order. Per spec
// §4.6's ordering rule, this must be a pure function of current graph
// contents, not of indexing order — running it twice in a row without
// intervening writes is idempotent.
func (g *Graph) ResolveAll() error {
	if err := g.resolveImports(); err != nil {
		return err
	}
	nameIndex, err := g.buildNameIndex()
	if err != nil {
		return err
	}
	if err := g.resolveReferences(nameIndex); err != nil {
		return err
	}
	return g.resolveCalls(nameIndex)
}

// nameIndex maps both a symbol's full display_fqn and its bare simple
// name to the set of symbol_ids sharing that key, grounded on
// maraichr-codegraph's resolver.Engine.SymbolTable (ByFQN/ByShortName
// maps built once per resolution pass rather than per lookup).
type nameIndex struct {
	byFQN    map[string][]string
	bySimple map[string][]string
}

func (g *Graph) buildNameIndex() (*nameIndex, error) {
	symbols, err := g.backend.AllSymbols()
	if err != nil {
		return nil, err
	}
	idx := &nameIndex{byFQN: map[string][]string{}, bySimple: map[string][]string{}}
	for _, sym := range symbols {
		idx.byFQN[sym.DisplayFQN] = append(idx.byFQN[sym.DisplayFQN], sym.SymbolID)
		idx.bySimple[sym.SimpleName] = append(idx.bySimple[sym.SimpleName], sym.SymbolID)
	}
	return idx, nil
}

// resolve looks up a name first by fully-qualified match, falling back
// to simple-name match. It never guesses on ambiguity: more than one
// simple-name candidate resolves to nil, leaving the caller unresolved
// (SPEC_FULL.md's Open Question resolution — ambiguity surfaces via
// query-time AmbiguousFQN errors, not silent picks).
func (idx *nameIndex) resolve(qualifiedOrSimple string) (symbolID *string, ambiguous bool) {
	if ids, ok := idx.byFQN[qualifiedOrSimple]; ok && len(ids) == 1 {
		return &ids[0], false
	}
	simple := qualifiedOrSimple
	if i := strings.LastIndexAny(simple, ".:"); i >= 0 {
		simple = simple[i+1:]
	}
	ids, ok := idx.bySimple[simple]
	if !ok || len(ids) == 0 {
		return nil, false
	}
	if len(ids) > 1 {
		return nil, true
	}
	return &ids[0], false
}

// resolveImports attaches resolved_file_id to every Import whose path
// matches an indexed file by suffix (the lightest possible module
// resolver: spec §4.6 names this ModuleResolver without prescribing its
// matching strategy, and the teacher's own include_resolver.go settles
// for the same heuristic-suffix approach for C #include resolution).
func (g *Graph) resolveImports() error {
	files, err := g.backend.Files()
	if err != nil {
		return err
	}
	imports, err := g.backend.AllImports()
	if err != nil {
		return err
	}
	for _, im := range imports {
		if im.ResolvedFileID != nil {
			continue
		}
		target := moduleToPathHint(im.ImportPath)
		if target == "" {
			continue
		}
		for _, f := range files {
			if strings.HasSuffix(f.Path, target) {
				fileID := f.ID
				if err := g.backend.UpdateImportTarget(im.ID, &fileID); err != nil {
					return err
				}
				break
			}
		}
	}
	return nil
}

// moduleToPathHint extracts a plausible trailing file-path fragment
// from a raw import statement's text, e.g. "use crate::util::helper;"
// -> "util/helper.rs", "import foo.bar" -> "foo/bar.py". This is
// intentionally permissive: a miss just leaves the Import unresolved.
func moduleToPathHint(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimSuffix(raw, ";")
	raw = strings.TrimPrefix(raw, "use ")
	raw = strings.TrimPrefix(raw, "import ")
	raw = strings.TrimPrefix(raw, "from ")
	raw = strings.TrimPrefix(raw, "#include ")
	raw = strings.Trim(raw, "\"<>")
	if raw == "" {
		return ""
	}
	raw = strings.ReplaceAll(raw, "::", "/")
	raw = strings.ReplaceAll(raw, ".", "/")
	return raw
}

func (g *Graph) resolveReferences(idx *nameIndex) error {
	refs, err := g.backend.AllReferences()
	if err != nil {
		return err
	}
	for _, r := range refs {
		if r.TargetSymbolID != nil {
			continue
		}
		target, ambiguous := idx.resolve(r.ReferencedName)
		if ambiguous || target == nil {
			continue
		}
		if err := g.backend.UpdateReferenceTarget(r.ID, target); err != nil {
			return err
		}
	}
	return nil
}

func (g *Graph) resolveCalls(idx *nameIndex) error {
	calls, err := g.backend.AllCalls()
	if err != nil {
		return err
	}
	for _, c := range calls {
		var caller, callee *string
		if c.CallerSymbolID == nil {
			if t, ambiguous := idx.resolve(c.CallerName); !ambiguous {
				caller = t
			}
		} else {
			caller = c.CallerSymbolID
		}
		if c.CalleeSymbolID == nil {
			if t, ambiguous := idx.resolve(c.CalleeName); !ambiguous {
				callee = t
			}
		} else {
			callee = c.CalleeSymbolID
		}
		if (caller != nil && c.CallerSymbolID == nil) || (callee != nil && c.CalleeSymbolID == nil) {
			if err := g.backend.UpdateCallTargets(c.ID, caller, callee); err != nil {
				return err
			}
		}
	}
	return nil
}

// AmbiguousCandidates returns every symbol sharing name's simple-name
// bucket, for the query surface's AmbiguousFQN error payload.
func (g *Graph) AmbiguousCandidates(name string) ([]model.Symbol, error) {
	symbols, err := g.backend.AllSymbols()
	if err != nil {
		return nil, err
	}
	var out []model.Symbol
	for _, sym := range symbols {
		if sym.SimpleName == name {
			out = append(out, sym)
		}
	}
	return out, nil
}
