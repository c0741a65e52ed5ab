package callgraphutil

import (
	"context"

	"golang.org/x/tools/go/callgraph"
	"golang.org/x/tools/go/callgraph/cha"
	"golang.org/x/tools/go/callgraph/vta"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// Reachable returns the functions of prog reachable from entries, through
// calls or through functions referred to by an instruction. Calls are
// resolved with a VTA call graph seeded by CHA, the way govulncheck does it.
//
// This method is based on the following:
// https://github.com/golang/vuln/blob/7335627909c99e391cf911fcd214badcb8aa6d7d/internal/vulncheck/utils.go#L63
func Reachable(ctx context.Context, prog *ssa.Program, entries []*ssa.Function) (map[*ssa.Function]bool, error) {
	entrySet := make(map[*ssa.Function]bool, len(entries))
	for _, e := range entries {
		if e != nil {
			entrySet[e] = true
		}
	}

	if err := ctx.Err(); err != nil { // cancelled?
		return nil, err
	}
	initial := cha.CallGraph(prog)
	allFuncs := ssautil.AllFunctions(prog)

	fslice := forwardSlice(entrySet, initial)
	// Keep only actually linked functions.
	pruneSet(fslice, allFuncs)

	if err := ctx.Err(); err != nil { // cancelled?
		return nil, err
	}
	vtaCg := vta.CallGraph(fslice, initial)

	// Repeat the process once more, this time using
	// the produced VTA call graph as the base graph.
	fslice = forwardSlice(entrySet, vtaCg)
	pruneSet(fslice, allFuncs)

	return fslice, nil
}

// Entries returns the analysis roots of pkgs: the main and init functions
// of main packages. When there is no main package, every function of
// fallback is a root, so that libraries are audited as a whole.
func Entries(pkgs []*ssa.Package, fallback []*ssa.Function) []*ssa.Function {
	var nonNil []*ssa.Package
	for _, p := range pkgs {
		// Protect against nil dereference inside ssautil.MainPackages.
		if p == nil || p.Pkg == nil {
			continue
		}
		nonNil = append(nonNil, p)
	}

	var entries []*ssa.Function
	for _, mp := range ssautil.MainPackages(nonNil) {
		for _, name := range []string{"init", "main"} {
			if fn := mp.Func(name); fn != nil {
				entries = append(entries, fn)
			}
		}
	}
	if len(entries) == 0 {
		entries = append(entries, fallback...)
	}
	return entries
}

// Filter returns the functions of fns present in keep, in order.
func Filter(fns []*ssa.Function, keep map[*ssa.Function]bool) []*ssa.Function {
	out := make([]*ssa.Function, 0, len(fns))
	for _, fn := range fns {
		if keep[fn] {
			out = append(out, fn)
		}
	}
	return out
}

// forwardSlice computes the transitive closure of functions forward reachable
// via calls in cg or referred to in an instruction starting from `sources`.
//
// https://github.com/golang/vuln/blob/7335627909c99e391cf911fcd214badcb8aa6d7d/internal/vulncheck/slicing.go#L14
func forwardSlice(sources map[*ssa.Function]bool, cg *callgraph.Graph) map[*ssa.Function]bool {
	seen := make(map[*ssa.Function]bool)
	var visit func(f *ssa.Function)
	visit = func(f *ssa.Function) {
		if seen[f] {
			return
		}
		seen[f] = true

		if n := cg.Nodes[f]; n != nil {
			for _, e := range n.Out {
				if e.Site != nil {
					visit(e.Callee.Func)
				}
			}
		}

		var buf [10]*ssa.Value // avoid alloc in common case
		for _, b := range f.Blocks {
			for _, instr := range b.Instrs {
				for _, op := range instr.Operands(buf[:0]) {
					if fn, ok := (*op).(*ssa.Function); ok {
						visit(fn)
					}
				}
			}
		}
	}
	for source := range sources {
		visit(source)
	}
	return seen
}

// pruneSet removes functions in `set` that are not in `keep`.
//
// https://github.com/golang/vuln/blob/7335627909c99e391cf911fcd214badcb8aa6d7d/internal/vulncheck/slicing.go#L49
func pruneSet(set, keep map[*ssa.Function]bool) {
	for f := range set {
		if !keep[f] {
			delete(set, f)
		}
	}
}
