package callgraphutil_test

import (
	"context"
	"errors"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"testing"

	"github.com/picatz/icall/callgraphutil"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

const mainSrc = `package main

type Handler interface{ Serve() }

type static struct{ next func() }

func (s static) Serve() { s.next() }

func used() {}

func unused(n int) {}

func main() {
	var h Handler = static{next: used}
	h.Serve()
}
`

const libSrc = `package lib

func Exported() { helper() }

func helper() {}
`

func buildPackage(t *testing.T, path, src string) *ssa.Package {
	t.Helper()

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "src.go", src, parser.SkipObjectResolution)
	if err != nil {
		t.Fatal(err)
	}

	pkg, _, err := ssautil.BuildPackage(
		&types.Config{Importer: importer.Default()},
		fset,
		types.NewPackage(path, ""),
		[]*ast.File{file},
		ssa.SanityCheckFunctions,
	)
	if err != nil {
		t.Fatal(err)
	}
	return pkg
}

func TestReachable(t *testing.T) {
	pkg := buildPackage(t, "example.com/app", mainSrc)

	entries := callgraphutil.Entries([]*ssa.Package{nil, pkg}, nil)
	if len(entries) != 2 {
		t.Fatalf("got entries %v, want init and main", entries)
	}

	reachable, err := callgraphutil.Reachable(context.Background(), pkg.Prog, entries)
	if err != nil {
		t.Fatal(err)
	}

	serve := pkg.Prog.MethodValue(pkg.Prog.MethodSets.MethodSet(pkg.Type("static").Type()).Lookup(pkg.Pkg, "Serve"))

	for _, fn := range []*ssa.Function{pkg.Func("main"), pkg.Func("used"), serve} {
		if !reachable[fn] {
			t.Errorf("%s is not reachable", fn)
		}
	}
	if reachable[pkg.Func("unused")] {
		t.Error("unused is reachable")
	}

	all := []*ssa.Function{pkg.Func("unused"), pkg.Func("used"), pkg.Func("main")}
	kept := callgraphutil.Filter(all, reachable)
	if len(kept) != 2 || kept[0] != pkg.Func("used") || kept[1] != pkg.Func("main") {
		t.Fatalf("got %v, want [used main]", kept)
	}
}

func TestEntriesFallback(t *testing.T) {
	pkg := buildPackage(t, "example.com/lib", libSrc)

	fallback := []*ssa.Function{pkg.Func("Exported")}
	entries := callgraphutil.Entries([]*ssa.Package{pkg}, fallback)
	if len(entries) != 1 || entries[0] != fallback[0] {
		t.Fatalf("got %v, want %v", entries, fallback)
	}

	reachable, err := callgraphutil.Reachable(context.Background(), pkg.Prog, entries)
	if err != nil {
		t.Fatal(err)
	}
	if !reachable[pkg.Func("helper")] {
		t.Error("helper is not reachable")
	}
}

func TestReachableCancelled(t *testing.T) {
	pkg := buildPackage(t, "example.com/app", mainSrc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := callgraphutil.Reachable(ctx, pkg.Prog, []*ssa.Function{pkg.Func("main")}); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want %v", err, context.Canceled)
	}
}
