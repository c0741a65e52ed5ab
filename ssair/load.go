package ssair

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"slices"

	"github.com/picatz/icall"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// ErrNoPackages is returned by Load when no package could be built.
var ErrNoPackages = errors.New("ssair: no packages built")

// LoadMode is the packages.LoadMode needed to build SSA from source.
const LoadMode = packages.NeedName |
	packages.NeedDeps |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedModule |
	packages.NeedTypes |
	packages.NeedImports |
	packages.NeedSyntax |
	packages.NeedTypesInfo

// Program is a loaded and fully built SSA program.
type Program struct {
	Prog   *ssa.Program
	Pkgs   []*ssa.Package // built packages matching the patterns, without nils
	Loaded []*packages.Package
}

// Config controls how packages are loaded.
type Config struct {
	Dir   string // directory the patterns are resolved in
	Tests bool   // include test packages
}

// Load loads the packages matched by patterns and builds their SSA form.
// Per-package errors are logged with the logger of ctx and do not stop
// the load, as long as at least one package could be built.
func Load(ctx context.Context, cfg Config, patterns ...string) (*Program, error) {
	logger := icall.FromContext(ctx).WithPrefix("load")

	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	if cfg.Dir != "" {
		if _, err := os.Stat(cfg.Dir); err != nil {
			return nil, fmt.Errorf("failed to stat %q: %w", cfg.Dir, err)
		}
	}

	loaded, err := packages.Load(&packages.Config{
		Mode:    LoadMode,
		Context: ctx,
		Env:     os.Environ(),
		Dir:     cfg.Dir,
		Tests:   cfg.Tests,
		ParseFile: func(fset *token.FileSet, filename string, src []byte) (*ast.File, error) {
			return parser.ParseFile(fset, filename, src, parser.SkipObjectResolution)
		},
	}, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	packages.Visit(loaded, nil, func(p *packages.Package) {
		for _, perr := range p.Errors {
			logger.Warning("package load error: %v", perr)
		}
	})

	prog, ssaPkgs := ssautil.Packages(loaded, ssa.InstantiateGenerics)

	var pkgs []*ssa.Package
	for i, p := range ssaPkgs {
		// Malformed packages are nil.
		if p == nil || p.Pkg == nil {
			logger.Debug("skipping unbuildable package %s", loaded[i].PkgPath)
			continue
		}
		pkgs = append(pkgs, p)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("%w for patterns %v", ErrNoPackages, patterns)
	}

	prog.Build()

	logger.Step("built SSA", fmt.Sprintf("%d packages loaded", len(loaded)), fmt.Sprintf("%d SSA packages", len(pkgs)))

	return &Program{
		Prog:   prog,
		Pkgs:   pkgs,
		Loaded: loaded,
	}, nil
}

// SourceFunctions returns the functions declared in pkgs: package level
// functions, methods of package level types and the anonymous functions
// nested in either. Synthetic wrappers and functions without a body are
// left out. The result is sorted by position, then name.
func SourceFunctions(pkgs []*ssa.Package) []*ssa.Function {
	seen := make(map[*ssa.Function]bool)
	var fns []*ssa.Function

	var add func(fn *ssa.Function)
	add = func(fn *ssa.Function) {
		if fn == nil || seen[fn] {
			return
		}
		seen[fn] = true
		if fn.Synthetic == "" && len(fn.Blocks) > 0 {
			fns = append(fns, fn)
		}
		for _, anon := range fn.AnonFuncs {
			add(anon)
		}
	}

	for _, pkg := range pkgs {
		if pkg == nil {
			continue
		}
		for _, mem := range pkg.Members {
			switch mem := mem.(type) {
			case *ssa.Function:
				if mem.Object() != nil && mem.Object().Name() == "_" {
					continue
				}
				add(mem)
			case *ssa.Type:
				T := mem.Type()
				if types.IsInterface(T) {
					continue
				}
				if named, ok := T.(*types.Named); ok && named.TypeParams().Len() > 0 {
					continue
				}
				// The method set of *T holds wrappers for the value
				// methods, so T is visited too.
				for _, recv := range []types.Type{T, types.NewPointer(T)} {
					mset := pkg.Prog.MethodSets.MethodSet(recv)
					for i := 0; i < mset.Len(); i++ {
						fn := pkg.Prog.MethodValue(mset.At(i))
						if fn != nil && fn.Pkg == pkg {
							add(fn)
						}
					}
				}
			}
		}
	}

	slices.SortStableFunc(fns, func(a, b *ssa.Function) int {
		if c := cmp.Compare(a.Pos(), b.Pos()); c != 0 {
			return c
		}
		return cmp.Compare(a.String(), b.String())
	})

	return fns
}
