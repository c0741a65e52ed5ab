// Package icallcheck defines an Analyzer that audits the indirect calls of
// each package, reporting the ones that execute under profiling but are
// covered by neither devirtualization nor PGO promotion.
package icallcheck

import (
	"flag"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/picatz/icall"
	"github.com/picatz/icall/ssair"
	"github.com/picatz/icall/valueprof"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/buildssa"
)

// Analyzer audits the indirect calls of a package. Its result is the
// package's *icall.Counters.
var Analyzer = &analysis.Analyzer{
	Name:       "icallcheck",
	Doc:        "reports indirect calls that are exercised but not covered by devirtualization or PGO promotion",
	Run:        run,
	Requires:   []*analysis.Analyzer{buildssa.Analyzer},
	ResultType: reflect.TypeOf((*icall.Counters)(nil)),
}

var (
	devirtPrefix = icall.DefaultPolicy.DevirtPrefix
	pgoPrefix    = icall.DefaultPolicy.PGOPrefix
	profilePaths string
	trimPrefix   string
)

func init() {
	fs := flag.NewFlagSet("icallcheck", flag.ContinueOnError)
	fs.StringVar(&devirtPrefix, "devirt-prefix", devirtPrefix, "block name prefix of devirtualization fallback blocks (empty disables)")
	fs.StringVar(&pgoPrefix, "pgo-prefix", pgoPrefix, "block name prefix of PGO promotion fallback blocks (empty disables)")
	fs.StringVar(&profilePaths, "profile", "", "comma-separated pprof profiles used to tell exercised calls apart")
	fs.StringVar(&trimPrefix, "trim", "", "path prefix removed from file names before matching profiles")
	Analyzer.Flags = *fs
}

// profiles caches indexes by flag value; an analysis run visits many
// packages with the same flags.
var profiles struct {
	sync.Mutex
	byKey map[string]*valueprof.Index
}

func loadProfile() (*valueprof.Index, error) {
	if profilePaths == "" {
		return nil, nil
	}

	cacheKey := profilePaths + "\x00" + trimPrefix

	profiles.Lock()
	defer profiles.Unlock()

	if ix, ok := profiles.byKey[cacheKey]; ok {
		return ix, nil
	}

	var paths []string
	for _, p := range strings.Split(profilePaths, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}

	var opts []valueprof.Option
	if trimPrefix != "" {
		opts = append(opts, valueprof.WithTrimPrefix(trimPrefix))
	}

	ix, err := valueprof.Open(paths, opts...)
	if err != nil {
		return nil, err
	}

	if profiles.byKey == nil {
		profiles.byKey = make(map[string]*valueprof.Index)
	}
	profiles.byKey[cacheKey] = ix
	return ix, nil
}

func run(pass *analysis.Pass) (any, error) {
	policy := icall.Policy{
		DevirtPrefix: devirtPrefix,
		PGOPrefix:    pgoPrefix,
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	ix, err := loadProfile()
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	// Get the built SSA IR.
	buildSSA := pass.ResultOf[buildssa.Analyzer].(*buildssa.SSA)

	auditor := &icall.Auditor{
		Policy: policy,
		Emitter: icall.EmitterFunc(func(site icall.Site) {
			in, ok := site.Instr.(*ssair.Instruction)
			if !ok {
				return
			}
			pass.Reportf(in.SSA().Pos(), "uncovered indirect call: %s", in)
		}),
	}
	// A nil *valueprof.Index must not end up in a non-nil interface.
	if ix != nil {
		auditor.Profile = ix
	}

	counters := &icall.Counters{}
	for _, fn := range buildSSA.SrcFuncs {
		auditor.Function(ssair.NewFunction(fn), counters)
	}

	return counters, nil
}
