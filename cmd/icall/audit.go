package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/picatz/icall"
	"github.com/picatz/icall/callgraphutil"
	"github.com/picatz/icall/ssair"
	"github.com/picatz/icall/valueprof"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var auditCmd = &cobra.Command{
	Use:   "audit [dir|github-url] [patterns...]",
	Short: "Classify every indirect call of the loaded packages",
	Long: `Classify every indirect call of the loaded packages as covered by
devirtualization, covered by PGO promotion, exercised but uncovered,
or never exercised. Uncovered calls are printed as they are found,
followed by a summary.

Calls are recognized as covered by the name of the block they are in,
and as exercised by pprof profiles given with --profile.`,
	Args: cobra.ArbitraryArgs,
	RunE: runAudit,
}

func init() {
	f := auditCmd.Flags()
	f.StringSlice("profile", nil, "pprof profile(s) used to tell exercised calls apart (repeatable)")
	f.String("sample-type", "", "profile sample type to count (default samples, else the profile default)")
	f.StringSlice("trim", nil, "path prefix(es) removed from file names before matching profiles")
	f.String("devirt-prefix", icall.DefaultPolicy.DevirtPrefix, "block name prefix of devirtualization fallback blocks (empty disables)")
	f.String("pgo-prefix", icall.DefaultPolicy.PGOPrefix, "block name prefix of PGO promotion fallback blocks (empty disables)")
	f.Bool("reachable", false, "only audit functions reachable from main (or every function of a library)")
	f.Bool("tests", false, "include test packages")
	f.IntP("jobs", "j", 1, "functions audited concurrently (0 uses every CPU)")
	f.String("csv", "", "write every call site and its verdict to this CSV file")
	f.String("dot", "", "write every call site and its verdict to this DOT file")
	viper.BindPFlags(f)
}

func runAudit(cmd *cobra.Command, args []string) error {
	initStyles(viper.GetBool("plain"))
	ctx := loggerContext(cmd.Context())
	logger := icall.FromContext(ctx)
	out := cmd.OutOrStdout()

	target, patterns := splitTarget(args)
	dir, err := resolveTarget(ctx, target)
	if err != nil {
		return err
	}

	prog, err := ssair.Load(ctx, ssair.Config{Dir: dir, Tests: viper.GetBool("tests")}, patterns...)
	if err != nil {
		return err
	}

	fns := ssair.SourceFunctions(prog.Pkgs)
	if viper.GetBool("reachable") {
		entries := callgraphutil.Entries(prog.Pkgs, fns)
		keep, err := callgraphutil.Reachable(ctx, prog.Prog, entries)
		if err != nil {
			return fmt.Errorf("failed to compute reachable functions: %w", err)
		}
		n := len(fns)
		fns = callgraphutil.Filter(fns, keep)
		logger.Step("filtered reachable functions", fmt.Sprintf("%d of %d kept", len(fns), n))
	}

	auditor := &icall.Auditor{
		Policy: icall.Policy{
			DevirtPrefix: viper.GetString("devirt-prefix"),
			PGOPrefix:    viper.GetString("pgo-prefix"),
		},
		Emitter: styledEmitter(out),
		Jobs:    viper.GetInt("jobs"),
	}
	if auditor.Jobs == 0 {
		auditor.Jobs = runtime.GOMAXPROCS(0)
	}

	if paths := viper.GetStringSlice("profile"); len(paths) > 0 {
		ix, err := valueprof.Open(paths,
			valueprof.WithSampleType(viper.GetString("sample-type")),
			valueprof.WithTrimPrefix(viper.GetStringSlice("trim")...),
		)
		if err != nil {
			return err
		}
		logger.Step("indexed profile", fmt.Sprintf("%d source lines", ix.Len()), "sample type "+ix.SampleType())
		auditor.Profile = ix
	} else {
		logger.Warning("no profile given, every call no naming convention covers is unexercised")
	}

	csvPath, dotPath := viper.GetString("csv"), viper.GetString("dot")
	var findings []icall.Finding
	if csvPath != "" || dotPath != "" {
		auditor.Observe = func(site icall.Site, v icall.Verdict) {
			findings = append(findings, icall.NewFinding(site, v))
		}
		// Findings of a function must stay adjacent for the DOT clusters.
		auditor.Jobs = 1
	}

	counters, err := auditor.Run(ctx, ssair.Functions(fns))
	if err != nil {
		return err
	}

	if csvPath != "" {
		if err := writeFile(csvPath, func(w io.Writer) error { return icall.WriteCSV(w, findings) }); err != nil {
			return err
		}
		logger.Step("wrote CSV", csvPath)
	}
	if dotPath != "" {
		if err := writeFile(dotPath, func(w io.Writer) error { return icall.WriteDOT(w, findings) }); err != nil {
			return err
		}
		logger.Step("wrote DOT", dotPath)
	}

	return writeSummary(out, counters)
}

func writeFile(name string, write func(w io.Writer) error) error {
	fh, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", name, err)
	}
	if err := write(fh); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}
