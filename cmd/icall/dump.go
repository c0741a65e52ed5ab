package main

import (
	"strings"

	"github.com/picatz/icall/ssair"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [dir|github-url] [patterns...]",
	Short: "Print the SSA blocks of the loaded functions, with block names and call kinds",
	Args:  cobra.ArbitraryArgs,
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().String("func", "", "only dump functions whose name contains this string")
}

func runDump(cmd *cobra.Command, args []string) error {
	initStyles(viper.GetBool("plain"))
	ctx := loggerContext(cmd.Context())

	target, patterns := splitTarget(args)
	dir, err := resolveTarget(ctx, target)
	if err != nil {
		return err
	}

	prog, err := ssair.Load(ctx, ssair.Config{Dir: dir}, patterns...)
	if err != nil {
		return err
	}

	filter, _ := cmd.Flags().GetString("func")

	for _, fn := range ssair.SourceFunctions(prog.Pkgs) {
		if filter != "" && !strings.Contains(fn.String(), filter) {
			continue
		}
		if err := ssair.Dump(cmd.OutOrStdout(), fn); err != nil {
			return err
		}
	}
	return nil
}
