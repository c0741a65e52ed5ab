// Command icall audits the indirect calls of Go programs.
//
//	icall audit [dir|github-url] [patterns...] [flags]
//	icall dump [dir|github-url] [patterns...] [flags]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/picatz/icall"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "icall",
	Short:         "Audit indirect calls and what already covers them",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/icall/config.yaml)")
	rootCmd.PersistentFlags().CountP("verbose", "v", "verbose output, repeat for more detail")
	rootCmd.PersistentFlags().Bool("plain", false, "disable colors and styling")
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("plain", rootCmd.PersistentFlags().Lookup("plain"))

	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(dumpCmd)

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "icall"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("icall")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	// A missing default config file is fine; a broken or missing explicit
	// one is not.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			fmt.Fprintf(os.Stderr, "error: failed to read config: %v\n", err)
			os.Exit(1)
		}
	}
}

// loggerContext attaches a logger honouring the verbosity flags to ctx.
func loggerContext(ctx context.Context) context.Context {
	level := icall.ParseLogLevel(viper.GetInt("verbose"))
	return icall.WithLogger(ctx, icall.NewLogger(level, os.Stderr))
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
