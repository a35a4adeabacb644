package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"gumdl/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gumdl",
	Short: "Download your Gumroad library incrementally",
	Long: `gumdl downloads the products you purchased on Gumroad.

Runs are incremental: every finished file is recorded in a local cache, so
re-running only fetches what is new. Downloads that fail are retried on the
next run.

Credentials are the two session cookies of a logged-in browser; store them
once with 'gumdl auth login'.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cmd.Name() != "version" && cmd.Name() != "help" && cmd.Name() != "completion" && !quiet {
			ui.PrintLogo()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .gumdl.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress the logo and informational output")

	rootCmd.SetVersionTemplate(`gumdl {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
