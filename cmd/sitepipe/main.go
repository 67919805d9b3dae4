package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/sitepipe/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.Print(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "sitepipe",
		Short: "Build, serve and publish a static site",
		Long: `sitepipe builds src/ into dist/.

Stylesheets are compiled with Sass and prefixed, scripts are bundled,
images are optimized, fonts are copied and views are rendered to HTML.
With no subcommand it builds, serves dist/ with live reload and
rebuilds whatever changes.

Examples:
  sitepipe
  sitepipe build
  sitepipe production
  sitepipe run styles views`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDev(cmd, flags, devFlags{})
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "Path to sitepipe.json or sitepipe.toml")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "Log format (console, json)")

	rootCmd.AddCommand(
		buildCmd(flags),
		devCmd(flags),
		productionCmd(flags),
		runCmd(flags),
		tasksCmd(flags),
		initCmd(),
		versionCmd(flags),
	)
	return rootCmd
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
