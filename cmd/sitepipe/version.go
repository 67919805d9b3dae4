package main

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/vango-dev/sitepipe/internal/sass"
)

func versionCmd(flags *globalFlags) *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print version and build information for the sitepipe CLI, along with
the project config and the sass executable a build would use.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(out, version)
				return
			}

			fmt.Fprintln(out)
			fmt.Fprintf(out, "  Version:    %s (%s, built %s)\n", version, commit, date)
			fmt.Fprintf(out, "  Go version: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
			printToolchain(out, flags)
			fmt.Fprintln(out)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")

	return cmd
}

// printToolchain reports the project config and sass binary. A broken or
// missing project is reported, not treated as an error.
func printToolchain(out io.Writer, flags *globalFlags) {
	cfg, err := loadConfig(flags)
	if err != nil {
		fmt.Fprintf(out, "  Config:     invalid (%s)\n", err)
		return
	}

	path := cfg.Path()
	if path == "" {
		path = "none, using defaults in " + cfg.Dir()
	}
	fmt.Fprintf(out, "  Config:     %s\n", path)

	bin, err := sass.New(cfg.Styles.Sass, cfg.Dir(), cfg.Styles.LoadPaths).Path()
	if err != nil {
		bin = "not found"
	}
	fmt.Fprintf(out, "  Sass:       %s\n", bin)
}
