package main

import (
	"github.com/spf13/cobra"

	"github.com/vango-dev/sitepipe/internal/build"
	"github.com/vango-dev/sitepipe/internal/config"
)

type devFlags struct {
	port int
	host string
	open bool
}

func devCmd(flags *globalFlags) *cobra.Command {
	var df devFlags

	cmd := &cobra.Command{
		Use:     "dev",
		Aliases: []string{"default"},
		Short:   "Build, serve dist/ and rebuild on change",
		Long: `Run the build, then serve dist/ and watch src/.

Changed sources rebuild their category and connected browsers reload.
Stylesheet-only changes are swapped in place without a full reload.
Build errors are shown in the browser until they are fixed.

Examples:
  sitepipe dev
  sitepipe dev --port=8080
  sitepipe dev --host=0.0.0.0 --open`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDev(cmd, flags, df)
		},
	}

	cmd.Flags().IntVarP(&df.port, "port", "p", 0, "Port to run on (default from sitepipe.json)")
	cmd.Flags().StringVarP(&df.host, "host", "H", "", "Host to bind to (default from sitepipe.json)")
	cmd.Flags().BoolVarP(&df.open, "open", "o", false, "Open browser on start")

	return cmd
}

func runDev(cmd *cobra.Command, flags *globalFlags, df devFlags) error {
	site, err := openSite(flags, func(cfg *config.Config) {
		if df.port > 0 {
			cfg.Dev.Port = df.port
		}
		if df.host != "" {
			cfg.Dev.Host = df.host
		}
		if df.open {
			cfg.Dev.Open = true
		}
	})
	if err != nil {
		return err
	}

	info("Press Ctrl+C to stop")
	return runLocked(cmd, site, build.TaskDefault)
}
