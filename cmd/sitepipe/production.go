package main

import (
	"github.com/spf13/cobra"

	"github.com/vango-dev/sitepipe/internal/build"
)

func productionCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "production",
		Short: "Publish dist/",
		Long: `Publish the output directory.

With publish.target "git" (default) dist/ is staged, committed with a
timestamped message and pushed to publish.remote/publish.branch.
With publish.target "s3" dist/ is mirrored into publish.s3.bucket.

Run sitepipe build first; production publishes dist/ as it is.

Examples:
  sitepipe build && sitepipe production`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			site, err := openSite(flags, nil)
			if err != nil {
				return err
			}
			if err := runLocked(cmd, site, build.TaskProduction); err != nil {
				return err
			}
			success("Published %s", site.Config().Paths.Dist)
			return nil
		},
	}
}
