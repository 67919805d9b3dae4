package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vango-dev/sitepipe/internal/build"
	"github.com/vango-dev/sitepipe/internal/task"
)

func buildCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build dist/ from src/",
		Long: `Remove dist/ and rebuild every asset category.

This command:
  • Compiles, prefixes and minifies stylesheets
  • Bundles scripts
  • Optimizes images
  • Copies fonts
  • Renders views to HTML

Examples:
  sitepipe build
  sitepipe build --config=site/sitepipe.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			site, err := openSite(flags, nil)
			if err != nil {
				return err
			}

			start := time.Now()
			if err := runLocked(cmd, site, build.TaskBuild); err != nil {
				return err
			}

			fmt.Println()
			fmt.Println(summaryTable(site.Runner().Results()))
			success("Build complete in %s (%s)", time.Since(start).Round(time.Millisecond), distSize(site))
			return nil
		},
	}
}

func distSize(site *build.Site) string {
	size, err := dirSize(site.Config().DistPath())
	if err != nil {
		return "size unknown"
	}
	return humanize.Bytes(uint64(size))
}

func summaryTable(results []task.Result) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = "failed"
		}
		rows = append(rows, []string{r.Task, r.Duration.Round(time.Millisecond).String(), status})
	}
	return renderTable([]string{"Task", "Duration", "Status"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft})
}
