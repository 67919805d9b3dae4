package main

import (
	"github.com/spf13/cobra"
)

func runCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run <task>...",
		Short: "Run tasks by name",
		Long: `Run one or more registered tasks in order.

The run stops at the first failing task. See sitepipe tasks for the list.

Examples:
  sitepipe run styles
  sitepipe run clean views
  sitepipe run publish:push`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			site, err := openSite(flags, nil)
			if err != nil {
				return err
			}
			for _, name := range args {
				if _, err := site.Registry().Get(name); err != nil {
					return err
				}
			}
			return runLocked(cmd, site, args...)
		},
	}
}
