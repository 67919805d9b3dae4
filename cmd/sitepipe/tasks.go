package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/sitepipe/internal/build"
	"github.com/vango-dev/sitepipe/internal/task"
)

func tasksCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List registered tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			site, err := openSite(flags, nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tasksTable(site))
			return nil
		},
	}
}

func tasksTable(site *build.Site) string {
	var rows [][]string
	for _, name := range site.Registry().Names() {
		t, err := site.Registry().Get(name)
		if err != nil {
			continue
		}
		rows = append(rows, []string{name, t.Kind().String(), describe(t)})
	}
	return renderTable([]string{"Task", "Kind", "Runs"}, rows, nil)
}

func describe(t *task.Task) string {
	if t.Kind() == task.KindLeaf {
		return ""
	}
	return strings.TrimPrefix(t.String(), t.Name()+": ")
}
