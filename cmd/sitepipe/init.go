package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/sitepipe/internal/templates"
)

func initCmd() *cobra.Command {
	var (
		template    string
		name        string
		description string
		remote      string
	)

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a new sitepipe project",
		Long: `Write a starter src/ tree and sitepipe.json into dir (default ".").

Templates:
  basic   Styles, scripts, images, fonts and a view with a partial (default)
  blank   A config file and a single view

Examples:
  sitepipe init
  sitepipe init my-site --template=blank
  sitepipe init my-site --remote=git@github.com:me/my-site.git`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(dir, template, name, description, remote)
		},
	}

	cmd.Flags().StringVarP(&template, "template", "t", "basic", "Project template (basic, blank)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Project name (default: directory name)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Project description")
	cmd.Flags().StringVar(&remote, "remote", "", "Git remote URL for publish.remoteURL")

	return cmd
}

func runInit(dir, templateName, name, description, remote string) error {
	tmpl, err := templates.Get(templateName)
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if name == "" {
		name = filepath.Base(abs)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return fmt.Errorf("create %s: %w", abs, err)
	}

	if err := tmpl.Create(abs, templates.Config{
		ProjectName: name,
		Description: description,
		RemoteURL:   remote,
	}); err != nil {
		return err
	}

	success("Created %s in %s", name, abs)
	fmt.Println()
	fmt.Println("  Next steps:")
	if dir != "." {
		info("cd %s", dir)
	}
	info("sitepipe")
	fmt.Println()
	return nil
}
