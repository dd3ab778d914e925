package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adamancini/ota/internal/config"
	"github.com/adamancini/ota/internal/interactive"
	"github.com/adamancini/ota/internal/templates"
)

const defaultInitPath = "ota.yaml"

func newInitCmd() *cobra.Command {
	var templateName string
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create a config file from a template",
		Long: `Create a new config file from a built-in template.

Available templates:
  minimal    - Explicit file list with hard reset
  manifest   - Files resolved from the release manifest
  full       - Every option with comments

The file is written to ./ota.yaml unless a path is given.

Examples:
  ota init
  ota init --template manifest
  ota init /etc/ota/config.yaml --template full`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultInitPath
			if len(args) == 1 {
				path = args[0]
			}
			prompter := interactive.NewPrompterWithIO(cmd.InOrStdin(), cmd.ErrOrStderr())
			return runInit(cmd.OutOrStdout(), prompter, templateName, path, force)
		},
	}

	cmd.Flags().StringVarP(&templateName, "template", "t", templates.Default, "Template name")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	_ = cmd.RegisterFlagCompletionFunc("template", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var completions []string
		for _, name := range templates.List() {
			completions = append(completions, fmt.Sprintf("%s\t%s", name, templates.GetDescription(name)))
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// runInit writes the named template to path. An existing file is only
// replaced with force or after confirmation.
func runInit(stdout io.Writer, prompter *interactive.Prompter, templateName, path string, force bool) error {
	tmpl, err := templates.Get(templateName)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		if !force && !prompter.Confirm("%s already exists. Overwrite?", path) {
			_, _ = fmt.Fprintln(stdout, "Aborted.")
			return nil
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to check %s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, tmpl.Content, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	// Placeholders like ${OTA_HOST:-...} resolve at load time.
	if _, err := config.Load(path); err != nil {
		return fmt.Errorf("template %s does not parse: %w", templateName, err)
	}

	_, _ = fmt.Fprintf(stdout, "Created %s from the %s template\n", path, tmpl.Name)
	if quiet {
		return nil
	}
	if vars := tmpl.Variables(); len(vars) > 0 {
		_, _ = fmt.Fprintf(stdout, "Values can also come from the environment: %s\n", strings.Join(vars, ", "))
	}
	_, _ = fmt.Fprintln(stdout, "\nNext steps:")
	_, _ = fmt.Fprintln(stdout, strings.Join([]string{
		"  1. Set host, project and files",
		"  2. Run 'ota check' to reach the update host",
		"  3. Run 'ota update' to install the published release",
	}, "\n"))
	return nil
}
