package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// completionFiles maps a shell to the file name its completion loader expects.
var completionFiles = map[string]string{
	"bash": "ota",
	"zsh":  "_ota",
	"fish": "ota.fish",
}

func newCompletionCmd() *cobra.Command {
	var (
		dir            string
		noDescriptions bool
	)

	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish]",
		Short: "Generate shell completion script",
		Long: `Generate a shell completion script for ota.

Device images usually install completions once at build time, so --dir writes
the script straight into a completion directory under the expected name.

Examples:
  $ source <(ota completion bash)
  $ ota completion bash --dir /etc/bash_completion.d
  $ ota completion zsh --dir "${fpath[1]}"
  $ ota completion fish --dir ~/.config/fish/completions`,
		ValidArgs: []string{"bash", "zsh", "fish"},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			shell := args[0]
			if dir == "" {
				return genCompletion(cmd.Root(), shell, cmd.OutOrStdout(), !noDescriptions)
			}

			path := filepath.Join(dir, completionFiles[shell])
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", path, err)
			}
			if err := genCompletion(cmd.Root(), shell, f, !noDescriptions); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Write the script into this directory instead of stdout")
	cmd.Flags().BoolVar(&noDescriptions, "no-descriptions", false, "Omit completion descriptions")

	return cmd
}

func genCompletion(root *cobra.Command, shell string, w io.Writer, descriptions bool) error {
	switch shell {
	case "bash":
		return root.GenBashCompletionV2(w, descriptions)
	case "zsh":
		if descriptions {
			return root.GenZshCompletion(w)
		}
		return root.GenZshCompletionNoDesc(w)
	case "fish":
		return root.GenFishCompletion(w, descriptions)
	}
	return fmt.Errorf("unsupported shell %q", shell)
}
