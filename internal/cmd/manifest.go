package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/adamancini/ota/internal/config"
	"github.com/adamancini/ota/internal/output"
	"github.com/adamancini/ota/internal/update"
)

// ManifestResult is the output of ota manifest.
type ManifestResult struct {
	Version string   `json:"version" yaml:"version"`
	Entries []string `json:"entries" yaml:"entries"`
}

func (m ManifestResult) WriteText(w io.Writer) error {
	for _, e := range m.Entries {
		if _, err := fmt.Fprintln(w, e); err != nil {
			return err
		}
	}
	return nil
}

func newManifestCmd() *cobra.Command {
	var (
		remote   remoteFlags
		version  string
		noPrefix bool
	)

	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Show the file list of a release",
		Long: `Manifest fetches {host}/{project}/{version}_manifest (or {version}/manifest
with --no-prefix) and prints one entry per line. Entries ending in "/" are
directories.

The version defaults to the one currently published.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(func(cfg *config.Config) {
				remote.apply(cmd, cfg)
				if noPrefix {
					cfg.UseVersionPrefix = false
				}
			})
			if err != nil {
				return err
			}
			w, err := newWriter(cmd)
			if err != nil {
				return err
			}
			return runManifest(cmd.Context(), w, cfg, version)
		},
	}

	remote.register(cmd)
	cmd.Flags().StringVar(&version, "version", "", "Release version (default: the published version)")
	cmd.Flags().BoolVar(&noPrefix, "no-prefix", false, "Fetch {version}/manifest instead of {version}_manifest")

	return cmd
}

func runManifest(ctx context.Context, w *output.Writer, cfg *config.Config, version string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	u, err := newUpdater(cfg)
	if err != nil {
		return err
	}
	opts := cfg.Options()
	auth, err := opts.Credentials.Token()
	if err != nil {
		return err
	}

	if version == "" {
		_, version = u.CheckVersion(ctx, cfg.Host, cfg.Project, auth, opts.Timeout)
		if version == "" {
			return fmt.Errorf("no published version found for %s; use --version", cfg.Project)
		}
	}

	entries, err := u.FetchManifest(ctx, cfg.Host, cfg.Project, version, opts.Separator(), auth, opts.Timeout)
	if err != nil {
		return err
	}

	result := ManifestResult{Version: version, Entries: make([]string, 0, len(entries))}
	for _, e := range entries {
		if err := update.ValidateEntry(e); err != nil {
			return err
		}
		result.Entries = append(result.Entries, e.String())
	}
	return w.Write(result)
}
