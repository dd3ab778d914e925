package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/adamancini/ota/internal/update"
)

// VersionInfo is the output of ota version.
type VersionInfo struct {
	Version  string `json:"version" yaml:"version"`
	Commit   string `json:"commit" yaml:"commit"`
	Date     string `json:"date" yaml:"date"`
	Platform string `json:"platform" yaml:"platform"`
}

func (v VersionInfo) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "ota version %s (commit %s, built %s, %s)\n", v.Version, v.Commit, v.Date, v.Platform)
	return err
}

func newVersionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display the ota version, the commit and date it was built from and the
platform it runs on.

Examples:
  ota version
  ota version --short
  ota version -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if short {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), appVersion)
				return err
			}
			w, err := newWriter(cmd)
			if err != nil {
				return err
			}
			return w.Write(versionInfo())
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "Print the version number only")

	return cmd
}

func versionInfo() VersionInfo {
	return VersionInfo{
		Version:  appVersion,
		Commit:   appCommit,
		Date:     appDate,
		Platform: update.Detect().String(),
	}
}
