package cmd

import (
	"context"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/adamancini/ota/internal/config"
	"github.com/adamancini/ota/internal/metrics"
	"github.com/adamancini/ota/internal/output"
)

// CheckResult is the output of ota check.
type CheckResult struct {
	Project   string `json:"project" yaml:"project"`
	Installed string `json:"installed" yaml:"installed"`
	Available string `json:"available" yaml:"available"`
	Changed   bool   `json:"changed" yaml:"changed"`
	Reset     string `json:"reset,omitempty" yaml:"reset,omitempty"`
}

func (r CheckResult) WriteText(w io.Writer) error {
	installed := r.Installed
	if installed == "" {
		installed = "none"
	}
	if !r.Changed {
		_, err := fmt.Fprintf(w, "%s is up to date (%s)\n", r.Project, installed)
		return err
	}
	if _, err := fmt.Fprintf(w, "%s %s available (installed: %s)\n", r.Project, r.Available, installed); err != nil {
		return err
	}
	if r.Reset != "" {
		_, err := fmt.Fprintf(w, "Device %s-reset requested\n", r.Reset)
		return err
	}
	return nil
}

func newCheckCmd() *cobra.Command {
	var (
		remote remoteFlags
		reset  bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether a new version is published",
		Long: `Check compares the installed version with {host}/{project}/version without
downloading anything.

Network errors and a missing remote version file are reported as "up to date".

With --reset the device is reset when a new version is found, for devices that
install updates from a separate boot stage. A soft reset is used when
soft_reset is enabled, otherwise a hard reset.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(func(cfg *config.Config) { remote.apply(cmd, cfg) })
			if err != nil {
				return err
			}
			w, err := newWriter(cmd)
			if err != nil {
				return err
			}
			return runCheck(cmd.Context(), w, cfg, reset)
		},
	}

	remote.register(cmd)
	cmd.Flags().BoolVar(&reset, "reset", false, "Reset the device when a new version is available")

	return cmd
}

func runCheck(ctx context.Context, w *output.Writer, cfg *config.Config, reset bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	u, err := newUpdater(cfg)
	if err != nil {
		return err
	}
	installed, err := u.LocalVersion()
	if err != nil {
		return err
	}

	opts := cfg.Options()
	result := CheckResult{Project: cfg.Project, Installed: installed}

	var runErr error
	if reset {
		result.Changed, result.Available, runErr = u.CheckForUpdate(ctx, cfg.Host, cfg.Project, opts)
		if result.Changed {
			result.Reset = "hard"
			if opts.SoftReset {
				result.Reset = "soft"
			}
		}
	} else {
		auth, err := opts.Credentials.Token()
		if err != nil {
			return err
		}
		result.Changed, result.Available = u.CheckVersion(ctx, cfg.Host, cfg.Project, auth, opts.Timeout)
	}

	recordCheck(cfg, result.Changed)

	if err := w.Write(result); err != nil {
		return err
	}
	return runErr
}

func recordCheck(cfg *config.Config, changed bool) {
	rec, err := metrics.Load(cfg.MetricsFile)
	if err != nil {
		log.Warnf("failed to load metrics: %v", err)
		return
	}
	result := metrics.CheckUnchanged
	if changed {
		result = metrics.CheckChanged
	}
	rec.ObserveCheck(result)
	if err := rec.WriteFile(cfg.MetricsFile); err != nil {
		log.Warnf("failed to write metrics: %v", err)
	}
}
