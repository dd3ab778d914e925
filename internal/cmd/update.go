package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/adamancini/ota/internal/config"
	"github.com/adamancini/ota/internal/interactive"
	"github.com/adamancini/ota/internal/metrics"
	"github.com/adamancini/ota/internal/output"
	"github.com/adamancini/ota/internal/types"
	"github.com/adamancini/ota/internal/update"
)

func newUpdateCmd() *cobra.Command {
	var (
		remote          remoteFlags
		files           []string
		reset           string
		noPrefix        bool
		interactiveMode bool
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Install the latest release if it differs from the installed one",
		Long: `Update compares the installed version with {host}/{project}/version and, when
they differ, downloads every file of the new release into the staging
directory before installing any of them.

If a single file cannot be downloaded nothing is installed, the version
marker is left unchanged and the command exits non-zero.

Files come from the config file or --file; when neither lists any, the
release manifest is fetched.

Examples:
  ota update
  ota update --host http://updates.local --project sensor --file main.py --file lib/util.py
  ota update --reset soft
  ota update --interactive`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(func(cfg *config.Config) {
				remote.apply(cmd, cfg)
				if cmd.Flags().Changed("file") {
					cfg.Files = files
				}
				if noPrefix {
					cfg.UseVersionPrefix = false
				}
			})
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("reset") {
				mode, err := types.ParseResetMode(reset)
				if err != nil {
					return err
				}
				cfg.SetResetMode(mode)
				if err := config.Validate(cfg); err != nil {
					return err
				}
			}

			w, err := newWriter(cmd)
			if err != nil {
				return err
			}

			var prompter *interactive.Prompter
			if interactiveMode {
				if !interactive.IsTerminal(cmd.InOrStdin()) {
					return fmt.Errorf("--interactive requires a terminal")
				}
				prompter = interactive.NewPrompterWithIO(cmd.InOrStdin(), cmd.ErrOrStderr())
			}

			return runUpdate(cmd.Context(), w, cfg, prompter)
		},
	}

	remote.register(cmd)
	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "File to install (repeatable; overrides config)")
	cmd.Flags().StringVar(&reset, "reset", "", "Reset after installing: hard, soft, none")
	cmd.Flags().BoolVar(&noPrefix, "no-prefix", false, "Fetch {version}/{file} instead of {version}_{file}")
	cmd.Flags().BoolVarP(&interactiveMode, "interactive", "i", false, "Ask before installing a new version")

	_ = cmd.RegisterFlagCompletionFunc("reset", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var modes []string
		for _, m := range types.AllResetModes() {
			modes = append(modes, m.String())
		}
		return modes, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// runUpdate executes one transaction and records it. A nil prompter
// installs without asking.
func runUpdate(ctx context.Context, w *output.Writer, cfg *config.Config, prompter *interactive.Prompter) error {
	if ctx == nil {
		ctx = context.Background()
	}

	u, err := newUpdater(cfg)
	if err != nil {
		return err
	}

	opts := cfg.Options()
	if prompter != nil {
		current, err := u.LocalVersion()
		if err != nil {
			return err
		}
		opts.Confirm = prompter.ConfirmInstall(cfg.Project, current)
	}

	start := time.Now()
	outcome, runErr := u.Run(ctx, cfg.Host, cfg.Project, opts)
	took := time.Since(start)

	recordOutcome(cfg, outcome, runErr, took)

	if outcome != nil {
		if err := w.Write(outcome); err != nil {
			return err
		}
	}
	if runErr != nil {
		if errors.Is(runErr, update.ErrIncompleteFileSet) {
			return fmt.Errorf("update not installed: %w", runErr)
		}
		return runErr
	}
	return nil
}

// recordOutcome writes metrics and history. Failures are logged only.
func recordOutcome(cfg *config.Config, outcome *update.Outcome, runErr error, took time.Duration) {
	if rec, err := metrics.Load(cfg.MetricsFile); err != nil {
		log.Warnf("failed to load metrics: %v", err)
	} else {
		rec.ObserveOutcome(outcome)
		if err := rec.WriteFile(cfg.MetricsFile); err != nil {
			log.Warnf("failed to write metrics: %v", err)
		}
	}

	if cfg.History.Keep == 0 {
		return
	}
	if outcome != nil && outcome.Status == update.StatusNoUpdate && runErr == nil {
		return
	}
	store := historyStore(cfg)
	if _, err := store.Add(cfg.Host, cfg.Project, outcome, runErr, took); err != nil {
		log.Warnf("failed to record history: %v", err)
		return
	}
	if _, err := store.Prune(cfg.History.Keep); err != nil {
		log.Warnf("failed to prune history: %v", err)
	}
}
