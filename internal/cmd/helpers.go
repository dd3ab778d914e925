package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/adamancini/ota/internal/config"
	"github.com/adamancini/ota/internal/history"
	"github.com/adamancini/ota/internal/logging"
	"github.com/adamancini/ota/internal/output"
	"github.com/adamancini/ota/internal/update"
)

// commandRunner executes reset commands. Tests replace it.
var commandRunner update.CommandRunner = &update.DefaultCommandRunner{}

// remoteFlags override the remote settings of the config file.
type remoteFlags struct {
	host     string
	project  string
	user     string
	password string
	timeout  int
	retries  int
}

func (f *remoteFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.host, "host", "", "Update host URL (overrides config)")
	cmd.Flags().StringVar(&f.project, "project", "", "Project name on the host (overrides config)")
	cmd.Flags().StringVar(&f.user, "user", "", "Basic auth user")
	cmd.Flags().StringVar(&f.password, "password", "", "Basic auth password")
	cmd.Flags().IntVar(&f.timeout, "timeout", 0, "Request timeout in seconds")
	cmd.Flags().IntVar(&f.retries, "retries", 0, "Retries on connection errors")
}

func (f *remoteFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = f.host
	}
	if flags.Changed("project") {
		cfg.Project = f.project
	}
	if flags.Changed("user") {
		cfg.User = f.user
	}
	if flags.Changed("password") {
		cfg.Password = f.password
	}
	if flags.Changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if flags.Changed("retries") {
		cfg.Retries = f.retries
	}
}

// loadConfig finds and loads the config file, applies overrides, sets up
// logging and validates the result. Without a config file the defaults are
// used, so flags alone are enough to run.
func loadConfig(apply func(*config.Config)) (*config.Config, error) {
	cfg, err := readConfig(apply)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// readConfig is loadConfig without validation, for commands that only touch
// local state.
func readConfig(apply func(*config.Config)) (*config.Config, error) {
	cfg := config.Default()

	path, err := config.Find(configPath)
	switch {
	case err == nil:
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	case errors.Is(err, config.ErrNotFound):
		path = ""
	default:
		return nil, err
	}

	if rootDir != "" {
		cfg.Root = rootDir
	}
	if apply != nil {
		apply(cfg)
	}

	if err := setupLogging(cfg); err != nil {
		return nil, err
	}
	if path != "" {
		log.Debugf("using config file %s", path)
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config) error {
	level := cfg.Log.Level
	switch {
	case logLevel != "":
		level = logLevel
	case verbose:
		level = "debug"
	case quiet:
		level = "error"
	case level == "":
		level = "info"
	}

	file := cfg.Log.File
	if logFile != "" {
		file = logFile
	}
	return logging.Init(level, file)
}

func newWriter(cmd *cobra.Command) (*output.Writer, error) {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	return output.NewWriter(cmd.OutOrStdout(), format), nil
}

// deviceFS returns the device root as a filesystem.
func deviceFS(cfg *config.Config) (afero.Fs, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", cfg.Root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("device root not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("device root %s is not a directory", root)
	}
	return afero.NewBasePathFs(afero.NewOsFs(), root), nil
}

func newUpdater(cfg *config.Config) (*update.Updater, error) {
	fs, err := deviceFS(cfg)
	if err != nil {
		return nil, err
	}

	hard, err := update.ParseCommand(cfg.Reboot.HardCommand)
	if err != nil {
		return nil, err
	}
	if len(hard) == 0 {
		hard = update.DefaultHardCommand
	}
	soft, err := update.ParseCommand(cfg.Reboot.SoftCommand)
	if err != nil {
		return nil, err
	}

	client := update.NewHTTPDownloader().
		WithRetries(cfg.Retries).
		WithUserAgent(appVersion)
	device := update.NewCommandDeviceWithRunner(commandRunner, hard, soft)

	return update.New(fs, client, device).WithStagingDir(cfg.StagingDir), nil
}

func historyStore(cfg *config.Config) *history.Store {
	return history.NewStore(afero.NewOsFs(), cfg.HistoryDir())
}
