// Package config handles updater configuration parsing and location resolution.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adamancini/ota/internal/types"
	"github.com/adamancini/ota/internal/update"
)

const (
	// DefaultTimeoutSeconds bounds each request when timeout is not set.
	DefaultTimeoutSeconds = 5
	// DefaultHistoryKeep is how many transaction records are retained.
	DefaultHistoryKeep = 30
	// DefaultHistoryDir is relative to the device root.
	DefaultHistoryDir = ".ota/history"
)

// ErrNotFound is returned by Find when no configuration file exists.
var ErrNotFound = errors.New("no configuration file found")

// RebootConfig holds the commands used to reset the device.
type RebootConfig struct {
	HardCommand string `yaml:"hard_command,omitempty" toml:"hard_command,omitempty" json:"hard_command,omitempty"`
	SoftCommand string `yaml:"soft_command,omitempty" toml:"soft_command,omitempty" json:"soft_command,omitempty"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level,omitempty" toml:"level,omitempty" json:"level,omitempty"`
	File  string `yaml:"file,omitempty" toml:"file,omitempty" json:"file,omitempty"` // rotated with lumberjack
}

// HistoryConfig controls the transaction history.
type HistoryConfig struct {
	Dir  string `yaml:"dir,omitempty" toml:"dir,omitempty" json:"dir,omitempty"`
	Keep int    `yaml:"keep" toml:"keep" json:"keep"`
}

// Config is the parsed configuration file.
type Config struct {
	Host             string        `yaml:"host" toml:"host" json:"host"`
	Project          string        `yaml:"project" toml:"project" json:"project"`
	Files            []string      `yaml:"files,omitempty" toml:"files,omitempty" json:"files,omitempty"` // empty means use the remote manifest
	UseVersionPrefix bool          `yaml:"use_version_prefix" toml:"use_version_prefix" json:"use_version_prefix"`
	User             string        `yaml:"user,omitempty" toml:"user,omitempty" json:"user,omitempty"`
	Password         string        `yaml:"password,omitempty" toml:"password,omitempty" json:"password,omitempty"`
	HardReset        bool          `yaml:"hard_reset" toml:"hard_reset" json:"hard_reset"`
	SoftReset        bool          `yaml:"soft_reset" toml:"soft_reset" json:"soft_reset"`
	Timeout          int           `yaml:"timeout" toml:"timeout" json:"timeout"` // seconds
	Root             string        `yaml:"root" toml:"root" json:"root"`
	StagingDir       string        `yaml:"staging_dir" toml:"staging_dir" json:"staging_dir"`
	Retries          int           `yaml:"retries" toml:"retries" json:"retries"`
	Reboot           RebootConfig  `yaml:"reboot,omitempty" toml:"reboot,omitempty" json:"reboot,omitempty"`
	Log              LogConfig     `yaml:"log,omitempty" toml:"log,omitempty" json:"log,omitempty"`
	MetricsFile      string        `yaml:"metrics_file,omitempty" toml:"metrics_file,omitempty" json:"metrics_file,omitempty"`
	History          HistoryConfig `yaml:"history" toml:"history" json:"history"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		UseVersionPrefix: true,
		HardReset:        true,
		Timeout:          DefaultTimeoutSeconds,
		Root:             ".",
		StagingDir:       update.DefaultStagingDir,
		History:          HistoryConfig{Keep: DefaultHistoryKeep},
	}
}

// Options converts the configuration into transaction options.
func (c *Config) Options() update.Options {
	opts := update.Options{
		UseVersionPrefix: c.UseVersionPrefix,
		Credentials:      update.Credentials{User: c.User, Password: c.Password},
		HardReset:        c.HardReset,
		SoftReset:        c.SoftReset,
		Timeout:          time.Duration(c.Timeout) * time.Second,
	}
	if len(c.Files) > 0 {
		opts.Files = make([]update.Entry, len(c.Files))
		for i, f := range c.Files {
			opts.Files[i] = update.Entry(f)
		}
	}
	return opts
}

// ResetMode returns the configured reset behaviour.
func (c *Config) ResetMode() types.ResetMode {
	return types.ResetModeFromFlags(c.HardReset, c.SoftReset)
}

// SetResetMode overrides hard_reset and soft_reset.
func (c *Config) SetResetMode(mode types.ResetMode) {
	c.HardReset, c.SoftReset = mode.Flags()
}

// HistoryDir returns the history directory, resolved against Root when relative.
func (c *Config) HistoryDir() string {
	dir := c.History.Dir
	if dir == "" {
		dir = DefaultHistoryDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(c.Root, filepath.FromSlash(dir))
}

// Find searches for a configuration file in the standard locations.
// Returns the path to the first file found, or ErrNotFound.
func Find(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("specified config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	if envPath := os.Getenv("OTA_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	for _, path := range searchPaths() {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", ErrNotFound
}

// searchPaths lists candidate files in order of precedence.
func searchPaths() []string {
	exts := []string{".yaml", ".yml", ".toml", ".json"}
	var paths []string

	for _, ext := range exts {
		paths = append(paths, "ota"+ext)
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		if home, err := os.UserHomeDir(); err == nil {
			xdgConfig = filepath.Join(home, ".config")
		}
	}
	if xdgConfig != "" {
		for _, ext := range exts {
			paths = append(paths, filepath.Join(xdgConfig, "ota", "config"+ext))
		}
	}

	for _, ext := range exts {
		paths = append(paths, filepath.Join("/etc/ota", "config"+ext))
	}
	return paths
}

// Load reads and parses a configuration file from the given path. Defaults
// are applied for absent keys. The result is not validated so command line
// overrides can be applied first.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	format := detectFormat(path, content)
	if format == FormatUnknown {
		return nil, fmt.Errorf("unable to detect file format for %s", path)
	}

	return parse(content, format)
}
