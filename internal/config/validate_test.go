package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := Default()
	cfg.Host = "http://updates.example.com"
	cfg.Project = "sensor"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		wantErr     bool
		errContains string
	}{
		{name: "defaults with host and project", modify: func(*Config) {}},
		{
			name:   "https host with path",
			modify: func(c *Config) { c.Host = "https://cdn.example.com/ota" },
		},
		{
			name:        "missing host",
			modify:      func(c *Config) { c.Host = "" },
			wantErr:     true,
			errContains: "host is required",
		},
		{
			name:        "host without scheme",
			modify:      func(c *Config) { c.Host = "updates.example.com" },
			wantErr:     true,
			errContains: "must be an http or https URL",
		},
		{
			name:        "ftp host",
			modify:      func(c *Config) { c.Host = "ftp://updates.example.com" },
			wantErr:     true,
			errContains: "host",
		},
		{
			name:        "missing project",
			modify:      func(c *Config) { c.Project = "" },
			wantErr:     true,
			errContains: "project is required",
		},
		{
			name:        "project with slash",
			modify:      func(c *Config) { c.Project = "a/b" },
			wantErr:     true,
			errContains: "must not contain slashes",
		},
		{
			name:   "both credentials",
			modify: func(c *Config) { c.User, c.Password = "u", "p" },
		},
		{
			name:        "user without password",
			modify:      func(c *Config) { c.User = "u" },
			wantErr:     true,
			errContains: "user and password must be set together",
		},
		{
			name:        "negative timeout",
			modify:      func(c *Config) { c.Timeout = -1 },
			wantErr:     true,
			errContains: "timeout must be positive",
		},
		{
			name:        "negative retries",
			modify:      func(c *Config) { c.Retries = -2 },
			wantErr:     true,
			errContains: "retries cannot be negative",
		},
		{
			name:        "escaping file",
			modify:      func(c *Config) { c.Files = []string{"main.py", "../boot.py"} },
			wantErr:     true,
			errContains: "files[1]",
		},
		{
			name:        "absolute staging dir",
			modify:      func(c *Config) { c.StagingDir = "/tmp" },
			wantErr:     true,
			errContains: "staging_dir",
		},
		{
			name:        "staging dir is root",
			modify:      func(c *Config) { c.StagingDir = "." },
			wantErr:     true,
			errContains: "staging_dir",
		},
		{
			name:   "nested staging dir",
			modify: func(c *Config) { c.StagingDir = "var/ota/tmp" },
		},
		{
			name: "staging dir is a live directory",
			modify: func(c *Config) {
				c.StagingDir = "lib"
				c.Files = []string{"main.py", "lib/util.py"}
			},
			wantErr:     true,
			errContains: "files[1]",
		},
		{
			name: "staging dir inside a live directory",
			modify: func(c *Config) {
				c.StagingDir = "lib/tmp"
				c.Files = []string{"lib/"}
			},
			wantErr:     true,
			errContains: "must be dedicated",
		},
		{
			name: "file named like the journal",
			modify: func(c *Config) {
				c.Files = []string{"tmp.commit"}
			},
			wantErr:     true,
			errContains: "staging_dir",
		},
		{
			name: "staging dir next to files",
			modify: func(c *Config) {
				c.StagingDir = "tmp"
				c.Files = []string{"tmpfile", "lib/tmp/x.py"}
			},
		},
		{
			name:        "bad log level",
			modify:      func(c *Config) { c.Log.Level = "loud" },
			wantErr:     true,
			errContains: "log.level",
		},
		{
			name:        "negative keep",
			modify:      func(c *Config) { c.History.Keep = -1 },
			wantErr:     true,
			errContains: "history.keep",
		},
		{
			name:        "soft reset without command",
			modify:      func(c *Config) { c.SoftReset = true },
			wantErr:     true,
			errContains: "soft_command is required",
		},
		{
			name: "soft reset with command",
			modify: func(c *Config) {
				c.SoftReset = true
				c.Reboot.SoftCommand = "systemctl restart app"
			},
		},
		{
			name:        "blank hard command",
			modify:      func(c *Config) { c.Reboot.HardCommand = "   " },
			wantErr:     true,
			errContains: "reboot.hard_command",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)

			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("Validate() error = %q, want it to contain %q", err, tt.errContains)
			}
		})
	}
}

func TestValidateReportsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Timeout = -5

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate() expected error")
	}
	for _, field := range []string{"host", "project", "timeout"} {
		if !strings.Contains(err.Error(), field+":") {
			t.Errorf("error %q does not mention %s", err, field)
		}
	}
}

func TestValidationErrorFormat(t *testing.T) {
	err := ValidationError{Field: "host", Message: "host is required"}
	if got := err.Error(); got != "host: host is required" {
		t.Errorf("Error() = %q", got)
	}
}
