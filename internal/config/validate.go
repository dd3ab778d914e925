package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/adamancini/ota/internal/update"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for required fields and valid values.
// All problems are reported together.
func Validate(c *Config) error {
	var errs []error

	errs = append(errs, validateRemote(c)...)
	errs = append(errs, validateFiles(c.Files)...)
	errs = append(errs, validateLocal(c)...)
	errs = append(errs, validateReboot(c)...)

	if len(errs) == 0 {
		return nil
	}

	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return fmt.Errorf("validation errors:\n  - %s", strings.Join(msgs, "\n  - "))
}

func validateRemote(c *Config) []error {
	var errs []error

	if c.Host == "" {
		errs = append(errs, ValidationError{Field: "host", Message: "host is required"})
	} else if u, err := url.Parse(c.Host); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "host",
			Message: fmt.Sprintf("invalid host '%s' (must be an http or https URL)", c.Host),
		})
	}

	switch {
	case c.Project == "":
		errs = append(errs, ValidationError{Field: "project", Message: "project is required"})
	case strings.ContainsAny(c.Project, "/ \t\n"):
		errs = append(errs, ValidationError{
			Field:   "project",
			Message: fmt.Sprintf("invalid project '%s' (must not contain slashes or whitespace)", c.Project),
		})
	}

	if _, err := update.BuildAuth(c.User, c.Password); err != nil {
		errs = append(errs, ValidationError{Field: "user", Message: "user and password must be set together"})
	}

	if c.Timeout <= 0 {
		errs = append(errs, ValidationError{Field: "timeout", Message: "timeout must be positive"})
	}
	if c.Retries < 0 {
		errs = append(errs, ValidationError{Field: "retries", Message: "retries cannot be negative"})
	}

	return errs
}

func validateFiles(files []string) []error {
	var errs []error
	for i, f := range files {
		if err := update.ValidateEntry(update.Entry(f)); err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("files[%d]", i),
				Message: err.Error(),
			})
		}
	}
	return errs
}

func validateLocal(c *Config) []error {
	var errs []error

	staging := filepath.ToSlash(c.StagingDir)
	if err := update.ValidateEntry(update.Entry(staging)); err != nil || strings.HasSuffix(staging, "/") {
		errs = append(errs, ValidationError{
			Field:   "staging_dir",
			Message: fmt.Sprintf("invalid staging directory '%s' (must be a relative path below root)", c.StagingDir),
		})
	} else {
		// staging is removed wholesale, so no configured file may live in or around it
		for i, f := range c.Files {
			e := update.Entry(f)
			if update.ValidateEntry(e) != nil {
				continue
			}
			if err := update.ValidateStagedEntry(c.StagingDir, e); err != nil {
				errs = append(errs, ValidationError{
					Field:   "staging_dir",
					Message: fmt.Sprintf("staging directory '%s' must be dedicated: files[%d] %v", c.StagingDir, i, err),
				})
			}
		}
	}

	if c.History.Keep < 0 {
		errs = append(errs, ValidationError{Field: "history.keep", Message: "keep cannot be negative"})
	}

	if c.Log.Level != "" {
		if _, err := log.ParseLevel(c.Log.Level); err != nil {
			errs = append(errs, ValidationError{Field: "log.level", Message: err.Error()})
		}
	}

	return errs
}

func validateReboot(c *Config) []error {
	var errs []error

	if _, err := update.ParseCommand(c.Reboot.HardCommand); err != nil {
		errs = append(errs, ValidationError{Field: "reboot.hard_command", Message: err.Error()})
	}
	soft, err := update.ParseCommand(c.Reboot.SoftCommand)
	if err != nil {
		errs = append(errs, ValidationError{Field: "reboot.soft_command", Message: err.Error()})
	} else if c.SoftReset && len(soft) == 0 {
		errs = append(errs, ValidationError{
			Field:   "reboot.soft_command",
			Message: "soft_command is required when soft_reset is enabled",
		})
	}

	return errs
}
