// Package types provides typed constants shared by the config, command and
// output layers, each with a Validate method.
package types

import (
	"fmt"
	"strings"
)

// ResetMode selects how the device is reset after an installation.
type ResetMode string

const (
	// ResetHard reboots the device.
	ResetHard ResetMode = "hard"
	// ResetSoft restarts the application only.
	ResetSoft ResetMode = "soft"
	// ResetNone leaves the device running.
	ResetNone ResetMode = "none"
)

// AllResetModes returns all valid reset modes.
func AllResetModes() []ResetMode {
	return []ResetMode{ResetHard, ResetSoft, ResetNone}
}

// Validate checks if the ResetMode is a valid value.
func (r ResetMode) Validate() error {
	switch r {
	case ResetHard, ResetSoft, ResetNone:
		return nil
	default:
		return fmt.Errorf("invalid reset mode '%s' (must be hard, soft, or none)", r)
	}
}

func (r ResetMode) String() string {
	return string(r)
}

// Flags returns the (hard, soft) pair an update is run with.
func (r ResetMode) Flags() (hard, soft bool) {
	return r == ResetHard, r == ResetSoft
}

// ResetModeFromFlags is the inverse of Flags. Soft takes precedence.
func ResetModeFromFlags(hard, soft bool) ResetMode {
	switch {
	case soft:
		return ResetSoft
	case hard:
		return ResetHard
	default:
		return ResetNone
	}
}

// ParseResetMode parses a string into a ResetMode.
func ParseResetMode(s string) (ResetMode, error) {
	r := ResetMode(strings.ToLower(strings.TrimSpace(s)))
	if err := r.Validate(); err != nil {
		return "", err
	}
	return r, nil
}

// OutputFormat is the rendering used for command results.
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

// AllOutputFormats returns all valid output formats.
func AllOutputFormats() []OutputFormat {
	return []OutputFormat{OutputText, OutputJSON, OutputYAML}
}

// Validate checks if the OutputFormat is a valid value.
func (f OutputFormat) Validate() error {
	switch f {
	case OutputText, OutputJSON, OutputYAML:
		return nil
	default:
		return fmt.Errorf("invalid output format '%s' (must be text, json, or yaml)", f)
	}
}

func (f OutputFormat) String() string {
	return string(f)
}

// ParseOutputFormat parses a string into an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	f := OutputFormat(strings.ToLower(s))
	if err := f.Validate(); err != nil {
		return "", err
	}
	return f, nil
}
