package update

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"
)

// DefaultHardCommand reboots the host.
var DefaultHardCommand = []string{"reboot"}

// NopDevice ignores reset requests.
type NopDevice struct{}

func (NopDevice) Reset(bool) error { return nil }

// CommandRunner is an interface for running external commands.
// This allows for mocking in tests.
type CommandRunner interface {
	Run(name string, args ...string) ([]byte, error)
}

// DefaultCommandRunner uses os/exec to run commands.
type DefaultCommandRunner struct{}

func (r *DefaultCommandRunner) Run(name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	return cmd.CombinedOutput()
}

// CommandDevice resets the host by running an external command. A reset
// kind with no configured command fails with ErrReset.
type CommandDevice struct {
	runner      CommandRunner
	HardCommand []string
	SoftCommand []string
}

// NewCommandDevice creates a device that executes commands with os/exec.
func NewCommandDevice(hard, soft []string) *CommandDevice {
	return NewCommandDeviceWithRunner(&DefaultCommandRunner{}, hard, soft)
}

// NewCommandDeviceWithRunner creates a device with a custom runner (for testing).
func NewCommandDeviceWithRunner(runner CommandRunner, hard, soft []string) *CommandDevice {
	return &CommandDevice{runner: runner, HardCommand: hard, SoftCommand: soft}
}

// Reset runs the soft or hard reset command.
func (d *CommandDevice) Reset(soft bool) error {
	kind, command := "hard", d.HardCommand
	if soft {
		kind, command = "soft", d.SoftCommand
	}
	if len(command) == 0 {
		return fmt.Errorf("%w: no %s reset command configured", ErrReset, kind)
	}

	log.Debugf("running %s reset command: %s", kind, strings.Join(command, " "))
	output, err := d.runner.Run(command[0], command[1:]...)
	if err != nil {
		return fmt.Errorf("%s reset command failed: %w\nOutput: %s", kind, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// ParseCommand splits a configured command line on whitespace.
func ParseCommand(line string) ([]string, error) {
	fields := strings.Fields(line)
	if line != "" && len(fields) == 0 {
		return nil, errors.New("reset command is blank")
	}
	return fields, nil
}
