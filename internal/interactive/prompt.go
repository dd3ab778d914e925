// Package interactive asks the operator to confirm installs and overwrites.
package interactive

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks yes/no questions on a terminal.
type Prompter struct {
	out     io.Writer
	scanner *bufio.Scanner
}

// NewPrompterWithIO reads answers from in and writes questions to out.
func NewPrompterWithIO(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{out: out, scanner: bufio.NewScanner(in)}
}

// IsTerminal reports whether in is an interactive terminal. Pipes, files
// and in-memory readers are not.
func IsTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Confirm displays a question and reads the answer. Anything but y or yes,
// including end of input, is a no.
func (p *Prompter) Confirm(format string, args ...interface{}) bool {
	_, _ = fmt.Fprintf(p.out, format, args...)
	_, _ = fmt.Fprint(p.out, " [y/N] ")

	if !p.scanner.Scan() {
		_, _ = fmt.Fprintln(p.out)
		return false
	}

	switch strings.ToLower(strings.TrimSpace(p.scanner.Text())) {
	case "y", "yes":
		return true
	case "", "n", "no":
		return false
	default:
		_, _ = fmt.Fprintln(p.out, "Invalid response, assuming no.")
		return false
	}
}

// ConfirmInstall returns a hook for update.Options.Confirm that shows the
// installed version next to the offered one.
func (p *Prompter) ConfirmInstall(project, current string) func(string) bool {
	if current == "" {
		current = "none"
	}
	return func(remote string) bool {
		return p.Confirm("Install %s %s (installed: %s)?", project, remote, current)
	}
}
