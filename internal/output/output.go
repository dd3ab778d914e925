// Package output handles formatting command results in different formats.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/adamancini/ota/internal/types"
)

// TextWriter is implemented by values with a multi-line text rendering.
type TextWriter interface {
	WriteText(w io.Writer) error
}

// Writer handles output in the specified format.
type Writer struct {
	format types.OutputFormat
	w      io.Writer
}

// NewWriter creates a new output writer.
func NewWriter(w io.Writer, format types.OutputFormat) *Writer {
	return &Writer{format: format, w: w}
}

// Format returns the configured format.
func (w *Writer) Format() types.OutputFormat {
	return w.format
}

// IsText reports whether results are rendered for humans.
func (w *Writer) IsText() bool {
	return w.format == types.OutputText || w.format == ""
}

// Write outputs the given value in the configured format.
func (w *Writer) Write(v interface{}) error {
	switch w.format {
	case types.OutputJSON:
		enc := json.NewEncoder(w.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case types.OutputYAML:
		enc := yaml.NewEncoder(w.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		switch t := v.(type) {
		case TextWriter:
			return t.WriteText(w.w)
		case fmt.Stringer:
			_, err := fmt.Fprintln(w.w, t.String())
			return err
		default:
			_, err := fmt.Fprintf(w.w, "%+v\n", v)
			return err
		}
	}
}

// Printf writes free text in text mode only, so structured output stays
// parseable.
func (w *Writer) Printf(format string, args ...interface{}) {
	if w.IsText() {
		_, _ = fmt.Fprintf(w.w, format, args...)
	}
}

// ParseFormat parses a format string, accepting "" for text and "yml".
func ParseFormat(s string) (types.OutputFormat, error) {
	switch s {
	case "":
		return types.OutputText, nil
	case "yml":
		return types.OutputYAML, nil
	default:
		f, err := types.ParseOutputFormat(s)
		if err != nil {
			return "", fmt.Errorf("unknown format: %s", s)
		}
		return f, nil
	}
}
