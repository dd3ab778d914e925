package update

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

var (
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrRemoteNotFound     = errors.New("remote file not found")
	ErrManifestMissing    = errors.New("manifest missing")
	ErrIncompleteFileSet  = errors.New("incomplete file set")
	ErrFilesystem         = errors.New("filesystem error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrReset              = errors.New("device reset failed")
)

// IncompleteError lists the files that could not be fetched for a release.
// It matches ErrIncompleteFileSet with errors.Is.
type IncompleteError struct {
	Version string
	Files   []string
	errs    *multierror.Error
}

func (e *IncompleteError) add(entry string, err error) {
	e.Files = append(e.Files, entry)
	e.errs = multierror.Append(e.errs, err)
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%s for %s: %d missing (%s)", ErrIncompleteFileSet, e.Version, len(e.Files), strings.Join(e.Files, ", "))
}

func (e *IncompleteError) Is(target error) bool {
	return target == ErrIncompleteFileSet
}

// Unwrap exposes the individual fetch errors.
func (e *IncompleteError) Unwrap() []error {
	if e.errs == nil {
		return nil
	}
	return e.errs.WrappedErrors()
}

func fsError(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrFilesystem, op, path, err)
}
