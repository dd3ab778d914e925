package update

import (
	"context"
	"strings"
	"time"
)

const (
	// VersionFile is the name of the local version marker at the device root.
	VersionFile = "version"
	// DefaultStagingDir is the transient directory downloads are written to.
	DefaultStagingDir = "tmp"
	// DefaultTimeout bounds every network request when Options.Timeout is zero.
	DefaultTimeout = 5 * time.Second

	manifestName = "manifest"
)

// Response is the status and raw body of a GET request.
type Response struct {
	StatusCode int
	Body       []byte
}

// HTTPClient fetches remote resources.
type HTTPClient interface {
	Get(ctx context.Context, url string, headers map[string]string, timeout time.Duration) (*Response, error)
}

// Device resets the hardware or the running application.
type Device interface {
	Reset(soft bool) error
}

// Credentials are the optional basic auth pair for the update host.
type Credentials struct {
	User     string
	Password string
}

// Entry is a single manifest token: a relative file path, or a directory
// marker when it ends in a slash.
type Entry string

// IsDir reports whether the entry is a directory marker.
func (e Entry) IsDir() bool {
	return strings.HasSuffix(string(e), "/")
}

// Path returns the entry without a trailing slash.
func (e Entry) Path() string {
	return strings.TrimSuffix(string(e), "/")
}

func (e Entry) String() string {
	return string(e)
}

// Options configures a single update transaction.
type Options struct {
	Files            []Entry // empty means fetch the remote manifest
	UseVersionPrefix bool    // join version and file name with '_' instead of '/'
	Credentials      Credentials
	HardReset        bool
	SoftReset        bool
	Timeout          time.Duration

	// Confirm is asked before anything is staged. A nil Confirm approves.
	Confirm func(remoteVersion string) bool
}

// Separator returns the string placed between the version and a file name
// in remote URLs.
func (o Options) Separator() string {
	return SeparatorFor(o.UseVersionPrefix)
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

// SeparatorFor returns "_" for the flat prefix layout and "/" for the path layout.
func SeparatorFor(useVersionPrefix bool) string {
	if useVersionPrefix {
		return "_"
	}
	return "/"
}

// Status is the terminal state of a transaction.
type Status string

const (
	StatusNoUpdate Status = "no-update"
	StatusUpdated  Status = "updated"
	StatusFailed   Status = "failed"
	StatusDeclined Status = "declined"
)

// Outcome describes what a transaction did.
type Outcome struct {
	Status          Status   `json:"status" yaml:"status"`
	Version         string   `json:"version,omitempty" yaml:"version,omitempty"`
	PreviousVersion string   `json:"previous_version,omitempty" yaml:"previous_version,omitempty"`
	Entries         []string `json:"entries,omitempty" yaml:"entries,omitempty"`
	Failed          []string `json:"failed,omitempty" yaml:"failed,omitempty"`
	Bytes           int64    `json:"bytes" yaml:"bytes"`
	Reset           string   `json:"reset,omitempty" yaml:"reset,omitempty"`
	Reason          string   `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// String renders the outcome as a single line for text output.
func (o *Outcome) String() string {
	switch o.Status {
	case StatusNoUpdate:
		return "Already up to date (" + displayVersion(o.Version) + ")"
	case StatusDeclined:
		return "Update to " + o.Version + " declined"
	case StatusUpdated:
		s := "Updated " + displayVersion(o.PreviousVersion) + " -> " + o.Version
		if o.Reset != "" {
			s += " (" + o.Reset + " reset)"
		}
		return s
	default:
		s := "Update to " + o.Version + " failed"
		if len(o.Failed) > 0 {
			s += ": missing " + strings.Join(o.Failed, ", ")
		} else if o.Reason != "" {
			s += ": " + o.Reason
		}
		return s
	}
}

func displayVersion(v string) string {
	if v == "" {
		return "none"
	}
	return v
}
