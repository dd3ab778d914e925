// Package update implements the device side of an over-the-air update:
// version checks against a remote host, manifest resolution, and the staged,
// all-or-nothing installation of a release.
package update

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// Updater runs update transactions against a device filesystem.
type Updater struct {
	fs          afero.Fs
	client      HTTPClient
	device      Device
	stagingDir  string
	versionFile string
}

// New creates an updater. fs is rooted at the device root; a nil device
// disables resets.
func New(fs afero.Fs, client HTTPClient, device Device) *Updater {
	if device == nil {
		device = NopDevice{}
	}
	return &Updater{
		fs:          fs,
		client:      client,
		device:      device,
		stagingDir:  DefaultStagingDir,
		versionFile: VersionFile,
	}
}

// WithStagingDir overrides the staging directory name.
func (u *Updater) WithStagingDir(dir string) *Updater {
	if dir != "" {
		u.stagingDir = dir
	}
	return u
}

// StagingDir returns the staging directory used by the updater.
func (u *Updater) StagingDir() string {
	return u.stagingDir
}

func (u *Updater) get(ctx context.Context, url, auth string, timeout time.Duration) (*Response, error) {
	resp, err := u.client.Get(ctx, url, authHeaders(auth), timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", ErrNetworkUnavailable, url, err)
	}
	return resp, nil
}

func versionURL(host, project string) string {
	return fmt.Sprintf("%s/%s/version", strings.TrimSuffix(host, "/"), project)
}

func releaseURL(host, project, version, sep, name string) string {
	return fmt.Sprintf("%s/%s/%s%s%s", strings.TrimSuffix(host, "/"), project, version, sep, name)
}
