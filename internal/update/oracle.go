package update

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// LocalVersion returns the installed version marker. A missing marker is
// the empty version.
func (u *Updater) LocalVersion() (string, error) {
	data, err := afero.ReadFile(u.fs, u.versionFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fsError("read", u.versionFile, err)
	}
	return firstLine(data), nil
}

// CheckVersion compares the local version marker with the one published at
// {host}/{project}/version. It never fails: a missing remote marker or any
// transport fault is reported as unchanged together with the local version.
func (u *Updater) CheckVersion(ctx context.Context, host, project, auth string, timeout time.Duration) (bool, string) {
	url := versionURL(host, project)
	logger := log.WithFields(log.Fields{"host": host, "project": project, "url": url})

	current, err := u.LocalVersion()
	if err != nil {
		logger.Errorf("failed to read local version: %v", err)
		return false, current
	}

	resp, err := u.get(ctx, url, auth, timeout)
	if err != nil {
		logger.Warnf("version check failed: %v", err)
		return false, current
	}
	if resp.StatusCode != http.StatusOK {
		logger.Warnf("remote version file not found (status %d)", resp.StatusCode)
		return false, current
	}

	remote := strings.TrimSpace(string(resp.Body))
	changed := current != remote
	if changed {
		logger.Infof("new version available: %q -> %q", current, remote)
	} else {
		logger.Debugf("version %q is current", current)
	}
	return changed, remote
}

func firstLine(data []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(data))
	if sc.Scan() {
		return strings.TrimSpace(sc.Text())
	}
	return ""
}
