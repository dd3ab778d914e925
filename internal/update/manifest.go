package update

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// FetchManifest downloads {host}/{project}/{version}{sep}manifest and parses
// it into entries. A release without a manifest is ErrManifestMissing.
func (u *Updater) FetchManifest(ctx context.Context, host, project, version, sep, auth string, timeout time.Duration) ([]Entry, error) {
	url := releaseURL(host, project, version, sep, manifestName)

	resp, err := u.get(ctx, url, auth, timeout)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrManifestMissing, url, resp.StatusCode)
	}

	entries := ParseManifest(string(resp.Body))
	log.WithFields(log.Fields{"host": host, "project": project, "url": url}).
		Debugf("manifest lists %d entries", len(entries))
	return entries, nil
}

// ParseManifest splits a manifest body on whitespace, preserving order.
func ParseManifest(body string) []Entry {
	fields := strings.Fields(body)
	entries := make([]Entry, 0, len(fields))
	for _, f := range fields {
		entries = append(entries, Entry(f))
	}
	return entries
}

// ValidateEntry rejects entries that would escape the device root.
func ValidateEntry(e Entry) error {
	p := e.Path()
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, `\`) {
		return fmt.Errorf("invalid entry %q: must be a relative slash-separated path", e)
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("invalid entry %q: escapes the device root", e)
	}
	return nil
}

// ValidateStagedEntry is ValidateEntry plus a check that the entry stays
// clear of stagingDir and its commit journal. The staging directory is
// removed wholesale, so it must not hold or contain live files.
func ValidateStagedEntry(stagingDir string, e Entry) error {
	if err := ValidateEntry(e); err != nil {
		return err
	}
	p := path.Clean(e.Path())
	staging := path.Clean(filepath.ToSlash(stagingDir))
	switch {
	case p == staging || strings.HasPrefix(p, staging+"/"):
		return fmt.Errorf("invalid entry %q: inside the staging directory %s", e, stagingDir)
	case strings.HasPrefix(staging, p+"/"):
		return fmt.Errorf("invalid entry %q: contains the staging directory %s", e, stagingDir)
	case p == staging+journalSuffix:
		return fmt.Errorf("invalid entry %q: reserved for the staging commit journal", e)
	}
	return nil
}
