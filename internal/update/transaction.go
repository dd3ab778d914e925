package update

import (
	"context"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// Run performs one update transaction for project on host.
//
// Nothing outside the staging area is touched until every file of the
// release has been downloaded. A release with missing files returns a failed
// outcome together with an *IncompleteError; any other error aborts the
// transaction and is returned with a nil outcome.
func (u *Updater) Run(ctx context.Context, host, project string, opts Options) (*Outcome, error) {
	logger := log.WithFields(log.Fields{"host": host, "project": project})

	auth, err := opts.Credentials.Token()
	if err != nil {
		return nil, err
	}

	if err := u.Recover(); err != nil {
		logger.Warnf("discarded interrupted installation: %v", err)
	}

	previous, err := u.LocalVersion()
	if err != nil {
		logger.Errorf("failed to read local version: %v", err)
		return nil, err
	}

	changed, remote := u.CheckVersion(ctx, host, project, auth, opts.timeout())
	if !changed {
		return &Outcome{Status: StatusNoUpdate, Version: remote}, nil
	}

	outcome := &Outcome{Version: remote, PreviousVersion: previous}
	if opts.Confirm != nil && !opts.Confirm(remote) {
		logger.Infof("installation of %s declined", remote)
		outcome.Status = StatusDeclined
		return outcome, nil
	}

	entries := opts.Files
	if len(entries) == 0 {
		entries, err = u.FetchManifest(ctx, host, project, remote, opts.Separator(), auth, opts.timeout())
		if err != nil {
			return abort(logger, err)
		}
	}
	for _, e := range entries {
		if err := ValidateStagedEntry(u.stagingDir, e); err != nil {
			return abort(logger, err)
		}
		outcome.Entries = append(outcome.Entries, e.String())
	}

	s := &staging{fs: u.fs, root: u.stagingDir}
	if err := s.ensure(); err != nil {
		return abort(logger, err)
	}

	missing := &IncompleteError{Version: remote}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return abort(logger, err)
		}
		if e.IsDir() {
			if err := s.mkdir(e.Path()); err != nil {
				return abort(logger, err)
			}
			continue
		}

		url := releaseURL(host, project, remote, opts.Separator(), e.Path())
		resp, err := u.get(ctx, url, auth, opts.timeout())
		if err != nil {
			return abort(logger, err)
		}
		if resp.StatusCode != http.StatusOK {
			logger.WithField("url", url).Warnf("remote source file not found (status %d)", resp.StatusCode)
			missing.add(e.String(), fmt.Errorf("%w: %s returned status %d", ErrRemoteNotFound, url, resp.StatusCode))
			continue
		}
		if err := s.write(e.Path(), resp.Body); err != nil {
			return abort(logger, err)
		}
		outcome.Bytes += int64(len(resp.Body))
	}

	if len(missing.Files) > 0 {
		s.discard()
		outcome.Status = StatusFailed
		outcome.Failed = missing.Files
		outcome.Reason = ErrIncompleteFileSet.Error()
		logger.Errorf("not installing %s: %v", remote, missing)
		return outcome, missing
	}

	j := journal{Version: remote, Entries: entries}
	if err := s.writeJournal(j); err != nil {
		return abort(logger, err)
	}
	if err := u.promote(s, j); err != nil {
		return abort(logger, err)
	}
	outcome.Status = StatusUpdated
	logger.Infof("installed %s (%d entries, %d bytes)", remote, len(entries), outcome.Bytes)

	mode, err := u.reset(opts.SoftReset, opts.HardReset)
	outcome.Reset = mode
	if err != nil {
		logger.Errorf("%v", err)
		return outcome, err
	}
	return outcome, nil
}

// reset resets the device at most once, preferring a soft reset.
func (u *Updater) reset(soft, hard bool) (string, error) {
	var mode string
	switch {
	case soft:
		mode = "soft"
	case hard:
		mode = "hard"
	default:
		return "", nil
	}
	log.Infof("%s-resetting device...", mode)
	if err := u.device.Reset(soft); err != nil {
		return mode, fmt.Errorf("%w: %s reset: %w", ErrReset, mode, err)
	}
	return mode, nil
}

func abort(logger *log.Entry, err error) (*Outcome, error) {
	logger.Errorf("update aborted: %v", err)
	return nil, err
}
