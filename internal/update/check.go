package update

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// CheckForUpdate resets the device when a new version is published, without
// downloading anything. It is meant for devices that install updates from a
// separate boot stage. A soft reset is used when opts.SoftReset is set,
// otherwise a hard reset.
func (u *Updater) CheckForUpdate(ctx context.Context, host, project string, opts Options) (bool, string, error) {
	auth, err := opts.Credentials.Token()
	if err != nil {
		return false, "", err
	}

	changed, remote := u.CheckVersion(ctx, host, project, auth, opts.timeout())
	if !changed {
		return false, remote, nil
	}

	log.WithFields(log.Fields{"host": host, "project": project}).Infof("found new version %s", remote)
	if _, err := u.reset(opts.SoftReset, !opts.SoftReset); err != nil {
		return true, remote, err
	}
	return true, remote, nil
}
