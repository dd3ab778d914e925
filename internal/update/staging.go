package update

import (
	"encoding/json"
	"errors"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const (
	journalSuffix = ".commit"
	newSuffix     = ".new"
	fileMode    = 0o644
	dirMode     = 0o755
)

// journal is written next to the staging area, as <staging>.commit, once
// every file has been downloaded. While it exists the staged release is
// complete and promotion may be resumed.
type journal struct {
	Version string  `json:"version"`
	Entries []Entry `json:"entries"`
}

// staging is the transient directory tree downloads are written to.
type staging struct {
	fs   afero.Fs
	root string
}

func (s *staging) path(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// ensure creates the staging root. An existing directory is fine.
func (s *staging) ensure() error {
	if err := s.fs.Mkdir(s.root, dirMode); err != nil && !errors.Is(err, fs.ErrExist) {
		return fsError("mkdir", s.root, err)
	}
	return nil
}

func (s *staging) mkdir(rel string) error {
	p := s.path(rel)
	if err := s.fs.MkdirAll(p, dirMode); err != nil {
		return fsError("mkdir", p, err)
	}
	return nil
}

func (s *staging) write(rel string, data []byte) error {
	if dir := path.Dir(rel); dir != "." {
		if err := s.mkdir(dir); err != nil {
			return err
		}
	}
	p := s.path(rel)
	if err := afero.WriteFile(s.fs, p, data, fileMode); err != nil {
		return fsError("write", p, err)
	}
	return nil
}

func (s *staging) journalPath() string {
	return filepath.Clean(s.root) + journalSuffix
}

func (s *staging) writeJournal(j journal) error {
	data, err := json.Marshal(j)
	if err != nil {
		return fsError("encode", s.journalPath(), err)
	}
	return replaceFile(s.fs, s.journalPath(), data)
}

// readJournal returns nil when no promotion is pending.
func (s *staging) readJournal() (*journal, error) {
	data, err := afero.ReadFile(s.fs, s.journalPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fsError("read", s.journalPath(), err)
	}
	var j journal
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fsError("decode", s.journalPath(), err)
	}
	return &j, nil
}

// discard removes the staging tree and the journal. Failures are logged only.
func (s *staging) discard() {
	if err := s.fs.RemoveAll(s.root); err != nil {
		log.Warnf("failed to remove staging directory %s: %v", s.root, err)
	}
	if err := s.fs.Remove(s.journalPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warnf("failed to remove commit journal: %v", err)
	}
}

// cleanup removes the staging directories used by entries, deepest first,
// then the journal and the staging root. Failures are logged only.
func (s *staging) cleanup(entries []Entry) {
	if err := s.fs.Remove(s.journalPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warnf("failed to remove commit journal: %v", err)
	}
	for _, dir := range stagedDirs(entries) {
		p := s.path(dir)
		if err := s.fs.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Debugf("failed to remove staging directory %s: %v", p, err)
		}
	}
	if err := s.fs.Remove(s.root); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warnf("failed to remove staging directory %s: %v", s.root, err)
	}
}

// stagedDirs lists every directory an entry set creates under staging,
// deepest first.
func stagedDirs(entries []Entry) []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(dir string) {
		for dir != "." && dir != "/" && dir != "" && !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
			dir = path.Dir(dir)
		}
	}
	for _, e := range entries {
		if e.IsDir() {
			add(path.Clean(e.Path()))
		} else {
			add(path.Dir(path.Clean(e.Path())))
		}
	}
	sort.SliceStable(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], "/") > strings.Count(dirs[j], "/")
	})
	return dirs
}

// replaceFile writes data next to name and renames it into place, so
// readers see either the old or the new content.
func replaceFile(fsys afero.Fs, name string, data []byte) error {
	tmp := name + newSuffix
	if err := afero.WriteFile(fsys, tmp, data, fileMode); err != nil {
		return fsError("write", tmp, err)
	}
	if err := fsys.Rename(tmp, name); err != nil {
		_ = fsys.Remove(tmp)
		return fsError("rename", name, err)
	}
	return nil
}

// promote moves a complete staged release into place and records its
// version. It is safe to call again after an interruption: files that are no
// longer staged were already promoted.
func (u *Updater) promote(s *staging, j journal) error {
	for _, e := range j.Entries {
		dir := e.Path()
		if !e.IsDir() {
			dir = path.Dir(dir)
		}
		if dir == "." {
			continue
		}
		p := filepath.FromSlash(path.Clean(dir))
		if err := u.fs.MkdirAll(p, dirMode); err != nil {
			return fsError("mkdir", p, err)
		}
	}

	for _, e := range j.Entries {
		if e.IsDir() {
			continue
		}
		src := s.path(e.Path())
		data, err := afero.ReadFile(u.fs, src)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fsError("read", src, err)
		}
		dst := filepath.FromSlash(e.Path())
		if err := replaceFile(u.fs, dst, data); err != nil {
			return err
		}
		if err := u.fs.Remove(src); err != nil {
			return fsError("remove", src, err)
		}
		log.Debugf("installed %s", e.Path())
	}

	if err := replaceFile(u.fs, u.versionFile, []byte(j.Version)); err != nil {
		return err
	}

	s.cleanup(j.Entries)
	return nil
}

// Recover finishes a promotion that was interrupted after every file had
// been staged, for example by power loss. It does nothing when no promotion
// is pending. When the promotion cannot be finished the staged release is
// abandoned: staging, journal and half-written files are removed and the
// error is returned.
func (u *Updater) Recover() error {
	s := &staging{fs: u.fs, root: u.stagingDir}
	j, err := s.readJournal()
	if err == nil && j == nil {
		return nil
	}
	if err == nil {
		log.Warnf("resuming interrupted installation of %s", j.Version)
		if err = u.promote(s, *j); err == nil {
			return nil
		}
	}
	u.abandon(s, j)
	return err
}

// abandon drops a staged release that can no longer be promoted.
func (u *Updater) abandon(s *staging, j *journal) {
	leftovers := []string{u.versionFile + newSuffix}
	if j != nil {
		for _, e := range j.Entries {
			if !e.IsDir() {
				leftovers = append(leftovers, filepath.FromSlash(e.Path())+newSuffix)
			}
		}
	}
	for _, name := range leftovers {
		if err := u.fs.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warnf("failed to remove %s: %v", name, err)
		}
	}
	s.discard()
}
