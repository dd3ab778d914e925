// Package history keeps a record of past update transactions on the device.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/adamancini/ota/internal/update"
)

// Latest selects the most recent record in Get.
const Latest = "latest"

// ErrNotFound is returned when no record matches.
var ErrNotFound = errors.New("history record not found")

// Record is a single transaction.
type Record struct {
	ID              string        `json:"id" yaml:"id"`
	CreatedAt       time.Time     `json:"created_at" yaml:"created_at"`
	Host            string        `json:"host" yaml:"host"`
	Project         string        `json:"project" yaml:"project"`
	Status          update.Status `json:"status" yaml:"status"`
	Version         string        `json:"version,omitempty" yaml:"version,omitempty"`
	PreviousVersion string        `json:"previous_version,omitempty" yaml:"previous_version,omitempty"`
	Entries         []string      `json:"entries,omitempty" yaml:"entries,omitempty"`
	Failed          []string      `json:"failed,omitempty" yaml:"failed,omitempty"`
	Bytes           int64         `json:"bytes" yaml:"bytes"`
	Reset           string        `json:"reset,omitempty" yaml:"reset,omitempty"`
	Error           string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration        time.Duration `json:"duration" yaml:"duration"`
}

// Info summarizes a record for listing.
type Info struct {
	ID        string        `json:"id" yaml:"id"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`
	Status    update.Status `json:"status" yaml:"status"`
	Version   string        `json:"version,omitempty" yaml:"version,omitempty"`
}

// Store reads and writes records as JSON files in one directory.
type Store struct {
	fs  afero.Fs
	dir string
	now func() time.Time
}

// NewStore creates a store for dir on fs.
func NewStore(fs afero.Fs, dir string) *Store {
	return &Store{fs: fs, dir: dir, now: time.Now}
}

// Dir returns the history directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Add records a transaction. A nil outcome with a non-nil err is stored as
// an aborted transaction.
func (s *Store) Add(host, project string, outcome *update.Outcome, runErr error, took time.Duration) (*Record, error) {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	rec := &Record{
		ID:        uuid.NewString(),
		CreatedAt: s.now().UTC(),
		Host:      host,
		Project:   project,
		Status:    update.StatusFailed,
		Duration:  took,
	}
	if outcome != nil {
		rec.Status = outcome.Status
		rec.Version = outcome.Version
		rec.PreviousVersion = outcome.PreviousVersion
		rec.Entries = outcome.Entries
		rec.Failed = outcome.Failed
		rec.Bytes = outcome.Bytes
		rec.Reset = outcome.Reset
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal history record: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path(rec.ID), data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write history record: %w", err)
	}

	return rec, nil
}

// List returns all records sorted by creation time (newest first).
// Unreadable files are skipped.
func (s *Store) List() ([]Info, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Info{}, nil
		}
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	infos := []Info{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		rec, err := s.load(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		infos = append(infos, Info{
			ID:        rec.ID,
			CreatedAt: rec.CreatedAt,
			Status:    rec.Status,
			Version:   rec.Version,
		})
	}

	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})

	return infos, nil
}

// Get retrieves a record by ID or unique ID prefix. Use Latest for the most
// recent record.
func (s *Store) Get(id string) (*Record, error) {
	infos, err := s.List()
	if err != nil {
		return nil, err
	}

	if id == Latest {
		if len(infos) == 0 {
			return nil, fmt.Errorf("%w: history is empty", ErrNotFound)
		}
		return s.load(s.path(infos[0].ID))
	}

	var match string
	for _, info := range infos {
		if info.ID == id {
			match = id
			break
		}
		if strings.HasPrefix(info.ID, id) {
			if match != "" {
				return nil, fmt.Errorf("ambiguous history id %q", id)
			}
			match = info.ID
		}
	}
	if match == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.load(s.path(match))
}

// Delete removes a record by ID.
func (s *Store) Delete(id string) error {
	path := s.path(id)
	if _, err := s.fs.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := s.fs.Remove(path); err != nil {
		return fmt.Errorf("failed to delete history record: %w", err)
	}
	return nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *Store) load(path string) (*Record, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, strings.TrimSuffix(filepath.Base(path), ".json"))
		}
		return nil, fmt.Errorf("failed to read history record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse history record: %w", err)
	}
	return &rec, nil
}
