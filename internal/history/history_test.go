package history

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamancini/ota/internal/update"
)

// newTestStore returns a store whose clock advances one minute per record.
func newTestStore() *Store {
	s := NewStore(afero.NewMemMapFs(), "/flash/.ota/history")
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	s.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
	return s
}

func TestStoreAdd(t *testing.T) {
	s := newTestStore()

	rec, err := s.Add("http://h", "sensor", &update.Outcome{
		Status:          update.StatusUpdated,
		Version:         "v2",
		PreviousVersion: "v1",
		Entries:         []string{"main.py"},
		Bytes:           12,
		Reset:           "hard",
	}, nil, 3*time.Second)
	require.NoError(t, err)

	assert.Len(t, rec.ID, 36)
	assert.Equal(t, update.StatusUpdated, rec.Status)
	assert.Empty(t, rec.Error)

	got, err := s.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "v1", got.PreviousVersion)
	assert.Equal(t, []string{"main.py"}, got.Entries)
	assert.Equal(t, int64(12), got.Bytes)
	assert.Equal(t, 3*time.Second, got.Duration)
	assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))
}

func TestStoreAddAborted(t *testing.T) {
	s := newTestStore()

	rec, err := s.Add("http://h", "sensor", nil, errors.New("manifest missing"), time.Second)
	require.NoError(t, err)
	assert.Equal(t, update.StatusFailed, rec.Status)
	assert.Equal(t, "manifest missing", rec.Error)
}

func TestStoreListAndLatest(t *testing.T) {
	s := newTestStore()

	list, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = s.Get(Latest)
	assert.ErrorIs(t, err, ErrNotFound)

	var ids []string
	for _, v := range []string{"v1", "v2", "v3"} {
		rec, err := s.Add("http://h", "sensor", &update.Outcome{Status: update.StatusUpdated, Version: v}, nil, 0)
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}
	require.NoError(t, afero.WriteFile(s.fs, s.dir+"/junk.json", []byte("not json"), 0o644))
	require.NoError(t, afero.WriteFile(s.fs, s.dir+"/notes.txt", []byte("x"), 0o644))

	list, err = s.List()
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, "v3", list[0].Version)
	assert.Equal(t, ids[0], list[2].ID)

	latest, err := s.Get(Latest)
	require.NoError(t, err)
	assert.Equal(t, "v3", latest.Version)
}

func TestStoreGetByPrefix(t *testing.T) {
	s := newTestStore()
	rec, err := s.Add("http://h", "sensor", &update.Outcome{Status: update.StatusNoUpdate}, nil, 0)
	require.NoError(t, err)

	got, err := s.Get(rec.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)

	_, err = s.Get("zzzz")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreDelete(t *testing.T) {
	s := newTestStore()
	rec, err := s.Add("http://h", "sensor", &update.Outcome{Status: update.StatusNoUpdate}, nil, 0)
	require.NoError(t, err)

	require.NoError(t, s.Delete(rec.ID))
	assert.ErrorIs(t, s.Delete(rec.ID), ErrNotFound)
}

func TestStorePrune(t *testing.T) {
	tests := []struct {
		name        string
		records     int
		keep        int
		wantKept    int
		wantDeleted int
	}{
		{name: "nothing to prune", records: 2, keep: 5, wantKept: 2, wantDeleted: 0},
		{name: "prune oldest", records: 5, keep: 2, wantKept: 2, wantDeleted: 3},
		{name: "keep none", records: 3, keep: 0, wantKept: 0, wantDeleted: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore()
			var last string
			for i := 0; i < tt.records; i++ {
				rec, err := s.Add("http://h", "sensor", &update.Outcome{Status: update.StatusNoUpdate}, nil, 0)
				require.NoError(t, err)
				last = rec.ID
			}

			result, err := s.Prune(tt.keep)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKept, result.Kept)
			assert.Len(t, result.Deleted, tt.wantDeleted)

			list, err := s.List()
			require.NoError(t, err)
			assert.Len(t, list, tt.wantKept)
			if tt.wantKept > 0 {
				assert.Equal(t, last, list[0].ID)
			}
		})
	}
}

func TestStorePruneNegative(t *testing.T) {
	_, err := newTestStore().Prune(-1)
	assert.Error(t, err)
}
