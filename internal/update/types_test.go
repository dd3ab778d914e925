package update

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOutcomeString(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		want    string
	}{
		{
			name:    "no update",
			outcome: Outcome{Status: StatusNoUpdate, Version: "v1"},
			want:    "Already up to date (v1)",
		},
		{
			name:    "no update without version",
			outcome: Outcome{Status: StatusNoUpdate},
			want:    "Already up to date (none)",
		},
		{
			name:    "updated with reset",
			outcome: Outcome{Status: StatusUpdated, Version: "v2", PreviousVersion: "v1", Reset: "soft"},
			want:    "Updated v1 -> v2 (soft reset)",
		},
		{
			name:    "first install",
			outcome: Outcome{Status: StatusUpdated, Version: "v1"},
			want:    "Updated none -> v1",
		},
		{
			name:    "failed with missing files",
			outcome: Outcome{Status: StatusFailed, Version: "v2", Failed: []string{"a.py", "b.py"}},
			want:    "Update to v2 failed: missing a.py, b.py",
		},
		{
			name:    "declined",
			outcome: Outcome{Status: StatusDeclined, Version: "v2"},
			want:    "Update to v2 declined",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.outcome.String())
		})
	}
}

func TestOptionsDefaults(t *testing.T) {
	assert.Equal(t, DefaultTimeout, Options{}.timeout())
	assert.Equal(t, 2*time.Second, Options{Timeout: 2 * time.Second}.timeout())
	assert.Equal(t, "/", Options{}.Separator())
	assert.Equal(t, "_", Options{UseVersionPrefix: true}.Separator())
}

func TestIncompleteError(t *testing.T) {
	e := &IncompleteError{Version: "v9"}
	e.add("a.py", fmt.Errorf("%w: a.py", ErrRemoteNotFound))
	e.add("b.py", fmt.Errorf("%w: b.py", ErrRemoteNotFound))

	var err error = e
	assert.ErrorIs(t, err, ErrIncompleteFileSet)
	assert.ErrorIs(t, err, ErrRemoteNotFound)
	assert.False(t, errors.Is(err, ErrManifestMissing))
	assert.Equal(t, "incomplete file set for v9: 2 missing (a.py, b.py)", err.Error())
}
