package update

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckForUpdate(t *testing.T) {
	tests := []struct {
		name        string
		client      *fakeClient
		soft        bool
		wantChanged bool
		wantResets  []bool
	}{
		{
			name:        "new version hard resets",
			client:      newFakeClient().serve(versionURL(testHost, testProject), "v2"),
			wantChanged: true,
			wantResets:  []bool{false},
		},
		{
			name:        "new version soft resets",
			client:      newFakeClient().serve(versionURL(testHost, testProject), "v2"),
			soft:        true,
			wantChanged: true,
			wantResets:  []bool{true},
		},
		{
			name:   "unchanged",
			client: newFakeClient().serve(versionURL(testHost, testProject), "v1"),
		},
		{
			name:   "network down",
			client: newFakeClient().fail(versionURL(testHost, testProject), errConnRefused),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, VersionFile, []byte("v1"), 0o644))
			device := &recordingDevice{}

			u := New(fs, tt.client, device)
			changed, _, err := u.CheckForUpdate(context.Background(), testHost, testProject, Options{SoftReset: tt.soft})
			require.NoError(t, err)
			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, tt.wantResets, device.resets)
			assert.Len(t, tt.client.calls, 1)
			assert.Equal(t, "v1", readFile(t, fs, VersionFile))
		})
	}
}

func TestCheckForUpdateErrors(t *testing.T) {
	t.Run("invalid credentials", func(t *testing.T) {
		client := newFakeClient()
		u := New(afero.NewMemMapFs(), client, nil)
		_, _, err := u.CheckForUpdate(context.Background(), testHost, testProject, Options{
			Credentials: Credentials{Password: "secret"},
		})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Empty(t, client.calls)
	})

	t.Run("reset fails", func(t *testing.T) {
		client := newFakeClient().serve(versionURL(testHost, testProject), "v2")
		device := &recordingDevice{err: errors.New("no permission")}
		u := New(afero.NewMemMapFs(), client, device)

		changed, version, err := u.CheckForUpdate(context.Background(), testHost, testProject, Options{})
		assert.True(t, changed)
		assert.Equal(t, "v2", version)
		assert.ErrorIs(t, err, ErrReset)
	})
}
