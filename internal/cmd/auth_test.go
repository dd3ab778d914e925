package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{name: "credentials", args: []string{"--user", "device", "--password", "secret"}, want: "ZGV2aWNlOnNlY3JldA==\n"},
		{name: "none", args: nil, want: "\n"},
		{name: "user only", args: []string{"--user", "device"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, "", append([]string{"auth"}, tt.args...)...)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestAuth_JSON(t *testing.T) {
	out, err := run(t, "", "auth", "--user", "a", "--password", "b", "-o", "json")
	require.NoError(t, err)

	var result AuthResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, AuthResult{Token: "YTpi", Header: "Basic YTpi"}, result)
}
