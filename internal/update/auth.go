package update

import (
	"encoding/base64"
	"fmt"
)

// BuildAuth packs user and password into the token used in a Basic
// Authorization header. Both empty yields an empty token; exactly one set is
// ErrInvalidCredentials.
func BuildAuth(user, password string) (string, error) {
	if user == "" && password == "" {
		return "", nil
	}
	if user == "" || password == "" {
		return "", fmt.Errorf("%w: either only user or password given, none or both are required", ErrInvalidCredentials)
	}
	return base64.StdEncoding.EncodeToString([]byte(user + ":" + password)), nil
}

// Token returns the auth token for the credentials.
func (c Credentials) Token() (string, error) {
	return BuildAuth(c.User, c.Password)
}

func authHeaders(auth string) map[string]string {
	if auth == "" {
		return nil
	}
	return map[string]string{"Authorization": "Basic " + auth}
}
