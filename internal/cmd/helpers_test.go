package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// mockRunner records reset commands instead of running them.
type mockRunner struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (m *mockRunner) Run(name string, args ...string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, append([]string{name}, args...))
	if m.err != nil {
		return []byte("reset failed"), m.err
	}
	return nil, nil
}

func (m *mockRunner) Calls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// updateHost serves a project tree from a map of paths to bodies.
type updateHost struct {
	*httptest.Server
	mu    sync.Mutex
	files map[string]string
	auth  string
}

func newUpdateHost(t *testing.T, files map[string]string) *updateHost {
	t.Helper()
	h := &updateHost{files: files}
	h.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.auth != "" && r.Header.Get("Authorization") != "Basic "+h.auth {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, ok := h.files[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = fmt.Fprint(w, body)
	}))
	t.Cleanup(h.Close)
	return h
}

func (h *updateHost) set(path, body string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.files[path] = body
}

// testEnv isolates a command run: an empty working directory, no config
// search hits, a temp device root and a mock reset runner.
type testEnv struct {
	dir    string
	root   string
	runner *mockRunner
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "device")
	require.NoError(t, os.MkdirAll(root, 0o755))

	chdirForTest(t, dir)
	t.Setenv("OTA_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))

	runner := &mockRunner{}
	old := commandRunner
	commandRunner = runner
	t.Cleanup(func() { commandRunner = old })

	return &testEnv{dir: dir, root: root, runner: runner}
}

// writeConfig writes an ota.yaml for host into the working directory. The
// device root is always the env's root.
func (e *testEnv) writeConfig(t *testing.T, host, body string) string {
	t.Helper()
	content := fmt.Sprintf("host: %s\nproject: sensor\nroot: %s\n%s", host, e.root, body)
	path := filepath.Join(e.dir, "ota.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (e *testEnv) readRoot(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(e.root, filepath.FromSlash(name)))
	require.NoError(t, err)
	return string(data)
}

func (e *testEnv) existsInRoot(name string) bool {
	_, err := os.Stat(filepath.Join(e.root, filepath.FromSlash(name)))
	return err == nil
}

// run executes the root command with args and returns stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

// chdirForTest changes the working directory to dir and restores it when
// the test finishes (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdirForTest(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
