package update

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/spf13/afero"
)

const (
	testHost    = "http://updates.example.com"
	testProject = "sensor"
)

var errConnRefused = errors.New("connection refused")

// fakeClient serves canned responses keyed by URL. Unknown URLs are 404.
type fakeClient struct {
	mu        sync.Mutex
	responses map[string]string
	failures  map[string]error
	calls     []string
	headers   []map[string]string
	timeouts  []time.Duration
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		responses: make(map[string]string),
		failures:  make(map[string]error),
	}
}

func (c *fakeClient) serve(url, body string) *fakeClient {
	c.responses[url] = body
	return c
}

func (c *fakeClient) fail(url string, err error) *fakeClient {
	c.failures[url] = err
	return c
}

func (c *fakeClient) Get(_ context.Context, url string, headers map[string]string, timeout time.Duration) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, url)
	c.headers = append(c.headers, headers)
	c.timeouts = append(c.timeouts, timeout)

	if err, ok := c.failures[url]; ok {
		return nil, err
	}
	body, ok := c.responses[url]
	if !ok {
		return &Response{StatusCode: http.StatusNotFound, Body: []byte("not found")}, nil
	}
	return &Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil
}

func (c *fakeClient) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = nil
	c.headers = nil
	c.timeouts = nil
}

// recordingDevice remembers every reset request.
type recordingDevice struct {
	resets []bool
	err    error
}

func (d *recordingDevice) Reset(soft bool) error {
	d.resets = append(d.resets, soft)
	return d.err
}

// writeCountingFs counts mutating calls made through it.
type writeCountingFs struct {
	afero.Fs
	writes int
}

func (f *writeCountingFs) Create(name string) (afero.File, error) {
	f.writes++
	return f.Fs.Create(name)
}

func (f *writeCountingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND) != 0 {
		f.writes++
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func (f *writeCountingFs) Mkdir(name string, perm os.FileMode) error {
	f.writes++
	return f.Fs.Mkdir(name, perm)
}

func (f *writeCountingFs) MkdirAll(name string, perm os.FileMode) error {
	f.writes++
	return f.Fs.MkdirAll(name, perm)
}

func (f *writeCountingFs) Remove(name string) error {
	f.writes++
	return f.Fs.Remove(name)
}

func (f *writeCountingFs) RemoveAll(name string) error {
	f.writes++
	return f.Fs.RemoveAll(name)
}

func (f *writeCountingFs) Rename(oldname, newname string) error {
	f.writes++
	return f.Fs.Rename(oldname, newname)
}

func releaseFile(version, sep, name string) string {
	return releaseURL(testHost, testProject, version, sep, name)
}
