package update

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultMaxBodySize caps a single response held in memory.
	DefaultMaxBodySize = 64 << 20
	defaultRetryDelay  = 500 * time.Millisecond
	maxRetryDelay      = 10 * time.Second
)

// HTTPDownloader is the net/http implementation of HTTPClient. Transport
// faults are retried with exponential backoff; any HTTP status, including
// errors, is returned to the caller as is.
type HTTPDownloader struct {
	client     *http.Client
	userAgent  string
	retries    uint64
	retryDelay time.Duration
	maxBody    int64
}

// NewHTTPDownloader creates a downloader that does not retry.
func NewHTTPDownloader() *HTTPDownloader {
	return &HTTPDownloader{
		client:     &http.Client{},
		userAgent:  "ota/dev (" + Detect().String() + ")",
		retryDelay: defaultRetryDelay,
		maxBody:    DefaultMaxBodySize,
	}
}

// WithRetries sets how many times a request is repeated after a transport fault.
func (d *HTTPDownloader) WithRetries(n int) *HTTPDownloader {
	if n > 0 {
		d.retries = uint64(n)
	}
	return d
}

// WithUserAgent sets the User-Agent sent with every request.
func (d *HTTPDownloader) WithUserAgent(version string) *HTTPDownloader {
	d.userAgent = fmt.Sprintf("ota/%s (%s)", version, Detect())
	return d
}

// Get implements HTTPClient.
func (d *HTTPDownloader) Get(ctx context.Context, url string, headers map[string]string, timeout time.Duration) (*Response, error) {
	var resp *Response
	operation := func() error {
		r, err := d.getOnce(ctx, url, headers, timeout)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		resp = r
		return nil
	}

	notify := func(err error, next time.Duration) {
		log.Warnf("GET %s failed, retrying in %v: %v", url, next.Round(time.Millisecond), err)
	}

	if err := backoff.RetryNotify(operation, d.backOff(ctx), notify); err != nil {
		return nil, err
	}
	return resp, nil
}

func (d *HTTPDownloader) backOff(ctx context.Context) backoff.BackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     d.retryDelay,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         maxRetryDelay,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, d.retries), ctx)
}

func (d *HTTPDownloader) getOnce(ctx context.Context, url string, headers map[string]string, timeout time.Duration) (*Response, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform HTTP request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Warnf("error closing response body: %v", cerr)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > d.maxBody {
		return nil, backoff.Permanent(fmt.Errorf("response from %s exceeds %d bytes", url, d.maxBody))
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}
