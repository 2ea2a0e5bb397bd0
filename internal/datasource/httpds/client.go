// Package httpds reads CSV input over HTTP(S). GET requests are retried with
// exponential backoff on transport errors, 429 and 5xx responses.
package httpds

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"
)

// Config configures the client. Zero values get defaults: Timeout 5m,
// InitialBackoff 200ms, MaxBackoff 5s.
type Config struct {
	Timeout time.Duration

	// MaxRetries is the number of attempts after the first. 0 disables retry.
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	InsecureSkipVerify bool

	// Headers are sent with every request, e.g. Authorization.
	Headers http.Header

	// Transport replaces the default transport; InsecureSkipVerify is then
	// ignored.
	Transport http.RoundTripper
}

// Client issues GET requests with retry.
type Client struct {
	httpClient     *http.Client
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	headers        http.Header

	// wait is swapped in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// StatusError is a final non-2xx response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httpds: GET %s: status %d", e.URL, e.Code)
}

// Is maps 404 and 410 to fs.ErrNotExist so callers classify a missing remote
// file the same way as a missing local one.
func (e *StatusError) Is(target error) bool {
	return target == fs.ErrNotExist && (e.Code == http.StatusNotFound || e.Code == http.StatusGone)
}

// NewClient builds a Client from cfg.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}

	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // explicitly configurable
			},
		}
	}

	return &Client{
		httpClient:     &http.Client{Timeout: cfg.Timeout, Transport: transport},
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		headers:        cfg.Headers.Clone(),
		wait:           sleepWithContext,
	}
}

// Get fetches url. A returned response always has a 2xx status and the caller
// must close its body. A final non-2xx status is a *StatusError.
func (c *Client) Get(ctx context.Context, url string, headers http.Header) (*http.Response, error) {
	if url == "" {
		return nil, errors.New("httpds: url must not be empty")
	}

	attempts := c.maxRetries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("httpds: build request: %w", err)
		}
		for k, vs := range c.headers {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		for k, vs := range headers {
			for _, v := range vs {
				req.Header.Set(k, v)
			}
		}

		resp, err := c.httpClient.Do(req)
		switch {
		case err != nil:
			lastErr = err
		case resp.StatusCode >= 200 && resp.StatusCode <= 299:
			return resp, nil
		case isRetryableStatus(resp.StatusCode):
			_ = resp.Body.Close()
			lastErr = &StatusError{URL: url, Code: resp.StatusCode}
		default:
			_ = resp.Body.Close()
			return nil, &StatusError{URL: url, Code: resp.StatusCode}
		}

		if attempt+1 >= attempts {
			break
		}
		if err := c.wait(ctx, backoffDuration(c.initialBackoff, attempt, c.maxBackoff)); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// isRetryableStatus reports whether code is transient: 429 or 5xx.
func isRetryableStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// backoffDuration returns initial * 2^attempt, clamped to limit.
func backoffDuration(initial time.Duration, attempt int, limit time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := initial << attempt
	if d > limit || d <= 0 {
		return limit
	}
	return d
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
