// Package httpds reads a crash dataset over HTTP(S). Inputs configured with
// an http:// or https:// location are fetched with a GET; the response body
// is streamed straight into the loader.
//
// Config.Timeout bounds each attempt up to the response headers only. Once
// the body starts flowing it is read for as long as the loader needs.
//
// MaxRetries is the retry budget; zero disables retries and callers without
// a setting of their own use DefaultMaxRetries. Transport errors, header
// timeouts, 429 and 5xx responses are retried with exponential backoff that
// honors context cancellation.
package httpds

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultMaxRetries is the retry budget used when none is configured.
const DefaultMaxRetries = 2

// Config configures the HTTP source.
//
// Zero values are given defaults:
//   - Timeout:        60s (connect and response headers)
//   - InitialBackoff: 200ms
//   - MaxBackoff:     5s
type Config struct {
	Timeout            time.Duration
	MaxRetries         int
	InitialBackoff     time.Duration
	MaxBackoff         time.Duration
	InsecureSkipVerify bool
	Headers            http.Header

	// Transport replaces the default *http.Transport, mainly for tests.
	Transport http.RoundTripper
}

// Remote is a datasource.Source backed by a URL.
type Remote struct {
	url            string
	httpClient     *http.Client
	headerTimeout  time.Duration
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	headers        http.Header

	// sleep is injectable to make tests fast and deterministic.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRemote returns a source for url.
func NewRemote(url string, cfg Config) *Remote {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
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
	return &Remote{
		url:            url,
		httpClient:     &http.Client{Transport: transport},
		headerTimeout:  cfg.Timeout,
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		headers:        cfg.Headers.Clone(),
		sleep:          sleepContext,
	}
}

func (r *Remote) Name() string { return r.url }

// Open issues the GET and returns the response body. Non-2xx responses that
// are not retried are errors.
func (r *Remote) Open(ctx context.Context) (io.ReadCloser, error) {
	attempts := r.maxRetries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// The attempt context outlives Do so the body keeps streaming; the
		// timer only cancels it while headers are still pending.
		actx, cancel := context.WithCancel(ctx)
		req, err := http.NewRequestWithContext(actx, http.MethodGet, r.url, nil)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("httpds: build request: %w", err)
		}
		for k, vs := range r.headers {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		timer := time.AfterFunc(r.headerTimeout, cancel)
		resp, err := r.httpClient.Do(req)
		timedOut := !timer.Stop()
		switch {
		case timedOut && ctx.Err() == nil:
			if err == nil {
				_ = resp.Body.Close()
			}
			cancel()
			lastErr = fmt.Errorf("httpds: get %s: no response headers within %s", r.url, r.headerTimeout)
		case err != nil:
			cancel()
			lastErr = fmt.Errorf("httpds: get %s: %w", r.url, err)
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return &body{ReadCloser: resp.Body, cancel: cancel}, nil
		case isRetryableStatus(resp.StatusCode):
			_ = resp.Body.Close()
			cancel()
			lastErr = fmt.Errorf("httpds: get %s: retryable status %d", r.url, resp.StatusCode)
		default:
			_ = resp.Body.Close()
			cancel()
			return nil, fmt.Errorf("httpds: get %s: status %d", r.url, resp.StatusCode)
		}

		if attempt+1 >= attempts {
			break
		}
		if err := r.sleep(ctx, backoffDuration(r.initialBackoff, attempt, r.maxBackoff)); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// body releases the attempt context when the loader is done reading.
type body struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *body) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// isRetryableStatus treats 429 and 5xx as transient.
func isRetryableStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// backoffDuration returns initial * 2^attempt clamped to max.
func backoffDuration(initial time.Duration, attempt int, max time.Duration) time.Duration {
	if attempt <= 0 {
		return min(initial, max)
	}
	d := initial << attempt
	if d <= 0 || d > max {
		return max
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
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
