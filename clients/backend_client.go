package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// UpstreamError is a non-2xx answer from the commerce backend.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error: status=%d body=%s", e.StatusCode, e.Body)
}

// Retryable reports whether the error is a transient server-side condition.
// Client errors (4xx) are never retried.
func (e *UpstreamError) Retryable() bool {
	return e.StatusCode >= 500
}

// RetryConfig controls the retry/backoff policy for read paths.
// AttemptTimeout applies independently to each attempt; the backend's hosting
// tier suspends when idle and a cold start can take tens of seconds.
type RetryConfig struct {
	MaxRetries     int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	AttemptTimeout time.Duration
}

// DefaultRetryConfig is the documented policy: 3 retries, exponential
// backoff from 1s capped at 8s, 45s per attempt.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		BaseDelay:      time.Second,
		MaxDelay:       8 * time.Second,
		AttemptTimeout: 45 * time.Second,
	}
}

// BackendClient wraps outbound calls to the commerce backend with per-attempt
// timeouts, retries with capped exponential backoff, pre-warming, and a
// critical keep-alive for latency-sensitive flows.
type BackendClient struct {
	baseURL string
	client  *http.Client
	retry   RetryConfig
	logger  *zap.Logger
}

func NewBackendClient(baseURL string, retry RetryConfig, logger *zap.Logger) *BackendClient {
	return &BackendClient{
		baseURL: baseURL,
		client:  &http.Client{},
		retry:   retry,
		logger:  logger,
	}
}

// Get performs a read with the retry policy. Reads are idempotent, so
// transient failures (timeout, 5xx, network error) are retried.
func (c *BackendClient) Get(ctx context.Context, path string, out interface{}) error {
	var lastErr error
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoffDelay(attempt)
			c.logger.Warn("Retrying backend call",
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		resp, err := c.do(ctx, http.MethodGet, path, nil)
		if err == nil {
			err = decodeJSON(resp, out)
		}
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// Post performs a write with a single attempt. Order creation and other
// writes are not idempotent; failure is surfaced so the caller decides
// whether to retry.
func (c *BackendClient) Post(ctx context.Context, path string, body, out interface{}) error {
	resp, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out)
}

// Put performs a write with a single attempt.
func (c *BackendClient) Put(ctx context.Context, path string, body, out interface{}) error {
	resp, err := c.do(ctx, http.MethodPut, path, body)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out)
}

// PreWarm fires a lightweight request and discards the result. It absorbs
// the backend's cold-start latency outside the user-visible critical path.
func (c *BackendClient) PreWarm(ctx context.Context) {
	resp, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		c.logger.Debug("Pre-warm request failed", zap.Error(err))
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func (c *BackendClient) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.retry.AttemptTimeout)
	req, err := http.NewRequestWithContext(attemptCtx, method, c.baseURL+path, reader)
	if err != nil {
		cancel()
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	// The cancel is tied to the body: callers must drain or close it.
	resp.Body = &cancelReadCloser{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

func (c *BackendClient) backoffDelay(attempt int) time.Duration {
	delay := c.retry.BaseDelay << (attempt - 1)
	if delay > c.retry.MaxDelay {
		delay = c.retry.MaxDelay
	}
	return delay
}

type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

func decodeJSON(resp *http.Response, out interface{}) error {
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func retryable(err error) bool {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Retryable()
	}
	// Timeouts and network errors are transient.
	return !errors.Is(err, context.Canceled)
}

// KeepAlive issues periodic no-op pings so the backend does not idle out in
// the middle of a sensitive flow. It is scoped to one checkout session and
// must be stopped on flow exit.
type KeepAlive struct {
	client   *BackendClient
	interval time.Duration
	stop     chan struct{}
	once     sync.Once
}

func (c *BackendClient) NewKeepAlive(interval time.Duration) *KeepAlive {
	return &KeepAlive{
		client:   c,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (k *KeepAlive) Start() {
	go func() {
		ticker := time.NewTicker(k.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), k.client.retry.AttemptTimeout)
				k.client.PreWarm(ctx)
				cancel()
			case <-k.stop:
				return
			}
		}
	}()
}

// Stop cancels the periodic pings. Safe to call more than once.
func (k *KeepAlive) Stop() {
	k.once.Do(func() { close(k.stop) })
}
