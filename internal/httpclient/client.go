package httpclient

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"
)

// Config holds attempt and timeout configuration.
// MaxAttempts counts the first try; 1 disables retries. Timeout 0 means none.
type Config struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
	Timeout     time.Duration `yaml:"timeout"`
}

// DefaultConfig issues exactly one request per call with no client-side timeout.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 1,
		BaseDelay:   1 * time.Second,
		MaxDelay:    10 * time.Second,
	}
}

// Client wraps http.Client with optional bounded retries.
type Client struct {
	http   *http.Client
	config Config
	logger *slog.Logger
}

// New creates a new Client with a default http.Client.
func New(cfg Config, logger *slog.Logger) *Client {
	return NewWithHTTPClient(cfg, &http.Client{Timeout: cfg.Timeout}, logger)
}

// NewWithHTTPClient creates a Client around a caller-supplied http.Client
// (e.g. one with an instrumented transport).
func NewWithHTTPClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		http:   httpClient,
		config: cfg,
		logger: logger,
	}
}

// Attempts returns the configured number of attempts per request.
func (c *Client) Attempts() int { return c.config.MaxAttempts }

// Do executes an HTTP request. When more than one attempt is configured it
// retries on 429, 500, 502, 503, 504 and transient network errors.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.config.MaxAttempts == 1 {
		return c.http.Do(req)
	}

	var lastErr error
	var lastResp *http.Response

	for attempt := range c.config.MaxAttempts {
		if attempt > 0 {
			if err := c.waitBeforeRetry(req.Context(), attempt, lastResp, req.URL.Path); err != nil {
				return nil, err
			}
			if err := replayBody(req); err != nil {
				return nil, err
			}
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if req.Context().Err() != nil {
				return nil, req.Context().Err()
			}
			if !isIdempotent(req.Method) {
				return nil, err
			}
			lastErr = err
			lastResp = nil
			continue
		}

		if !shouldRetry(resp.StatusCode, req.Method) || attempt == c.config.MaxAttempts-1 {
			return resp, nil
		}

		lastErr = fmt.Errorf("HTTP %d from %s", resp.StatusCode, req.URL.Path)
		lastResp = resp
		_ = resp.Body.Close()
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", c.config.MaxAttempts, lastErr)
}

func (c *Client) waitBeforeRetry(ctx context.Context, attempt int, lastResp *http.Response, path string) error {
	delay := c.backoff(attempt)
	if d := retryAfterDelay(lastResp); d > delay {
		delay = d
	}
	if delay > c.config.MaxDelay {
		delay = c.config.MaxDelay
	}

	c.logger.Debug("retrying request",
		slog.Int("attempt", attempt+1),
		slog.String("delay", delay.String()),
		slog.String("path", path),
	)

	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func retryAfterDelay(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	ra := resp.Header.Get("Retry-After")
	if ra == "" {
		return 0
	}
	seconds, err := strconv.Atoi(ra)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func replayBody(req *http.Request) error {
	if req.GetBody == nil {
		return nil
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Errorf("failed to replay request body: %w", err)
	}
	req.Body = body
	return nil
}

// isIdempotent returns true for HTTP methods that are safe to retry.
func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return true
	}
	return false
}

// shouldRetry returns true for status codes that warrant a retry.
// Non-idempotent methods are only retried on 429.
func shouldRetry(statusCode int, method string) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	if !isIdempotent(method) {
		return false
	}
	switch statusCode {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// backoff calculates the delay for a given attempt with 20% jitter.
func (c *Client) backoff(attempt int) time.Duration {
	delay := float64(c.config.BaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(c.config.MaxDelay) {
		delay = float64(c.config.MaxDelay)
	}
	jitter := delay * 0.2 * rand.Float64() // #nosec G404
	return time.Duration(delay + jitter)
}
