package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/gem/pkg/logger"
)

// maxBodyBytes caps a response body; a full daily history is a few MB
const maxBodyBytes = 32 << 20

// secretParams are masked before a URL is logged
var secretParams = []string{"apikey", "api_key", "token"}

// Client is an HTTP client wrapper with retry, throttling and logging
// ⭐ SSOT: 모든 HTTP 요청은 이 클라이언트를 통해서만 수행
type Client struct {
	httpClient *http.Client
	logger     *logger.Logger
	limiter    *rate.Limiter

	maxRetries   int
	initialDelay time.Duration
	maxDelay     time.Duration
}

// StatusError reports a non-2xx response after retries
type StatusError struct {
	StatusCode int
	Body       string // first bytes of the body
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// New creates a client with the given timeout, three retries and no throttling
// ⭐ SSOT: http.Client 인스턴스는 여기서만 생성
func New(log *logger.Logger, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		logger:       log.Component("http"),
		maxRetries:   3,
		initialDelay: time.Second,
		maxDelay:     10 * time.Second,
	}
}

// WithRetry sets the retry count (0 disables retries) and the first backoff delay
func (c *Client) WithRetry(maxRetries int, initialDelay time.Duration) *Client {
	if maxRetries < 0 {
		maxRetries = 0
	}
	c.maxRetries = maxRetries
	c.initialDelay = initialDelay
	return c
}

// WithRateLimit throttles requests to perMinute, bursting at most burst
func (c *Client) WithRateLimit(perMinute, burst int) *Client {
	if perMinute <= 0 {
		c.limiter = nil
		return c
	}
	if burst <= 0 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)
	return c
}

// GetBytes performs a GET and returns the body of a 2xx response.
// Other statuses are returned as *StatusError.
func (c *Client) GetBytes(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	start := time.Now()
	log := c.logger.WithField("url", Redact(req.URL))

	resp, err := c.doWithRetry(req)
	if err != nil {
		log.WithError(err).WithField("duration", time.Since(start)).Error("HTTP request failed")
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"status":   resp.StatusCode,
		"bytes":    len(body),
		"duration": time.Since(start),
	}).Debug("HTTP request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := body
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}
	return body, nil
}

// send waits for the limiter, then issues one attempt
func (c *Client) send(req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	return c.httpClient.Do(req)
}

// doWithRetry retries transport errors, 5xx and 429 with exponential backoff.
// A Retry-After header on the response overrides the backoff delay.
func (c *Client) doWithRetry(req *http.Request) (*http.Response, error) {
	delay := c.initialDelay

	for attempt := 0; ; attempt++ {
		resp, err := c.send(req)
		if err == nil && !IsRetryableError(resp.StatusCode) {
			return resp, nil
		}
		if attempt == c.maxRetries || req.Context().Err() != nil {
			if err != nil && req.Context().Err() != nil {
				return nil, req.Context().Err()
			}
			return resp, err
		}

		wait := delay
		if resp != nil {
			if ra := retryAfter(resp); ra > 0 {
				wait = ra
			}
			resp.Body.Close()
		}

		c.logger.WithFields(map[string]interface{}{
			"attempt": attempt + 1,
			"delay":   wait,
			"url":     Redact(req.URL),
		}).Warn("Retrying HTTP request")

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(wait):
		}

		delay *= 2
		if delay > c.maxDelay {
			delay = c.maxDelay
		}
	}
}

// retryAfter reads a Retry-After header given in seconds
func retryAfter(resp *http.Response) time.Duration {
	secs, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// IsRetryableError checks if a status code should be retried
func IsRetryableError(statusCode int) bool {
	// 5xx and 429 Too Many Requests
	return statusCode >= 500 || statusCode == http.StatusTooManyRequests
}

// Redact returns u as a string with credential query parameters masked
func Redact(u *url.URL) string {
	q := u.Query()
	masked := false
	for _, p := range secretParams {
		if q.Has(p) {
			q.Set(p, "REDACTED")
			masked = true
		}
	}
	if !masked {
		return u.String()
	}
	clone := *u
	clone.RawQuery = q.Encode()
	return clone.String()
}
