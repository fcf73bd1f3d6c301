// Package xtream talks to Xtream-Codes-style provider panels (player_api.php
// convention) and aggregates their heterogeneous listings into the normalized
// catalog shape.
package xtream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/time/rate"
)

const (
	maxRetries     = 3
	initialBackoff = 2 * time.Second
	maxBackoff     = 60 * time.Second

	// DefaultTimeout bounds each provider call. Panels in this domain are
	// frequently slow or unresponsive; nothing upstream enforces a deadline.
	DefaultTimeout = 15 * time.Second
)

// Outage taxonomy. Listing operations degrade to empty results instead of
// returning these; they surface only from credential checks and Diagnose.
var (
	ErrNotConfigured       = errors.New("provider not configured")
	ErrAccountDisabled     = errors.New("provider account disabled")
	ErrAccountExpired      = errors.New("provider account expired")
	ErrProviderUnreachable = errors.New("provider server unreachable")
)

// Credentials identify one provider account. Immutable once resolved from
// configuration; Normalize before composing any request.
type Credentials struct {
	BaseURL  string `json:"url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Normalize trims whitespace and the trailing slash off BaseURL.
func (c Credentials) Normalize() Credentials {
	c.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.BaseURL), "/")
	c.Username = strings.TrimSpace(c.Username)
	c.Password = strings.TrimSpace(c.Password)
	return c
}

// Complete reports whether all three fields are present. Operations
// short-circuit with ErrNotConfigured when they are not.
func (c Credentials) Complete() bool {
	return c.BaseURL != "" && c.Username != "" && c.Password != ""
}

// apiBase returns the player_api.php URL with auth query (credentials are
// query-escaped to prevent injection from special chars).
func (c Credentials) apiBase() string {
	return c.BaseURL + "/player_api.php?username=" + url.QueryEscape(c.Username) +
		"&password=" + url.QueryEscape(c.Password)
}

// Client is the provider HTTP client shared by all catalog operations.
// The limiter paces catalog calls so panels that rate-limit aggressively
// don't start returning 429s mid-aggregation.
type Client struct {
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	UserAgent  string
}

// NewClient returns a client with the default timeout and pacing.
func NewClient() *Client {
	return NewClientWithTimeout(DefaultTimeout)
}

// NewClientWithTimeout returns a client with the given per-request timeout.
func NewClientWithTimeout(timeout time.Duration) *Client {
	return &Client{
		HTTPClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 16,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		Limiter:   rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
		UserAgent: "Showgate/1.0",
	}
}

// retryableStatus returns true for 429, 423, 408, 5xx where we may retry after backoff.
func retryableStatus(code int) bool {
	if code == 429 || code == 423 || code == 408 {
		return true
	}
	return code >= 500 && code < 600
}

// parseRetryAfter parses Retry-After (seconds or HTTP-date); returns 0 if missing or invalid.
func parseRetryAfter(resp *http.Response) time.Duration {
	s := resp.Header.Get("Retry-After")
	if s == "" {
		return 0
	}
	if sec, err := strconv.Atoi(s); err == nil && sec > 0 {
		d := time.Duration(sec) * time.Second
		if d > maxBackoff {
			return maxBackoff
		}
		return d
	}
	if t, err := http.ParseTime(s); err == nil {
		d := time.Until(t)
		if d < 0 {
			return initialBackoff
		}
		if d > maxBackoff {
			return maxBackoff
		}
		return d
	}
	return 0
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// apiGet performs GET with retries on 429/423/408/5xx. Respects Retry-After;
// uses exponential backoff otherwise. Used only for catalog calls; the byte
// relay does not retry so streams are never interrupted by backoff waits.
func (c *Client) apiGet(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	backoff := initialBackoff
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", c.UserAgent)
		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			lastErr = err
			if attempt < maxRetries {
				if err := sleep(ctx, backoff); err != nil {
					return nil, err
				}
				if backoff < maxBackoff {
					backoff *= 2
				}
			}
			continue
		}
		body, readErr := readBody(resp)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			if attempt < maxRetries {
				if err := sleep(ctx, backoff); err != nil {
					return nil, err
				}
				if backoff < maxBackoff {
					backoff *= 2
				}
			}
			continue
		}
		if resp.StatusCode == http.StatusOK {
			return body, nil
		}
		lastErr = fmt.Errorf("%s", resp.Status)
		if !retryableStatus(resp.StatusCode) || attempt == maxRetries {
			return nil, fmt.Errorf("get %s: %w", rawURL, lastErr)
		}
		wait := parseRetryAfter(resp)
		if wait == 0 {
			wait = backoff
			if backoff < maxBackoff {
				backoff *= 2
			}
		}
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("get %s: %w", rawURL, lastErr)
}

// readBody drains the response, decoding brotli when the panel (usually a CF
// front) serves Content-Encoding: br unasked. gzip is handled by net/http.
func readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "br") {
		r = brotli.NewReader(resp.Body)
	}
	return io.ReadAll(r)
}
