// Package ee adapts the pipeline's Provider contract to the Google Earth
// Engine REST API. All outbound calls go through one resilient client:
// circuit breaking, bounded retry with jittered exponential backoff, and
// mapping of transport failures onto the application error taxonomy.
package ee

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"terralens/models"
)

// oauthClient wraps the credentials token source in an http.Client that
// refreshes tokens transparently.
func oauthClient(ctx context.Context, creds *google.Credentials) *http.Client {
	return oauth2.NewClient(ctx, creds.TokenSource)
}

const scopeEarthEngine = "https://www.googleapis.com/auth/earthengine"

// RetryPolicy bounds the retry loop around provider calls.
type RetryPolicy struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// DefaultRetryPolicy suits a slow, occasionally rate-limited imagery backend.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, MinWait: 500 * time.Millisecond, MaxWait: 8 * time.Second}
}

// Config carries the startup settings for the adapter. Project identity is
// injected here, never read from process-wide state.
type Config struct {
	Project         string
	CredentialsFile string
	BaseURL         string
	CallTimeout     time.Duration
}

// Client talks to the Earth Engine v1 REST surface.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	retry   RetryPolicy
	logger  *slog.Logger
	sleep   func(time.Duration)
}

// NewClient builds the adapter, authenticating with the service-account
// credentials file.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Project == "" {
		return nil, fmt.Errorf("ee: project id is required")
	}
	data, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("ee: read credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, scopeEarthEngine)
	if err != nil {
		return nil, fmt.Errorf("ee: parse credentials: %w", err)
	}

	httpClient := oauthClient(ctx, creds)
	httpClient.Timeout = cfg.CallTimeout

	return newClientWith(cfg, httpClient, logger), nil
}

func newClientWith(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://earthengine.googleapis.com"
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 25 * time.Second
	}
	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "earthengine",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})
	return &Client{
		cfg:     cfg,
		http:    httpClient,
		breaker: breaker,
		retry:   DefaultRetryPolicy(),
		logger:  logger,
		sleep:   time.Sleep,
	}
}

func (c *Client) Name() string { return "earthengine" }

// post sends one JSON request with retry and breaker protection and decodes
// the 2xx response body into out.
func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return models.E(models.CodeInternal, "encode provider request", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	var resp *http.Response
	var lastErr error
	maxAttempts := 1 + c.retry.MaxRetries
	for attempt := 0; attempt < maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return models.E(models.CodeInternal, "build provider request", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, lastErr = c.breaker.Execute(func() (*http.Response, error) {
			r, doErr := c.http.Do(req)
			if doErr != nil {
				return nil, doErr
			}
			// Retryable statuses count as breaker failures.
			if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
				return r, fmt.Errorf("earthengine returned %d", r.StatusCode)
			}
			return r, nil
		})
		if lastErr == nil {
			break
		}
		if resp != nil {
			resp.Body.Close()
			resp = nil
		}
		if errors.Is(lastErr, gobreaker.ErrOpenState) || errors.Is(lastErr, gobreaker.ErrTooManyRequests) {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if attempt < maxAttempts-1 {
			wait := c.backoff(attempt)
			c.logger.Warn("provider call failed, retrying", "path", path, "attempt", attempt+1, "wait", wait, "error", lastErr)
			c.sleep(wait)
		}
	}

	if lastErr != nil {
		return c.mapError(ctx, lastErr)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.E(models.CodeProviderUnavailable, "read provider response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.E(models.CodeProviderUnavailable,
			fmt.Sprintf("earthengine %s: %s", resp.Status, truncate(raw, 200)), nil)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return models.E(models.CodeProviderUnavailable, "decode provider response", err)
	}
	return nil
}

// backoff is exponential with full jitter in [MinWait, MinWait*2^attempt],
// clamped to MaxWait.
func (c *Client) backoff(attempt int) time.Duration {
	base := float64(c.retry.MinWait) * math.Pow(2, float64(attempt))
	if base > float64(c.retry.MaxWait) {
		base = float64(c.retry.MaxWait)
	}
	minWait := float64(c.retry.MinWait)
	if base <= minWait {
		return c.retry.MinWait
	}
	return time.Duration(minWait + rand.Float64()*(base-minWait))
}

func (c *Client) mapError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return models.E(models.CodeProviderTimeout, "earth engine call timed out", err)
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		return models.E(models.CodeProviderUnavailable, "earth engine circuit open", err)
	default:
		return models.E(models.CodeProviderUnavailable, "earth engine unavailable", err)
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
