// Package scrape fetches public benchmark listings, parses component
// names and scores out of the HTML, and feeds them into the catalog.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultUserAgent    = "rigmatch/1.0 (benchmark catalog sync)"
	defaultFetchTimeout = 30 * time.Second

	maxFetchAttempts = 3
	initialBackoff   = 2 * time.Second
	backoffFactor    = 2

	// Response bodies beyond this are cut off; listing pages run a few MB.
	maxBodyBytes = 16 << 20
)

// Client fetches pages politely: one shared rate limit across all
// requests plus retry with exponential backoff on transient failures.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient creates a Client limited to requestsPerSecond across all
// fetches. A non-positive rate defaults to one request per two seconds.
func NewClient(requestsPerSecond float64, logger *zap.Logger) *Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 0.5
	}
	return &Client{
		http:    &http.Client{Timeout: defaultFetchTimeout},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		logger:  logger,
	}
}

// Fetch downloads a URL, waiting for the rate limiter first and retrying
// transient failures with exponential backoff.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	backoff := initialBackoff
	var lastErr error

	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, err := c.fetchOnce(ctx, url)
		if err == nil {
			if attempt > 1 {
				c.logger.Info("fetch succeeded after retry",
					zap.String("url", url), zap.Int("attempt", attempt))
			}
			return body, nil
		}
		lastErr = err
		c.logger.Warn("fetch attempt failed",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxFetchAttempts),
			zap.Error(err))

		if attempt < maxFetchAttempts {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= backoffFactor
		}
	}
	return nil, fmt.Errorf("fetch %s: %w", url, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}
