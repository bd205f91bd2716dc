// Package reputation implements review fetchers: an HTTP client for a remote
// reputation aggregator and a built-in simulated source.
package reputation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Strob0t/athena/internal/config"
	"github.com/Strob0t/athena/internal/domain/review"
	"github.com/Strob0t/athena/internal/port/reputation"
)

// LatestReviewPath is requested relative to the configured base URL.
const LatestReviewPath = "/reviews/latest"

// ErrUpstream is returned for non-2xx responses from the aggregator.
var ErrUpstream = errors.New("reputation upstream error")

// Client fetches the latest review over HTTP.
type Client struct {
	http *resty.Client
}

var _ reputation.Fetcher = (*Client)(nil)

// NewClient creates an HTTP fetcher for cfg.URL.
func NewClient(cfg config.Reputation) *Client {
	c := resty.New().
		SetBaseURL(cfg.URL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	if cfg.APIKey != "" {
		c.SetAuthToken(cfg.APIKey)
	}
	return &Client{http: c}
}

// FromConfig selects the HTTP client when a URL is configured, otherwise the
// simulated source.
func FromConfig(cfg config.Reputation) reputation.Fetcher {
	if cfg.URL == "" {
		return NewSimulated()
	}
	return NewClient(cfg)
}

// Fetch returns the newest review reported by the aggregator.
func (c *Client) Fetch(ctx context.Context) (review.Snapshot, error) {
	var snap review.Snapshot
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&snap).
		Get(LatestReviewPath)
	if err != nil {
		return review.Snapshot{}, fmt.Errorf("fetch latest review: %w", err)
	}
	if resp.IsError() {
		slog.WarnContext(ctx, "reputation source returned error",
			"status", resp.StatusCode(),
			"body_bytes", len(resp.Body()),
		)
		return review.Snapshot{}, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode())
	}
	return snap, nil
}
