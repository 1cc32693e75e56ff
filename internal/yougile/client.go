// Package yougile implements the client for the YouGile project-management
// API, the external source of employees, projects and tasks.
package yougile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/Jewsh1r/kanban-api/internal/httpclient"
)

const (
	// PageSize is the fixed page size for collection fetches
	PageSize = 1000

	// defaultMaxTries bounds retries for a single fetch
	defaultMaxTries = 3

	defaultInitialBackoff = 500 * time.Millisecond
)

// Client fetches paginated collections from the YouGile API.
type Client struct {
	http           httpclient.Client
	baseURL        string
	maxTries       uint
	initialBackoff time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(hc httpclient.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithMaxTries overrides the retry budget per fetch
func WithMaxTries(n uint) Option {
	return func(c *Client) {
		c.maxTries = n
	}
}

// WithInitialBackoff overrides the initial retry backoff interval
func WithInitialBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.initialBackoff = d
	}
}

// NewClient creates a YouGile API client. The apiKey is sent as a bearer
// token on every request; timeout applies per request.
func NewClient(baseURL, apiKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		http:           httpclient.NewDefaultClient(timeout, httpclient.WithAuthToken(apiKey)),
		baseURL:        trimTrailingSlash(baseURL),
		maxTries:       defaultMaxTries,
		initialBackoff: defaultInitialBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetEmployees fetches one page of users starting at offset.
func (c *Client) GetEmployees(ctx context.Context, offset int) ([]RawUser, error) {
	return fetchCollection[RawUser](ctx, c, "users", offset)
}

// GetProjects fetches one page of projects starting at offset.
func (c *Client) GetProjects(ctx context.Context, offset int) ([]RawProject, error) {
	return fetchCollection[RawProject](ctx, c, "projects", offset)
}

// GetTasks fetches one page of tasks starting at offset.
func (c *Client) GetTasks(ctx context.Context, offset int) ([]RawTask, error) {
	return fetchCollection[RawTask](ctx, c, "tasks", offset)
}

// fetchCollection issues one paginated GET against the given resource and
// decodes the {"content":[...]} envelope. Transport errors and retryable
// HTTP statuses are retried with exponential backoff up to the client's
// retry budget; other HTTP errors fail immediately.
func fetchCollection[T any](ctx context.Context, c *Client, resource string, offset int) ([]T, error) {
	url := fmt.Sprintf("%s/%s?limit=%d&offset=%d", c.baseURL, resource, PageSize, offset)

	operation := func() ([]byte, error) {
		body, err := c.http.Get(ctx, url)
		if err != nil {
			if !isRetryable(err) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return body, nil
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = c.initialBackoff

	body, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(c.maxTries),
	)
	if err != nil {
		return nil, fmt.Errorf("yougile: fetch %s: %w", resource, err)
	}

	var page collection[T]
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("yougile: decode %s response: %w", resource, err)
	}

	return page.Content, nil
}

// isRetryable reports whether a fetch error is worth retrying: transport
// failures, server errors and rate limiting. Client errors (bad key,
// missing resource) are permanent.
func isRetryable(err error) bool {
	var httpErr *httpclient.HTTPError
	if !errors.As(err, &httpErr) {
		return true
	}
	return httpErr.StatusCode >= http.StatusInternalServerError ||
		httpErr.StatusCode == http.StatusTooManyRequests
}

func trimTrailingSlash(s string) string {
	if len(s) > 0 && s[len(s)-1] == '/' {
		return s[:len(s)-1]
	}
	return s
}
