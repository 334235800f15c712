// Package searchapi is the client side of the search endpoint:
// GET <endpoint>?query=<q>&limit=<n>&page=<p> answered with a JSON result page.
package searchapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"typeahead/internal/domain"
)

const (
	// maxBodySize bounds how much of a response is read
	maxBodySize = 1 << 20

	defaultTimeout   = 5 * time.Second
	defaultUserAgent = "typeahead/1.0"
)

// Request describes one page of results for a query
type Request struct {
	Query string
	Limit int
	Page  int
}

// Fetcher performs a single fetch attempt. Retrying is the caller's business.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (domain.ResultPage, error)
}

// FetcherFunc adapts a function to Fetcher
type FetcherFunc func(ctx context.Context, req Request) (domain.ResultPage, error)

// Fetch calls f
func (f FetcherFunc) Fetch(ctx context.Context, req Request) (domain.ResultPage, error) {
	return f(ctx, req)
}

// Options configures a Client
type Options struct {
	Timeout    time.Duration // per attempt
	RateLimit  float64       // requests per second, 0 = unlimited
	UserAgent  string
	HTTPClient *http.Client
}

// Client talks to the search endpoint over HTTP
type Client struct {
	endpoint  *url.URL
	client    *http.Client
	limiter   *rate.Limiter
	timeout   time.Duration
	userAgent string
}

// NewClient creates a client for apiURL
func NewClient(apiURL string, opts Options) (*Client, error) {
	endpoint, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse api url: %w", err)
	}
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return nil, fmt.Errorf("unsupported api url scheme %q", endpoint.Scheme)
	}

	c := &Client{
		endpoint:  endpoint,
		client:    opts.HTTPClient,
		limiter:   rate.NewLimiter(rate.Inf, 1),
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
	}
	if c.client == nil {
		c.client = &http.Client{}
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}
	if opts.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return c, nil
}

// Endpoint returns the configured endpoint
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// Fetch performs one GET against the endpoint, bounded by the client timeout
func (c *Client) Fetch(ctx context.Context, req Request) (domain.ResultPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.ResultPage{}, fmt.Errorf("rate limiter: %w", err)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, c.buildURL(req), nil)
	if err != nil {
		return domain.ResultPage{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return domain.ResultPage{}, c.classify(ctx, attemptCtx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return domain.ResultPage{}, c.classify(ctx, attemptCtx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.ResultPage{}, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}
	if len(body) > maxBodySize {
		return domain.ResultPage{}, fmt.Errorf("%w: body exceeds %d bytes", ErrMalformedResponse, maxBodySize)
	}

	return decodePage(body, req.Limit)
}

func (c *Client) buildURL(req Request) string {
	u := *c.endpoint
	q := u.Query()
	q.Set("query", req.Query)
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

// classify separates caller cancellation from attempt timeouts and
// transport failures
func (c *Client) classify(parent, attempt context.Context, err error) error {
	if parent.Err() != nil {
		return fmt.Errorf("search request cancelled: %w", parent.Err())
	}
	if errors.Is(attempt.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeout, c.timeout)
	}
	return &TransportError{Err: err}
}

type wirePage struct {
	Results []domain.SearchResult `json:"results"`
	Total   *int                  `json:"total"`
	Page    *int                  `json:"page"`
}

func decodePage(body []byte, limit int) (domain.ResultPage, error) {
	var wp wirePage
	if err := json.Unmarshal(body, &wp); err != nil {
		return domain.ResultPage{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if wp.Total == nil || *wp.Total < 0 {
		return domain.ResultPage{}, fmt.Errorf("%w: missing or negative total", ErrMalformedResponse)
	}
	if wp.Page == nil || *wp.Page < 1 {
		return domain.ResultPage{}, fmt.Errorf("%w: missing or invalid page", ErrMalformedResponse)
	}

	seen := make(map[string]struct{}, len(wp.Results))
	for i, r := range wp.Results {
		if r.ID == "" || r.Title == "" {
			return domain.ResultPage{}, fmt.Errorf("%w: result %d lacks id or title", ErrMalformedResponse, i)
		}
		if _, dup := seen[r.ID]; dup {
			return domain.ResultPage{}, fmt.Errorf("%w: duplicate result id %q", ErrMalformedResponse, r.ID)
		}
		seen[r.ID] = struct{}{}
	}

	results := wp.Results
	if results == nil {
		results = []domain.SearchResult{}
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return domain.ResultPage{Results: results, Total: *wp.Total, Page: *wp.Page}, nil
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
