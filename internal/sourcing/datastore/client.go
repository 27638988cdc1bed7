package datastore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// Notion API defaults.
const (
	DefaultBaseURL     = "https://api.notion.com/v1"
	DefaultVersion     = "2022-06-28"
	DefaultMinInterval = 350 * time.Millisecond
	DefaultMaxRetries  = 3
	maxPageSize        = 100
)

// Client is an authenticated, rate-limited Notion REST API client.
// Requests are spaced at least MinInterval apart and retried with
// exponential backoff on 429 and 5xx responses.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	version     string
	limiter     *rate.Limiter
	maxRetries  uint
	backoffBase time.Duration
	logger      *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at a different API root (for testing).
func WithBaseURL(u string) ClientOption { return func(c *Client) { c.baseURL = u } }

// WithVersion sets the Notion-Version header.
func WithVersion(v string) ClientOption { return func(c *Client) { c.version = v } }

// WithMinInterval sets the minimum spacing between requests. Zero disables
// rate limiting.
func WithMinInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		if d <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithMaxRetries sets how many times a failed request is retried.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		if n < 0 {
			n = 0
		}
		c.maxRetries = uint(n)
	}
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithBackoffBase sets the first retry delay.
func WithBackoffBase(d time.Duration) ClientOption {
	return func(c *Client) { c.backoffBase = d }
}

// WithClientLogger sets the logger for retry and rate-limit events.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a Notion client authenticating with token.
func NewClient(token string, opts ...ClientOption) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	hc := oauth2.NewClient(context.Background(), ts)
	hc.Timeout = 30 * time.Second

	c := &Client{
		httpClient:  hc,
		baseURL:     DefaultBaseURL,
		version:     DefaultVersion,
		limiter:     rate.NewLimiter(rate.Every(DefaultMinInterval), 1),
		maxRetries:  DefaultMaxRetries,
		backoffBase: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// statusError is a non-2xx API response.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("API returned %d: %s", e.status, e.body)
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// doJSON performs a request with an optional JSON body and returns the
// response bytes. Failures are returned as *SourceError.
func (c *Client) doJSON(ctx context.Context, method, path string, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, &SourceError{Source: "notion", Op: method + " " + path, Err: fmt.Errorf("marshaling request body: %w", err)}
		}
		payload = b
	}

	lastStatus := 0
	attempt := func() ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		req.Header.Set("Notion-Version", c.version)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			return nil, fmt.Errorf("executing request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}
		lastStatus = resp.StatusCode

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return respBody, nil
		}
		serr := &statusError{status: resp.StatusCode, body: string(respBody)}
		if !retryable(resp.StatusCode) {
			return nil, backoff.Permanent(serr)
		}
		if secs, ok := retryAfter(resp.Header); ok {
			c.logger.Warn("rate limited by API", "path", path, "retry_after_s", secs)
			return nil, backoff.RetryAfter(secs)
		}
		return nil, serr
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.backoffBase
	eb.MaxInterval = 30 * time.Second

	data, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(c.maxRetries+1),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Warn("retrying API request", "method", method, "path", path, "error", err, "backoff", next)
		}),
	)
	if err != nil {
		var ra *backoff.RetryAfterError
		if errors.As(err, &ra) {
			err = fmt.Errorf("rate limited, retry after %s", ra.Duration)
		}
		return nil, &SourceError{Source: "notion", Op: method + " " + path, Status: lastStatus, Err: err}
	}
	return data, nil
}

func retryAfter(h http.Header) (int, bool) {
	v := h.Get("Retry-After")
	if v == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0, false
	}
	return secs, true
}

// Page is one database row.
type Page struct {
	ID          string     `json:"id"`
	CreatedTime time.Time  `json:"created_time"`
	Properties  Properties `json:"properties"`
}

type queryRequest struct {
	Filter      any    `json:"filter,omitempty"`
	StartCursor string `json:"start_cursor,omitempty"`
	PageSize    int    `json:"page_size"`
}

type queryResponse struct {
	Results    []Page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

// QueryDatabase returns every page of a database matching filter,
// following pagination cursors.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, filter any) ([]Page, error) {
	path := "/databases/" + databaseID + "/query"
	var pages []Page
	cursor := ""
	for {
		data, err := c.doJSON(ctx, http.MethodPost, path, queryRequest{
			Filter:      filter,
			StartCursor: cursor,
			PageSize:    maxPageSize,
		})
		if err != nil {
			return nil, err
		}

		var resp queryResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, &SourceError{Source: "notion", Op: "POST " + path, Err: fmt.Errorf("parsing query response: %w", err)}
		}
		pages = append(pages, resp.Results...)

		if !resp.HasMore || resp.NextCursor == nil || *resp.NextCursor == "" {
			return pages, nil
		}
		cursor = *resp.NextCursor
	}
}

// GetPage retrieves a single page.
func (c *Client) GetPage(ctx context.Context, pageID string) (*Page, error) {
	data, err := c.doJSON(ctx, http.MethodGet, "/pages/"+pageID, nil)
	if err != nil {
		return nil, err
	}
	var p Page
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, &SourceError{Source: "notion", Op: "GET /pages/" + pageID, Err: fmt.Errorf("parsing page: %w", err)}
	}
	return &p, nil
}
