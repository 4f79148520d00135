// Package eodhd fetches company fundamentals and market prices from EOD Historical Data.
package eodhd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/etnz/valuation"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the base URL for the EODHD API.
	DefaultBaseURL = "https://eodhd.com/api"

	// DefaultTimeout is the default HTTP timeout. Bulk fundamentals are slow.
	DefaultTimeout = 300 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 10
)

// APIError is a non 200 response of the API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("eodhd %s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// Client is an EODHD API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithInterval paces requests with a fixed delay between them.
func WithInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithCache caches successful responses on disk for the period.
func WithCache(period valuation.Period) ClientOption {
	return func(c *Client) {
		base := c.httpClient.Transport
		c.httpClient = &http.Client{
			Timeout:   c.httpClient.Timeout,
			Transport: &valuation.DiskCache{Base: base, Period: period, Logger: c.logger},
		}
	}
}

// NewClient creates a new EODHD API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger:  arbor.NewLogger(),
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs a GET request to the API and decodes the JSON response into result.
// Every failure is reported as a *valuation.FetchError.
func (c *Client) get(ctx context.Context, op, key, path string, params url.Values, result any) error {
	fail := func(err error) error {
		return &valuation.FetchError{Source: "eodhd", Op: op, Key: key, Err: err}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fail(err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fail(fmt.Errorf("failed to create request: %w", err))
	}
	c.logger.Debug().Str("path", path).Str("filter", params.Get("filter")).Msg("EODHD API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(fmt.Errorf("failed to execute request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fail(&APIError{StatusCode: resp.StatusCode, Message: string(body), Endpoint: path})
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(result); err != nil {
		return fail(fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

// IsNotFound reports whether err is a 404 response of the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
