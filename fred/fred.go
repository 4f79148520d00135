// Package fred fetches economic series from the Federal Reserve Bank of St. Louis.
package fred

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/etnz/valuation"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the FRED API root.
const DefaultBaseURL = "https://api.stlouisfed.org/fred"

// Client is a FRED API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) Option { return func(c *Client) { c.baseURL = baseURL } }

// WithLogger sets a logger.
func WithLogger(l arbor.ILogger) Option { return func(c *Client) { c.logger = l } }

// WithCache caches successful responses on disk for the period.
func WithCache(period valuation.Period) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{
			Timeout:   c.httpClient.Timeout,
			Transport: &valuation.DiskCache{Base: c.httpClient.Transport, Period: period, Logger: c.logger},
		}
	}
}

// NewClient returns a FRED client, FRED allows 120 requests per minute.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     arbor.NewLogger(),
		limiter:    rate.NewLimiter(rate.Every(time.Minute/120), 2),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type observations struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// Series returns the observations of the series id between from and to.
// Missing observations, reported as ".", are NaN.
func (c *Client) Series(ctx context.Context, id string, from, to valuation.Date) (*valuation.Series, error) {
	fail := func(err error) error {
		return &valuation.FetchError{Source: "fred", Op: "series", Key: id, Err: err}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fail(err)
	}
	params := url.Values{}
	params.Set("series_id", id)
	params.Set("api_key", c.apiKey)
	params.Set("file_type", "json")
	if !from.IsZero() {
		params.Set("observation_start", from.String())
	}
	if !to.IsZero() {
		params.Set("observation_end", to.String())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/series/observations?"+params.Encode(), nil)
	if err != nil {
		return nil, fail(fmt.Errorf("failed to create request: %w", err))
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fail(fmt.Errorf("failed to execute request: %w", err))
	}
	defer resp.Body.Close()

	var content observations
	if err := json.NewDecoder(resp.Body).Decode(&content); err != nil {
		return nil, fail(fmt.Errorf("status %s: failed to decode response: %w", resp.Status, err))
	}
	if resp.StatusCode != http.StatusOK || content.ErrorCode != 0 {
		return nil, fail(fmt.Errorf("status %s: %s", resp.Status, content.ErrorMessage))
	}

	records := make([]valuation.Record, 0, len(content.Observations))
	for _, o := range content.Observations {
		records = append(records, valuation.Record{Date: o.Date, Value: o.Value})
	}
	s, err := valuation.Normalize(id, records, valuation.NormalizeOptions{})
	if err != nil {
		return nil, fail(err)
	}
	c.logger.Debug().Str("series", id).Int("observations", s.Len()).Msg("FRED series fetched")
	return s, nil
}
