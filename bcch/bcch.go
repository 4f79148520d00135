// Package bcch fetches macroeconomic series from the Banco Central de Chile statistics database.
package bcch

import (
	"context"
	"encoding/json"
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
	// DefaultBaseURL is the SieteRestWS endpoint.
	DefaultBaseURL = "https://si3.bcentral.cl/SieteRestWS/SieteRestWS.ashx"

	// DateLayout is the layout of observation dates, like "31-12-2024".
	DateLayout = "02-01-2006"

	defaultTimeout = 60 * time.Second
)

// Client is a BCCh statistics client authenticated by user and password.
type Client struct {
	baseURL    string
	user, pass string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) Option { return func(c *Client) { c.baseURL = baseURL } }

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.httpClient = h } }

// WithLogger sets a logger.
func WithLogger(l arbor.ILogger) Option { return func(c *Client) { c.logger = l } }

// WithCache caches successful responses on disk for the period.
// Answers carrying an error code are never cached.
func WithCache(period valuation.Period) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{
			Timeout: c.httpClient.Timeout,
			Transport: &valuation.DiskCache{
				Base: c.httpClient.Transport, Period: period, Logger: c.logger, Accept: succeeded,
			},
		}
	}
}

// succeeded reports whether body decodes to an answer without an error code.
func succeeded(body []byte) bool {
	var r Response
	return json.Unmarshal(body, &r) == nil && r.Codigo == 0
}

// NewClient returns a client for the given credentials.
func NewClient(user, pass string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		user:       user,
		pass:       pass,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     arbor.NewLogger(),
		limiter:    rate.NewLimiter(rate.Limit(5), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Observation is a single point of a series.
type Observation struct {
	IndexDateString string `json:"indexDateString"`
	Value           string `json:"value"`
	StatusCode      string `json:"statusCode"`
}

// Response is the envelope of every SieteRestWS answer.
type Response struct {
	Codigo      int    `json:"Codigo"`
	Descripcion string `json:"Descripcion"`
	Series      struct {
		DescripEsp string        `json:"descripEsp"`
		DescripIng string        `json:"descripIng"`
		SeriesID   string        `json:"seriesId"`
		Obs        []Observation `json:"Obs"`
	} `json:"Series"`
}

// Series returns the observations of the series code between from and to.
// Zero dates leave the range open. Non numeric observations are NaN.
func (c *Client) Series(ctx context.Context, code string, from, to valuation.Date) (*valuation.Series, error) {
	fail := func(err error) error {
		return &valuation.FetchError{Source: "bcch", Op: "series", Key: code, Err: err}
	}
	resp, err := c.getSeries(ctx, code, from, to)
	if err != nil {
		return nil, fail(err)
	}
	if resp.Codigo != 0 {
		return nil, fail(fmt.Errorf("code %d: %s", resp.Codigo, resp.Descripcion))
	}

	records := make([]valuation.Record, 0, len(resp.Series.Obs))
	for _, o := range resp.Series.Obs {
		records = append(records, valuation.Record{Date: o.IndexDateString, Value: o.Value})
	}
	name := resp.Series.DescripIng
	if name == "" {
		name = code
	}
	s, err := valuation.Normalize(name, records, valuation.NormalizeOptions{DateLayout: DateLayout})
	if err != nil {
		return nil, fail(err)
	}
	c.logger.Debug().Str("code", code).Int("observations", s.Len()).Msg("BCCh series fetched")
	return s, nil
}

func (c *Client) getSeries(ctx context.Context, code string, from, to valuation.Date) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("user", c.user)
	params.Set("pass", c.pass)
	params.Set("function", "GetSeries")
	params.Set("timeseries", code)
	if !from.IsZero() {
		params.Set("firstdate", from.String())
	}
	if !to.IsZero() {
		params.Set("lastdate", to.String())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received status %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	var r Response
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &r, nil
}
