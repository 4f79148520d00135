package eodhd

import (
	"context"
	"net/url"
	"strconv"
)

// SearchResult matches the structure of a single item in the EODHD search API response.
type SearchResult struct {
	Code          string  `json:"Code"`
	Exchange      string  `json:"Exchange"`
	Name          string  `json:"Name"`
	Type          string  `json:"Type"`
	Country       string  `json:"Country"`
	Currency      string  `json:"Currency"`
	ISIN          string  `json:"ISIN"`
	PreviousClose float64 `json:"previousClose"`
}

// Symbol returns the api symbol of the result, "CODE.EXCHANGE".
func (r SearchResult) Symbol() string { return qualify(r.Code, r.Exchange) }

// Search searches for stocks matching term, optionally restricted to an exchange.
func (c *Client) Search(ctx context.Context, term, exchange string, limit int) ([]SearchResult, error) {
	// https://eodhd.com/api/search/sqm?api_token=demo&fmt=json&exchange=SN
	params := url.Values{}
	params.Set("type", "stock")
	if exchange != "" {
		params.Set("exchange", exchange)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var results []SearchResult
	if err := c.get(ctx, "search", term, "/search/"+url.PathEscape(term), params, &results); err != nil {
		return nil, err
	}
	return results, nil
}
