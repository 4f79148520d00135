package eodhd

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/valuation"
)

// This file contains functions to access the EODHD API.

// FilterPath normalizes a hierarchical field path to the API filter syntax.
// Both "Financials::Balance_Sheet" and "Financials.Balance_Sheet" are accepted.
func FilterPath(path string) string {
	if strings.Contains(path, "::") {
		return path
	}
	return strings.ReplaceAll(path, ".", "::")
}

// Fundamentals returns the decoded fundamentals document of symbol, restricted
// to the field path when it is not empty.
func (c *Client) Fundamentals(ctx context.Context, symbol, path string) (any, error) {
	// https://eodhd.com/api/fundamentals/AAPL.US?api_token=demo&filter=General::Code
	params := url.Values{}
	if path != "" {
		params.Set("filter", FilterPath(path))
	}
	var doc any
	if err := c.get(ctx, "fundamentals", symbol, "/fundamentals/"+symbol, params, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, &valuation.MissingFieldError{Symbol: symbol, Field: path}
	}
	return doc, nil
}

// Select resolves a field path inside an already decoded document.
func Select(doc any, path string) (any, error) {
	parts := strings.Split(FilterPath(path), "::")
	v, err := jsonpath.Get(bracket(parts), doc)
	if err != nil || v == nil {
		return nil, &valuation.MissingFieldError{Field: path}
	}
	return v, nil
}

// bracket builds $["a"]["0"], keys like "0" are not valid dot identifiers.
func bracket(parts []string) string {
	var b strings.Builder
	b.WriteString("$")
	for _, p := range parts {
		b.WriteString("[")
		b.WriteString(strconv.Quote(p))
		b.WriteString("]")
	}
	return b.String()
}

// Number resolves a numeric field of a decoded document.
func Number(doc any, path string) (float64, error) {
	v, err := Select(doc, path)
	if err != nil {
		return 0, err
	}
	f := valuation.Coerce(v)
	if math.IsNaN(f) {
		return 0, &valuation.MissingFieldError{Field: path}
	}
	return f, nil
}

// Statement returns the quarterly financial statement of symbol as a table,
// one column per reported field.
func (c *Client) Statement(ctx context.Context, symbol, statement string, opts valuation.TableOptions) (*valuation.Table, error) {
	path := "Financials::" + statement + "::quarterly"
	doc, err := c.Fundamentals(ctx, symbol, path)
	if err != nil {
		return nil, err
	}
	quarters, ok := doc.(map[string]any)
	if !ok || len(quarters) == 0 {
		return nil, &valuation.MissingFieldError{Symbol: symbol, Field: path}
	}
	rows := make([]map[string]any, 0, len(quarters))
	for day, raw := range quarters {
		row, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if _, ok := row["date"]; !ok {
			row["date"] = day
		}
		rows = append(rows, row)
	}
	opts.Drop = append(opts.Drop, "currency_symbol", "filing_date")
	return valuation.NormalizeTable(symbol, rows, opts)
}

// StatementCurrency returns the currency the financial statements are reported in.
func (c *Client) StatementCurrency(ctx context.Context, symbol string) (string, error) {
	doc, err := c.Fundamentals(ctx, symbol, "Financials::Income_Statement::currency_symbol")
	if err != nil {
		return "", err
	}
	cur, ok := doc.(string)
	if !ok {
		return "", &valuation.MissingFieldError{Symbol: symbol, Field: "Financials::Income_Statement::currency_symbol"}
	}
	return strings.ToUpper(cur), nil
}

// SharesOutstanding returns the latest quarterly share count and the share statistics count.
// A count that cannot be fetched is zero, only both missing is an error.
func (c *Client) SharesOutstanding(ctx context.Context, symbol string) (valuation.ShareCounts, error) {
	var counts valuation.ShareCounts
	quarterly, qerr := c.Fundamentals(ctx, symbol, "outstandingShares::quarterly")
	if qerr == nil {
		// the most recent quarter is at index "0"
		counts.Quarterly, qerr = Number(quarterly, "0::shares")
	}
	stats, serr := c.Fundamentals(ctx, symbol, "SharesStats::SharesOutstanding")
	if serr == nil {
		counts.Stats = valuation.Coerce(stats)
		if math.IsNaN(counts.Stats) {
			counts.Stats = 0
		}
	}
	if counts.Quarterly <= 0 && counts.Stats <= 0 {
		if qerr != nil {
			return counts, qerr
		}
		if serr != nil {
			return counts, serr
		}
		return counts, &valuation.MissingFieldError{Symbol: symbol, Field: "SharesStats::SharesOutstanding"}
	}
	if qerr != nil || serr != nil {
		c.logger.Debug().Str("symbol", symbol).Msg("single share count available")
	}
	return counts, nil
}

type eodPrice struct {
	Date          string  `json:"date"`
	Close         float64 `json:"close"`
	AdjustedClose float64 `json:"adjusted_close"`
}

// Prices returns the daily closes of symbol between from and to, both included.
// Forex pairs are requested as "USDCLP.FOREX".
func (c *Client) Prices(ctx context.Context, symbol string, from, to valuation.Date) (*valuation.Series, error) {
	// https://eodhd.com/api/eod/MCD.US?api_token=demo&fmt=json&from=2024-01-01&to=2024-02-01
	params := url.Values{}
	params.Set("period", "d")
	params.Set("order", "a")
	if !from.IsZero() {
		params.Set("from", from.String())
	}
	if !to.IsZero() {
		params.Set("to", to.String())
	}
	var content []eodPrice
	if err := c.get(ctx, "prices", symbol, "/eod/"+symbol, params, &content); err != nil {
		return nil, err
	}
	records := make([]valuation.Record, 0, len(content))
	for _, p := range content {
		records = append(records, valuation.Record{Date: p.Date, Value: p.Close})
	}
	s, err := valuation.Normalize(symbol, records, valuation.NormalizeOptions{})
	if err != nil {
		return nil, &valuation.FetchError{Source: "eodhd", Op: "prices", Key: symbol, Err: err}
	}
	return s, nil
}

// TickerInfo holds information about a specific ticker on an exchange from the EODHD API.
type TickerInfo struct {
	Code     string `json:"Code"`
	Name     string `json:"Name"`
	Country  string `json:"Country"`
	Exchange string `json:"Exchange"`
	Currency string `json:"Currency"`
	Type     string `json:"Type"`
	Isin     string `json:"Isin"`
}

// ExchangeSymbols retrieves the list of all tickers for a given exchange code.
func (c *Client) ExchangeSymbols(ctx context.Context, exchange string) ([]valuation.Listing, error) {
	// https://eodhd.com/api/exchange-symbol-list/SN?api_token=demo&fmt=json
	var content []TickerInfo
	if err := c.get(ctx, "symbols", exchange, "/exchange-symbol-list/"+exchange, nil, &content); err != nil {
		return nil, err
	}
	listings := make([]valuation.Listing, 0, len(content))
	for _, t := range content {
		// t.Exchange is the physical exchange, the api speaks the virtual one.
		listings = append(listings, valuation.Listing{
			Code:     t.Code,
			Name:     t.Name,
			Exchange: exchange,
			Currency: t.Currency,
			Type:     t.Type,
		})
	}
	return listings, nil
}

// BulkFundamentals returns the snapshots of a page of the companies of an exchange.
func (c *Client) BulkFundamentals(ctx context.Context, exchange string, offset, limit int) ([]*valuation.Snapshot, error) {
	// https://eodhd.com/api/bulk-fundamentals/SN?api_token=demo&fmt=json&offset=0&limit=500
	params := url.Values{}
	params.Set("offset", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(limit))
	var content map[string]any
	if err := c.get(ctx, "bulk fundamentals", exchange, "/bulk-fundamentals/"+exchange, params, &content); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(content))
	for k := range content {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	res := make([]*valuation.Snapshot, 0, len(content))
	for _, k := range keys {
		s, err := snapshotOf(content[k], "")
		if err != nil {
			c.logger.Warn().Str("exchange", exchange).Str("entry", k).Err(err).Msg("bulk entry skipped")
			continue
		}
		s.Symbol = qualify(s.Symbol, exchange)
		if s.Exchange == "" {
			s.Exchange = exchange
		}
		res = append(res, s)
	}
	return res, nil
}

// Snapshot returns the current fundamental metrics of symbol.
func (c *Client) Snapshot(ctx context.Context, symbol string) (*valuation.Snapshot, error) {
	doc, err := c.Fundamentals(ctx, symbol, "")
	if err != nil {
		return nil, err
	}
	s, err := snapshotOf(doc, symbol)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}
	return s, nil
}
