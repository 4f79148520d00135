package valuation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"
)

// Additional metrics gathered when screening an exchange.
const (
	MetricEVRevenue   = "EnterpriseValueRevenue"
	MetricROA         = "ReturnOnAssetsTTM"
	MetricPayoutRatio = "PayoutRatio"
	MetricForwardYld  = "ForwardAnnualDividendYield"
)

// ScreenMetrics are the metrics imputed and reported by the screener.
var ScreenMetrics = []string{
	MetricEVEBITDA,
	MetricEVRevenue,
	MetricPriceBook,
	MetricPriceSales,
	MetricTrailingPE,
	MetricROE,
	MetricROA,
	MetricOperatingMargin,
	MetricMarketCap,
	MetricBeta,
	MetricPayoutRatio,
	MetricForwardYld,
}

// SnapshotProvider serves the fundamentals of a single company.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, symbol string) (*Snapshot, error)
}

// Screener fetches the fundamentals of every company of an exchange and
// studies the relation between price to book and return on equity.
type Screener struct {
	Symbols   SymbolProvider
	Equity    SnapshotProvider
	Currency  string  // keep listings in this currency, all when empty
	Sector    string  // restrict the regression to one sector, all when empty
	Quantile  float64 // market cap quantile above which companies are kept
	Workers   int     // concurrent fetches, requests stay paced by the provider limiter
	Limit     int     // maximum number of listings fetched, all when zero
	Logger    arbor.ILogger
	Imputable []string // metrics to impute, ScreenMetrics when nil
}

// Skipped is a listing whose fundamentals could not be obtained.
type Skipped struct {
	Symbol string
	Err    error
}

// ScreenResult is the outcome of a screening run.
type ScreenResult struct {
	Exchange   string
	Listed     int      // listings in the requested currency
	Universe   *PeerSet // fetched companies, after imputation
	Selected   *PeerSet // companies above the market cap threshold
	Threshold  float64  // market cap threshold
	Regression Regression
	RegErr     error // regression could not be fitted
	Skipped    []Skipped
}

// Err returns the joined per symbol errors, nil when nothing was skipped.
func (r *ScreenResult) Err() error {
	var errs error
	for _, s := range r.Skipped {
		errs = errors.Join(errs, fmt.Errorf("%s: %w", s.Symbol, s.Err))
	}
	return errs
}

// Screen runs the screening of exchange. Symbols that fail are logged and
// skipped; only a failure to list the exchange aborts the run.
func (s *Screener) Screen(ctx context.Context, exchange string) (*ScreenResult, error) {
	log := s.Logger
	if log == nil {
		log = arbor.NewLogger()
	}
	listings, err := s.Symbols.ExchangeSymbols(ctx, exchange)
	if err != nil {
		return nil, err
	}
	if s.Currency != "" {
		listings = slices.DeleteFunc(listings, func(l Listing) bool { return !strings.EqualFold(l.Currency, s.Currency) })
	}
	if s.Limit > 0 && len(listings) > s.Limit {
		listings = listings[:s.Limit]
	}
	res := &ScreenResult{Exchange: exchange, Listed: len(listings)}
	log.Info().Str("exchange", exchange).Int("listings", len(listings)).Msg("screening")

	workers := max(s.Workers, 1)
	sem := make(chan struct{}, workers)
	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		snapshots []*Snapshot
	)
	for _, l := range listings {
		symbol := l.Code + "." + exchange
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			snap, err := s.Equity.Snapshot(ctx, symbol)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn().Str("symbol", symbol).Err(err).Msg("skipped")
				res.Skipped = append(res.Skipped, Skipped{Symbol: symbol, Err: err})
				return
			}
			log.Debug().Str("symbol", symbol).Msg("fetched")
			snapshots = append(snapshots, snap)
		}()
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	slices.SortFunc(res.Skipped, func(a, b Skipped) int { return strings.Compare(a.Symbol, b.Symbol) })

	res.Universe = NewPeerSet(snapshots...)
	metrics := s.Imputable
	if metrics == nil {
		metrics = ScreenMetrics
	}
	res.Universe.Impute(metrics...)

	q := s.Quantile
	if q <= 0 {
		q = 0.6
	}
	res.Threshold = res.Universe.Quantile(MetricMarketCap, q)
	res.Selected = res.Universe
	if !math.IsNaN(res.Threshold) {
		res.Selected = res.Universe.FilterMin(MetricMarketCap, res.Threshold)
	}

	sample := res.Selected
	if s.Sector != "" {
		sample = res.Universe.Sector(s.Sector)
	}
	var roe, pb []float64
	for _, snap := range sample.Snapshots() {
		roe, pb = append(roe, snap.Value(MetricROE)), append(pb, snap.Value(MetricPriceBook))
	}
	res.Regression, res.RegErr = LinearRegression(roe, pb)
	if res.RegErr != nil {
		log.Warn().Err(res.RegErr).Msg("no price to book regression")
	}
	return res, nil
}
