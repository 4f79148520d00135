package valuation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ternarybob/arbor"
)

// Analyzer runs the valuation pipeline: fetch, normalize, compute, classify.
// Providers are passed explicitly, nothing is global.
type Analyzer struct {
	Equity      EquityProvider
	Peers       PeerProvider
	Macro       MacroProvider // local macroeconomic series
	Inflation   MacroProvider // foreign expected inflation
	Assumptions Assumptions
	Logger      arbor.ILogger
	Today       func() Date // defaults to Today
	PeerMetrics []string    // compared multiples, PeerMetrics when empty
}

func (a *Analyzer) logger() arbor.ILogger {
	if a.Logger == nil {
		return arbor.NewLogger()
	}
	return a.Logger
}

func (a *Analyzer) today() Date {
	if a.Today == nil {
		return Today()
	}
	return a.Today()
}

// Rates are the market rates entering the cost of capital.
type Rates struct {
	MarketReturn     float64
	ForeignRate      float64
	LocalInflation   float64
	ForeignInflation float64
	RiskFree         float64
	Spread           float64
}

// Rates fetches the macroeconomic series and derives the local risk free rate,
// the market return and the country spread.
func (a *Analyzer) Rates(ctx context.Context) (Rates, error) {
	var r Rates
	codes := a.Assumptions.Series
	to := a.today()
	from := to.AddMonth(-12 * a.Assumptions.HistoryYears)

	index, err := a.Macro.Series(ctx, codes.MarketIndex, from, to)
	if err != nil {
		return r, err
	}
	if r.MarketReturn, err = AnnualizedMarketReturn(index.Valid()); err != nil {
		return r, err
	}

	if r.ForeignRate, err = a.smoothed(ctx, codes.ForeignRate, from, to, 100); err != nil {
		return r, err
	}
	if r.Spread, err = a.smoothed(ctx, codes.CountrySpread, from, to, 10000); err != nil {
		return r, err
	}
	if r.LocalInflation, err = latest(ctx, a.Macro, codes.LocalInflation, from, to); err != nil {
		return r, err
	}
	r.LocalInflation /= 100
	if r.ForeignInflation, err = latest(ctx, a.Inflation, codes.ForeignInflation, from, to); err != nil {
		return r, err
	}
	r.ForeignInflation /= 100

	if r.RiskFree, err = LocalRiskFree(r.ForeignRate, r.LocalInflation, r.ForeignInflation); err != nil {
		return r, err
	}
	a.logger().Debug().
		Str("risk_free", Pct(r.RiskFree).String()).
		Str("market_return", Pct(r.MarketReturn).String()).
		Str("spread", Pct(r.Spread).String()).
		Msg("market rates")
	return r, nil
}

// smoothed returns the latest rolling mean of a daily series, scaled down by unit.
func (a *Analyzer) smoothed(ctx context.Context, code string, from, to Date, unit float64) (float64, error) {
	s, err := a.Macro.Series(ctx, code, from, to)
	if err != nil {
		return 0, err
	}
	_, v, ok := s.Valid().Rolling(a.Assumptions.RateWindow, Mean).LatestValid()
	if !ok {
		return 0, computeErr(code, "fewer than %d observations", a.Assumptions.RateWindow)
	}
	return v / unit, nil
}

func latest(ctx context.Context, p MacroProvider, code string, from, to Date) (float64, error) {
	s, err := p.Series(ctx, code, from, to)
	if err != nil {
		return 0, err
	}
	_, v, ok := s.LatestValid()
	if !ok {
		return 0, computeErr(code, "no observation")
	}
	return v, nil
}

// PerpetualGrowth derives the long run growth from the GDP series.
func (a *Analyzer) PerpetualGrowth(ctx context.Context) (float64, error) {
	to := a.today()
	from := to.AddMonth(-12 * a.Assumptions.HistoryYears)
	gdp, err := a.Macro.Series(ctx, a.Assumptions.Series.GDP, from, to)
	if err != nil {
		return 0, err
	}
	return PerpetualGrowth(gdp.Valid().PctChange(), a.Assumptions.Lambda, a.Assumptions.GrowthWindow)
}

// Value computes the intrinsic value of symbol and compares it with its market price.
//
// Failures of core inputs abort the valuation. Optional figures (analyst
// targets, PEG) are logged and left out.
func (a *Analyzer) Value(ctx context.Context, symbol string) (*Result, error) {
	as := a.Assumptions
	if err := as.Validate(); err != nil {
		return nil, err
	}
	log := a.logger()

	snap, err := a.Equity.Snapshot(ctx, symbol)
	if err != nil {
		return nil, err
	}
	income, err := a.Equity.Statement(ctx, symbol, IncomeStatement, TableOptions{Rolling: TTM})
	if err != nil {
		return nil, err
	}
	// balance sheet items are stocks, they are smoothed not summed.
	balance, err := a.Equity.Statement(ctx, symbol, BalanceSheet, TableOptions{Rolling: &Window{N: 4, Agg: Mean}})
	if err != nil {
		return nil, err
	}

	r := &Result{
		Symbol:    symbol,
		Name:      snap.Name,
		Sector:    snap.Sector,
		Currency:  as.QuoteCurrency,
		AsOf:      a.today(),
		Band:      as.Band,
		ShareRule: as.ShareRule,
		FXRate:    1,
	}
	if snap.Currency != "" {
		r.Currency = snap.Currency
	}

	if r.EBITDAMargin, err = EBITDAMargin(income); err != nil {
		return nil, err
	}

	rates, err := a.Rates(ctx)
	if err != nil {
		return nil, err
	}
	r.RiskFree, r.MarketReturn = rates.RiskFree, rates.MarketReturn

	beta, ok := snap.Get(MetricBeta)
	if !ok {
		return nil, &MissingFieldError{Symbol: symbol, Field: "Technicals::Beta"}
	}
	r.Beta = beta
	r.CostOfEquity = CostOfEquity(r.RiskFree, beta, r.MarketReturn)
	r.CostOfDebt = CostOfDebt(r.RiskFree, rates.Spread)

	debt := latestOrZero(balance, FieldShortTermDebt) + latestOrZero(balance, FieldLongTermDebt)
	equity, err := balance.Latest(FieldEquity)
	if err != nil {
		return nil, err
	}
	if r.DebtWeight, _, err = CapitalWeights(debt, equity); err != nil {
		return nil, err
	}
	r.CostOfCapital = WACC(r.CostOfEquity, r.CostOfDebt, as.TaxRate, r.DebtWeight)

	roe, _ := snap.Get(MetricROE)
	r.ROIC, err = ROIC(ROICInput{
		Income:           income,
		Balance:          balance,
		TaxRate:          as.TaxRate,
		Window:           as.ROICWindow,
		Sector:           snap.Sector,
		ROE:              roe,
		FinancialSectors: as.FinancialSectors,
	})
	if err != nil {
		return nil, err
	}

	if r.PerpetualGrowth, err = a.PerpetualGrowth(ctx); err != nil {
		return nil, err
	}
	if r.ReinvestmentRate, err = ReinvestmentRate(r.PerpetualGrowth, r.ROIC); err != nil {
		return nil, err
	}

	revenue, err := income.Latest(FieldTotalRevenue)
	if err != nil {
		return nil, err
	}
	opIncome := r.EBITDAMargin * revenue
	r.OperatingAssets, err = OperatingAssetsValue(opIncome, r.PerpetualGrowth, as.TaxRate, r.ReinvestmentRate, r.CostOfCapital)
	if err != nil {
		return nil, err
	}

	counts, err := a.Equity.SharesOutstanding(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if r.Shares, err = ResolveShares(counts.Quarterly, counts.Stats, as.ShareRule); err != nil {
		return nil, err
	}

	perShare, err := ValuePerShare(r.OperatingAssets,
		latestOrZero(balance, FieldCash),
		latestOrZero(balance, FieldOtherAssets),
		debt,
		latestOrZero(balance, FieldMinorityInterest),
		r.Shares)
	if err != nil {
		return nil, err
	}

	if r.FXRate, err = a.fxRate(ctx, symbol, r.Currency); err != nil {
		return nil, err
	}
	r.Intrinsic = M(perShare*r.FXRate, r.Currency)

	to := a.today()
	prices, err := a.Equity.Prices(ctx, symbol, to.Add(-30), to)
	if err != nil {
		return nil, err
	}
	_, price, ok := prices.LatestValid()
	if !ok {
		return nil, &MissingFieldError{Symbol: symbol, Field: "close"}
	}
	r.Price = M(price, r.Currency)
	r.FairLow, r.FairHigh = FairBand(r.Intrinsic, as.Band)
	r.Classification = Classify(r.Intrinsic, r.Price, as.Band)
	if r.Upside, err = PercentDiff(r.Intrinsic.AsFloat(), price); err != nil {
		r.warn(log, err)
	}

	if v, ok := snap.Get(MetricWallStreetTgt); ok && v > 0 {
		r.WallStreetTarget = M(v, r.Currency)
	}
	if v, ok := snap.Get(MetricAnalystTarget); ok && v > 0 {
		r.AnalystTarget = M(v, r.Currency)
	}

	if peg, err := a.peg(snap, income); err != nil {
		r.warn(log, err)
	} else {
		r.PEG, r.PEGBand = peg, BandOf(peg)
	}

	log.Info().Str("symbol", symbol).Str("intrinsic", r.Intrinsic.String()).Str("price", r.Price.String()).
		Str("verdict", r.Classification.String()).Msg("valuation done")
	return r, nil
}

func (r *Result) warn(log arbor.ILogger, err error) {
	log.Warn().Str("symbol", r.Symbol).Err(err).Msg("optional figure skipped")
	r.Warnings = append(r.Warnings, err.Error())
}

func latestOrZero(t *Table, field string) float64 {
	v, err := t.Latest(field)
	if err != nil {
		return 0
	}
	return v
}

// fxRate returns the statement to quote currency conversion rate.
func (a *Analyzer) fxRate(ctx context.Context, symbol, quote string) (float64, error) {
	stmt, err := a.Equity.StatementCurrency(ctx, symbol)
	if err != nil {
		return 0, err
	}
	if stmt == "" || strings.EqualFold(stmt, quote) {
		return 1, nil
	}
	pair := strings.ToUpper(stmt+quote) + ".FOREX"
	to := a.today()
	closes, err := a.Equity.Prices(ctx, pair, to.AddMonth(-3), to)
	if err != nil {
		return 0, err
	}
	_, rate, ok := closes.Valid().Rolling(a.Assumptions.FXWindow, Median).LatestValid()
	if !ok {
		return 0, computeErr("exchange rate", "fewer than %d %s closes", a.Assumptions.FXWindow, pair)
	}
	a.logger().Debug().Str("pair", pair).Str("rate", fmt.Sprintf("%.4f", rate)).Msg("statements converted")
	return rate, nil
}

func (a *Analyzer) peg(snap *Snapshot, income *Table) (float64, error) {
	pe, ok := snap.Get(MetricTrailingPE)
	if !ok {
		return 0, &MissingFieldError{Symbol: snap.Symbol, Field: "Valuation::TrailingPE"}
	}
	ni, err := income.Column(FieldNetIncome)
	if err != nil {
		return 0, err
	}
	g, err := EPSGrowth(ni, a.Assumptions.EPSWindow)
	if err != nil {
		return 0, err
	}
	return PEG(pe, g)
}

// PEGReport is the standalone PEG computation of a company.
type PEGReport struct {
	Symbol    string
	PE        float64
	EPSGrowth float64
	PEG       float64
	Band      PEGBand
	Reported  float64 // PEG published by the provider, NaN if none
}

// PEG computes the PEG ratio of symbol from its trailing P/E and the growth of
// its trailing net income.
func (a *Analyzer) PEG(ctx context.Context, symbol string) (*PEGReport, error) {
	snap, err := a.Equity.Snapshot(ctx, symbol)
	if err != nil {
		return nil, err
	}
	income, err := a.Equity.Statement(ctx, symbol, IncomeStatement, TableOptions{Rolling: TTM})
	if err != nil {
		return nil, err
	}
	rep := &PEGReport{Symbol: symbol, PE: snap.Value(MetricTrailingPE), Reported: snap.Value(MetricPEG)}
	ni, err := income.Column(FieldNetIncome)
	if err != nil {
		return nil, err
	}
	if rep.EPSGrowth, err = EPSGrowth(ni, a.Assumptions.EPSWindow); err != nil {
		return nil, err
	}
	if math.IsNaN(rep.PE) {
		return nil, &MissingFieldError{Symbol: symbol, Field: "Valuation::TrailingPE"}
	}
	if rep.PEG, err = PEG(rep.PE, rep.EPSGrowth); err != nil {
		return nil, err
	}
	rep.Band = BandOf(rep.PEG)
	return rep, nil
}

// DefaultBulkLimit is the page size of bulk fundamentals requests.
const DefaultBulkLimit = 500

// Compare places symbol among the companies of its exchange listed in the same currency.
func (a *Analyzer) Compare(ctx context.Context, symbol string) (*Comparison, error) {
	if a.Peers == nil {
		return nil, errors.New("no peer provider configured")
	}
	target, err := a.Equity.Snapshot(ctx, symbol)
	if err != nil {
		return nil, err
	}
	// the api speaks the symbol suffix, General::Exchange is the physical venue.
	exchange := target.Exchange
	if i := strings.LastIndex(symbol, "."); i >= 0 {
		exchange = symbol[i+1:]
	}
	var all []*Snapshot
	seen := map[string]bool{}
	for offset := 0; ; offset += DefaultBulkLimit {
		page, err := a.Peers.BulkFundamentals(ctx, exchange, offset, DefaultBulkLimit)
		if err != nil {
			return nil, err
		}
		fresh := 0
		for _, s := range page {
			if !seen[s.Symbol] {
				seen[s.Symbol] = true
				all = append(all, s)
				fresh++
			}
		}
		// a page without new symbols means the offset is not honoured.
		if len(page) < DefaultBulkLimit || fresh == 0 {
			break
		}
	}
	peers := NewPeerSet(all...)
	if target.Currency != "" {
		peers = peers.Currency(target.Currency)
	}
	a.logger().Debug().Str("symbol", symbol).Int("peers", peers.Len()).Str("sector", target.Sector).Msg("peers loaded")
	metrics := a.PeerMetrics
	if len(metrics) == 0 {
		metrics = PeerMetrics
	}
	return Compare(target, peers, metrics), nil
}
