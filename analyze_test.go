package valuation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"
)

// fakeEquity serves a steady company: 250 of revenue and 40 of ebit per quarter.
type fakeEquity struct {
	snapshot *Snapshot
	currency string
	shares   ShareCounts
	prices   map[string]*Series
	err      error
}

func (f *fakeEquity) Snapshot(ctx context.Context, symbol string) (*Snapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.snapshot, nil
}

func (f *fakeEquity) Statement(ctx context.Context, symbol, statement string, opts TableOptions) (*Table, error) {
	var fields map[string]any
	switch statement {
	case IncomeStatement:
		fields = map[string]any{
			FieldTotalRevenue: "250", FieldNetIncome: "25", FieldDepreciation: "10",
			FieldInterestExpense: "5", FieldIncomeTaxExpense: "10", FieldEBIT: "40",
		}
	case BalanceSheet:
		fields = map[string]any{
			FieldNetReceivables: 300.0, FieldInventory: 200.0, FieldAccountsPayable: 100.0,
			FieldPPE: 800.0, FieldGoodwill: 0.0, FieldOtherAssets: 100.0,
			FieldShortTermDebt: 100.0, FieldLongTermDebt: 400.0, FieldEquity: 1500.0,
			FieldCash: 200.0, FieldMinorityInterest: "None",
		}
	default:
		return nil, fmt.Errorf("unexpected statement %s", statement)
	}
	var rows []map[string]any
	for i := range 8 {
		row := map[string]any{"date": q(2023, 1).StartOf(Quarterly).AddMonth(3 * i).EndOf(Quarterly).String(), "currency_symbol": f.currency}
		for k, v := range fields {
			row[k] = v
		}
		rows = append(rows, row)
	}
	opts.Drop = append(opts.Drop, "currency_symbol")
	return NormalizeTable(symbol, rows, opts)
}

func (f *fakeEquity) StatementCurrency(ctx context.Context, symbol string) (string, error) {
	return f.currency, nil
}

func (f *fakeEquity) SharesOutstanding(ctx context.Context, symbol string) (ShareCounts, error) {
	return f.shares, nil
}

func (f *fakeEquity) Prices(ctx context.Context, symbol string, from, to Date) (*Series, error) {
	s, ok := f.prices[symbol]
	if !ok {
		return nil, &FetchError{Source: "fake", Op: "prices", Key: symbol, Err: errors.New("404 Not Found")}
	}
	return s, nil
}

type fakeMacro map[string]*Series

func (f fakeMacro) Series(ctx context.Context, code string, from, to Date) (*Series, error) {
	s, ok := f[code]
	if !ok {
		return nil, &FetchError{Source: "fake", Op: "series", Key: code, Err: errors.New("unknown series")}
	}
	return s, nil
}

func constant(name string, start Date, n int, v float64) *Series {
	s := NewSeries(name)
	for i := range n {
		s.Append(start.Add(i), v)
	}
	return s
}

func testAnalyzer() (*Analyzer, *fakeEquity) {
	as := DefaultAssumptions()
	as.RateWindow = 3
	as.FXWindow = 2

	today := NewDate(2024, time.December, 31)
	index := NewSeries("ipsa")
	gdp := NewSeries("gdp")
	for i := range 13 {
		index.Append(NewDate(2024, time.January+time.Month(i)-1, 15), 100*math.Pow(1.01, float64(i)))
	}
	for i := range 12 {
		gdp.Append(NewDate(2022, time.Month(3*i+3)+1, 0), 100*math.Pow(1.02, float64(i)))
	}
	macro := fakeMacro{
		as.Series.MarketIndex:    index,
		as.Series.ForeignRate:    constant("us10y", today.Add(-10), 10, 4),
		as.Series.CountrySpread:  constant("embi", today.Add(-10), 10, 150),
		as.Series.LocalInflation: constant("ipc", today.Add(-10), 10, 3),
		as.Series.GDP:            gdp,
	}
	inflation := fakeMacro{as.Series.ForeignInflation: constant("expinf", today.Add(-10), 10, 3)}

	snap := NewSnapshot("SQM-B.SN", "Sociedad Quimica y Minera", "Basic Materials", map[string]float64{
		MetricBeta:          1,
		MetricROE:           0.15,
		MetricTrailingPE:    12,
		MetricAnalystTarget: 11,
	})
	snap.Currency = "CLP"
	equity := &fakeEquity{
		snapshot: snap,
		currency: "CLP",
		shares:   ShareCounts{Quarterly: 100, Stats: 120},
		prices:   map[string]*Series{"SQM-B.SN": constant("close", today.Add(-5), 5, 10)},
	}
	return &Analyzer{
		Equity:      equity,
		Macro:       macro,
		Inflation:   inflation,
		Assumptions: as,
		Today:       func() Date { return today },
	}, equity
}

func TestAnalyzerRates(t *testing.T) {
	a, _ := testAnalyzer()
	r, err := a.Rates(context.Background())
	if err != nil {
		t.Fatalf("Rates() error = %v", err)
	}
	if math.Abs(r.MarketReturn-0.12) > 1e-9 {
		t.Errorf("MarketReturn = %v, want 0.12", r.MarketReturn)
	}
	if math.Abs(r.RiskFree-0.04) > 1e-12 || math.Abs(r.Spread-0.015) > 1e-12 {
		t.Errorf("RiskFree, Spread = %v, %v, want 0.04, 0.015", r.RiskFree, r.Spread)
	}
}

func TestAnalyzerValue(t *testing.T) {
	a, _ := testAnalyzer()
	r, err := a.Value(context.Background(), "SQM-B.SN")
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	checks := []struct {
		name      string
		got, want float64
	}{
		{"ebitda margin", r.EBITDAMargin, 0.2},
		{"cost of equity", r.CostOfEquity, 0.12},
		{"debt weight", r.DebtWeight, 0.25},
		{"cost of capital", r.CostOfCapital, 0.1000375},
		{"roic", r.ROIC, 160 * 0.73 / 1300},
		{"perpetual growth", r.PerpetualGrowth, 0.02},
		{"shares", r.Shares, 120},
		{"operating assets", r.OperatingAssets, 1446.4469779790722},
		{"intrinsic", r.Intrinsic.AsFloat(), 10.387058149825602},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-6*math.Max(1, math.Abs(c.want)) {
			t.Errorf("Value() %s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if r.Classification != FairValue {
		t.Errorf("Value() classification = %v, want fair value", r.Classification)
	}
	if r.AnalystTarget.AsFloat() != 11 || !r.WallStreetTarget.IsZero() {
		t.Errorf("Value() targets = %v, %v, want 11 and none", r.AnalystTarget, r.WallStreetTarget)
	}
	// flat earnings: PEG is skipped, not fatal.
	if r.PEG != 0 || len(r.Warnings) != 1 || !strings.Contains(r.Warnings[0], "peg") {
		t.Errorf("Value() PEG = %v, warnings = %v, want skipped peg", r.PEG, r.Warnings)
	}
}

func TestAnalyzerValueFinancial(t *testing.T) {
	a, eq := testAnalyzer()
	eq.snapshot.Sector = "Financial Services"
	r, err := a.Value(context.Background(), "SQM-B.SN")
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	if r.ROIC != 0.15 {
		t.Errorf("Value(financial).ROIC = %v, want ROE 0.15", r.ROIC)
	}
}

func TestAnalyzerValueCurrencyTranslation(t *testing.T) {
	a, eq := testAnalyzer()
	eq.currency = "USD"
	today := a.today()
	fx := NewSeries("USDCLP")
	fx.Append(today.Add(-3), 900).Append(today.Add(-2), 950).Append(today.Add(-1), 1000)
	eq.prices["USDCLP.FOREX"] = fx

	r, err := a.Value(context.Background(), "SQM-B.SN")
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	if r.FXRate != 975 {
		t.Errorf("Value().FXRate = %v, want rolling median 975", r.FXRate)
	}
	if r.Classification != Undervalued {
		t.Errorf("Value() classification = %v, want undervalued", r.Classification)
	}
}

func TestAnalyzerValueAbortsOnCoreFailure(t *testing.T) {
	a, eq := testAnalyzer()
	eq.err = &FetchError{Source: "fake", Op: "fundamentals", Key: "SQM-B.SN", Err: errors.New("boom")}
	if _, err := a.Value(context.Background(), "SQM-B.SN"); !Skippable(err) {
		t.Errorf("Value() error = %v, want the fetch error", err)
	}

	a, _ = testAnalyzer()
	a.Assumptions.Series.GDP = "missing"
	_, err := a.Value(context.Background(), "SQM-B.SN")
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Key != "missing" {
		t.Errorf("Value() error = %v, want FetchError on the missing series", err)
	}
}

func TestAnalyzerPEG(t *testing.T) {
	a, eq := testAnalyzer()
	eq.snapshot = NewSnapshot("X.SN", "X", "Industrials", map[string]float64{MetricBeta: 1})
	if _, err := a.PEG(context.Background(), "X.SN"); err == nil {
		t.Errorf("PEG() without growth nor P/E want error")
	}
}

type fakeBulk struct{ pages [][]*Snapshot }

func (f *fakeBulk) BulkFundamentals(ctx context.Context, exchange string, offset, limit int) ([]*Snapshot, error) {
	i := offset / limit
	if i >= len(f.pages) {
		return nil, nil
	}
	return f.pages[i], nil
}

func TestAnalyzerCompare(t *testing.T) {
	a, _ := testAnalyzer()
	full := make([]*Snapshot, DefaultBulkLimit)
	for i := range full {
		full[i] = snap(fmt.Sprintf("P%03d.SN", i), "Basic Materials", map[string]float64{MetricTrailingPE: 12})
	}
	usd := snap("USD.SN", "Basic Materials", map[string]float64{MetricTrailingPE: 99})
	usd.Currency = "USD"
	a.Peers = &fakeBulk{pages: [][]*Snapshot{full, {usd}}}

	c, err := a.Compare(context.Background(), "SQM-B.SN")
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if c.Peers != DefaultBulkLimit {
		t.Errorf("Compare().Peers = %d, want %d (second page read, USD listing filtered)", c.Peers, DefaultBulkLimit)
	}
	if c.Lines[0].Metric != MetricTrailingPE || c.Lines[0].VersusSector != InLine {
		t.Errorf("Compare() first line = %+v, want P/E in line", c.Lines[0])
	}
}

// stuckBulk ignores the offset and serves the same page forever.
type stuckBulk struct {
	page  []*Snapshot
	calls int
}

func (f *stuckBulk) BulkFundamentals(ctx context.Context, exchange string, offset, limit int) ([]*Snapshot, error) {
	f.calls++
	return f.page, nil
}

func TestAnalyzerCompareStuckPages(t *testing.T) {
	a, _ := testAnalyzer()
	full := make([]*Snapshot, DefaultBulkLimit)
	for i := range full {
		full[i] = snap(fmt.Sprintf("P%03d.SN", i), "Basic Materials", map[string]float64{MetricTrailingPE: 12})
	}
	bulk := &stuckBulk{page: full}
	a.Peers = bulk

	c, err := a.Compare(context.Background(), "SQM-B.SN")
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if bulk.calls != 2 {
		t.Errorf("BulkFundamentals called %d times, want 2 (stop on a page of known symbols)", bulk.calls)
	}
	if c.Peers != DefaultBulkLimit {
		t.Errorf("Compare().Peers = %d, want %d (repeated listings counted once)", c.Peers, DefaultBulkLimit)
	}
}

