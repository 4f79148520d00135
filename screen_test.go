package valuation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeExchange struct {
	listings []Listing
	data     map[string]*Snapshot

	mu    sync.Mutex
	calls int
}

func (f *fakeExchange) ExchangeSymbols(ctx context.Context, exchange string) ([]Listing, error) {
	if exchange != "SN" {
		return nil, &FetchError{Source: "fake", Op: "symbols", Key: exchange, Err: errors.New("unknown exchange")}
	}
	return f.listings, nil
}

func (f *fakeExchange) Snapshot(ctx context.Context, symbol string) (*Snapshot, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	s, ok := f.data[symbol]
	if !ok {
		return nil, &FetchError{Source: "fake", Op: "fundamentals", Key: symbol, Err: errors.New("404 Not Found")}
	}
	return s, nil
}

func testExchange() *fakeExchange {
	f := &fakeExchange{data: make(map[string]*Snapshot)}
	for i := 1; i <= 10; i++ {
		code := fmt.Sprintf("C%02d", i)
		f.listings = append(f.listings, Listing{Code: code, Exchange: "SN", Currency: "CLP"})
		if i == 7 {
			continue // not covered
		}
		roe := 0.02 * float64(i)
		metrics := map[string]float64{
			MetricMarketCap: float64(i * 100),
			MetricROE:       roe,
			MetricPriceBook: 0.5 + 10*roe,
		}
		if i == 9 {
			delete(metrics, MetricPriceBook)
		}
		f.data[code+".SN"] = snap(code+".SN", "Utilities", metrics)
	}
	f.listings = append(f.listings, Listing{Code: "USD1", Exchange: "SN", Currency: "USD"})
	return f
}

func TestScreen(t *testing.T) {
	ex := testExchange()
	s := &Screener{Symbols: ex, Equity: ex, Currency: "CLP", Quantile: 0.6, Workers: 3}
	res, err := s.Screen(context.Background(), "SN")
	if err != nil {
		t.Fatalf("Screen() error = %v", err)
	}
	if res.Listed != 10 || ex.calls != 10 {
		t.Errorf("Screen() listed %d and fetched %d, want 10 CLP listings", res.Listed, ex.calls)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Symbol != "C07.SN" || !Skippable(res.Skipped[0].Err) {
		t.Errorf("Screen() skipped = %v, want C07.SN", res.Skipped)
	}
	if res.Err() == nil {
		t.Errorf("Screen().Err() = nil, want the skipped symbol error")
	}
	if res.Universe.Len() != 9 {
		t.Errorf("Screen() universe = %d, want 9", res.Universe.Len())
	}
	c09, _ := res.Universe.Get("C09.SN")
	if _, ok := c09.Get(MetricPriceBook); !ok {
		t.Errorf("Screen() C09.SN P/B not imputed")
	}
	// caps 100..1000 without 700: the 0.6 quantile is 600.
	if res.Threshold != 600 {
		t.Errorf("Screen() threshold = %v, want 600", res.Threshold)
	}
	if res.Selected.Len() != 4 {
		t.Errorf("Screen() selected = %d, want 4", res.Selected.Len())
	}
	// P/B = 0.5 + 10 ROE on the reported values, C09 imputed.
	if res.RegErr != nil {
		t.Fatalf("Screen() regression error = %v", res.RegErr)
	}
	if res.Regression.N != 4 {
		t.Errorf("Screen() regression over %d points, want 4", res.Regression.N)
	}
}

func TestScreenListingFailure(t *testing.T) {
	ex := testExchange()
	s := &Screener{Symbols: ex, Equity: ex}
	if _, err := s.Screen(context.Background(), "XX"); err == nil {
		t.Errorf("Screen(XX) want error")
	}
}

func TestScreenLimit(t *testing.T) {
	ex := testExchange()
	s := &Screener{Symbols: ex, Equity: ex, Currency: "CLP", Limit: 4}
	res, err := s.Screen(context.Background(), "SN")
	if err != nil {
		t.Fatalf("Screen() error = %v", err)
	}
	if res.Listed != 4 || res.Universe.Len() != 4 {
		t.Errorf("Screen(limit 4) = %d listed, %d fetched, want 4", res.Listed, res.Universe.Len())
	}
}

func TestFetchMacro(t *testing.T) {
	total := NewSeries("total")
	mining := NewSeries("mining")
	for m := 1; m <= 6; m++ {
		total.Append(NewDate(2024, time.Month(m), 28), 10)
		mining.Append(NewDate(2024, time.Month(m), 28), 4)
	}
	p := fakeMacro{"TOTAL": total, "MINING": mining}
	tbl, err := FetchMacro(context.Background(), p, MacroRequest{
		Codes:    []string{"TOTAL", "MINING", "UNKNOWN"},
		Resample: &Bucket{Quarterly, Sum},
		Share:    true,
	})
	if err == nil {
		t.Errorf("FetchMacro() error = nil, want the unknown series reported")
	}
	if len(tbl.Series) != 2 {
		t.Fatalf("FetchMacro() returned %d series, want 2", len(tbl.Series))
	}
	if got := tbl.Series[0].Floats(); !sameFloats(got, []float64{30, 30}) {
		t.Errorf("FetchMacro() quarterly total = %v, want [30 30]", got)
	}
	if len(tbl.Shares) != 1 || !sameFloats(tbl.Shares[0].Floats(), []float64{0.4, 0.4}) {
		t.Errorf("FetchMacro() shares = %v, want one series of 0.4", tbl.Shares)
	}
}
