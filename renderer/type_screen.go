package renderer

import "github.com/etnz/valuation"

// Screen is the view of a screen result.
type Screen struct {
	Exchange   string
	Listed     int
	Fetched    int
	Threshold  float64
	Selected   []ScreenRow
	Regression *valuation.Regression // nil when it could not be fitted
	RegErr     string
	Skipped    []valuation.Skipped
}

// ScreenRow is one selected company.
type ScreenRow struct {
	Symbol    string
	Name      string
	Sector    string
	MarketCap float64
	ROE       float64
	PriceBook float64
	Fitted    float64 // P/B predicted from the ROE, NaN without regression
	PE        float64
	EVEBITDA  float64
	Imputed   []string
}

func newScreen(s *valuation.ScreenResult) *Screen {
	v := &Screen{
		Exchange:  s.Exchange,
		Listed:    s.Listed,
		Threshold: s.Threshold,
		Skipped:   s.Skipped,
	}
	if s.Universe != nil {
		v.Fetched = s.Universe.Len()
	}
	if s.RegErr == nil {
		reg := s.Regression
		v.Regression = &reg
	} else {
		v.RegErr = s.RegErr.Error()
	}
	if s.Selected == nil {
		return v
	}
	for _, snap := range s.Selected.Snapshots() {
		row := ScreenRow{
			Symbol:    snap.Symbol,
			Name:      snap.Name,
			Sector:    snap.Sector,
			MarketCap: snap.Value(valuation.MetricMarketCap),
			ROE:       snap.Value(valuation.MetricROE),
			PriceBook: snap.Value(valuation.MetricPriceBook),
			PE:        snap.Value(valuation.MetricTrailingPE),
			EVEBITDA:  snap.Value(valuation.MetricEVEBITDA),
			Imputed:   snap.Imputed(),
		}
		row.Fitted = nan
		if v.Regression != nil {
			row.Fitted = v.Regression.Predict(row.ROE)
		}
		v.Selected = append(v.Selected, row)
	}
	return v
}
