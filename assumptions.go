package valuation

import "fmt"

// SeriesCodes identifies the macroeconomic series used by the valuation.
type SeriesCodes struct {
	MarketIndex      string `toml:"market_index"`      // BCCh, daily index level
	ForeignRate      string `toml:"foreign_rate"`      // BCCh, 10 years treasury yield in percent
	LocalInflation   string `toml:"local_inflation"`   // BCCh, expected inflation in percent
	ForeignInflation string `toml:"foreign_inflation"` // FRED, expected inflation in percent
	CountrySpread    string `toml:"country_spread"`    // BCCh, EMBI spread in basis points
	GDP              string `toml:"gdp"`               // BCCh, quarterly real GDP
}

// Assumptions are the constants of a valuation run.
type Assumptions struct {
	TaxRate          float64   `toml:"tax_rate"`
	Band             float64   `toml:"band"`              // relative half width of the fair band
	ShareRule        ShareRule `toml:"share_rule"`        // max or min
	QuoteCurrency    string    `toml:"quote_currency"`    // currency of the market prices
	ROICWindow       int       `toml:"roic_window"`       // periods of invested capital averaged
	GrowthWindow     int       `toml:"growth_window"`     // trailing periods of the growth trend
	Lambda           float64   `toml:"lambda"`            // Hodrick-Prescott smoothing
	RateWindow       int       `toml:"rate_window"`       // trading days averaged for rates and spreads
	FXWindow         int       `toml:"fx_window"`         // trading days of the exchange rate median
	EPSWindow        int       `toml:"eps_window"`        // quarters of earnings growth averaged
	HistoryYears     int       `toml:"history_years"`     // depth of macroeconomic history
	FinancialSectors []string  `toml:"financial_sectors"` // sectors valued with ROE instead of ROIC

	Series SeriesCodes `toml:"series"`
}

// DefaultAssumptions returns the assumptions for the Santiago exchange.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		TaxRate:          0.27,
		Band:             0.2,
		ShareRule:        ShareRuleMax,
		QuoteCurrency:    "CLP",
		ROICWindow:       4,
		GrowthWindow:     16,
		Lambda:           DefaultLambda,
		RateWindow:       250,
		FXWindow:         20,
		EPSWindow:        4,
		HistoryYears:     10,
		FinancialSectors: []string{"Financial Services"},
		Series: SeriesCodes{
			MarketIndex:      "F013.IBC.IND.N.7.LAC.CL.CLP.BLO.D",
			ForeignRate:      "F019.TBG.TAS.10.D",
			LocalInflation:   "F089.IPC.V12.14.M",
			ForeignInflation: "EXPINF1YR",
			CountrySpread:    "F019.SPS.PBP.91.D",
			GDP:              "F032.PIB.FLU.R.CLP.EP18.Z.Z.0.T",
		},
	}
}

// Validate reports inconsistent assumptions.
func (a Assumptions) Validate() error {
	switch {
	case a.TaxRate < 0 || a.TaxRate >= 1:
		return fmt.Errorf("tax rate %v must be in [0, 1)", a.TaxRate)
	case a.Band < 0 || a.Band >= 1:
		return fmt.Errorf("fair band %v must be in [0, 1)", a.Band)
	case a.ShareRule != ShareRuleMax && a.ShareRule != ShareRuleMin:
		return fmt.Errorf("unknown share rule %q, want %q or %q", a.ShareRule, ShareRuleMax, ShareRuleMin)
	case a.ROICWindow <= 0, a.GrowthWindow <= 0, a.RateWindow <= 0, a.FXWindow <= 0, a.EPSWindow <= 0:
		return fmt.Errorf("rolling windows must be positive")
	case a.HistoryYears <= 0:
		return fmt.Errorf("history years %d must be positive", a.HistoryYears)
	}
	return nil
}
