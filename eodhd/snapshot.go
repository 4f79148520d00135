package eodhd

import (
	"fmt"
	"strings"

	"github.com/etnz/valuation"
)

// snapshotFields maps each snapshot metric to its section of the fundamentals document.
var snapshotFields = map[string]string{
	valuation.MetricMarketCap:       "Highlights",
	valuation.MetricROE:             "Highlights",
	valuation.MetricROA:             "Highlights",
	valuation.MetricPEG:             "Highlights",
	valuation.MetricOperatingMargin: "Highlights",
	valuation.MetricDividendYield:   "Highlights",
	valuation.MetricWallStreetTgt:   "Highlights",
	valuation.MetricTrailingPE:      "Valuation",
	valuation.MetricForwardPE:       "Valuation",
	valuation.MetricPriceSales:      "Valuation",
	valuation.MetricPriceBook:       "Valuation",
	valuation.MetricEVEBITDA:        "Valuation",
	valuation.MetricEVRevenue:       "Valuation",
	valuation.MetricBeta:            "Technicals",
	valuation.MetricPayoutRatio:     "SplitsDividends",
	valuation.MetricForwardYld:      "SplitsDividends",
	valuation.MetricAnalystTarget:   "AnalystRatings",
}

// snapshotOf extracts a snapshot out of a fundamentals document.
// Missing or null metrics are left out, only the General section is required.
func snapshotOf(doc any, symbol string) (*valuation.Snapshot, error) {
	general, err := Select(doc, "General")
	if err != nil {
		return nil, err
	}
	text := func(field string) string {
		v, err := Select(general, field)
		if err != nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	code := text("Code")
	if symbol == "" {
		if code == "" {
			return nil, &valuation.MissingFieldError{Field: "General::Code"}
		}
		symbol = code
	}

	metrics := make(map[string]float64, len(snapshotFields))
	for metric, section := range snapshotFields {
		v, err := Number(doc, section+"::"+metric)
		if err != nil {
			continue
		}
		metrics[metric] = v
	}

	s := valuation.NewSnapshot(symbol, text("Name"), text("Sector"), metrics)
	s.Exchange = text("Exchange")
	s.Currency = strings.ToUpper(text("CurrencyCode"))
	s.Industry = text("Industry")
	return s, nil
}

// qualify returns the api symbol of a bulk entry, "CODE.EXCHANGE".
func qualify(code, exchange string) string {
	if strings.Contains(code, ".") {
		return code
	}
	return fmt.Sprintf("%s.%s", code, exchange)
}
