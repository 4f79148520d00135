package valuation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Classification is the verdict of the market price against the intrinsic value.
type Classification int

const (
	Undervalued Classification = iota
	FairValue
	Overvalued
)

func (c Classification) String() string {
	switch c {
	case Undervalued:
		return "undervalued"
	case FairValue:
		return "fair value"
	case Overvalued:
		return "overvalued"
	default:
		return "unclassified"
	}
}

// FairBand returns the inclusive fair range [iv·(1−band), iv·(1+band)].
func FairBand(intrinsic Money, band float64) (low, high Money) {
	b := decimal.NewFromFloat(band)
	one := decimal.NewFromInt(1)
	low = Money{value: intrinsic.value.Mul(one.Sub(b)), cur: intrinsic.cur}
	high = Money{value: intrinsic.value.Mul(one.Add(b)), cur: intrinsic.cur}
	return low, high
}

// Classify compares a market price with the intrinsic value. Prices within
// the fair band, bounds included, are at fair value.
func Classify(intrinsic, price Money, band float64) Classification {
	low, high := FairBand(intrinsic, band)
	switch {
	case price.value.LessThan(low.value):
		return Undervalued
	case price.value.GreaterThan(high.value):
		return Overvalued
	default:
		return FairValue
	}
}

// Result holds every figure of a discounted cash flow valuation. It is
// computed once by the Analyzer and never modified afterwards.
type Result struct {
	Symbol   string
	Name     string
	Sector   string
	Currency string // quote currency
	AsOf     Date

	RiskFree         float64
	MarketReturn     float64
	Beta             float64
	CostOfEquity     float64
	CostOfDebt       float64
	DebtWeight       float64
	CostOfCapital    float64
	EBITDAMargin     float64
	ROIC             float64
	PerpetualGrowth  float64
	ReinvestmentRate float64

	OperatingAssets float64 // in statement currency
	Shares          float64
	ShareRule       ShareRule
	FXRate          float64 // statement to quote currency, 1 when identical

	Intrinsic      Money
	Price          Money
	FairLow        Money
	FairHigh       Money
	Band           float64
	Classification Classification
	Upside         Percent // of the intrinsic value over the price

	WallStreetTarget Money // zero when not covered
	AnalystTarget    Money // zero when not covered

	PEG     float64 // zero when not available
	PEGBand PEGBand

	Warnings []string // optional figures that could not be computed
}

// Verdict returns a one line human readable conclusion.
func (r *Result) Verdict() string {
	return fmt.Sprintf("%s trades at %s for an intrinsic value of %s (fair between %s and %s): %s",
		r.Symbol, r.Price, r.Intrinsic, r.FairLow, r.FairHigh, r.Classification)
}
