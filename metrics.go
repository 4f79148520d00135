package valuation

import (
	"math"
	"slices"
	"strings"
)

// Statement fields used by the metrics, as named by EODHD.
const (
	FieldTotalRevenue       = "totalRevenue"
	FieldNetIncome          = "netIncome"
	FieldEBIT               = "ebit"
	FieldDepreciation       = "depreciationAndAmortization"
	FieldInterestExpense    = "interestExpense"
	FieldIncomeTaxExpense   = "incomeTaxExpense"
	FieldNetReceivables     = "netReceivables"
	FieldInventory          = "inventory"
	FieldAccountsPayable    = "accountsPayable"
	FieldPPE                = "propertyPlantAndEquipmentNet"
	FieldGoodwill           = "goodWill"
	FieldOtherAssets        = "otherAssets"
	FieldNetInvestedCapital = "netInvestedCapital"
	FieldShortTermDebt      = "shortTermDebt"
	FieldLongTermDebt       = "longTermDebt"
	FieldEquity             = "totalStockholderEquity"
	FieldCash               = "cashAndEquivalents"
	FieldMinorityInterest   = "noncontrollingInterestInConsolidatedEntity"
)

// LocalRiskFree converts a foreign risk free rate into the local currency
// using the Fisher parity between expected inflations.
func LocalRiskFree(foreignRate, localInflation, foreignInflation float64) (float64, error) {
	if foreignInflation <= -1 {
		return 0, computeErr("risk free rate", "foreign inflation %v is not above -100%%", foreignInflation)
	}
	return (1+foreignRate)*(1+localInflation)/(1+foreignInflation) - 1, nil
}

// CostOfEquity is the CAPM expected return rf + β(Rm − rf).
func CostOfEquity(rf, beta, marketReturn float64) float64 {
	return rf + beta*(marketReturn-rf)
}

// CostOfDebt is the risk free rate plus the country credit spread.
func CostOfDebt(rf, spread float64) float64 { return rf + spread }

// CapitalWeights returns the book weights of debt and equity in the capital structure.
func CapitalWeights(debt, equity float64) (debtWeight, equityWeight float64, err error) {
	if debt < 0 {
		debt = 0
	}
	if equity < 0 {
		equity = 0
	}
	total := debt + equity
	if total <= 0 {
		return 0, 0, computeErr("capital weights", "no debt nor equity")
	}
	return debt / total, equity / total, nil
}

// WACC is the weighted average cost of capital ke·(1−wd) + kd·(1−t)·wd.
// A zero debt weight returns the cost of equity exactly.
func WACC(ke, kd, tax, debtWeight float64) float64 {
	if debtWeight == 0 {
		return ke
	}
	return ke*(1-debtWeight) + kd*(1-tax)*debtWeight
}

// AnnualizedMarketReturn averages the monthly returns of a daily index and annualizes them.
func AnnualizedMarketReturn(index *Series) (float64, error) {
	returns := index.Resample(Monthly, Mean).PctChange().Valid()
	if returns.Len() == 0 {
		return 0, computeErr("market return", "need at least two months of index prices")
	}
	return Mean.Apply(returns.Floats()) * float64(Monthly.PerYear()), nil
}

// ROICInput gathers what is needed to compute the return on invested capital.
type ROICInput struct {
	Income           *Table  // trailing twelve months income statement
	Balance          *Table  // smoothed balance sheet
	TaxRate          float64 // marginal tax rate
	Window           int     // number of periods to average invested capital over
	Sector           string
	ROE              float64  // used for financial sectors
	FinancialSectors []string // sectors where invested capital is meaningless
}

// IsFinancial reports whether sector is one of the financial sectors, ignoring case.
func IsFinancial(sector string, financials []string) bool {
	return slices.ContainsFunc(financials, func(s string) bool { return strings.EqualFold(s, sector) })
}

// ROIC returns NOPAT over the average invested capital.
//
// Financial companies carry no operating invested capital: their ROIC is their ROE.
func ROIC(in ROICInput) (float64, error) {
	if IsFinancial(in.Sector, in.FinancialSectors) {
		return in.ROE, nil
	}
	ebit, err := in.Income.Latest(FieldEBIT)
	if err != nil {
		return 0, err
	}
	nopat := ebit * (1 - in.TaxRate)

	ic, err := InvestedCapital(in.Balance)
	if err != nil {
		return 0, err
	}
	values := ic.Valid().Floats()
	if in.Window > 0 && len(values) > in.Window {
		values = values[len(values)-in.Window:]
	}
	avg := Mean.Apply(values)
	if math.IsNaN(avg) || avg <= 0 {
		return 0, computeErr("roic", "invested capital is not positive")
	}
	return nopat / avg, nil
}

// InvestedCapital returns the operating invested capital: net working capital
// plus fixed assets, goodwill and other assets. When none of these fields is
// reported, the reported net invested capital is used.
func InvestedCapital(balance *Table) (*Series, error) {
	components := []struct {
		field string
		sign  float64
	}{
		{FieldNetReceivables, 1},
		{FieldInventory, 1},
		{FieldAccountsPayable, -1},
		{FieldPPE, 1},
		{FieldGoodwill, 1},
		{FieldOtherAssets, 1},
	}
	var cols []*Series
	var signs []float64
	for _, c := range components {
		col, err := balance.Column(c.field)
		if err != nil {
			continue // unreported items count as zero
		}
		cols, signs = append(cols, col), append(signs, c.sign)
	}
	if len(cols) > 0 {
		// a missing item counts as zero only when another item is reported on that date.
		ic := NewSeries("investedCapital")
		for _, col := range cols {
			for on := range col.Values() {
				if _, done := ic.At(on); done {
					continue
				}
				total, reported := 0.0, false
				for i, c := range cols {
					if v, ok := c.At(on); ok && !math.IsNaN(v) {
						total += signs[i] * v
						reported = true
					}
				}
				if !reported {
					total = math.NaN()
				}
				ic.Append(on, total)
			}
		}
		return ic, nil
	}
	return balance.Column(FieldNetInvestedCapital)
}

// ReinvestmentRate is the share of operating profit reinvested to sustain growth g at return roc.
func ReinvestmentRate(g, roc float64) (float64, error) {
	if roc == 0 {
		return 0, computeErr("reinvestment rate", "return on capital is zero")
	}
	return g / roc, nil
}

// EBITDAMargin is the mean of (net income + D&A + interest + taxes) / revenue over valid periods.
func EBITDAMargin(income *Table) (float64, error) {
	revenue, err := income.Column(FieldTotalRevenue)
	if err != nil {
		return 0, err
	}
	ebitda, err := income.Column(FieldNetIncome)
	if err != nil {
		return 0, err
	}
	for _, f := range []string{FieldDepreciation, FieldInterestExpense, FieldIncomeTaxExpense} {
		col, err := income.Column(f)
		if err != nil {
			return 0, err
		}
		ebitda = ebitda.Zip(col, func(a, b float64) float64 { return a + b })
	}
	margins := ebitda.Zip(revenue, func(e, r float64) float64 {
		if r == 0 {
			return math.NaN()
		}
		return e / r
	}).Valid()
	if margins.Len() == 0 {
		return 0, computeErr("ebitda margin", "no period with both ebitda and revenue")
	}
	return Mean.Apply(margins.Floats()), nil
}

// OperatingAssetsValue is the perpetuity value of normalized operating income
// growing at g: opIncome·(1+g)·(1−t)·(1−rr)/(wacc − g).
func OperatingAssetsValue(opIncome, g, tax, reinvestment, wacc float64) (float64, error) {
	if wacc <= g {
		return 0, computeErr("operating assets", "cost of capital %.4f does not exceed growth %.4f", wacc, g)
	}
	return opIncome * (1 + g) * (1 - tax) * (1 - reinvestment) / (wacc - g), nil
}

// ValuePerShare is the equity value per share from the operating assets value.
func ValuePerShare(opAssets, cash, nonOperating, debt, minority, shares float64) (float64, error) {
	if shares <= 0 {
		return 0, computeErr("value per share", "share count %v is not positive", shares)
	}
	return (opAssets + cash + nonOperating - debt - minority) / shares, nil
}

// ShareRule decides between two reported share counts.
type ShareRule string

const (
	ShareRuleMax ShareRule = "max"
	ShareRuleMin ShareRule = "min"
)

// ResolveShares picks the share count according to rule. When only one of the
// counts is positive it is used whatever the rule.
func ResolveShares(a, b float64, rule ShareRule) (float64, error) {
	switch {
	case a > 0 && b > 0:
		if rule == ShareRuleMin {
			return math.Min(a, b), nil
		}
		return math.Max(a, b), nil
	case a > 0:
		return a, nil
	case b > 0:
		return b, nil
	default:
		return 0, computeErr("shares outstanding", "no positive share count")
	}
}

// EPSGrowth is the average quarter over quarter growth of net income over the
// trailing window, zero quarters being ignored.
func EPSGrowth(netIncome *Series, window int) (float64, error) {
	nonZero := NewSeries(netIncome.Name)
	for on, v := range netIncome.Values() {
		if v != 0 && !math.IsNaN(v) {
			nonZero.Append(on, v)
		}
	}
	_, g, ok := nonZero.PctChange().Rolling(window, Mean).LatestValid()
	if !ok {
		return 0, computeErr("eps growth", "need %d consecutive net income changes", window)
	}
	return g, nil
}

// PEG is the price earnings ratio over the earnings growth in percent.
func PEG(pe, epsGrowth float64) (float64, error) {
	if epsGrowth == 0 {
		return 0, computeErr("peg", "earnings growth is zero")
	}
	peg := pe / (epsGrowth * 100)
	if peg <= 0 || math.IsNaN(peg) {
		return 0, computeErr("peg", "ratio %.2f is not positive", peg)
	}
	return peg, nil
}

// PEGBand buckets a PEG ratio.
type PEGBand string

const (
	PEGLow     PEGBand = "low"
	PEGMedium  PEGBand = "medium"
	PEGHigh    PEGBand = "high"
	PEGExtreme PEGBand = "extreme"
)

// BandOf returns the band of a positive peg ratio.
func BandOf(peg float64) PEGBand {
	switch {
	case peg < 0.5:
		return PEGLow
	case peg < 1:
		return PEGMedium
	case peg < 1.5:
		return PEGHigh
	default:
		return PEGExtreme
	}
}

// PercentDiff is (a−b)/b in percent rounded to two decimals.
func PercentDiff(a, b float64) (Percent, error) {
	if b == 0 {
		return 0, computeErr("percent difference", "reference is zero")
	}
	return Percent(math.Round((a-b)/b*100*100) / 100), nil
}
