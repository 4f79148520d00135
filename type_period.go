package valuation

import (
	"fmt"
	"strings"
)

// Period is a calendar bucket used to resample series.
type Period int

const (
	Daily Period = iota
	Weekly
	Monthly
	Quarterly
	Yearly
)

func (p Period) String() string {
	switch p {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case Quarterly:
		return "quarterly"
	case Yearly:
		return "yearly"
	default:
		return "periodic"
	}
}

// PerYear returns how many periods fit in a year, used to annualize rates.
func (p Period) PerYear() int {
	switch p {
	case Daily:
		return 250 // trading days
	case Weekly:
		return 52
	case Monthly:
		return 12
	case Quarterly:
		return 4
	default:
		return 1
	}
}

// ParsePeriod accepts the period names, the nouns ("quarter"), and the short
// aliases ("Q", "m", "y") in any case.
func ParsePeriod(p string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "d", "daily", "day":
		return Daily, nil
	case "w", "weekly", "week":
		return Weekly, nil
	case "m", "monthly", "month":
		return Monthly, nil
	case "q", "quarterly", "quarter":
		return Quarterly, nil
	case "y", "a", "yearly", "year", "annual":
		return Yearly, nil
	default:
		return Daily, fmt.Errorf("unknown period %s", p)
	}
}
