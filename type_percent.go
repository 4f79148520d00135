package valuation

import "fmt"

// Percent is a value already expressed in percent, 12.5 meaning 12.5%.
type Percent float64

// Pct converts a rate like 0.125 into a Percent.
func Pct(rate float64) Percent { return Percent(rate * 100) }

func (p Percent) Equal(q Percent) bool {
	// it has to be compared with some precision
	const precision = 0.0001
	diff := p - q
	if diff < 0 {
		diff = -diff
	}
	return diff < precision
}

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", p)
}

func (p Percent) SignedString() string {
	res := fmt.Sprintf("%+.2f%%", p)
	if res == "+0.00%" {
		return "-"
	}
	return res
}
