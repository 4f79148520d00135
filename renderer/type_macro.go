package renderer

import (
	"math"
	"slices"

	"github.com/etnz/valuation"
)

var nan = math.NaN()

// Macro is the view of a macro table, one row per date.
type Macro struct {
	Title   string
	Headers []string
	Rows    []MacroRow
}

// MacroRow holds the values of every column on a date, NaN where a series has no point.
type MacroRow struct {
	Date   valuation.Date
	Values []float64
	Shares []float64
}

// HasShares reports whether the share columns are rendered.
func (m *Macro) HasShares() bool { return len(m.Rows) > 0 && len(m.Rows[0].Shares) > 0 }

// ShareHeaders are the names of the share columns.
func (m *Macro) ShareHeaders() []string {
	if len(m.Headers) < 2 {
		return nil
	}
	return m.Headers[1:]
}

func newMacro(title string, t *valuation.MacroTable) *Macro {
	m := &Macro{Title: title}
	var days []valuation.Date
	for _, s := range t.Series {
		m.Headers = append(m.Headers, s.Name)
		days = append(days, s.Dates()...)
	}
	slices.SortFunc(days, func(a, b valuation.Date) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		}
		return 0
	})
	days = slices.Compact(days)

	for _, day := range days {
		row := MacroRow{Date: day}
		for _, s := range t.Series {
			row.Values = append(row.Values, at(s, day))
		}
		for _, s := range t.Shares {
			row.Shares = append(row.Shares, at(s, day))
		}
		m.Rows = append(m.Rows, row)
	}
	return m
}

func at(s *valuation.Series, day valuation.Date) float64 {
	if v, ok := s.At(day); ok {
		return v
	}
	return nan
}
