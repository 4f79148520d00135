package valuation

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Agg is a named aggregation used to collapse a window or a bucket of values.
type Agg int

const (
	Sum Agg = iota
	Mean
	Median
	Min
	Max
	Last
	First
	Count
)

func (a Agg) String() string {
	switch a {
	case Sum:
		return "sum"
	case Mean:
		return "mean"
	case Median:
		return "median"
	case Min:
		return "min"
	case Max:
		return "max"
	case Last:
		return "last"
	case First:
		return "first"
	case Count:
		return "count"
	default:
		return "agg"
	}
}

// ParseAgg parses an aggregation name like "sum" or "median".
func ParseAgg(name string) (Agg, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sum":
		return Sum, nil
	case "mean", "avg", "average":
		return Mean, nil
	case "median":
		return Median, nil
	case "min":
		return Min, nil
	case "max":
		return Max, nil
	case "last":
		return Last, nil
	case "first":
		return First, nil
	case "count":
		return Count, nil
	default:
		return Sum, fmt.Errorf("unknown aggregation %q", name)
	}
}

// Apply aggregates values. An empty slice yields NaN, except for Count and Sum.
func (a Agg) Apply(values []float64) float64 {
	if a == Count {
		return float64(len(values))
	}
	if len(values) == 0 {
		if a == Sum {
			return 0
		}
		return math.NaN()
	}
	switch a {
	case Sum:
		return floats.Sum(values)
	case Mean:
		return stat.Mean(values, nil)
	case Median:
		return median(values)
	case Min:
		return floats.Min(values)
	case Max:
		return floats.Max(values)
	case Last:
		return values[len(values)-1]
	case First:
		return values[0]
	default:
		panic("unknown aggregation")
	}
}

// median returns the middle value, averaging the two central values of an even sample.
func median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
