package valuation

import (
	"iter"
	"math"
	"slices"
	"sort"
)

// Series stores a chronological series of values, each associated with a specific date.
// It ensures that dates are unique and the series is always sorted.
//
// Missing observations are stored as NaN, so that windows spanning a gap stay
// missing instead of silently shrinking.
type Series struct {
	Name   string
	days   []Date
	values []float64
}

// NewSeries returns an empty named series.
func NewSeries(name string) *Series { return &Series{Name: name} }

// Len returns the number of items in the series.
func (s *Series) Len() int { return len(s.days) }

// Latest returns the latest date and value in the series.
// If the series is empty, it returns zero date and NaN.
func (s *Series) Latest() (day Date, value float64) {
	last := len(s.days) - 1
	if last < 0 {
		return Date{}, math.NaN()
	}
	return s.days[last], s.values[last]
}

// LatestValid returns the most recent non NaN observation, false if there is none.
func (s *Series) LatestValid() (Date, float64, bool) {
	for i := len(s.days) - 1; i >= 0; i-- {
		if !math.IsNaN(s.values[i]) {
			return s.days[i], s.values[i], true
		}
	}
	return Date{}, math.NaN(), false
}

// chronological is a private implementation to make this series chronologically sorted.
type chronological struct{ *Series }

func (s chronological) Less(i, j int) bool { return s.days[i].Before(s.days[j]) }

func (s chronological) Swap(i, j int) {
	s.days[i], s.days[j] = s.days[j], s.days[i]
	s.values[i], s.values[j] = s.values[j], s.values[i]
}

// Append adds a point to the series.
//
// Existing value at that date are overwritten.
func (s *Series) Append(on Date, v float64) *Series {
	if i := slices.Index(s.days, on); i >= 0 {
		// last one wins, it gives higher priority to the last data received.
		s.values[i] = v
		return s
	}
	s.days, s.values = append(s.days, on), append(s.values, v)
	// cheap path for the common chronological appends.
	if n := len(s.days); n > 1 && s.days[n-2].After(on) {
		sort.Stable(chronological{s})
	}
	return s
}

// Values returns an iterator over all date/value pairs in the series, in chronological order.
func (s *Series) Values() iter.Seq2[Date, float64] {
	return func(yield func(Date, float64) bool) {
		for i, on := range s.days {
			if !yield(on, s.values[i]) {
				return
			}
		}
	}
}

// At returns the value at 'day' and true or NaN and false.
func (s *Series) At(day Date) (float64, bool) {
	i, found := s.search(day)
	if !found {
		return math.NaN(), false
	}
	return s.values[i], true
}

func (s *Series) search(day Date) (int, bool) {
	return slices.BinarySearchFunc(s.days, day, func(d, t Date) int {
		if d.After(t) {
			return 1
		}
		if d.Before(t) {
			return -1
		}
		return 0
	})
}

// Dates returns a copy of the date index.
func (s *Series) Dates() []Date { return slices.Clone(s.days) }

// Floats returns a copy of the values, NaN included.
func (s *Series) Floats() []float64 { return slices.Clone(s.values) }

// Valid returns a new series without the missing observations.
func (s *Series) Valid() *Series {
	res := NewSeries(s.Name)
	for i, on := range s.days {
		if !math.IsNaN(s.values[i]) {
			res.days, res.values = append(res.days, on), append(res.values, s.values[i])
		}
	}
	return res
}

// Tail returns the last n observations.
func (s *Series) Tail(n int) *Series {
	if n > len(s.days) {
		n = len(s.days)
	}
	if n < 0 {
		n = 0
	}
	start := len(s.days) - n
	return &Series{
		Name:   s.Name,
		days:   slices.Clone(s.days[start:]),
		values: slices.Clone(s.values[start:]),
	}
}

// Map returns a new series with f applied to every value.
func (s *Series) Map(f func(float64) float64) *Series {
	res := &Series{Name: s.Name, days: slices.Clone(s.days), values: make([]float64, len(s.values))}
	for i, v := range s.values {
		res.values[i] = f(v)
	}
	return res
}

// Zip combines s and t on their common dates using f.
func (s *Series) Zip(t *Series, f func(a, b float64) float64) *Series {
	res := NewSeries(s.Name)
	for i, on := range s.days {
		if v, ok := t.At(on); ok {
			res.days, res.values = append(res.days, on), append(res.values, f(s.values[i], v))
		}
	}
	return res
}

// Rolling applies agg over a trailing window of n observations.
//
// The first n-1 points, and any window containing a missing value, are NaN:
// a partial window never yields a partial aggregate.
func (s *Series) Rolling(n int, agg Agg) *Series {
	res := &Series{Name: s.Name, days: slices.Clone(s.days), values: make([]float64, len(s.values))}
	for i := range s.values {
		if n <= 0 || i+1 < n {
			res.values[i] = math.NaN()
			continue
		}
		window := s.values[i+1-n : i+1]
		if slices.ContainsFunc(window, math.IsNaN) {
			res.values[i] = math.NaN()
			continue
		}
		res.values[i] = agg.Apply(window)
	}
	return res
}

// Resample groups observations by calendar period and aggregates each bucket.
//
// Buckets are labelled with the last day of the period. Missing values are
// ignored within a bucket; an all missing bucket is NaN.
func (s *Series) Resample(p Period, agg Agg) *Series {
	res := NewSeries(s.Name)
	var bucket []float64
	var current Date
	flush := func() {
		if current.IsZero() {
			return
		}
		v := math.NaN()
		if valid := dropNaN(bucket); len(valid) > 0 {
			v = agg.Apply(valid)
		}
		res.days, res.values = append(res.days, current), append(res.values, v)
	}
	for i, on := range s.days {
		end := on.EndOf(p)
		if end != current {
			flush()
			current, bucket = end, bucket[:0]
		}
		bucket = append(bucket, s.values[i])
	}
	flush()
	return res
}

// PctChange returns the relative change between consecutive observations.
// The first point is NaN, and so is any change from a zero or missing value.
func (s *Series) PctChange() *Series {
	res := &Series{Name: s.Name, days: slices.Clone(s.days), values: make([]float64, len(s.values))}
	for i := range s.values {
		if i == 0 || s.values[i-1] == 0 {
			res.values[i] = math.NaN()
			continue
		}
		res.values[i] = s.values[i]/s.values[i-1] - 1
	}
	return res
}

func dropNaN(values []float64) []float64 {
	res := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			res = append(res, v)
		}
	}
	return res
}
