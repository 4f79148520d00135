package valuation

import (
	"math"
	"testing"
	"time"
)

func q(year int, quarter int) Date {
	return NewDate(year, time.Month(quarter*3)+1, 0)
}

func series(name string, start Date, values ...float64) *Series {
	s := NewSeries(name)
	for i, v := range values {
		s.Append(start.StartOf(Quarterly).AddMonth(3*i).EndOf(Quarterly), v)
	}
	return s
}

func sameFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.IsNaN(a[i]) != math.IsNaN(b[i]) {
			return false
		}
		if !math.IsNaN(a[i]) && math.Abs(a[i]-b[i]) > 1e-9 {
			return false
		}
	}
	return true
}

func TestAppend(t *testing.T) {
	s := NewSeries("x")
	d1, d2, d3 := NewDate(2025, 7, 1), NewDate(2024, 7, 1), NewDate(2024, 12, 31)

	s.Append(d1, 1).Append(d2, 2).Append(d3, 3)
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	want := []Date{d2, d3, d1}
	for i, on := range s.Dates() {
		if on != want[i] {
			t.Errorf("Dates()[%d] = %v, want %v", i, on, want[i])
		}
	}

	// duplicate date: last one wins
	s.Append(d3, 30)
	if s.Len() != 3 {
		t.Errorf("Append(duplicate).Len() = %d, want 3", s.Len())
	}
	if v, _ := s.At(d3); v != 30 {
		t.Errorf("At(%v) = %v, want 30", d3, v)
	}
	if on, v := s.Latest(); on != d1 || v != 1 {
		t.Errorf("Latest() = %v, %v, want %v, 1", on, v, d1)
	}
}

func TestDatesStrictlyIncreasing(t *testing.T) {
	s := NewSeries("x")
	for _, d := range []string{"2024-03-31", "2023-12-31", "2024-03-31", "2023-06-30", "2024-09-30", "2023-06-30"} {
		s.Append(MustParse(d), 1)
	}
	dates := s.Dates()
	for i := 1; i < len(dates); i++ {
		if !dates[i-1].Before(dates[i]) {
			t.Errorf("Dates() not strictly increasing at %d: %v then %v", i, dates[i-1], dates[i])
		}
	}
	if len(dates) != 4 {
		t.Errorf("len(Dates()) = %d, want 4", len(dates))
	}
}

func TestRolling(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name   string
		values []float64
		n      int
		agg    Agg
		want   []float64
	}{
		{"ttm sum", []float64{1, 2, 3, 4, 5}, 4, Sum, []float64{nan, nan, nan, 10, 14}},
		{"fewer than window", []float64{1, 2, 3}, 4, Sum, []float64{nan, nan, nan}},
		{"gap stays missing", []float64{1, nan, 3, 4, 5}, 2, Sum, []float64{nan, nan, nan, 7, 9}},
		{"median", []float64{3, 1, 2, 10}, 3, Median, []float64{nan, nan, 2, 2}},
		{"mean", []float64{2, 4, 6}, 2, Mean, []float64{nan, 3, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := series("x", q(2020, 1), tt.values...).Rolling(tt.n, tt.agg).Floats()
			if !sameFloats(got, tt.want) {
				t.Errorf("Rolling(%d, %v) = %v, want %v", tt.n, tt.agg, got, tt.want)
			}
		})
	}
}

func TestResample(t *testing.T) {
	s := NewSeries("ipsa")
	s.Append(NewDate(2024, 1, 2), 10)
	s.Append(NewDate(2024, 1, 31), 20)
	s.Append(NewDate(2024, 2, 15), math.NaN())
	s.Append(NewDate(2024, 2, 16), 40)
	s.Append(NewDate(2024, 4, 1), 50)

	got := s.Resample(Monthly, Mean)
	wantDates := []Date{NewDate(2024, 1, 31), NewDate(2024, 2, 29), NewDate(2024, 4, 30)}
	wantValues := []float64{15, 40, 50}
	if !sameFloats(got.Floats(), wantValues) {
		t.Errorf("Resample(Monthly, Mean) = %v, want %v", got.Floats(), wantValues)
	}
	for i, on := range got.Dates() {
		if on != wantDates[i] {
			t.Errorf("Resample(Monthly, Mean).Dates()[%d] = %v, want %v", i, on, wantDates[i])
		}
	}

	quarterly := s.Resample(Quarterly, Sum)
	if !sameFloats(quarterly.Floats(), []float64{70, 50}) {
		t.Errorf("Resample(Quarterly, Sum) = %v, want [70 50]", quarterly.Floats())
	}
}

func TestPctChange(t *testing.T) {
	nan := math.NaN()
	got := series("x", q(2020, 1), 100, 110, 0, 5, 10).PctChange().Floats()
	want := []float64{nan, 0.1, -1, nan, 1}
	if !sameFloats(got, want) {
		t.Errorf("PctChange() = %v, want %v", got, want)
	}
}

func TestZip(t *testing.T) {
	a := series("a", q(2020, 1), 1, 2, 3)
	b := series("b", q(2020, 2), 10, 20, 30)
	got := a.Zip(b, func(x, y float64) float64 { return x + y })
	if !sameFloats(got.Floats(), []float64{12, 23}) {
		t.Errorf("Zip() = %v, want [12 23]", got.Floats())
	}
}

func TestLatestValidAndTail(t *testing.T) {
	s := series("x", q(2020, 1), 1, 2, math.NaN())
	on, v, ok := s.LatestValid()
	if !ok || v != 2 || on != q(2020, 2) {
		t.Errorf("LatestValid() = %v, %v, %v, want %v, 2, true", on, v, ok, q(2020, 2))
	}
	if got := s.Tail(2).Floats(); !sameFloats(got, []float64{2, math.NaN()}) {
		t.Errorf("Tail(2) = %v, want [2 NaN]", got)
	}
	if got := s.Tail(10).Len(); got != 3 {
		t.Errorf("Tail(10).Len() = %d, want 3", got)
	}
	if _, _, ok := NewSeries("empty").LatestValid(); ok {
		t.Errorf("LatestValid() on empty series = true, want false")
	}
}

func TestParseAgg(t *testing.T) {
	for _, name := range []string{"sum", "mean", "median", "min", "max", "last", "first", "count"} {
		a, err := ParseAgg(name)
		if err != nil {
			t.Errorf("ParseAgg(%q) error = %v", name, err)
			continue
		}
		if a.String() != name {
			t.Errorf("ParseAgg(%q).String() = %q", name, a.String())
		}
	}
	if _, err := ParseAgg("mode"); err == nil {
		t.Errorf("ParseAgg(%q) want error", "mode")
	}
}
