package valuation

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		input any
		want  float64
	}{
		{12.5, 12.5},
		{"12.5", 12.5},
		{" 3 ", 3},
		{"1,5", 1.5},
		{json.Number("42"), 42},
		{7, 7},
		{"None", math.NaN()},
		{"NeuN", math.NaN()},
		{nil, math.NaN()},
		{true, math.NaN()},
	}
	for _, tt := range tests {
		got := Coerce(tt.input)
		if math.IsNaN(tt.want) != math.IsNaN(got) || (!math.IsNaN(got) && got != tt.want) {
			t.Errorf("Coerce(%#v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	records := []Record{
		{"03-01-2024", "101.5"},
		{"02-01-2024", "100"},
		{"04-01-2024", "ND"},
		{"03-01-2024", "102"}, // duplicate, last wins
	}
	s, err := Normalize("F013", records, NormalizeOptions{DateLayout: "02-01-2006"})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	want := []float64{100, 102, math.NaN()}
	if !sameFloats(s.Floats(), want) {
		t.Errorf("Normalize() = %v, want %v", s.Floats(), want)
	}
	if s.Dates()[0] != MustParse("2024-01-02") {
		t.Errorf("Normalize() first date = %v, want 2024-01-02", s.Dates()[0])
	}

	if _, err := Normalize("bad", []Record{{"2024/01/02", 1}}, NormalizeOptions{}); err == nil {
		t.Errorf("Normalize() with bad date want error")
	}
}

func TestNormalizeRollingShortWindow(t *testing.T) {
	records := []Record{{"2024-03-31", 1}, {"2024-06-30", 2}, {"2024-09-30", 3}}
	s, err := Normalize("revenue", records, NormalizeOptions{Rolling: TTM})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	for on, v := range s.Values() {
		if !math.IsNaN(v) {
			t.Errorf("Normalize(TTM) at %v = %v, want NaN with fewer than 4 quarters", on, v)
		}
	}
}

func TestNormalizeResample(t *testing.T) {
	records := []Record{{"2024-01-15", 1}, {"2024-02-15", 2}, {"2024-03-15", 3}, {"2024-04-15", 4}}
	s, err := Normalize("gdp", records, NormalizeOptions{Resample: &Bucket{Quarterly, Sum}})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if !sameFloats(s.Floats(), []float64{6, 4}) {
		t.Errorf("Normalize(quarterly sum) = %v, want [6 4]", s.Floats())
	}
}

func statementRows() []map[string]any {
	return []map[string]any{
		{"date": "2023-12-31", "filing_date": "2024-03-01", "currency_symbol": "CLP", "totalRevenue": "400", "ebit": "40"},
		{"date": "2023-03-31", "filing_date": "2023-05-01", "currency_symbol": "CLP", "totalRevenue": "100", "ebit": "10"},
		{"date": "2023-09-30", "filing_date": "2023-11-01", "currency_symbol": "CLP", "totalRevenue": "300", "ebit": nil},
		{"date": "2023-06-30", "filing_date": "2023-08-01", "currency_symbol": "CLP", "totalRevenue": "200"},
		{"date": "2024-03-31", "filing_date": "2024-05-01", "currency_symbol": "CLP", "totalRevenue": "500", "ebit": "50"},
	}
}

func TestNormalizeTable(t *testing.T) {
	table, err := NormalizeTable("SQM-B.SN", statementRows(), TableOptions{
		Drop:    []string{"currency_symbol", "filing_date"},
		Rolling: TTM,
	})
	if err != nil {
		t.Fatalf("NormalizeTable() error = %v", err)
	}
	if table.Has("currency_symbol") || table.Has("filing_date") || table.Has("date") {
		t.Errorf("NormalizeTable() columns = %v, want dropped fields removed", table.Columns())
	}
	revenue, err := table.Column("totalRevenue")
	if err != nil {
		t.Fatalf("Column(totalRevenue) error = %v", err)
	}
	nan := math.NaN()
	if want := []float64{nan, nan, nan, 1000, 1400}; !sameFloats(revenue.Floats(), want) {
		t.Errorf("TTM revenue = %v, want %v", revenue.Floats(), want)
	}
	ebit, _ := table.Column("ebit")
	if ebit.Len() != 5 {
		t.Errorf("ebit.Len() = %d, want 5 aligned on the statement dates", ebit.Len())
	}
	if _, _, ok := ebit.LatestValid(); ok {
		t.Errorf("TTM ebit with missing quarters should stay missing")
	}

	_, err = table.Column("goodWill")
	var missing *MissingFieldError
	if !errors.As(err, &missing) || missing.Field != "goodWill" {
		t.Errorf("Column(goodWill) error = %v, want MissingFieldError", err)
	}
}

func TestNormalizeTableMissingDate(t *testing.T) {
	_, err := NormalizeTable("X", []map[string]any{{"totalRevenue": 1}}, TableOptions{})
	var missing *MissingFieldError
	if !errors.As(err, &missing) {
		t.Errorf("NormalizeTable() error = %v, want MissingFieldError", err)
	}
}
