package valuation

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Record is a raw dated observation as returned by a provider.
type Record struct {
	Date  string
	Value any
}

// Window is a trailing rolling aggregation, like Window{4, Sum} for trailing twelve months on quarterly data.
type Window struct {
	N   int
	Agg Agg
}

// TTM is the trailing twelve months window for quarterly statements.
var TTM = &Window{N: 4, Agg: Sum}

// Bucket is a calendar resampling.
type Bucket struct {
	Period Period
	Agg    Agg
}

// NormalizeOptions drives the conversion of raw records into a Series.
type NormalizeOptions struct {
	DateLayout string  // time layout of the dates, ISO when empty
	Resample   *Bucket // applied first, when set
	Rolling    *Window // applied after resampling, when set
}

// Normalize turns raw records into a chronologically ordered series.
//
// Values that are not numbers nor numeric strings become NaN. When two records
// share the same date the last one wins.
func Normalize(name string, records []Record, opts NormalizeOptions) (*Series, error) {
	s := NewSeries(name)
	for _, r := range records {
		on, err := ParseDateLayout(r.Date, opts.DateLayout)
		if err != nil {
			return nil, fmt.Errorf("normalizing %s: %w", name, err)
		}
		s.Append(on, Coerce(r.Value))
	}
	return apply(s, opts.Resample, opts.Rolling), nil
}

func apply(s *Series, b *Bucket, w *Window) *Series {
	if b != nil {
		s = s.Resample(b.Period, b.Agg)
	}
	if w != nil {
		s = s.Rolling(w.N, w.Agg)
	}
	return s
}

// Coerce converts a decoded JSON value into a float64, NaN when it is not numeric.
func Coerce(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case string:
		x = strings.TrimSpace(x)
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			// BCCh uses decimal commas in some exports.
			f, err = strconv.ParseFloat(strings.Replace(x, ",", ".", 1), 64)
			if err != nil {
				return math.NaN()
			}
		}
		return f
	default:
		return math.NaN()
	}
}

// Table is a set of series sharing a date index, typically one financial statement.
type Table struct {
	Name    string
	columns map[string]*Series
	order   []string
}

// NewTable returns an empty table.
func NewTable(name string) *Table {
	return &Table{Name: name, columns: make(map[string]*Series)}
}

// Set adds or replaces a column.
func (t *Table) Set(s *Series) {
	if _, exists := t.columns[s.Name]; !exists {
		t.order = append(t.order, s.Name)
	}
	t.columns[s.Name] = s
}

// Column returns the named column or a MissingFieldError.
func (t *Table) Column(name string) (*Series, error) {
	s, ok := t.columns[name]
	if !ok {
		return nil, &MissingFieldError{Symbol: t.Name, Field: name}
	}
	return s, nil
}

// Has reports whether the column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// Columns returns the column names in insertion order.
func (t *Table) Columns() []string { return slices.Clone(t.order) }

// Latest returns the latest valid value of a column.
func (t *Table) Latest(name string) (float64, error) {
	s, err := t.Column(name)
	if err != nil {
		return 0, err
	}
	_, v, ok := s.LatestValid()
	if !ok {
		return 0, &MissingFieldError{Symbol: t.Name, Field: name}
	}
	return v, nil
}

// Map returns a new table with f applied to every value of every column.
func (t *Table) Map(f func(on Date, v float64) float64) *Table {
	res := NewTable(t.Name)
	for _, name := range t.order {
		col := t.columns[name]
		out := NewSeries(name)
		for on, v := range col.Values() {
			out.days, out.values = append(out.days, on), append(out.values, f(on, v))
		}
		res.Set(out)
	}
	return res
}

// TableOptions drives the conversion of statement rows into a Table.
type TableOptions struct {
	DateField  string   // the field holding the row date, "date" when empty
	DateLayout string   // time layout of the dates, ISO when empty
	Drop       []string // columns to ignore
	Resample   *Bucket
	Rolling    *Window
}

// NormalizeTable converts statement rows (one map of field to value per
// reporting date) into a Table, one column per field.
func NormalizeTable(name string, rows []map[string]any, opts TableOptions) (*Table, error) {
	dateField := opts.DateField
	if dateField == "" {
		dateField = "date"
	}
	drop := append(slices.Clone(opts.Drop), dateField)

	records := make(map[string][]Record)
	var fields []string
	for _, row := range rows {
		raw, ok := row[dateField]
		if !ok {
			return nil, &MissingFieldError{Symbol: name, Field: dateField}
		}
		day, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("normalizing %s: date field %q is %T", name, dateField, raw)
		}
		for field, v := range row {
			if slices.Contains(drop, field) {
				continue
			}
			if _, seen := records[field]; !seen {
				fields = append(fields, field)
			}
			records[field] = append(records[field], Record{Date: day, Value: v})
		}
	}
	slices.Sort(fields) // map iteration order is random

	t := NewTable(name)
	for _, field := range fields {
		s, err := Normalize(field, records[field], NormalizeOptions{DateLayout: opts.DateLayout})
		if err != nil {
			return nil, err
		}
		// make every column share the full date index, missing cells being NaN.
		for _, row := range rows {
			on, _ := ParseDateLayout(row[dateField].(string), opts.DateLayout)
			if _, ok := s.At(on); !ok {
				s.Append(on, math.NaN())
			}
		}
		t.Set(apply(s, opts.Resample, opts.Rolling))
	}
	return t, nil
}
