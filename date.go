package valuation

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const readDateFormat = "2006-1-2" // Permissive read date format (allows single-digit month/day).

// DateFormat is the format used to represent dates as strings in ISO-8601 format.
const DateFormat = "2006-01-02" // write date format

// Date represents a date with day-level granularity.
type Date struct {
	y int        // year
	m time.Month // month
	d int        // day
}

// NewDate returns a normalized Date for the given year, month, and day.
func NewDate(year int, month time.Month, day int) Date {
	d := Date{year, month, day}
	d.y, d.m, d.d = d.time().Date()
	return d
}

// Year returns current year.
func (d Date) Year() int { return d.y }

// Month returns the month of the date.
func (d Date) Month() time.Month { return d.time().Month() }

// Day returns current day of the month.
func (d Date) Day() int { return d.d }

// String format the date in its standard format.
func (d Date) String() string { return d.time().Format(DateFormat) }

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d.y == 0 && d.m == 0 && d.d == 0 }

// time returns a time.Time that is a canonical representation of that day (at midnight UTC).
func (d Date) time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// Time returns the day at midnight UTC.
func (d Date) Time() time.Time { return d.time() }

// Format formats the date using the time layout.
func (d Date) Format(layout string) string { return d.time().Format(layout) }

// Before reports whether the day d is before x.
func (d Date) Before(x Date) bool { return d.time().Before(x.time()) }

// After reports whether the day d is after x.
func (d Date) After(x Date) bool { return d.time().After(x.time()) }

// Today returns the current date.
func Today() Date { return NewDate(time.Now().Date()) }

// Add returns a new Date with the given number of days added.
func (d Date) Add(i int) Date { return NewDate(d.y, d.m, d.d+i) }

// AddMonth returns a new Date with the given number of months added.
func (d Date) AddMonth(i int) Date { return NewDate(d.y, d.m+time.Month(i), d.d) }

// StartOf returns the date of begining of a given period
func (d Date) StartOf(period Period) Date {
	switch period {
	case Daily:
		return d
	case Weekly:
		weekday := d.time().Weekday() // time.Sunday = 0, ..., time.Saturday = 6
		offset := int(weekday - time.Monday)
		for offset < 0 {
			offset += 7
		}
		return d.Add(-offset)
	case Monthly:
		return NewDate(d.Year(), d.Month(), 1)
	case Quarterly:
		quarter := (d.Month() - 1) / 3
		startMonth := time.Month(quarter*3 + 1)
		return NewDate(d.Year(), startMonth, 1)
	case Yearly:
		return NewDate(d.Year(), time.January, 1)
	default:
		panic("unknown period")
	}
}

// EndOf returns the date of end of a given period
func (d Date) EndOf(period Period) Date {
	switch period {
	case Daily:
		return d
	case Weekly:
		weekday := d.time().Weekday()
		offset := int(7 - weekday)
		for offset >= 7 {
			offset -= 7
		}
		return d.Add(offset)
	case Monthly:
		return NewDate(d.Year(), d.Month()+1, 0)
	case Quarterly:
		quarter := (d.Month() - 1) / 3          // in [0..3]
		endMonth := time.Month(quarter*3 + 3)   // in [1..12] hence the +3
		return NewDate(d.Year(), endMonth+1, 0) // last is next month on the day 0
	case Yearly:
		return NewDate(d.Year()+1, time.January, 0)
	default:
		panic("unknown period")
	}
}

// ParseDate parses a Date from a string. It is lenient and accepts formats like "2025-7-1".
func ParseDate(str string) (Date, error) {
	str = strings.TrimSpace(str)
	on, err := time.Parse(readDateFormat, str)
	if err != nil {
		// eodhd sometimes sends full timestamps
		on, err = time.Parse("2006-01-02 15:04:05", str)
	}
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q want format %q: %w", str, readDateFormat, err)
	}
	return NewDate(on.Date()), nil
}

// ParseDateLayout parses a Date using an explicit time layout, like "02-01-2006".
// An empty layout falls back to ParseDate.
func ParseDateLayout(str, layout string) (Date, error) {
	if layout == "" {
		return ParseDate(str)
	}
	on, err := time.Parse(layout, strings.TrimSpace(str))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q want format %q: %w", str, layout, err)
	}
	return NewDate(on.Date()), nil
}

// MustParse is like ParseDate but panics on error.
func MustParse(str string) Date {
	d, err := ParseDate(str)
	if err != nil {
		panic(err.Error())
	}
	return d
}

// UnmarshalJSON implements the json specific way to unmarshall a date from a json string.
func (d *Date) UnmarshalJSON(bytes []byte) error {
	var str string
	if err := json.Unmarshal(bytes, &str); err != nil {
		return err
	}
	on, err := ParseDate(str)
	if err != nil {
		return err
	}
	*d = on
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	str := d.String()
	return json.Marshal(&str)
}

// check that a Date pointer is a valid json marshall/unmarshaller type.
var _ json.Marshaler = (*Date)(nil)
var _ json.Unmarshaler = (*Date)(nil)
