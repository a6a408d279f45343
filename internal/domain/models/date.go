package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateFormat is the ISO-8601 text form of a Date.
const DateFormat = "2006-01-02"

// Date is a calendar day with no time of day, always interpreted in UTC.
type Date struct {
	y int
	m time.Month
	d int
}

// NewDate returns a normalized Date for the given year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the UTC calendar day of t.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{y, m, d}
}

// Today returns the current UTC day.
func Today() Date { return DateOf(time.Now()) }

// ParseDate parses an ISO date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// MustParseDate is ParseDate for constants and tests.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) Year() int { return d.y }
func (d Date) Month() time.Month { return d.m }
func (d Date) Day() int { return d.d }
func (d Date) IsZero() bool { return d.y == 0 && d.m == 0 && d.d == 0 }
func (d Date) String() string { return d.Time().Format(DateFormat) }
func (d Date) Weekday() time.Weekday { return d.Time().Weekday() }

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// AddDays returns the day n days after d (n may be negative).
func (d Date) AddDays(n int) Date { return NewDate(d.y, d.m, d.d+n) }

func (d Date) Before(x Date) bool { return d.Compare(x) < 0 }
func (d Date) After(x Date) bool { return d.Compare(x) > 0 }

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after x.
func (d Date) Compare(x Date) int {
	switch {
	case d.y != x.y:
		return cmpInt(d.y, x.y)
	case d.m != x.m:
		return cmpInt(int(d.m), int(x.m))
	default:
		return cmpInt(d.d, x.d)
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	v, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	v, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
