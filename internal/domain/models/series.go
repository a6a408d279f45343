package models

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// Symbol is a normalized (trimmed, upper-case) ticker.
type Symbol string

var symbolPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-^=]{0,19}$`)

// NormalizeSymbol trims and upper-cases s and checks it looks like a ticker.
func NormalizeSymbol(s string) (Symbol, error) {
	n := strings.ToUpper(strings.TrimSpace(s))
	if !symbolPattern.MatchString(n) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, s)
	}
	return Symbol(n), nil
}

func (s Symbol) String() string { return string(s) }

// PricePoint is one daily observation of a symbol.
type PricePoint struct {
	Date     Date    `json:"date"`
	AdjClose float64 `json:"adj_close"`
	Volume   uint64  `json:"vol"`
}

// Series is the cached history of one symbol, ordered by strictly increasing date.
type Series struct {
	Symbol Symbol       `json:"symbol"`
	Points []PricePoint `json:"points"`
}

func (s Series) Len() int { return len(s.Points) }

// First returns the earliest date of the series.
func (s Series) First() (Date, bool) {
	if len(s.Points) == 0 {
		return Date{}, false
	}
	return s.Points[0].Date, true
}

// Last returns the latest date of the series.
func (s Series) Last() (Date, bool) {
	if len(s.Points) == 0 {
		return Date{}, false
	}
	return s.Points[len(s.Points)-1].Date, true
}

// index returns the position of the first point dated on or after d.
func (s Series) index(d Date) int {
	return sort.Search(len(s.Points), func(i int) bool { return !s.Points[i].Date.Before(d) })
}

// Contains reports whether the series has an observation on d.
func (s Series) Contains(d Date) bool {
	i := s.index(d)
	return i < len(s.Points) && s.Points[i].Date == d
}

// Slice returns the points dated within [start, end]. The returned series
// shares its backing array with s.
func (s Series) Slice(start, end Date) Series {
	out := Series{Symbol: s.Symbol}
	if end.Before(start) {
		return out
	}
	lo := s.index(start)
	hi := s.index(end.AddDays(1))
	out.Points = s.Points[lo:hi]
	return out
}

// Validate checks the ordering invariant and that closes are finite.
func (s Series) Validate() error {
	for i, p := range s.Points {
		if p.Date.IsZero() {
			return fmt.Errorf("point %d: zero date", i)
		}
		if math.IsNaN(p.AdjClose) || math.IsInf(p.AdjClose, 0) {
			return fmt.Errorf("point %d (%s): non-finite close", i, p.Date)
		}
		if i > 0 && !s.Points[i-1].Date.Before(p.Date) {
			return fmt.Errorf("point %d (%s): date not after %s", i, p.Date, s.Points[i-1].Date)
		}
	}
	return nil
}

// NormalizePoints sorts points by date and keeps the last observation of
// each day, dropping non-finite closes.
func NormalizePoints(points []PricePoint) []PricePoint {
	out := make([]PricePoint, 0, len(points))
	for _, p := range points {
		if p.Date.IsZero() || math.IsNaN(p.AdjClose) || math.IsInf(p.AdjClose, 0) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	dedup := out[:0]
	for _, p := range out {
		if n := len(dedup); n > 0 && dedup[n-1].Date == p.Date {
			dedup[n-1] = p
			continue
		}
		dedup = append(dedup, p)
	}
	return dedup
}

// DateRange is an inclusive calendar range.
type DateRange struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Contains reports whether d lies in [Start, End].
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

func (r DateRange) String() string { return r.Start.String() + ".." + r.End.String() }
