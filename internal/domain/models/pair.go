package models

import (
	"encoding/json"
	"strconv"
)

// AlignedRow is one date present in both series of a pair.
type AlignedRow struct {
	Date   Date
	CloseA float64
	VolA   uint64
	CloseB float64
	VolB   uint64
}

// AlignedPairSeries is the inner join of two series on date, restricted to a range.
// It is recomputed per request and never persisted.
type AlignedPairSeries struct {
	SymbolA Symbol
	SymbolB Symbol
	Range   DateRange
	Rows    []AlignedRow
}

func (p AlignedPairSeries) Len() int { return len(p.Rows) }

// ClosesA returns the adjusted closes of the first symbol.
func (p AlignedPairSeries) ClosesA() []float64 {
	out := make([]float64, len(p.Rows))
	for i, r := range p.Rows {
		out[i] = r.CloseA
	}
	return out
}

// ClosesB returns the adjusted closes of the second symbol.
func (p AlignedPairSeries) ClosesB() []float64 {
	out := make([]float64, len(p.Rows))
	for i, r := range p.Rows {
		out[i] = r.CloseB
	}
	return out
}

// Columns returns the per-symbol namespaced column names.
func (p AlignedPairSeries) Columns() []string {
	a, b := string(p.SymbolA), string(p.SymbolB)
	return []string{"date", "adj_close_" + a, "vol_" + a, "adj_close_" + b, "vol_" + b}
}

// Records renders the rows as text records in Columns order.
func (p AlignedPairSeries) Records() [][]string {
	out := make([][]string, 0, len(p.Rows))
	for _, r := range p.Rows {
		out = append(out, []string{
			r.Date.String(),
			strconv.FormatFloat(r.CloseA, 'g', -1, 64),
			strconv.FormatUint(r.VolA, 10),
			strconv.FormatFloat(r.CloseB, 'g', -1, 64),
			strconv.FormatUint(r.VolB, 10),
		})
	}
	return out
}

// MarshalJSON emits rows keyed by the namespaced column names.
func (p AlignedPairSeries) MarshalJSON() ([]byte, error) {
	cols := p.Columns()
	rows := make([]map[string]any, 0, len(p.Rows))
	for _, r := range p.Rows {
		rows = append(rows, map[string]any{
			cols[0]: r.Date,
			cols[1]: r.CloseA,
			cols[2]: r.VolA,
			cols[3]: r.CloseB,
			cols[4]: r.VolB,
		})
	}
	return json.Marshal(struct {
		SymbolA Symbol           `json:"symbol_a"`
		SymbolB Symbol           `json:"symbol_b"`
		Range   DateRange        `json:"range"`
		Columns []string         `json:"columns"`
		Count   int              `json:"count"`
		Rows    []map[string]any `json:"rows"`
	}{p.SymbolA, p.SymbolB, p.Range, cols, len(rows), rows})
}
