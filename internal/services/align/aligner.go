// Package align joins two daily series on their common dates.
package align

import "PairLab/internal/domain/models"

// Align restricts a and b to r (inclusive) and keeps the dates present in
// both. An inverted range or disjoint histories give an empty result.
func Align(a, b models.Series, r models.DateRange) models.AlignedPairSeries {
	out := models.AlignedPairSeries{SymbolA: a.Symbol, SymbolB: b.Symbol, Range: r}
	if r.End.Before(r.Start) {
		return out
	}
	pa := a.Slice(r.Start, r.End).Points
	pb := b.Slice(r.Start, r.End).Points

	i, j := 0, 0
	for i < len(pa) && j < len(pb) {
		switch c := pa[i].Date.Compare(pb[j].Date); {
		case c < 0:
			i++
		case c > 0:
			j++
		default:
			out.Rows = append(out.Rows, models.AlignedRow{
				Date:   pa[i].Date,
				CloseA: pa[i].AdjClose,
				VolA:   pa[i].Volume,
				CloseB: pb[j].AdjClose,
				VolB:   pb[j].Volume,
			})
			i++
			j++
		}
	}
	return out
}
