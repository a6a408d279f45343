package models

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSymbol(t *testing.T) {
	for in, want := range map[string]Symbol{
		" aapl ":   "AAPL",
		"brk.b":    "BRK.B",
		"eurusd=x": "EURUSD=X",
		"^gspc":    "",
		"":         "",
		"a b":      "",
	} {
		got, err := NormalizeSymbol(in)
		if want == "" {
			assert.ErrorIs(t, err, ErrInvalidSymbol, in)
			continue
		}
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
}

func TestDateArithmeticAndJSON(t *testing.T) {
	d := MustParseDate("2024-02-28")
	assert.Equal(t, "2024-03-01", d.AddDays(2).String())
	assert.True(t, d.Before(d.AddDays(1)))
	assert.Equal(t, 0, d.Compare(NewDate(2024, 2, 28)))

	b, err := json.Marshal(struct {
		D Date `json:"d"`
		Z Date `json:"z"`
	}{D: d})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2024-02-28","z":null}`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-02-28"`), &back))
	assert.Equal(t, d, back)

	_, err = ParseDate("28/02/2024")
	assert.Error(t, err)
}

func points(days ...string) []PricePoint {
	out := make([]PricePoint, len(days))
	for i, d := range days {
		out[i] = PricePoint{Date: MustParseDate(d), AdjClose: float64(i + 1), Volume: uint64(i)}
	}
	return out
}

func TestSeriesSliceAndContains(t *testing.T) {
	s := Series{Symbol: "AAA", Points: points("2024-01-02", "2024-01-03", "2024-01-05", "2024-01-08")}
	require.NoError(t, s.Validate())

	got := s.Slice(MustParseDate("2024-01-03"), MustParseDate("2024-01-07"))
	require.Equal(t, 2, got.Len())
	assert.Equal(t, "2024-01-03", got.Points[0].Date.String())
	assert.Equal(t, "2024-01-05", got.Points[1].Date.String())

	assert.Equal(t, 0, s.Slice(MustParseDate("2024-01-08"), MustParseDate("2024-01-02")).Len())
	assert.True(t, s.Contains(MustParseDate("2024-01-05")))
	assert.False(t, s.Contains(MustParseDate("2024-01-04")))
}

func TestSeriesValidateOrdering(t *testing.T) {
	s := Series{Points: points("2024-01-03", "2024-01-02")}
	assert.Error(t, s.Validate())

	s = Series{Points: []PricePoint{{Date: MustParseDate("2024-01-02"), AdjClose: math.NaN()}}}
	assert.Error(t, s.Validate())
}

func TestNormalizePoints(t *testing.T) {
	in := []PricePoint{
		{Date: MustParseDate("2024-01-03"), AdjClose: 3},
		{Date: MustParseDate("2024-01-02"), AdjClose: 2},
		{Date: MustParseDate("2024-01-03"), AdjClose: 4},
		{Date: MustParseDate("2024-01-04"), AdjClose: math.Inf(1)},
		{AdjClose: 9},
	}
	out := NormalizePoints(in)
	require.Len(t, out, 2)
	assert.Equal(t, 2.0, out[0].AdjClose)
	assert.Equal(t, 4.0, out[1].AdjClose)
}

func TestAlignedPairSeriesJSONColumns(t *testing.T) {
	p := AlignedPairSeries{
		SymbolA: "AAA",
		SymbolB: "BBB",
		Rows:    []AlignedRow{{Date: MustParseDate("2024-01-02"), CloseA: 1.5, VolA: 10, CloseB: 2.5, VolB: 20}},
	}
	assert.Equal(t, []string{"date", "adj_close_AAA", "vol_AAA", "adj_close_BBB", "vol_BBB"}, p.Columns())
	assert.Equal(t, [][]string{{"2024-01-02", "1.5", "10", "2.5", "20"}}, p.Records())

	b, err := json.Marshal(p)
	require.NoError(t, err)
	var decoded struct {
		Count int              `json:"count"`
		Rows  []map[string]any `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, 1, decoded.Count)
	assert.Equal(t, 2.5, decoded.Rows[0]["adj_close_BBB"])
}

func TestHalfLifeJSON(t *testing.T) {
	b, err := json.Marshal(HalfLife{Days: 3.5, Applicable: true})
	require.NoError(t, err)
	assert.Equal(t, "3.5", string(b))

	var hl HalfLife
	require.NoError(t, json.Unmarshal([]byte("null"), &hl))
	assert.False(t, hl.Applicable)
}

func TestTypedErrorsMatchSentinels(t *testing.T) {
	wrapped := errors.Join(errors.New("ctx"), &ProviderError{Symbol: "AAA", Provider: "yahoo", Err: errors.New("boom")})
	assert.ErrorIs(t, wrapped, ErrProvider)
	assert.ErrorIs(t, &InvalidRangeError{Reason: "x"}, ErrInvalidRange)
	assert.ErrorIs(t, &InsufficientDataError{Metric: "adf"}, ErrInsufficientData)
	assert.ErrorIs(t, &DegenerateRegressionError{Metric: "beta"}, ErrDegenerateRegression)
	assert.ErrorIs(t, &CacheCorruptionError{Symbol: "AAA", Err: errors.New("bad")}, ErrCacheCorruption)
}
