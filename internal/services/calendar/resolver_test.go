package calendar

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"PairLab/internal/domain/models"
)

type mapReader map[models.Symbol]models.Series

func (m mapReader) Load(_ context.Context, sym models.Symbol) (models.Series, error) {
	s, ok := m[sym]
	if !ok {
		return models.Series{}, models.ErrSeriesNotFound
	}
	return s, nil
}

func days(sym string, ds ...string) models.Series {
	s := models.Series{Symbol: models.Symbol(sym)}
	for _, d := range ds {
		s.Points = append(s.Points, models.PricePoint{Date: models.MustParseDate(d), AdjClose: 1})
	}
	return s
}

func TestResolverSkipsWeekend(t *testing.T) {
	reader := mapReader{"AAPL": days("AAPL", "2024-01-04", "2024-01-05", "2024-01-08")}
	r := NewResolver(reader, nil, 0, nil)

	// Monday 2024-01-08: scan starts Sunday, Saturday, lands on Friday.
	got := r.LastTradingDayOnOrBefore(context.Background(), models.MustParseDate("2024-01-08"))
	assert.Equal(t, models.MustParseDate("2024-01-05"), got)
}

func TestResolverAnyReferenceMatches(t *testing.T) {
	reader := mapReader{
		"AAPL": days("AAPL", "2024-01-02"),
		"MSFT": days("MSFT", "2024-01-03"),
	}
	r := NewResolver(reader, []models.Symbol{"AAPL", "MSFT"}, 5, nil)

	got := r.LastTradingDayOnOrBefore(context.Background(), models.MustParseDate("2024-01-04"))
	assert.Equal(t, models.MustParseDate("2024-01-03"), got)
}

func TestResolverFallsBackToPreviousDay(t *testing.T) {
	r := NewResolver(mapReader{}, nil, 5, nil)
	got := r.LastTradingDayOnOrBefore(context.Background(), models.MustParseDate("2024-01-08"))
	assert.Equal(t, models.MustParseDate("2024-01-07"), got)

	// Data exists but outside the lookback window.
	reader := mapReader{"AAPL": days("AAPL", "2023-12-01")}
	r = NewResolver(reader, nil, 3, nil)
	got = r.LastTradingDayOnOrBefore(context.Background(), models.MustParseDate("2024-01-08"))
	assert.Equal(t, models.MustParseDate("2024-01-07"), got)
}
