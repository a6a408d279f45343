// Package calendar approximates exchange trading days from cached data.
package calendar

import (
	"context"

	"PairLab/internal/domain/models"
	"PairLab/internal/domain/repository"
	applogger "PairLab/pkg/logger"
)

// DefaultReferenceSymbols are liquid US listings whose cached histories mark
// trading days.
var DefaultReferenceSymbols = []models.Symbol{"AAPL", "MSFT", "GOOG", "NVDA", "TSLA", "AMZN"}

const DefaultLookbackDays = 5

// Resolver is a heuristic Calendar: a day is a trading day when any reference
// symbol's cached series has an observation on it. It never fetches, so with
// a cold cache it falls back to the day before the requested date.
type Resolver struct {
	reader   repository.SeriesReader
	refs     []models.Symbol
	lookback int
	logger   *applogger.Logger
}

func NewResolver(reader repository.SeriesReader, refs []models.Symbol, lookback int, logger *applogger.Logger) *Resolver {
	if len(refs) == 0 {
		refs = DefaultReferenceSymbols
	}
	if lookback <= 0 {
		lookback = DefaultLookbackDays
	}
	if logger == nil {
		logger = applogger.NewNop()
	}
	return &Resolver{reader: reader, refs: refs, lookback: lookback, logger: logger}
}

// LastTradingDayOnOrBefore scans back from d−1 for up to lookback days and
// returns the first day found in a reference series, or d−1.
func (r *Resolver) LastTradingDayOnOrBefore(ctx context.Context, d models.Date) models.Date {
	fallback := d.AddDays(-1)

	cached := make([]models.Series, 0, len(r.refs))
	for _, sym := range r.refs {
		s, err := r.reader.Load(ctx, sym)
		if err != nil {
			r.logger.Debug("calendar reference unavailable",
				applogger.String("symbol", sym.String()),
				applogger.Error(err))
			continue
		}
		cached = append(cached, s)
	}

	day := fallback
	for i := 0; i < r.lookback; i++ {
		for _, s := range cached {
			if s.Contains(day) {
				return day
			}
		}
		day = day.AddDays(-1)
	}
	return fallback
}

var _ repository.Calendar = (*Resolver)(nil)
