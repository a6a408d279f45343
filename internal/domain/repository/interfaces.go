package repository

import (
	"context"

	"PairLab/internal/domain/models"
)

// SeriesRepository persists one Series per symbol. Replace swaps the whole
// series atomically; Load returns models.ErrSeriesNotFound when nothing is
// cached and a *models.CacheCorruptionError when the stored form is unreadable.
type SeriesRepository interface {
	Load(ctx context.Context, symbol models.Symbol) (models.Series, error)
	Replace(ctx context.Context, series models.Series) error
	Close() error
}

// SeriesReader is the read-only view used by the market calendar.
type SeriesReader interface {
	Load(ctx context.Context, symbol models.Symbol) (models.Series, error)
}

// MarketDataProvider is the external source of daily adjusted history.
type MarketDataProvider interface {
	Name() string
	FetchHistory(ctx context.Context, symbol models.Symbol, start, end models.Date) ([]models.PricePoint, error)
	// LookupSymbol returns nil or a *models.ProviderError; unknown tickers
	// also match models.ErrSymbolNotFound.
	LookupSymbol(ctx context.Context, symbol models.Symbol) error
}

type Calendar interface {
	LastTradingDayOnOrBefore(ctx context.Context, d models.Date) models.Date
}

type RefreshPublisher interface {
	PublishRefresh(ctx context.Context, ev models.SeriesRefreshed) error
	Close() error
}

type Metrics interface {
	RecordCacheLookup(backend, result string)
	RecordProviderFetch(provider, result string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
