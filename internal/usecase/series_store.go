package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"PairLab/internal/domain/models"
	domrepo "PairLab/internal/domain/repository"
	"PairLab/pkg/cache"
	applogger "PairLab/pkg/logger"
)

// DefaultHistoryStart is the first day requested on a full history fetch.
var DefaultHistoryStart = models.NewDate(2016, time.January, 4)

// invalidator is implemented by repositories with an in-process hot copy.
type invalidator interface {
	Invalidate(ctx context.Context, symbol models.Symbol)
}

// SeriesStore guarantees a requested date range of a symbol is cached before
// it is handed out, fetching the whole history from the provider on a miss.
type SeriesStore struct {
	repo      domrepo.SeriesRepository
	provider  domrepo.MarketDataProvider
	calendar  domrepo.Calendar
	publisher domrepo.RefreshPublisher
	metrics   domrepo.Metrics
	memo      cache.Service
	memoTTL   time.Duration
	logger    *applogger.Logger

	historyStart models.Date
	instance     string
	now          func() time.Time

	mu    sync.Mutex
	locks map[models.Symbol]chan struct{}
}

// SeriesStoreConfig holds the tunables of a SeriesStore.
type SeriesStoreConfig struct {
	HistoryStart models.Date
	// ValidationTTL bounds how long confirmed symbol lookups are remembered.
	ValidationTTL time.Duration
	// Instance tags published refresh events so this process can skip its own.
	Instance string
}

func NewSeriesStore(
	repo domrepo.SeriesRepository,
	provider domrepo.MarketDataProvider,
	calendar domrepo.Calendar,
	publisher domrepo.RefreshPublisher,
	metrics domrepo.Metrics,
	memo cache.Service,
	cfg SeriesStoreConfig,
	logger *applogger.Logger,
) *SeriesStore {
	if cfg.HistoryStart.IsZero() {
		cfg.HistoryStart = DefaultHistoryStart
	}
	if cfg.ValidationTTL <= 0 {
		cfg.ValidationTTL = time.Hour
	}
	if logger == nil {
		logger = applogger.NewNop()
	}
	return &SeriesStore{
		repo:         repo,
		provider:     provider,
		calendar:     calendar,
		publisher:    publisher,
		metrics:      metrics,
		memo:         memo,
		memoTTL:      cfg.ValidationTTL,
		logger:       logger,
		historyStart: cfg.HistoryStart,
		instance:     cfg.Instance,
		now:          time.Now,
		locks:        make(map[models.Symbol]chan struct{}),
	}
}

// GetOrFetch returns the cached points of symbol within [start, end]. When the
// cache does not cover the range the full history is fetched and replaces it.
func (s *SeriesStore) GetOrFetch(ctx context.Context, symbol models.Symbol, start, end models.Date) (models.Series, error) {
	began := time.Now()
	defer func() { s.metrics.RecordLatency("series_get", time.Since(began).Seconds()) }()

	required := s.calendar.LastTradingDayOnOrBefore(ctx, end)
	if cached, ok := s.lookup(ctx, symbol, start, required); ok {
		s.metrics.RecordCacheLookup("series", "hit")
		return cached.Slice(start, end), nil
	}

	unlock, err := s.lock(ctx, symbol)
	if err != nil {
		return models.Series{}, err
	}
	defer unlock()

	// Another caller may have refreshed the cache while we waited.
	if cached, ok := s.lookup(ctx, symbol, start, required); ok {
		s.metrics.RecordCacheLookup("series", "hit")
		return cached.Slice(start, end), nil
	}
	s.metrics.RecordCacheLookup("series", "miss")

	fresh, err := s.fetch(ctx, symbol, start)
	if err != nil {
		return models.Series{}, err
	}
	s.store(ctx, fresh)
	return fresh.Slice(start, end), nil
}

// lookup loads the cached series and reports whether it covers start..required.
func (s *SeriesStore) lookup(ctx context.Context, symbol models.Symbol, start, required models.Date) (models.Series, bool) {
	cached, err := s.repo.Load(ctx, symbol)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrSeriesNotFound):
		return models.Series{}, false
	case errors.Is(err, models.ErrCacheCorruption):
		s.metrics.RecordCacheLookup("series", "corrupt")
		s.logger.Warn("cached series unreadable, refetching",
			applogger.String("symbol", symbol.String()), applogger.Error(err))
		return models.Series{}, false
	default:
		s.metrics.RecordError("cache_read")
		s.logger.Warn("series cache read failed",
			applogger.String("symbol", symbol.String()), applogger.Error(err))
		return models.Series{}, false
	}

	first, ok := cached.First()
	if !ok {
		return models.Series{}, false
	}
	last, _ := cached.Last()
	if first.After(start) || last.Before(required) {
		return models.Series{}, false
	}
	return cached, true
}

func (s *SeriesStore) fetch(ctx context.Context, symbol models.Symbol, start models.Date) (models.Series, error) {
	from := s.historyStart
	if start.Before(from) {
		from = start
	}
	to := models.DateOf(s.now())

	began := time.Now()
	points, err := s.provider.FetchHistory(ctx, symbol, from, to)
	s.metrics.RecordLatency("provider_fetch", time.Since(began).Seconds())
	if err != nil {
		s.metrics.RecordProviderFetch(s.provider.Name(), "error")
		s.metrics.RecordError("provider")
		return models.Series{}, err
	}
	if len(points) == 0 {
		s.metrics.RecordProviderFetch(s.provider.Name(), "empty")
		return models.Series{}, &models.ProviderError{
			Symbol:   symbol,
			Provider: s.provider.Name(),
			Err:      fmt.Errorf("%w: no history since %s", models.ErrSymbolNotFound, from),
		}
	}
	s.metrics.RecordProviderFetch(s.provider.Name(), "ok")

	fresh := models.Series{Symbol: symbol, Points: models.NormalizePoints(points)}
	s.logger.Info("series fetched",
		applogger.String("symbol", symbol.String()),
		applogger.String("provider", s.provider.Name()),
		applogger.Int("points", fresh.Len()))
	return fresh, nil
}

// store persists a fetched series. Failures are logged; the caller still
// gets the fetched data.
func (s *SeriesStore) store(ctx context.Context, fresh models.Series) {
	if err := s.repo.Replace(ctx, fresh); err != nil {
		s.metrics.RecordError("cache_write")
		s.logger.Error("persist fetched series failed",
			applogger.String("symbol", fresh.Symbol.String()), applogger.Error(err))
		return
	}
	if s.publisher == nil {
		return
	}
	first, _ := fresh.First()
	last, _ := fresh.Last()
	ev := models.SeriesRefreshed{
		Symbol:    fresh.Symbol,
		First:     first,
		Last:      last,
		Points:    fresh.Len(),
		Source:    s.provider.Name(),
		Instance:  s.instance,
		Refreshed: s.now().UTC(),
	}
	if err := s.publisher.PublishRefresh(ctx, ev); err != nil {
		s.metrics.RecordError("refresh_publish")
		s.logger.Warn("publish refresh event failed",
			applogger.String("symbol", fresh.Symbol.String()), applogger.Error(err))
	}
}

// lock serializes refreshes of one symbol. It gives up when ctx is done.
func (s *SeriesStore) lock(ctx context.Context, symbol models.Symbol) (func(), error) {
	s.mu.Lock()
	ch, ok := s.locks[symbol]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[symbol] = ch
	}
	s.mu.Unlock()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// CheckSymbol reports whether the provider knows symbol. It returns
// (false, nil) for a confirmed unknown ticker and (false, err) when the
// provider could not answer. Confirmed answers are memoized.
func (s *SeriesStore) CheckSymbol(ctx context.Context, symbol models.Symbol) (bool, error) {
	key := cache.GenerateKey("symbol-check", string(symbol))
	var known bool
	if err := s.memo.Get(ctx, key, &known); err == nil {
		return known, nil
	}

	if cached, err := s.repo.Load(ctx, symbol); err == nil && cached.Len() > 0 {
		s.remember(ctx, symbol, key, true)
		return true, nil
	}

	err := s.provider.LookupSymbol(ctx, symbol)
	switch {
	case err == nil:
		known = true
	case errors.Is(err, models.ErrSymbolNotFound):
		known = false
	default:
		s.metrics.RecordError("provider")
		return false, err
	}
	s.remember(ctx, symbol, key, known)
	return known, nil
}

func (s *SeriesStore) remember(ctx context.Context, symbol models.Symbol, key string, known bool) {
	if err := s.memo.Set(ctx, key, known, s.memoTTL); err != nil {
		s.metrics.RecordError("memo_write")
		s.logger.Warn("symbol check memo write failed",
			applogger.String("symbol", symbol.String()), applogger.Error(err))
	}
}

// ValidateSymbol is CheckSymbol with provider failures treated as invalid.
func (s *SeriesStore) ValidateSymbol(ctx context.Context, symbol models.Symbol) bool {
	ok, err := s.CheckSymbol(ctx, symbol)
	if err != nil {
		s.logger.Warn("symbol lookup failed, treating as invalid",
			applogger.String("symbol", symbol.String()), applogger.Error(err))
	}
	return ok
}

// Instance is the tag this store puts on its refresh events.
func (s *SeriesStore) Instance() string { return s.instance }

// Invalidate drops the in-process copy of symbol so the next read goes to the
// persistent backend.
func (s *SeriesStore) Invalidate(ctx context.Context, symbol models.Symbol) {
	if inv, ok := s.repo.(invalidator); ok {
		inv.Invalidate(ctx, symbol)
	}
}
