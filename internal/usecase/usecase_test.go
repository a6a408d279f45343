package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PairLab/internal/domain/models"
	domrepo "PairLab/internal/domain/repository"
	"PairLab/internal/repository"
	"PairLab/internal/services/stats"
	"PairLab/pkg/cache"
	applogger "PairLab/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordCacheLookup(string, string)   {}
func (nopMetrics) RecordProviderFetch(string, string) {}
func (nopMetrics) RecordError(string)                 {}
func (nopMetrics) RecordLatency(string, float64)      {}

type fakeProvider struct {
	mu      sync.Mutex
	history map[models.Symbol][]models.PricePoint
	err     error
	lookErr error
	delay   time.Duration
	fetches atomic.Int32
	lookups atomic.Int32
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) FetchHistory(ctx context.Context, sym models.Symbol, start, end models.Date) ([]models.PricePoint, error) {
	p.fetches.Add(1)
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if p.err != nil {
		return nil, p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []models.PricePoint
	for _, pt := range p.history[sym] {
		if !pt.Date.Before(start) && !pt.Date.After(end) {
			out = append(out, pt)
		}
	}
	return out, nil
}

func (p *fakeProvider) LookupSymbol(ctx context.Context, sym models.Symbol) error {
	p.lookups.Add(1)
	if p.lookErr != nil {
		return p.lookErr
	}
	if _, ok := p.history[sym]; !ok {
		return models.ErrSymbolNotFound
	}
	return nil
}

type memRepo struct {
	mu         sync.Mutex
	data       map[models.Symbol]models.Series
	loadErr    error
	replaceErr error
	replaces   int
}

func newMemRepo() *memRepo { return &memRepo{data: map[models.Symbol]models.Series{}} }

func (r *memRepo) Load(ctx context.Context, sym models.Symbol) (models.Series, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return models.Series{}, r.loadErr
	}
	s, ok := r.data[sym]
	if !ok {
		return models.Series{}, models.ErrSeriesNotFound
	}
	return s, nil
}

func (r *memRepo) Replace(ctx context.Context, s models.Series) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replaces++
	if r.replaceErr != nil {
		return r.replaceErr
	}
	r.data[s.Symbol] = s
	return nil
}

func (r *memRepo) Close() error { return nil }

type dayBefore struct{}

func (dayBefore) LastTradingDayOnOrBefore(_ context.Context, d models.Date) models.Date {
	return d.AddDays(-1)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.SeriesRefreshed
}

func (p *recordingPublisher) PublishRefresh(_ context.Context, ev models.SeriesRefreshed) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

var fixedNow = time.Date(2024, time.April, 1, 15, 0, 0, 0, time.UTC)

// weekdays returns one point per weekday in [start, end] with closes from f.
func weekdays(start, end models.Date, f func(i int) float64) []models.PricePoint {
	var out []models.PricePoint
	i := 0
	for d := start; !d.After(end); d = d.AddDays(1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		out = append(out, models.PricePoint{Date: d, AdjClose: f(i), Volume: uint64(1000 + i)})
		i++
	}
	return out
}

func newStore(t *testing.T, repo *memRepo, prov *fakeProvider, pub *recordingPublisher) *SeriesStore {
	t.Helper()
	memo := cache.NewMemoryCache()
	t.Cleanup(func() { _ = memo.Close() })
	var publisher domrepo.RefreshPublisher
	if pub != nil {
		publisher = pub
	}
	s := NewSeriesStore(repo, prov, dayBefore{}, publisher, nopMetrics{}, memo,
		SeriesStoreConfig{HistoryStart: models.MustParseDate("2024-01-01"), ValidationTTL: time.Minute, Instance: "test-1"}, nil)
	s.now = func() time.Time { return fixedNow }
	return s
}

func linear(i int) float64 { return 100 + float64(i) }

func TestGetOrFetchMissThenHit(t *testing.T) {
	ctx := context.Background()
	prov := &fakeProvider{history: map[models.Symbol][]models.PricePoint{
		"AAPL": weekdays(models.MustParseDate("2024-01-01"), models.MustParseDate("2024-03-29"), linear),
	}}
	repo := newMemRepo()
	pub := &recordingPublisher{}
	store := newStore(t, repo, prov, pub)

	start, end := models.MustParseDate("2024-01-02"), models.MustParseDate("2024-03-01")
	s, err := store.GetOrFetch(ctx, "AAPL", start, end)
	require.NoError(t, err)
	assert.Equal(t, int32(1), prov.fetches.Load())
	first, _ := s.First()
	last, _ := s.Last()
	assert.Equal(t, start, first)
	assert.Equal(t, end, last)

	cached, err := repo.Load(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 65, cached.Len())
	require.Len(t, pub.events, 1)
	assert.Equal(t, models.MustParseDate("2024-03-29"), pub.events[0].Last)
	assert.Equal(t, "test-1", pub.events[0].Instance)

	again, err := store.GetOrFetch(ctx, "AAPL", start, end)
	require.NoError(t, err)
	assert.Equal(t, int32(1), prov.fetches.Load())
	assert.Equal(t, s, again)
}

func TestGetOrFetchStaleCacheRefetches(t *testing.T) {
	ctx := context.Background()
	prov := &fakeProvider{history: map[models.Symbol][]models.PricePoint{
		"MSFT": weekdays(models.MustParseDate("2024-01-01"), models.MustParseDate("2024-03-29"), linear),
	}}
	repo := newMemRepo()
	repo.data["MSFT"] = models.Series{Symbol: "MSFT",
		Points: weekdays(models.MustParseDate("2024-01-01"), models.MustParseDate("2024-01-31"), linear)}
	store := newStore(t, repo, prov, nil)

	s, err := store.GetOrFetch(ctx, "MSFT", models.MustParseDate("2024-01-02"), models.MustParseDate("2024-03-01"))
	require.NoError(t, err)
	assert.Equal(t, int32(1), prov.fetches.Load())
	last, _ := s.Last()
	assert.Equal(t, models.MustParseDate("2024-03-01"), last)
	assert.Equal(t, 1, repo.replaces)
}

func TestGetOrFetchCorruptCacheIsMiss(t *testing.T) {
	prov := &fakeProvider{history: map[models.Symbol][]models.PricePoint{
		"AAPL": weekdays(models.MustParseDate("2024-01-01"), models.MustParseDate("2024-03-29"), linear),
	}}
	repo := newMemRepo()
	repo.loadErr = &models.CacheCorruptionError{Symbol: "AAPL", Reason: "bad header"}
	store := newStore(t, repo, prov, nil)

	s, err := store.GetOrFetch(context.Background(), "AAPL", models.MustParseDate("2024-01-02"), models.MustParseDate("2024-02-01"))
	require.NoError(t, err)
	assert.Greater(t, s.Len(), 0)
	assert.Equal(t, int32(1), prov.fetches.Load())
}

func TestGetOrFetchProviderFailureLeavesCache(t *testing.T) {
	perr := &models.ProviderError{Symbol: "AAPL", Provider: "fake", Temporary: true, Err: errors.New("timeout")}
	prov := &fakeProvider{err: perr}
	repo := newMemRepo()
	old := models.Series{Symbol: "AAPL", Points: weekdays(models.MustParseDate("2024-01-01"), models.MustParseDate("2024-01-10"), linear)}
	repo.data["AAPL"] = old
	store := newStore(t, repo, prov, nil)

	_, err := store.GetOrFetch(context.Background(), "AAPL", models.MustParseDate("2024-01-02"), models.MustParseDate("2024-03-01"))
	var pe *models.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.True(t, pe.Temporary)
	assert.Equal(t, 0, repo.replaces)
	assert.Equal(t, old, repo.data["AAPL"])
}

func TestGetOrFetchPersistFailureStillReturnsData(t *testing.T) {
	prov := &fakeProvider{history: map[models.Symbol][]models.PricePoint{
		"AAPL": weekdays(models.MustParseDate("2024-01-01"), models.MustParseDate("2024-03-29"), linear),
	}}
	repo := newMemRepo()
	repo.replaceErr = errors.New("disk full")
	pub := &recordingPublisher{}
	store := newStore(t, repo, prov, pub)

	s, err := store.GetOrFetch(context.Background(), "AAPL", models.MustParseDate("2024-01-02"), models.MustParseDate("2024-02-01"))
	require.NoError(t, err)
	assert.Greater(t, s.Len(), 0)
	assert.Empty(t, pub.events)
}

func TestGetOrFetchEmptyHistory(t *testing.T) {
	prov := &fakeProvider{history: map[models.Symbol][]models.PricePoint{}}
	store := newStore(t, newMemRepo(), prov, nil)

	_, err := store.GetOrFetch(context.Background(), "ZZZZ", models.MustParseDate("2024-01-02"), models.MustParseDate("2024-02-01"))
	assert.ErrorIs(t, err, models.ErrSymbolNotFound)
	assert.ErrorIs(t, err, models.ErrProvider)
	var pe *models.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, models.Symbol("ZZZZ"), pe.Symbol)
	assert.Equal(t, "fake", pe.Provider)
	assert.False(t, pe.Temporary)
}

func TestGetOrFetchSerializesConcurrentMisses(t *testing.T) {
	prov := &fakeProvider{
		history: map[models.Symbol][]models.PricePoint{
			"NVDA": weekdays(models.MustParseDate("2024-01-01"), models.MustParseDate("2024-03-29"), linear),
		},
		delay: 20 * time.Millisecond,
	}
	store := newStore(t, newMemRepo(), prov, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.GetOrFetch(context.Background(), "NVDA", models.MustParseDate("2024-01-02"), models.MustParseDate("2024-03-01"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), prov.fetches.Load())
}

func TestCheckSymbol(t *testing.T) {
	ctx := context.Background()
	prov := &fakeProvider{history: map[models.Symbol][]models.PricePoint{"AAPL": nil}}
	store := newStore(t, newMemRepo(), prov, nil)

	ok, err := store.CheckSymbol(ctx, "AAPL")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.CheckSymbol(ctx, "NOPE")
	require.NoError(t, err)
	assert.False(t, ok)

	// memoized
	_, _ = store.CheckSymbol(ctx, "NOPE")
	assert.Equal(t, int32(2), prov.lookups.Load())
}

func TestCheckSymbolTransientFailureNotMemoized(t *testing.T) {
	ctx := context.Background()
	prov := &fakeProvider{lookErr: &models.ProviderError{Symbol: "AAPL", Provider: "fake", Temporary: true, Err: errors.New("503")}}
	store := newStore(t, newMemRepo(), prov, nil)

	ok, err := store.CheckSymbol(ctx, "AAPL")
	assert.False(t, ok)
	assert.ErrorIs(t, err, models.ErrProvider)
	assert.False(t, store.ValidateSymbol(ctx, "AAPL"))
	assert.Equal(t, int32(2), prov.lookups.Load())
}

func TestCheckSymbolCachedSeriesIsKnown(t *testing.T) {
	repo := newMemRepo()
	repo.data["TSLA"] = models.Series{Symbol: "TSLA", Points: weekdays(models.MustParseDate("2024-01-01"), models.MustParseDate("2024-01-05"), linear)}
	prov := &fakeProvider{}
	store := newStore(t, repo, prov, nil)

	assert.True(t, store.ValidateSymbol(context.Background(), "TSLA"))
	assert.Equal(t, int32(0), prov.lookups.Load())
}

func TestInvalidateDropsHotCopy(t *testing.T) {
	ctx := context.Background()
	backend := newMemRepo()
	mem := cache.NewMemoryCache()
	hot := repository.NewHotSeriesRepository(backend, mem, time.Minute, nil)
	t.Cleanup(func() { _ = hot.Close() })

	s := models.Series{Symbol: "AMZN", Points: weekdays(models.MustParseDate("2024-01-01"), models.MustParseDate("2024-01-05"), linear)}
	require.NoError(t, hot.Replace(ctx, s))

	memo := cache.NewMemoryCache()
	t.Cleanup(func() { _ = memo.Close() })
	store := NewSeriesStore(hot, &fakeProvider{}, dayBefore{}, nil, nopMetrics{}, memo, SeriesStoreConfig{}, nil)

	// Another writer updates the backend behind the hot copy.
	updated := models.Series{Symbol: "AMZN", Points: weekdays(models.MustParseDate("2024-01-01"), models.MustParseDate("2024-01-12"), linear)}
	backend.data["AMZN"] = updated

	got, err := hot.Load(ctx, "AMZN")
	require.NoError(t, err)
	assert.Equal(t, s.Len(), got.Len())

	h := NewRefreshHandler("pairlab.series.refreshed", store, nopMetrics{}, nil)
	body, err := json.Marshal(models.SeriesRefreshed{Symbol: "amzn", Last: models.MustParseDate("2024-01-12")})
	require.NoError(t, err)
	require.NoError(t, h.Handle(ctx, body))

	got, err = hot.Load(ctx, "AMZN")
	require.NoError(t, err)
	assert.Equal(t, updated.Len(), got.Len())

	assert.Error(t, h.Handle(ctx, []byte("{")))
}

func TestRefreshHandlerSkipsOwnEvents(t *testing.T) {
	ctx := context.Background()
	backend := newMemRepo()
	hot := repository.NewHotSeriesRepository(backend, cache.NewMemoryCache(), time.Minute, nil)
	t.Cleanup(func() { _ = hot.Close() })

	s := models.Series{Symbol: "AMZN", Points: weekdays(models.MustParseDate("2024-01-01"), models.MustParseDate("2024-01-05"), linear)}
	require.NoError(t, hot.Replace(ctx, s))
	backend.data["AMZN"] = models.Series{Symbol: "AMZN", Points: weekdays(models.MustParseDate("2024-01-01"), models.MustParseDate("2024-01-12"), linear)}

	memo := cache.NewMemoryCache()
	t.Cleanup(func() { _ = memo.Close() })
	store := NewSeriesStore(hot, &fakeProvider{}, dayBefore{}, nil, nopMetrics{}, memo, SeriesStoreConfig{Instance: "host-1"}, nil)
	h := NewRefreshHandler("pairlab.series.refreshed", store, nopMetrics{}, nil)

	own, err := json.Marshal(models.SeriesRefreshed{Symbol: "AMZN", Instance: "host-1"})
	require.NoError(t, err)
	require.NoError(t, h.Handle(ctx, own))
	got, err := hot.Load(ctx, "AMZN")
	require.NoError(t, err)
	assert.Equal(t, s.Len(), got.Len())

	other, err := json.Marshal(models.SeriesRefreshed{Symbol: "AMZN", Instance: "host-2"})
	require.NoError(t, err)
	require.NoError(t, h.Handle(ctx, other))
	got, err = hot.Load(ctx, "AMZN")
	require.NoError(t, err)
	assert.Equal(t, 10, got.Len())
}

type failingMemo struct{ cache.Service }

func (failingMemo) Get(context.Context, string, interface{}) error { return cache.ErrCacheMiss }

func (failingMemo) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("redis down")
}

type warnSink struct {
	mu      sync.Mutex
	entries []applogger.AggregatedLogEntry
}

func (w *warnSink) PublishMessage(_ context.Context, _ string, payload interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, payload.(applogger.LogBatch).Entries...)
	return nil
}

func TestCheckSymbolLogsMemoFailures(t *testing.T) {
	sink := &warnSink{}
	l := applogger.NewNop()
	l.AddCollector(&applogger.CollectionConfig{TimeInterval: time.Hour, Topic: "logs", Publisher: sink, IncludeWarn: true})

	prov := &fakeProvider{history: map[models.Symbol][]models.PricePoint{"AAPL": nil}}
	store := NewSeriesStore(newMemRepo(), prov, dayBefore{}, nil, nopMetrics{}, failingMemo{}, SeriesStoreConfig{}, l)

	ok, err := store.CheckSymbol(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, ok)
	l.RemoveCollector()

	require.Len(t, sink.entries, 1)
	assert.Equal(t, "symbol check memo write failed", sink.entries[0].Message)
	assert.Equal(t, "AAPL", sink.entries[0].Fields["symbol"])
}

// cointegrated returns two weekday series where A tracks B plus noise.
func cointegrated(start, end models.Date, seed int64) (a, b []models.PricePoint) {
	rng := rand.New(rand.NewSource(seed))
	level := 100.0
	b = weekdays(start, end, func(int) float64 {
		level += rng.NormFloat64()
		return level
	})
	a = make([]models.PricePoint, len(b))
	for i, p := range b {
		a[i] = models.PricePoint{Date: p.Date, AdjClose: p.AdjClose + 5 + rng.NormFloat64(), Volume: p.Volume}
	}
	return a, b
}

func newAnalyzer(t *testing.T, prov *fakeProvider) *PairAnalyzer {
	t.Helper()
	store := newStore(t, newMemRepo(), prov, nil)
	a := NewPairAnalyzer(store, stats.NewEngine(), nopMetrics{}, nil)
	a.now = func() time.Time { return fixedNow }
	return a
}

func TestPairAnalyzerStatistics(t *testing.T) {
	a, b := cointegrated(models.MustParseDate("2023-01-02"), models.MustParseDate("2024-03-29"), 9)
	prov := &fakeProvider{history: map[models.Symbol][]models.PricePoint{"AAA": a, "BBB": b}}
	an := newAnalyzer(t, prov)

	res, err := an.GetPairStatistics(context.Background(), " aaa", "bbb ", models.MustParseDate("2023-06-01"), models.MustParseDate("2024-03-01"))
	require.NoError(t, err)
	assert.Equal(t, models.Symbol("AAA"), res.SymbolA)
	assert.Equal(t, models.Symbol("BBB"), res.SymbolB)
	assert.Greater(t, res.Rows, 150)
	assert.InDelta(t, 1, res.Beta, 0.1)
	assert.Less(t, res.PValue, 0.05)
}

func TestPairAnalyzerStatisticsIdempotent(t *testing.T) {
	a, b := cointegrated(models.MustParseDate("2023-01-02"), models.MustParseDate("2024-03-29"), 4)
	prov := &fakeProvider{history: map[models.Symbol][]models.PricePoint{"AAA": a, "BBB": b}}
	an := newAnalyzer(t, prov)
	ctx := context.Background()
	start, end := models.MustParseDate("2023-06-01"), models.MustParseDate("2024-03-01")

	first, err := an.GetPairStatistics(ctx, "AAA", "BBB", start, end)
	require.NoError(t, err)
	fetches := prov.fetches.Load()
	assert.Equal(t, int32(2), fetches)

	second, err := an.GetPairStatistics(ctx, "AAA", "BBB", start, end)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, fetches, prov.fetches.Load())
}

func TestPairAnalyzerUnknownSymbol(t *testing.T) {
	prov := &fakeProvider{history: map[models.Symbol][]models.PricePoint{}}
	an := newAnalyzer(t, prov)

	_, err := an.GetPairStatistics(context.Background(), "ZZZZ", "YYYY", models.MustParseDate("2024-01-02"), models.MustParseDate("2024-03-01"))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrSymbolNotFound)
	assert.ErrorIs(t, err, models.ErrProvider)
	var pe *models.ProviderError
	assert.True(t, errors.As(err, &pe))
}

func TestPairAnalyzerAlignedSeries(t *testing.T) {
	a, b := cointegrated(models.MustParseDate("2024-01-01"), models.MustParseDate("2024-03-29"), 1)
	b = append(b[:3:3], b[4:]...) // B misses one day
	prov := &fakeProvider{history: map[models.Symbol][]models.PricePoint{"AAA": a, "BBB": b}}
	an := newAnalyzer(t, prov)

	start, end := models.MustParseDate("2024-01-01"), models.MustParseDate("2024-01-31")
	aligned, err := an.GetAlignedSeries(context.Background(), "AAA", "BBB", start, end)
	require.NoError(t, err)
	assert.Equal(t, 22, aligned.Len())
	for i := 1; i < aligned.Len(); i++ {
		assert.True(t, aligned.Rows[i-1].Date.Before(aligned.Rows[i].Date))
	}
	assert.Equal(t, []string{"date", "adj_close_AAA", "vol_AAA", "adj_close_BBB", "vol_BBB"}, aligned.Columns())
}

func TestPairAnalyzerBoundary(t *testing.T) {
	prov := &fakeProvider{history: map[models.Symbol][]models.PricePoint{}}
	an := newAnalyzer(t, prov)
	ctx := context.Background()

	_, err := an.GetPairStatistics(ctx, "AAA", "BBB", models.MustParseDate("2024-02-01"), models.MustParseDate("2024-01-01"))
	assert.ErrorIs(t, err, models.ErrInvalidRange)

	_, err = an.GetPairStatistics(ctx, "AAA", "BBB", models.MustParseDate("2024-02-01"), models.MustParseDate("2024-02-01"))
	assert.ErrorIs(t, err, models.ErrInvalidRange)

	_, err = an.GetPairStatistics(ctx, "AAA", "BBB", models.MustParseDate("2024-02-01"), models.MustParseDate("2024-04-02"))
	assert.ErrorIs(t, err, models.ErrInvalidRange)

	_, err = an.GetAlignedSeries(ctx, "", "BBB", models.MustParseDate("2024-01-01"), models.MustParseDate("2024-02-01"))
	assert.ErrorIs(t, err, models.ErrInvalidSymbol)

	assert.Equal(t, int32(0), prov.fetches.Load())
}

func TestPairAnalyzerOneRow(t *testing.T) {
	one := []models.PricePoint{{Date: models.MustParseDate("2024-01-02"), AdjClose: 10, Volume: 1}}
	prov := &fakeProvider{history: map[models.Symbol][]models.PricePoint{"AAA": one, "BBB": one}}
	an := newAnalyzer(t, prov)

	_, err := an.GetPairStatistics(context.Background(), "AAA", "BBB", models.MustParseDate("2024-01-02"), models.MustParseDate("2024-01-03"))
	var ins *models.InsufficientDataError
	require.ErrorAs(t, err, &ins)
	assert.Equal(t, 1, ins.Have)
}

func TestPairAnalyzerCheckSymbol(t *testing.T) {
	prov := &fakeProvider{history: map[models.Symbol][]models.PricePoint{"AAPL": nil}}
	an := newAnalyzer(t, prov)
	ctx := context.Background()

	ok, err := an.CheckSymbol(ctx, "aapl")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = an.CheckSymbol(ctx, "bad symbol")
	assert.ErrorIs(t, err, models.ErrInvalidSymbol)
	assert.False(t, an.ValidateSymbol(ctx, "bad symbol"))
	assert.False(t, an.ValidateSymbol(ctx, "NOPE"))
}

func TestWarmupRun(t *testing.T) {
	prov := &fakeProvider{history: map[models.Symbol][]models.PricePoint{
		"AAPL": weekdays(models.MustParseDate("2024-01-01"), models.MustParseDate("2024-03-29"), linear),
		"MSFT": weekdays(models.MustParseDate("2024-01-01"), models.MustParseDate("2024-03-29"), linear),
	}}
	store := newStore(t, newMemRepo(), prov, nil)
	w := NewWarmupScheduler(store, []models.Symbol{"AAPL", "NOPE", "MSFT"}, models.MustParseDate("2024-01-01"), 2, nil)
	w.now = func() time.Time { return fixedNow }

	res := w.Run(context.Background())
	require.Len(t, res, 3)
	assert.Equal(t, models.Symbol("AAPL"), res[0].Symbol)
	assert.NoError(t, res[0].Err)
	assert.Equal(t, 65, res[0].Points)
	assert.ErrorIs(t, res[1].Err, models.ErrSymbolNotFound)
	assert.NoError(t, res[2].Err)
}

func TestWarmupStartRejectsBadSchedule(t *testing.T) {
	w := NewWarmupScheduler(newStore(t, newMemRepo(), &fakeProvider{}, nil), nil, models.Date{}, 0, nil)
	assert.Error(t, w.Start(context.Background(), "not a schedule"))
	w.Stop()
}
