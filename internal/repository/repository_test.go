package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PairLab/internal/domain/models"
	domrepo "PairLab/internal/domain/repository"
	"PairLab/pkg/cache"
	applogger "PairLab/pkg/logger"
	"PairLab/pkg/sqldb"
)

func sampleSeries(sym string) models.Series {
	return models.Series{
		Symbol: models.Symbol(sym),
		Points: []models.PricePoint{
			{Date: models.MustParseDate("2024-01-02"), AdjClose: 185.64, Volume: 82488700},
			{Date: models.MustParseDate("2024-01-03"), AdjClose: 184.25, Volume: 58414500},
			{Date: models.MustParseDate("2024-01-04"), AdjClose: 181.91, Volume: 71983600},
		},
	}
}

// roundTrip checks the contract shared by every backend.
func roundTrip(t *testing.T, repo domrepo.SeriesRepository) {
	t.Helper()
	ctx := context.Background()

	_, err := repo.Load(ctx, "AAPL")
	assert.ErrorIs(t, err, models.ErrSeriesNotFound)

	want := sampleSeries("AAPL")
	require.NoError(t, repo.Replace(ctx, want))
	got, err := repo.Load(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Wholesale replace drops rows that are not in the new series.
	shorter := models.Series{Symbol: "AAPL", Points: want.Points[1:]}
	require.NoError(t, repo.Replace(ctx, shorter))
	got, err = repo.Load(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, shorter, got)

	_, err = repo.Load(ctx, "MSFT")
	assert.ErrorIs(t, err, models.ErrSeriesNotFound)
}

func TestFileSeriesRepository(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewFileSeriesRepository(dir, nil)
	require.NoError(t, err)
	roundTrip(t, repo)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "AAPL.csv", entries[0].Name())

	raw, err := os.ReadFile(filepath.Join(dir, "AAPL.csv"))
	require.NoError(t, err)
	assert.Equal(t, "date,adj_close,vol\n2024-01-03,184.25,58414500\n2024-01-04,181.91,71983600\n", string(raw))
}

func TestFileSeriesRepositoryCorruption(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewFileSeriesRepository(dir, nil)
	require.NoError(t, err)
	ctx := context.Background()

	cases := map[string]string{
		"BAD1": "not,a,header\n",
		"BAD2": "date,adj_close,vol\n2024-01-02,abc,1\n",
		"BAD3": "date,adj_close,vol\n2024-01-03,1,1\n2024-01-02,1,1\n",
		"BAD4": "",
	}
	for sym, body := range cases {
		require.NoError(t, os.WriteFile(filepath.Join(dir, sym+".csv"), []byte(body), 0o644))
		_, err := repo.Load(ctx, models.Symbol(sym))
		assert.ErrorIs(t, err, models.ErrCacheCorruption, sym)
	}
}

func TestSQLSeriesRepositorySQLite(t *testing.T) {
	c, err := sqldb.NewClient(sqldb.WithDriver(sqldb.DriverSQLite), sqldb.WithDSN(":memory:"))
	require.NoError(t, err)
	repo, err := NewSQLSeriesRepository(context.Background(), c, nil)
	require.NoError(t, err)
	defer repo.Close()

	roundTrip(t, repo)
}

func TestRedisSeriesRepository(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := cache.NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "pairlab")
	repo := NewRedisSeriesRepository(rc)
	defer repo.Close()

	roundTrip(t, repo)

	require.NoError(t, mr.Set("pairlab:series:TSLA", "[broken"))
	_, err := repo.Load(context.Background(), "TSLA")
	assert.ErrorIs(t, err, models.ErrCacheCorruption)
}

type countingRepo struct {
	domrepo.SeriesRepository
	loads int
}

func (c *countingRepo) Load(ctx context.Context, s models.Symbol) (models.Series, error) {
	c.loads++
	return c.SeriesRepository.Load(ctx, s)
}

func TestHotSeriesRepository(t *testing.T) {
	file, err := NewFileSeriesRepository(t.TempDir(), nil)
	require.NoError(t, err)
	inner := &countingRepo{SeriesRepository: file}
	hot := NewHotSeriesRepository(inner, cache.NewMemoryCache(), time.Minute, nil)
	defer hot.Close()

	roundTrip(t, hot)

	ctx := context.Background()
	loads := inner.loads
	_, err = hot.Load(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, loads, inner.loads, "served from memory")

	hot.Invalidate(ctx, "AAPL")
	_, err = hot.Load(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, loads+1, inner.loads)
}

// gatedRepo pauses Load after reading until release is closed.
type gatedRepo struct {
	domrepo.SeriesRepository
	read    chan struct{}
	release chan struct{}
}

func (g *gatedRepo) Load(ctx context.Context, s models.Symbol) (models.Series, error) {
	out, err := g.SeriesRepository.Load(ctx, s)
	close(g.read)
	<-g.release
	return out, err
}

func TestHotSeriesLoadDoesNotOverwriteNewerReplace(t *testing.T) {
	ctx := context.Background()
	file, err := NewFileSeriesRepository(t.TempDir(), nil)
	require.NoError(t, err)
	old := sampleSeries("AAPL")
	require.NoError(t, file.Replace(ctx, old))

	gate := &gatedRepo{SeriesRepository: file, read: make(chan struct{}), release: make(chan struct{})}
	hot := NewHotSeriesRepository(gate, cache.NewMemoryCache(), time.Minute, nil)
	defer hot.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		got, err := hot.Load(ctx, "AAPL")
		assert.NoError(t, err)
		assert.Equal(t, old.Len(), got.Len())
	}()
	<-gate.read

	fresh := sampleSeries("AAPL")
	fresh.Points = append(fresh.Points, models.PricePoint{Date: models.MustParseDate("2024-01-05"), AdjClose: 181.18, Volume: 62303300})
	require.NoError(t, hot.Replace(ctx, fresh))
	close(gate.release)
	<-done

	inner := &countingRepo{SeriesRepository: file}
	hot.inner = inner
	got, err := hot.Load(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, fresh.Len(), got.Len())
	assert.Zero(t, inner.loads)
}

type brokenCache struct{ cache.Service }

func (brokenCache) Get(context.Context, string, interface{}) error {
	return cache.ErrCacheMiss
}

func (brokenCache) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("cache down")
}

func (brokenCache) Delete(context.Context, ...string) error { return errors.New("cache down") }

func (brokenCache) Close() error { return nil }

type warnSink struct{ batches []applogger.LogBatch }

func (w *warnSink) PublishMessage(_ context.Context, _ string, payload interface{}) error {
	w.batches = append(w.batches, payload.(applogger.LogBatch))
	return nil
}

func TestHotSeriesLogsCacheWriteFailures(t *testing.T) {
	ctx := context.Background()
	file, err := NewFileSeriesRepository(t.TempDir(), nil)
	require.NoError(t, err)

	sink := &warnSink{}
	l := applogger.NewNop()
	l.AddCollector(&applogger.CollectionConfig{TimeInterval: time.Hour, Topic: "logs", Publisher: sink, IncludeWarn: true})
	hot := NewHotSeriesRepository(file, brokenCache{}, time.Minute, l)

	require.NoError(t, hot.Replace(ctx, sampleSeries("AAPL")))
	_, err = hot.Load(ctx, "AAPL")
	require.NoError(t, err)
	hot.Invalidate(ctx, "AAPL")
	l.RemoveCollector()

	var msgs []string
	for _, b := range sink.batches {
		for _, e := range b.Entries {
			msgs = append(msgs, e.Message)
		}
	}
	assert.Contains(t, msgs, "hot series cache write failed")
	assert.Contains(t, msgs, "hot series cache delete failed")
}
