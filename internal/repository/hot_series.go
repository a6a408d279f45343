package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"PairLab/internal/domain/models"
	domrepo "PairLab/internal/domain/repository"
	"PairLab/pkg/cache"
	applogger "PairLab/pkg/logger"
)

// HotSeriesRepository keeps recently used series in process memory in front
// of a persistent backend. The memory copy only changes after the backend
// accepted a write.
type HotSeriesRepository struct {
	inner domrepo.SeriesRepository
	mem   cache.Service
	ttl   time.Duration
	l     *applogger.Logger

	// gen counts writes and invalidations per symbol. A Load only installs
	// its backend copy when no write happened while it was reading.
	mu  sync.Mutex
	gen map[models.Symbol]uint64
}

func NewHotSeriesRepository(inner domrepo.SeriesRepository, mem cache.Service, ttl time.Duration, l *applogger.Logger) *HotSeriesRepository {
	if l == nil {
		l = applogger.NewNop()
	}
	return &HotSeriesRepository{inner: inner, mem: mem, ttl: ttl, l: l, gen: make(map[models.Symbol]uint64)}
}

func hotKey(symbol models.Symbol) string { return cache.GenerateKey(seriesKeyPrefix, string(symbol)) }

func (r *HotSeriesRepository) Load(ctx context.Context, symbol models.Symbol) (models.Series, error) {
	var s models.Series
	if err := r.mem.Get(ctx, hotKey(symbol), &s); err == nil {
		return s, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		r.l.Warn("hot series cache read failed", applogger.String("symbol", symbol.String()), applogger.Error(err))
	}

	r.mu.Lock()
	g := r.gen[symbol]
	r.mu.Unlock()

	s, err := r.inner.Load(ctx, symbol)
	if err != nil {
		return models.Series{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen[symbol] == g {
		r.set(ctx, s)
	}
	return s, nil
}

func (r *HotSeriesRepository) Replace(ctx context.Context, s models.Series) error {
	err := r.inner.Replace(ctx, s)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen[s.Symbol]++
	if err != nil {
		r.drop(ctx, s.Symbol)
		return err
	}
	r.set(ctx, s)
	return nil
}

// Invalidate drops the in-memory copy of symbol.
func (r *HotSeriesRepository) Invalidate(ctx context.Context, symbol models.Symbol) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen[symbol]++
	r.drop(ctx, symbol)
}

func (r *HotSeriesRepository) set(ctx context.Context, s models.Series) {
	if err := r.mem.Set(ctx, hotKey(s.Symbol), s, r.ttl); err != nil {
		r.l.Warn("hot series cache write failed", applogger.String("symbol", s.Symbol.String()), applogger.Error(err))
	}
}

func (r *HotSeriesRepository) drop(ctx context.Context, symbol models.Symbol) {
	if err := r.mem.Delete(ctx, hotKey(symbol)); err != nil {
		r.l.Warn("hot series cache delete failed", applogger.String("symbol", symbol.String()), applogger.Error(err))
	}
}

func (r *HotSeriesRepository) Close() error {
	_ = r.mem.Close()
	return r.inner.Close()
}

var _ domrepo.SeriesRepository = (*HotSeriesRepository)(nil)
