package repository

import (
	"context"
	"errors"
	"fmt"

	"PairLab/internal/domain/models"
	domrepo "PairLab/internal/domain/repository"
	"PairLab/pkg/cache"
)

const seriesKeyPrefix = "series"

// RedisSeriesRepository stores each series as one JSON value, written with a
// single SET so readers never see a partial series.
type RedisSeriesRepository struct {
	c cache.Service
}

func NewRedisSeriesRepository(c cache.Service) *RedisSeriesRepository {
	return &RedisSeriesRepository{c: c}
}

func (r *RedisSeriesRepository) Load(ctx context.Context, symbol models.Symbol) (models.Series, error) {
	var s models.Series
	err := r.c.Get(ctx, cache.GenerateKey(seriesKeyPrefix, string(symbol)), &s)
	switch {
	case errors.Is(err, cache.ErrCacheMiss):
		return models.Series{}, models.ErrSeriesNotFound
	case errors.Is(err, cache.ErrDecode):
		return models.Series{}, &models.CacheCorruptionError{Symbol: symbol, Reason: "undecodable json", Err: err}
	case err != nil:
		return models.Series{}, fmt.Errorf("redis get %s: %w", symbol, err)
	}
	if s.Symbol != symbol {
		return models.Series{}, &models.CacheCorruptionError{Symbol: symbol, Reason: fmt.Sprintf("stored symbol %q", s.Symbol)}
	}
	if err := s.Validate(); err != nil {
		return models.Series{}, &models.CacheCorruptionError{Symbol: symbol, Reason: "invalid series", Err: err}
	}
	return s, nil
}

func (r *RedisSeriesRepository) Replace(ctx context.Context, s models.Series) error {
	if err := r.c.Set(ctx, cache.GenerateKey(seriesKeyPrefix, string(s.Symbol)), s, 0); err != nil {
		return fmt.Errorf("redis set %s: %w", s.Symbol, err)
	}
	return nil
}

func (r *RedisSeriesRepository) Close() error { return r.c.Close() }

var _ domrepo.SeriesRepository = (*RedisSeriesRepository)(nil)
