package repository

import (
	"context"
	"fmt"
	"time"

	"PairLab/internal/domain/models"
	domrepo "PairLab/internal/domain/repository"
	pkgch "PairLab/pkg/clickhouse"
	applogger "PairLab/pkg/logger"
)

// ClickHouseSchema creates the generation-versioned price table.
var ClickHouseSchema = []string{
	`CREATE TABLE IF NOT EXISTS price_points (
		symbol     LowCardinality(String),
		generation UInt64,
		date       Date,
		adj_close  Float64,
		volume     UInt64
	) ENGINE = MergeTree
	ORDER BY (symbol, generation, date)`,
}

// CHSeriesRepository stores series in ClickHouse. Each Replace inserts the
// whole series as one block under a new generation; readers only see the
// newest generation, and older ones are dropped afterwards.
type CHSeriesRepository struct {
	ch  *pkgch.Client
	l   *applogger.Logger
	now func() time.Time
}

func NewCHSeriesRepository(ctx context.Context, ch *pkgch.Client, l *applogger.Logger) (*CHSeriesRepository, error) {
	if err := ch.InitSchema(ctx, ClickHouseSchema); err != nil {
		return nil, err
	}
	if l == nil {
		l = applogger.NewNop()
	}
	return &CHSeriesRepository{ch: ch, l: l, now: time.Now}, nil
}

func (r *CHSeriesRepository) Load(ctx context.Context, symbol models.Symbol) (models.Series, error) {
	start := time.Now()
	const q = `
		SELECT date, adj_close, volume
		FROM price_points
		WHERE symbol = ? AND generation = (SELECT max(generation) FROM price_points WHERE symbol = ?)
		ORDER BY date ASC
	`
	rows, err := r.ch.DB().QueryContext(ctx, q, string(symbol), string(symbol))
	if err != nil {
		r.l.Error("clickhouse load_series query error",
			applogger.String("symbol", symbol.String()),
			applogger.Error(err),
		)
		return models.Series{}, fmt.Errorf("load series: %w", err)
	}
	defer rows.Close()

	s := models.Series{Symbol: symbol}
	for rows.Next() {
		var (
			day time.Time
			p   models.PricePoint
		)
		if err := rows.Scan(&day, &p.AdjClose, &p.Volume); err != nil {
			return models.Series{}, &models.CacheCorruptionError{Symbol: symbol, Reason: "scan row", Err: err}
		}
		p.Date = models.NewDate(day.Year(), day.Month(), day.Day())
		s.Points = append(s.Points, p)
	}
	if err := rows.Err(); err != nil {
		return models.Series{}, fmt.Errorf("rows: %w", err)
	}
	if len(s.Points) == 0 {
		return models.Series{}, models.ErrSeriesNotFound
	}
	if err := s.Validate(); err != nil {
		return models.Series{}, &models.CacheCorruptionError{Symbol: symbol, Reason: "invalid series", Err: err}
	}
	r.l.Debug("clickhouse load_series ok",
		applogger.String("symbol", symbol.String()),
		applogger.Int("rows", len(s.Points)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return s, nil
}

func (r *CHSeriesRepository) Replace(ctx context.Context, s models.Series) error {
	gen := uint64(r.now().UnixNano())

	tx, err := r.ch.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO price_points (symbol, generation, date, adj_close, volume)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare batch: %w", err)
	}
	for _, p := range s.Points {
		if _, err := stmt.ExecContext(ctx, string(s.Symbol), gen, p.Date.Time(), p.AdjClose, p.Volume); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return fmt.Errorf("append %s %s: %w", s.Symbol, p.Date, err)
		}
	}
	_ = stmt.Close()
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	// Superseded generations are invisible to Load, so a failed cleanup only
	// costs disk space.
	if _, err := r.ch.DB().ExecContext(ctx,
		`ALTER TABLE price_points DELETE WHERE symbol = ? AND generation < ?`, string(s.Symbol), gen); err != nil {
		r.l.Warn("clickhouse old generations not dropped",
			applogger.String("symbol", s.Symbol.String()),
			applogger.Uint64("generation", gen),
			applogger.Error(err),
		)
	}
	return nil
}

func (r *CHSeriesRepository) Close() error { return r.ch.Close() }

var _ domrepo.SeriesRepository = (*CHSeriesRepository)(nil)
