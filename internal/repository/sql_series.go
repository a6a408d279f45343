package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"PairLab/internal/domain/models"
	domrepo "PairLab/internal/domain/repository"
	applogger "PairLab/pkg/logger"
	"PairLab/pkg/sqldb"
)

// SeriesSchema creates the price table for the sqlite and postgres backends.
var SeriesSchema = []string{
	`CREATE TABLE IF NOT EXISTS price_points (
		symbol    TEXT             NOT NULL,
		date      TEXT             NOT NULL,
		adj_close DOUBLE PRECISION NOT NULL,
		volume    BIGINT           NOT NULL,
		PRIMARY KEY (symbol, date)
	)`,
}

// SQLSeriesRepository stores series rows in SQLite or Postgres. Replace runs
// delete and insert in one transaction.
type SQLSeriesRepository struct {
	c *sqldb.Client
	l *applogger.Logger
}

func NewSQLSeriesRepository(ctx context.Context, c *sqldb.Client, l *applogger.Logger) (*SQLSeriesRepository, error) {
	if err := c.InitSchema(ctx, SeriesSchema); err != nil {
		return nil, err
	}
	if l == nil {
		l = applogger.NewNop()
	}
	return &SQLSeriesRepository{c: c, l: l}, nil
}

func (r *SQLSeriesRepository) Load(ctx context.Context, symbol models.Symbol) (models.Series, error) {
	start := time.Now()
	q := r.c.Rebind(`SELECT date, adj_close, volume FROM price_points WHERE symbol = ? ORDER BY date ASC`)
	rows, err := r.c.DB().QueryContext(ctx, q, string(symbol))
	if err != nil {
		r.l.Error("sql load_series query error",
			applogger.String("driver", r.c.Driver()),
			applogger.String("symbol", symbol.String()),
			applogger.Error(err),
		)
		return models.Series{}, fmt.Errorf("load series: %w", err)
	}
	defer rows.Close()

	s := models.Series{Symbol: symbol}
	for rows.Next() {
		var (
			day string
			p   models.PricePoint
			vol int64
		)
		if err := rows.Scan(&day, &p.AdjClose, &vol); err != nil {
			return models.Series{}, &models.CacheCorruptionError{Symbol: symbol, Reason: "scan row", Err: err}
		}
		if p.Date, err = models.ParseDate(day); err != nil {
			return models.Series{}, &models.CacheCorruptionError{Symbol: symbol, Reason: "bad date", Err: err}
		}
		if vol < 0 {
			return models.Series{}, &models.CacheCorruptionError{Symbol: symbol, Reason: "negative volume"}
		}
		p.Volume = uint64(vol)
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
	r.l.Debug("sql load_series ok",
		applogger.String("symbol", symbol.String()),
		applogger.Int("rows", len(s.Points)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return s, nil
}

func (r *SQLSeriesRepository) Replace(ctx context.Context, s models.Series) (err error) {
	tx, err := r.c.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, r.c.Rebind(`DELETE FROM price_points WHERE symbol = ?`), string(s.Symbol)); err != nil {
		return fmt.Errorf("delete %s: %w", s.Symbol, err)
	}
	var stmt *sql.Stmt
	stmt, err = tx.PrepareContext(ctx, r.c.Rebind(`INSERT INTO price_points (symbol, date, adj_close, volume) VALUES (?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range s.Points {
		if _, err = stmt.ExecContext(ctx, string(s.Symbol), p.Date.String(), p.AdjClose, int64(p.Volume)); err != nil {
			return fmt.Errorf("insert %s %s: %w", s.Symbol, p.Date, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *SQLSeriesRepository) Close() error { return r.c.Close() }

var _ domrepo.SeriesRepository = (*SQLSeriesRepository)(nil)
