package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"PairLab/internal/domain/models"
	domrepo "PairLab/internal/domain/repository"
	applogger "PairLab/pkg/logger"
)

var csvHeader = []string{"date", "adj_close", "vol"}

// FileSeriesRepository keeps one CSV file per symbol under a directory.
type FileSeriesRepository struct {
	dir string
	l   *applogger.Logger
}

func NewFileSeriesRepository(dir string, l *applogger.Logger) (*FileSeriesRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if l == nil {
		l = applogger.NewNop()
	}
	return &FileSeriesRepository{dir: dir, l: l}, nil
}

func (r *FileSeriesRepository) path(symbol models.Symbol) string {
	return filepath.Join(r.dir, string(symbol)+".csv")
}

func (r *FileSeriesRepository) Load(_ context.Context, symbol models.Symbol) (models.Series, error) {
	f, err := os.Open(r.path(symbol))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.Series{}, models.ErrSeriesNotFound
		}
		return models.Series{}, fmt.Errorf("open %s: %w", symbol, err)
	}
	defer f.Close()

	points, err := readCSV(f)
	if err != nil {
		return models.Series{}, &models.CacheCorruptionError{Symbol: symbol, Reason: "unreadable csv", Err: err}
	}
	s := models.Series{Symbol: symbol, Points: points}
	if err := s.Validate(); err != nil {
		return models.Series{}, &models.CacheCorruptionError{Symbol: symbol, Reason: "invalid series", Err: err}
	}
	return s, nil
}

// Replace writes the series to a temp file in the same directory and renames
// it over the previous file.
func (r *FileSeriesRepository) Replace(_ context.Context, s models.Series) error {
	tmp, err := os.CreateTemp(r.dir, string(s.Symbol)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if err = writeCSV(tmp, s.Points); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", s.Symbol, err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", s.Symbol, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", s.Symbol, err)
	}
	if err = os.Rename(tmpName, r.path(s.Symbol)); err != nil {
		return fmt.Errorf("rename %s: %w", s.Symbol, err)
	}
	r.l.Debug("file series replaced",
		applogger.String("symbol", s.Symbol.String()),
		applogger.Int("points", len(s.Points)),
	)
	return nil
}

func (r *FileSeriesRepository) Close() error { return nil }

func readCSV(rd io.Reader) ([]models.PricePoint, error) {
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = len(csvHeader)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	for i, h := range csvHeader {
		if header[i] != h {
			return nil, fmt.Errorf("header column %d: want %q, got %q", i, h, header[i])
		}
	}

	var out []models.PricePoint
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		d, err := models.ParseDate(rec[0])
		if err != nil {
			return nil, err
		}
		c, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("adj_close on %s: %w", rec[0], err)
		}
		v, err := strconv.ParseUint(rec[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("vol on %s: %w", rec[0], err)
		}
		out = append(out, models.PricePoint{Date: d, AdjClose: c, Volume: v})
	}
}

func writeCSV(w io.Writer, points []models.PricePoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range points {
		if err := cw.Write([]string{
			p.Date.String(),
			strconv.FormatFloat(p.AdjClose, 'g', -1, 64),
			strconv.FormatUint(p.Volume, 10),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var _ domrepo.SeriesRepository = (*FileSeriesRepository)(nil)
