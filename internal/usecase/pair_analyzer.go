package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"PairLab/internal/domain/models"
	domrepo "PairLab/internal/domain/repository"
	"PairLab/internal/services/align"
	"PairLab/internal/services/stats"
	applogger "PairLab/pkg/logger"
)

// SeriesSource is what PairAnalyzer needs from the store.
type SeriesSource interface {
	GetOrFetch(ctx context.Context, symbol models.Symbol, start, end models.Date) (models.Series, error)
	CheckSymbol(ctx context.Context, symbol models.Symbol) (bool, error)
	ValidateSymbol(ctx context.Context, symbol models.Symbol) bool
}

// PairAnalyzer serves the consumer-facing pair operations.
type PairAnalyzer struct {
	store   SeriesSource
	engine  *stats.Engine
	metrics domrepo.Metrics
	logger  *applogger.Logger
	now     func() time.Time
}

func NewPairAnalyzer(store SeriesSource, engine *stats.Engine, metrics domrepo.Metrics, logger *applogger.Logger) *PairAnalyzer {
	if logger == nil {
		logger = applogger.NewNop()
	}
	return &PairAnalyzer{store: store, engine: engine, metrics: metrics, logger: logger, now: time.Now}
}

// GetPairStatistics computes the pair statistics of a and b over [start, end].
func (p *PairAnalyzer) GetPairStatistics(ctx context.Context, a, b string, start, end models.Date) (models.StatisticsResult, error) {
	began := time.Now()
	defer func() { p.metrics.RecordLatency("pair_statistics", time.Since(began).Seconds()) }()

	aligned, err := p.GetAlignedSeries(ctx, a, b, start, end)
	if err != nil {
		return models.StatisticsResult{}, err
	}
	res, err := p.engine.Compute(aligned)
	if err != nil {
		p.metrics.RecordError("statistics")
		p.logger.Info("pair statistics unavailable",
			applogger.String("a", aligned.SymbolA.String()),
			applogger.String("b", aligned.SymbolB.String()),
			applogger.String("range", aligned.Range.String()),
			applogger.Error(err))
		return models.StatisticsResult{}, err
	}
	return res, nil
}

// GetAlignedSeries returns the date-aligned closes and volumes of a and b.
func (p *PairAnalyzer) GetAlignedSeries(ctx context.Context, a, b string, start, end models.Date) (models.AlignedPairSeries, error) {
	symA, err := models.NormalizeSymbol(a)
	if err != nil {
		return models.AlignedPairSeries{}, err
	}
	symB, err := models.NormalizeSymbol(b)
	if err != nil {
		return models.AlignedPairSeries{}, err
	}
	r, err := p.validateRange(start, end)
	if err != nil {
		return models.AlignedPairSeries{}, err
	}

	seriesA, seriesB, err := p.fetchPair(ctx, symA, symB, r)
	if err != nil {
		return models.AlignedPairSeries{}, err
	}
	return align.Align(seriesA, seriesB, r), nil
}

func (p *PairAnalyzer) validateRange(start, end models.Date) (models.DateRange, error) {
	r := models.DateRange{Start: start, End: end}
	today := models.DateOf(p.now())
	switch {
	case start.IsZero() || end.IsZero():
		return r, &models.InvalidRangeError{Start: start, End: end, Reason: "start and end are required"}
	case !start.Before(end):
		return r, &models.InvalidRangeError{Start: start, End: end, Reason: "start must be before end"}
	case end.After(today):
		return r, &models.InvalidRangeError{Start: start, End: end, Reason: fmt.Sprintf("end is after today (%s)", today)}
	}
	return r, nil
}

// fetchPair loads both series concurrently.
func (p *PairAnalyzer) fetchPair(ctx context.Context, a, b models.Symbol, r models.DateRange) (models.Series, models.Series, error) {
	var (
		wg         sync.WaitGroup
		sa, sb     models.Series
		errA, errB error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		sa, errA = p.store.GetOrFetch(ctx, a, r.Start, r.End)
	}()
	go func() {
		defer wg.Done()
		sb, errB = p.store.GetOrFetch(ctx, b, r.Start, r.End)
	}()
	wg.Wait()

	if errA != nil {
		return sa, sb, errA
	}
	return sa, sb, errB
}

// CheckSymbol asks the store whether the provider knows s. Malformed input
// fails with models.ErrInvalidSymbol.
func (p *PairAnalyzer) CheckSymbol(ctx context.Context, s string) (bool, error) {
	sym, err := models.NormalizeSymbol(s)
	if err != nil {
		return false, err
	}
	return p.store.CheckSymbol(ctx, sym)
}

// ValidateSymbol reports whether s is a known ticker. Malformed input and
// provider failures both count as invalid.
func (p *PairAnalyzer) ValidateSymbol(ctx context.Context, s string) bool {
	sym, err := models.NormalizeSymbol(s)
	if err != nil {
		return false
	}
	return p.store.ValidateSymbol(ctx, sym)
}
