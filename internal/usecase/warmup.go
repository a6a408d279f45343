package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"PairLab/internal/domain/models"
	applogger "PairLab/pkg/logger"
)

// Warmer is the part of the store the warm-up scheduler drives.
type Warmer interface {
	GetOrFetch(ctx context.Context, symbol models.Symbol, start, end models.Date) (models.Series, error)
}

// WarmupResult is the outcome of warming one symbol.
type WarmupResult struct {
	Symbol models.Symbol
	Points int
	Err    error
}

// WarmupScheduler keeps the reference symbols cached, once at startup and
// then on a cron schedule.
type WarmupScheduler struct {
	store   Warmer
	symbols []models.Symbol
	start   models.Date
	workers int
	timeout time.Duration
	logger  *applogger.Logger
	now     func() time.Time

	cron *cron.Cron
	ctx  context.Context
}

func NewWarmupScheduler(store Warmer, symbols []models.Symbol, start models.Date, workers int, logger *applogger.Logger) *WarmupScheduler {
	if workers <= 0 {
		workers = 2
	}
	if start.IsZero() {
		start = DefaultHistoryStart
	}
	if logger == nil {
		logger = applogger.NewNop()
	}
	return &WarmupScheduler{
		store:   store,
		symbols: symbols,
		start:   start,
		workers: workers,
		timeout: 2 * time.Minute,
		logger:  logger,
		now:     time.Now,
		ctx:     context.Background(),
	}
}

// Run warms every symbol with a bounded worker pool. Results keep the order
// of the configured symbols.
func (w *WarmupScheduler) Run(ctx context.Context) []WarmupResult {
	results := make([]WarmupResult, len(w.symbols))
	end := models.DateOf(w.now())
	jobs := make(chan int)

	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = w.warm(ctx, w.symbols[idx], end)
			}
		}()
	}
	for i := range w.symbols {
		select {
		case jobs <- i:
		case <-ctx.Done():
			results[i] = WarmupResult{Symbol: w.symbols[i], Err: ctx.Err()}
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

func (w *WarmupScheduler) warm(ctx context.Context, sym models.Symbol, end models.Date) WarmupResult {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	s, err := w.store.GetOrFetch(ctx, sym, w.start, end)
	if err != nil {
		w.logger.Warn("warm-up failed", applogger.String("symbol", sym.String()), applogger.Error(err))
		return WarmupResult{Symbol: sym, Err: err}
	}
	return WarmupResult{Symbol: sym, Points: s.Len()}
}

// Start runs Run on the given cron spec (with seconds field) until Stop.
func (w *WarmupScheduler) Start(ctx context.Context, spec string) error {
	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(spec, w.scheduled); err != nil {
		return fmt.Errorf("register warm-up schedule %q: %w", spec, err)
	}
	w.ctx = ctx
	w.cron = c
	c.Start()
	w.logger.Info("warm-up scheduler started",
		applogger.String("schedule", spec),
		applogger.Int("symbols", len(w.symbols)))
	return nil
}

func (w *WarmupScheduler) scheduled() {
	failed := 0
	for _, r := range w.Run(w.ctx) {
		if r.Err != nil {
			failed++
		}
	}
	w.logger.Info("scheduled warm-up finished",
		applogger.Int("symbols", len(w.symbols)),
		applogger.Int("failed", failed))
}

// Stop waits for a running warm-up to finish.
func (w *WarmupScheduler) Stop() {
	if w.cron == nil {
		return
	}
	<-w.cron.Stop().Done()
	w.logger.Info("warm-up scheduler stopped")
}
