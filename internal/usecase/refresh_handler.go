package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"PairLab/internal/domain/models"
	domrepo "PairLab/internal/domain/repository"
	pkgkafka "PairLab/pkg/kafka"
	applogger "PairLab/pkg/logger"
)

// RefreshHandler drops hot series copies when another instance announces a
// cache refresh.
type RefreshHandler struct {
	topic   string
	store   *SeriesStore
	metrics domrepo.Metrics
	logger  *applogger.Logger
}

func NewRefreshHandler(topic string, store *SeriesStore, metrics domrepo.Metrics, logger *applogger.Logger) *RefreshHandler {
	if logger == nil {
		logger = applogger.NewNop()
	}
	return &RefreshHandler{topic: topic, store: store, metrics: metrics, logger: logger}
}

func (h *RefreshHandler) Topic() string { return h.topic }

func (h *RefreshHandler) Handle(ctx context.Context, b []byte) error {
	var ev models.SeriesRefreshed
	if err := json.Unmarshal(b, &ev); err != nil {
		h.metrics.RecordError("refresh_unmarshal")
		return fmt.Errorf("decode refresh event: %w", err)
	}
	sym, err := models.NormalizeSymbol(string(ev.Symbol))
	if err != nil {
		h.metrics.RecordError("refresh_symbol")
		return err
	}
	if ev.Instance != "" && ev.Instance == h.store.Instance() {
		// Our own refresh; the hot copy is already current.
		return nil
	}
	if !ev.Refreshed.IsZero() {
		h.metrics.RecordLatency("refresh_propagation", time.Since(ev.Refreshed).Seconds())
	}

	h.store.Invalidate(ctx, sym)
	h.logger.Debug("hot series invalidated",
		applogger.String("symbol", sym.String()),
		applogger.String("last", ev.Last.String()))
	return nil
}

var _ pkgkafka.MessageHandler = (*RefreshHandler)(nil)
