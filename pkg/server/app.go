package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"PairLab/internal/usecase"
	"PairLab/pkg/config"
	xhttp "PairLab/pkg/http"
	pkgkafka "PairLab/pkg/kafka"
	applogger "PairLab/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	refresh    pkgkafka.MessageHandler
	warmup     *usecase.WarmupScheduler
}

// New creates a new App instance with all dependencies. consumer is nil when
// Kafka is disabled.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	refresh pkgkafka.MessageHandler,
	warmup *usecase.WarmupScheduler,
) *App {
	return &App{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		consumer:   consumer,
		refresh:    refresh,
		warmup:     warmup,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start consumer if configured
	if a.consumer != nil && a.refresh != nil {
		a.consumer.RegisterHandler(a.refresh)
		if err := a.consumer.Start(); err != nil {
			a.logger.Error("kafka consumer error", applogger.Error(err))
			return err
		}
		a.logger.Info("kafka consumer started",
			applogger.String("topic", a.refresh.Topic()),
			applogger.String("group", a.cfg.ConsumerGroup()))
	}

	if a.cfg.Warmup.Enabled {
		if a.cfg.Warmup.OnStart {
			go a.warmup.Run(ctx)
		}
		if a.cfg.Warmup.Schedule != "" {
			if err := a.warmup.Start(ctx, a.cfg.Warmup.Schedule); err != nil {
				a.logger.Error("warmup schedule error", applogger.Error(err))
				return err
			}
		}
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown stops intake first, then background work.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	a.logger.Info("shutting down...")

	if err := a.httpServer.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	a.warmup.Stop()

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.logger.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	// Flush aggregated logs while the producer is still open.
	a.logger.RemoveCollector()
	return nil
}
