package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"PairLab/internal/domain/models"
	"PairLab/internal/domain/repository"
	"PairLab/internal/handler/api"
	internalrepo "PairLab/internal/repository"
	"PairLab/internal/service/yahoo"
	"PairLab/internal/services/calendar"
	"PairLab/internal/services/stats"
	"PairLab/internal/usecase"
	"PairLab/pkg/cache"
	pkgch "PairLab/pkg/clickhouse"
	"PairLab/pkg/config"
	xhttp "PairLab/pkg/http"
	pkgkafka "PairLab/pkg/kafka"
	applogger "PairLab/pkg/logger"
	"PairLab/pkg/metrics"
	"PairLab/pkg/server"
	"PairLab/pkg/sqldb"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Output:  cfg.Logging.Output,
		Service: "pairlab",
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideNopMetrics is used by one-shot commands that expose no /metrics.
func ProvideNopMetrics() repository.Metrics {
	return metrics.Nop{}
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideRefreshPublisher announces cache refreshes on Kafka when enabled.
func ProvideRefreshPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.RefreshPublisher {
	if producer == nil {
		return internalrepo.NoopRefreshPublisher{}
	}
	return internalrepo.NewKafkaRefreshPublisher(producer, cfg.Kafka.RefreshTopic)
}

// Backend is the persistent series repository selected by store.backend,
// with a probe for /healthz.
type Backend struct {
	repository.SeriesRepository
	Health func(ctx context.Context) error
}

// ProvideBackend opens the configured persistent series backend.
func ProvideBackend(cfg *config.Config, l *applogger.Logger) (*Backend, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var (
		b   = &Backend{}
		err error
	)
	switch cfg.Store.Backend {
	case "file":
		var repo *internalrepo.FileSeriesRepository
		if repo, err = internalrepo.NewFileSeriesRepository(cfg.Store.File.Dir, l); err == nil {
			b.SeriesRepository = repo
		}
	case "sqlite", "postgres":
		b.SeriesRepository, b.Health, err = openSQL(ctx, cfg, l)
	case "redis":
		var rc *cache.RedisCache
		if rc, err = ProvideRedisCache(cfg); err == nil {
			b.SeriesRepository = internalrepo.NewRedisSeriesRepository(rc)
			b.Health = func(ctx context.Context) error { return rc.Client().Ping(ctx).Err() }
		}
	case "clickhouse":
		b.SeriesRepository, b.Health, err = openClickHouse(ctx, cfg, l)
	default:
		err = fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("store backend %s: %w", cfg.Store.Backend, err)
	}
	if b.Health == nil {
		b.Health = probe(b.SeriesRepository)
	}
	l.Info("series store ready", applogger.String("backend", cfg.Store.Backend))
	return b, nil
}

func openSQL(ctx context.Context, cfg *config.Config, l *applogger.Logger) (repository.SeriesRepository, func(context.Context) error, error) {
	opts := []sqldb.ClientOption{sqldb.WithDriver(sqldb.DriverSQLite), sqldb.WithDSN(cfg.Store.SQLite.DSN)}
	if cfg.Store.Backend == "postgres" {
		opts = []sqldb.ClientOption{
			sqldb.WithDriver(sqldb.DriverPostgres),
			sqldb.WithDSN(cfg.Store.Postgres.DSN),
			sqldb.WithMaxConnections(cfg.Store.Postgres.MaxConnections, cfg.Store.Postgres.MaxConnections/2),
		}
	}
	client, err := sqldb.NewClient(opts...)
	if err != nil {
		return nil, nil, err
	}
	repo, err := internalrepo.NewSQLSeriesRepository(ctx, client, l)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return repo, client.Health, nil
}

func openClickHouse(ctx context.Context, cfg *config.Config, l *applogger.Logger) (repository.SeriesRepository, func(context.Context) error, error) {
	chc := cfg.Store.ClickHouse
	client, err := pkgch.NewClient(
		pkgch.WithHost(chc.Host),
		pkgch.WithPort(chc.Port),
		pkgch.WithDatabase(chc.Database),
		pkgch.WithCredentials(chc.User, chc.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(chc.UseHTTP),
		pkgch.WithTimeouts(chc.DialTimeout, chc.ReadTimeout),
		pkgch.WithMaxExecutionTime(chc.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, err
	}
	repo, err := internalrepo.NewCHSeriesRepository(ctx, client, l)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return repo, client.Health, nil
}

// probe treats "nothing cached" as healthy.
func probe(repo repository.SeriesRepository) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := repo.Load(ctx, "AAPL")
		if err == nil || errors.Is(err, models.ErrSeriesNotFound) || errors.Is(err, models.ErrCacheCorruption) {
			return nil
		}
		return err
	}
}

// ProvideRedisCache connects to the configured Redis.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	rc := cfg.Store.Redis
	return cache.NewRedisCache(
		cache.WithRedisHost(rc.Host),
		cache.WithRedisPort(rc.Port),
		cache.WithRedisPassword(rc.Password),
		cache.WithRedisDB(rc.DB),
		cache.WithRedisPool(rc.PoolSize, 2, 30*time.Second),
		cache.WithRedisPrefix(rc.Prefix),
	)
}

// ProvideHotRepository puts the in-process cache in front of the backend.
// Its cleanup closes the backend too.
func ProvideHotRepository(b *Backend, cfg *config.Config, l *applogger.Logger) (*internalrepo.HotSeriesRepository, func()) {
	mem := cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Store.HotSize))
	hot := internalrepo.NewHotSeriesRepository(b.SeriesRepository, mem, cfg.Store.HotTTL, l)
	return hot, func() { _ = hot.Close() }
}

// ProvideCalendar builds the reference-symbol trading calendar.
func ProvideCalendar(hot *internalrepo.HotSeriesRepository, cfg *config.Config, l *applogger.Logger) (repository.Calendar, error) {
	refs, err := symbols(cfg.Calendar.ReferenceSymbols)
	if err != nil {
		return nil, fmt.Errorf("calendar.reference_symbols: %w", err)
	}
	return calendar.NewResolver(hot, refs, cfg.Calendar.LookbackDays, l), nil
}

// ProvideMarketData creates the market data provider.
func ProvideMarketData(cfg *config.Config, l *applogger.Logger) repository.MarketDataProvider {
	return yahoo.New(l,
		yahoo.WithBaseURL(cfg.Provider.BaseURL),
		yahoo.WithTimeout(cfg.Provider.Timeout),
		yahoo.WithRateLimit(cfg.Provider.RateBurst, cfg.Provider.RatePerSec),
	)
}

// ProvideValidationMemo keeps symbol checks in memory, and in Redis too when
// validation.shared is set.
func ProvideValidationMemo(cfg *config.Config) (cache.Service, func(), error) {
	if !cfg.Validation.Shared {
		mem := cache.NewMemoryCache(cache.WithMemoryMaxSize(4096))
		return mem, func() { _ = mem.Close() }, nil
	}
	rc, err := ProvideRedisCache(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("validation memo: %w", err)
	}
	lc := cache.NewLayeredCache(rc, cache.WithLayeredMemorySize(4096), cache.WithLayeredMemoryTTL(cfg.Validation.CacheTTL))
	return lc, func() { _ = lc.Close() }, nil
}

// ProvideSeriesStore creates the time-series store use case.
func ProvideSeriesStore(
	hot *internalrepo.HotSeriesRepository,
	provider repository.MarketDataProvider,
	cal repository.Calendar,
	publisher repository.RefreshPublisher,
	m repository.Metrics,
	memo cache.Service,
	cfg *config.Config,
	l *applogger.Logger,
) (*usecase.SeriesStore, error) {
	start, err := models.ParseDate(cfg.Provider.HistoryStart)
	if err != nil {
		return nil, fmt.Errorf("provider.history_start: %w", err)
	}
	return usecase.NewSeriesStore(hot, provider, cal, publisher, m, memo, usecase.SeriesStoreConfig{
		HistoryStart:  start,
		ValidationTTL: cfg.Validation.CacheTTL,
		Instance:      cfg.InstanceID(),
	}, l), nil
}

func ProvideEngine() *stats.Engine { return stats.NewEngine() }

func ProvidePairAnalyzer(store *usecase.SeriesStore, engine *stats.Engine, m repository.Metrics, l *applogger.Logger) *usecase.PairAnalyzer {
	return usecase.NewPairAnalyzer(store, engine, m, l)
}

// ProvideWarmup creates the reference-symbol warm-up scheduler.
func ProvideWarmup(store *usecase.SeriesStore, cfg *config.Config, l *applogger.Logger) (*usecase.WarmupScheduler, error) {
	syms, err := symbols(cfg.WarmupSymbols())
	if err != nil {
		return nil, fmt.Errorf("warmup.symbols: %w", err)
	}
	start, err := models.ParseDate(cfg.Warmup.Start)
	if err != nil {
		return nil, fmt.Errorf("warmup.start: %w", err)
	}
	return usecase.NewWarmupScheduler(store, syms, start, cfg.Warmup.Workers, l), nil
}

// ProvideKafkaConsumer creates the refresh consumer, or nil when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.ConsumerGroup()),
		// Refreshes older than this process are irrelevant to its hot cache.
		pkgkafka.WithConsumerStartOffset(kafka.LastOffset),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideRefreshHandler invalidates hot copies on refresh events.
func ProvideRefreshHandler(store *usecase.SeriesStore, m repository.Metrics, cfg *config.Config, l *applogger.Logger) *usecase.RefreshHandler {
	return usecase.NewRefreshHandler(cfg.Kafka.RefreshTopic, store, m, l)
}

// ProvideHTTPHandlers lists the route groups served by the HTTP server.
func ProvideHTTPHandlers(analyzer *usecase.PairAnalyzer, b *Backend, cfg *config.Config, l *applogger.Logger) []xhttp.Handler {
	return []xhttp.Handler{
		api.NewPairsEchoHandler(l, analyzer, cfg.Server.RequestTimeout),
		api.NewHealthEchoHandler(map[string]api.HealthCheck{"store": b.Health}),
	}
}

// ProvideHTTPServer creates the echo server.
func ProvideHTTPServer(handlers []xhttp.Handler, cfg *config.Config, l *applogger.Logger) *xhttp.Server {
	return xhttp.NewServer(l, handlers,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithCORS(cfg.Server.CORS),
	)
}

// ProvideApp assembles the service.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	refresh *usecase.RefreshHandler,
	warmup *usecase.WarmupScheduler,
	producer *pkgkafka.Producer,
) *server.App {
	if producer != nil && cfg.Logging.Collect.Enabled {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Logging.Collect.Interval,
			CountThreshold: cfg.Logging.Collect.CountThreshold,
			Topic:          cfg.Logging.Collect.Topic,
			Publisher:      producer,
			IncludeWarn:    cfg.Logging.Collect.IncludeWarn,
		})
	}
	return server.New(cfg, l, srv, consumer, refresh, warmup)
}

// Toolkit is the dependency set of the command line client.
type Toolkit struct {
	Config   *config.Config
	Analyzer *usecase.PairAnalyzer
	Store    *usecase.SeriesStore
	Warmup   *usecase.WarmupScheduler
	Logger   *applogger.Logger
}

func ProvideToolkit(cfg *config.Config, a *usecase.PairAnalyzer, s *usecase.SeriesStore, w *usecase.WarmupScheduler, l *applogger.Logger) *Toolkit {
	return &Toolkit{Config: cfg, Analyzer: a, Store: s, Warmup: w, Logger: l}
}

func symbols(in []string) ([]models.Symbol, error) {
	out := make([]models.Symbol, 0, len(in))
	for _, s := range in {
		sym, err := models.NormalizeSymbol(s)
		if err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, nil
}
