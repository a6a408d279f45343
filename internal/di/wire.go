//go:build wireinject
// +build wireinject

package di

import (
	"PairLab/pkg/config"
	"PairLab/pkg/server"

	"github.com/google/wire"
)

var storeSet = wire.NewSet(
	// Persistence
	ProvideBackend,
	ProvideHotRepository,

	// Kafka
	ProvideKafkaProducer,
	ProvideRefreshPublisher,

	// Market data
	ProvideCalendar,
	ProvideMarketData,
	ProvideValidationMemo,

	// Use cases
	ProvideSeriesStore,
	ProvideEngine,
	ProvidePairAnalyzer,
	ProvideWarmup,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		storeSet,

		// Refresh fan-out
		ProvideKafkaConsumer,
		ProvideRefreshHandler,

		// HTTP
		ProvideHTTPHandlers,
		ProvideHTTPServer,

		ProvideApp,
	)
	return &server.App{}, nil, nil
}

// InitializeToolkit wires the dependencies of the command line client.
func InitializeToolkit(cfg *config.Config) (*Toolkit, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideNopMetrics,
		storeSet,
		ProvideToolkit,
	)
	return &Toolkit{}, nil, nil
}
