//go:build wireinject
// +build wireinject

package di

import (
	"FinSignal/pkg/config"
	"FinSignal/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideAnalysisConfig,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideRedisCache,
		ProvideCache,

		// Repositories
		ProvideCachedSignals,
		ProvideCandleStore,
		ProvideSignalStore,
		ProvideSignalPublisher,

		// Use cases
		ProvideEngine,
		ProvideSignalDispatcher,
		ProvideDispatchBuffer,
		ProvideHub,
		ProvideScanner,
		ProvideKafkaConsumer,
		ProvideJobQueue,

		// HTTP
		ProvideHealthChecks,
		ProvideSignalsHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
