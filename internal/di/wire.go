//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/config"
	"github.com/TIMMY-WEST/STOCK-INVESTMENT-ANALYZER-sub000/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config, mode server.Mode) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideMarketDataClient,
		ProvideStore,
		ProvideRedisCache,
		ProvideKafkaProducer,

		// Use cases
		ProvideOrchestrator,
		ProvideRegistry,
		ProvideProgressSink,
		ProvideIngestJob,

		// Transport
		ProvideQueue,
		ProvideHTTPServer,

		ProvideApp,
	)
	return nil, nil, nil
}
