//go:build wireinject
// +build wireinject

package di

import (
	"github.com/FrankPreci/capitol-shill/pkg/config"
	"github.com/FrankPreci/capitol-shill/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideNormalizer,

		// Infrastructure clients
		ProvideRedisClient,
		ProvidePayloadCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Provider and domain services
		ProvidePriceSource,
		ProvideEngine,
		ProvideEnricher,
		ProvideOptimizer,

		// Repositories and use cases
		ProvideResultStore,
		ProvideResultPublisher,
		ProvideResultProcessor,
		ProvideStudyRunner,
		ProvideStudyQueue,

		// Transport
		ProvideHTTPHandler,
		ProvideApp,
	)
	return nil, nil
}
