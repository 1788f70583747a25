//go:build wireinject
// +build wireinject

package di

import (
	"CommodSim/pkg/config"
	"CommodSim/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideRedisCache,
		ProvideSnapshotCache,
		ProvideBytesCache,
		ProvideKafkaConsumer,

		// Repositories
		ProvideSnapshotStore,
		ProvideSnapshotPublisher,

		// Domain services and use cases
		ProvideRegistry,
		ProvideWeather,
		ProvideSimulator,
		ProvideOptionsChains,
		ProvideSnapshotProcessor,
		ProvideSnapshotPipeline,
		ProvideBiasHandler,

		// Transport
		ProvideHandlers,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
