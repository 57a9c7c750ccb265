//go:build wireinject
// +build wireinject

package di

import (
	"Boardroom/pkg/config"
	"Boardroom/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisClient,
		ProvideClickHouseClient,

		// Repositories
		ProvideStateStore,
		ProvideAuditLog,
		ProvideEventPublisher,
		ProvideCache,

		// External collaborators
		ProvideYahooClient,
		ProvideMarketData,
		ProvideNewsSource,
		ProvideFundamentals,
		ProvideSentimentScorer,
		ProvideAdvisor,
		ProvideNotifier,
		ProvideQuoteStream,

		// Core
		ProvideAnalyst,
		ProvideLedger,
		ProvidePipeline,
		ProvideMonitor,
		ProvideOrchestrator,

		// Surface
		ProvideOpsHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
