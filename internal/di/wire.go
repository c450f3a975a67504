//go:build wireinject
// +build wireinject

package di

import (
	"TradeWolf/pkg/config"
	"TradeWolf/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Shared state
		ProvideBotStatus,

		// Infrastructure
		ProvideCache,
		ProvideCandleCache,
		ProvideAuditSink,

		// Venue clients
		ProvideRESTClient,
		ProvideMarketData,
		ProvideAccount,
		ProvideExecutor,
		ProvideStream,
		ProvideSentiment,

		// Decision pipeline
		ProvideEngine,
		ProvideClassifier,
		ProvideGenerator,
		ProvideCooldowns,
		ProvideGate,
		ProvideSizer,
		ProvideScanner,
		ProvideSupervisor,

		// Surfaces
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
