//go:build wireinject
// +build wireinject

package di

import (
	"TradePulse/pkg/config"
	"TradePulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Storage and external services
		ProvideAuditStore,
		ProvideMarketData,
		ProvideLLM,
		ProvideAlertQueue,
		ProvidePublisher,

		// Pipeline
		ProvideOrchestrator,

		// Delivery
		ProvideHub,
		ProvideHandler,

		// Application
		ProvideApp,
	)
	return &server.App{}, nil
}
