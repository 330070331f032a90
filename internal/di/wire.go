//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"NewsAlpha/internal/repository"
	"NewsAlpha/internal/usecase"
	"NewsAlpha/pkg/config"
	"NewsAlpha/pkg/server"
)

// InitializeApp wires the full application graph from configuration.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideGormDB,
		ProvideClickHouse,
		ProvideCache,
		ProvidePublisher,
		ProvideMetrics,
		ProvidePriceFeed,
		ProvidePriceStore,
		ProvidePriceProvider,
		ProvideOnlineModel,
		repository.NewSignalRepository,
		repository.NewSnapshotRepository,
		repository.NewModelRunRepository,
		usecase.NewFeatureStore,
		usecase.NewPredictor,
		usecase.NewTrainer,
		usecase.NewBacktester,
		ProvideLabeler,
		ProvideHandler,
		ProvideApp,
	)
	return nil, nil
}
