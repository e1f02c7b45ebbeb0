//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"vsd/internal"
	"vsd/internal/controllers"
	"vsd/internal/datasets"
	"vsd/internal/providers"
	"vsd/internal/resolve"
	"vsd/internal/snippets"
	"vsd/internal/structures"
	"vsd/internal/transfer"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		datasets.NewHTTPFetcher,
		datasets.NewStore,
		snippets.NewStore,
		snippets.NewZstdCompressor,
		snippets.NewFileManager,
		snippets.NewScheduler,
		NewDatasetSource,
		resolve.NewResolver,
		resolve.NewRenderTracker,
		transfer.NewEngine,
		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
