package internal

import (
	"net/http"

	"vsd/internal/controllers"
	"vsd/internal/providers"
	"vsd/internal/structures"
)

func InitRoutes(apiController *controllers.ApiController, conf *structures.Config) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Post("/snippets/create", http.HandlerFunc(apiController.CreateSnippet))
	routers.Get("/snippets/get", http.HandlerFunc(apiController.GetSnippet))
	routers.Post("/snippets/update", http.HandlerFunc(apiController.UpdateSnippet))
	routers.Post("/snippets/delete", http.HandlerFunc(apiController.DeleteSnippet))
	routers.Post("/snippets/duplicate", http.HandlerFunc(apiController.DuplicateSnippet))
	routers.Get("/snippets/list", http.HandlerFunc(apiController.ListSnippets))
	routers.Post("/snippets/draft", http.HandlerFunc(apiController.UpdateDraft))
	routers.Post("/snippets/publish", http.HandlerFunc(apiController.PublishSnippet))
	routers.Post("/snippets/revert", http.HandlerFunc(apiController.RevertSnippet))
	routers.Get("/snippets/refs", http.HandlerFunc(apiController.ExtractDatasetRefs))
	routers.Get("/snippets/usage", http.HandlerFunc(apiController.GetUsage))

	routers.Post("/datasets/create", http.HandlerFunc(apiController.CreateDataset))
	routers.Get("/datasets/get", http.HandlerFunc(apiController.GetDataset))
	routers.Post("/datasets/update", http.HandlerFunc(apiController.UpdateDataset))
	routers.Post("/datasets/delete", http.HandlerFunc(apiController.DeleteDataset))
	routers.Get("/datasets/list", http.HandlerFunc(apiController.ListDatasets))
	routers.Post("/datasets/refresh", http.HandlerFunc(apiController.RefreshDataset))
	routers.Post("/datasets/extract", http.HandlerFunc(apiController.ExtractInlineData))

	routers.Post("/resolve", http.HandlerFunc(apiController.ResolveSpec))
	routers.Post("/detect", http.HandlerFunc(apiController.DetectFormat))

	routers.Post("/import/snippets", http.HandlerFunc(apiController.ImportSnippets))
	routers.Post("/import/datasets", http.HandlerFunc(apiController.ImportDatasets))
	routers.Get("/export", http.HandlerFunc(apiController.Export))
	return routers
}
