package internal

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vsd/internal/controllers"
	"vsd/internal/datasets"
	"vsd/internal/providers"
	"vsd/internal/resolve"
	"vsd/internal/snippets"
	"vsd/internal/structures"
	"vsd/internal/testutil"
	"vsd/internal/transfer"
)

func newRouteTestController(t *testing.T) (*controllers.ApiController, *structures.Config) {
	t.Helper()
	conf := &structures.Config{
		Snippets: structures.SnippetsConfig{QuotaBytes: 0},
		Settings: structures.SettingsConfig{AutosaveDebounce: 10 * time.Millisecond},
		Datasets: structures.DatasetsConfig{DBPath: filepath.Join(t.TempDir(), "datasets.db")},
	}
	logger := &testutil.MockLogger{}
	sn := snippets.NewStore(conf, logger)
	ds, err := datasets.NewStore(conf, &testutil.MockFetcher{}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ds.Close() })

	ac := controllers.NewApiController(
		logger, sn, ds,
		resolve.NewResolver(ds, logger),
		resolve.NewRenderTracker(),
		transfer.NewEngine(sn, ds, logger),
		testutil.NewMockCache(),
		providers.NewMetricsProvider(conf),
	)
	return ac, conf
}

func TestInitRoutes_RegistersAllEndpoints(t *testing.T) {
	ac, conf := newRouteTestController(t)

	router := InitRoutes(ac, conf)
	routes := router.GetRoutes()

	urls := make(map[string]bool, len(routes))
	for _, r := range routes {
		urls[r.Url] = true
	}

	for _, url := range []string{
		"/snippets/create", "/snippets/get", "/snippets/update",
		"/snippets/delete", "/snippets/duplicate", "/snippets/list",
		"/snippets/draft", "/snippets/publish", "/snippets/revert",
		"/snippets/refs", "/snippets/usage",
		"/datasets/create", "/datasets/get", "/datasets/update",
		"/datasets/delete", "/datasets/list", "/datasets/refresh",
		"/datasets/extract",
		"/resolve", "/detect",
		"/import/snippets", "/import/datasets", "/export",
	} {
		assert.True(t, urls[url], "missing route %s", url)
	}
	assert.Len(t, routes, 23)
}

func TestInitRoutes_MethodEnforcement(t *testing.T) {
	ac, conf := newRouteTestController(t)

	mux := http.NewServeMux()
	for _, r := range InitRoutes(ac, conf).GetRoutes() {
		mux.Handle(r.Url, r.Handler)
	}

	// GET-only route with POST should fail
	req := httptest.NewRequest(http.MethodPost, "/snippets/list", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	// POST-only route with GET should fail
	req = httptest.NewRequest(http.MethodGet, "/snippets/create", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
