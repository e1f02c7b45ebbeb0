package datasets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"vsd/internal/models"
	"vsd/internal/providers"
	"vsd/internal/structures"
)

const (
	defaultFetchTimeout = 15 * time.Second
	maxFetchBytes       = 64 << 20 // 64 MB
)

type FetcherInterface interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// HTTPFetcher retrieves remote dataset payloads. Responses are kept in the
// shared cache so repeated metadata refreshes within a session don't
// re-fetch.
type HTTPFetcher struct {
	client *http.Client
	cache  providers.CacheProviderInterface
	logger providers.Logger
}

func NewHTTPFetcher(conf *structures.Config, cache providers.CacheProviderInterface, logger providers.Logger) FetcherInterface {
	timeout := conf.Datasets.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
		cache:  cache,
		logger: logger,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if rawURL == "" {
		return nil, &models.FetchError{URL: rawURL, Kind: models.FetchNetwork, Err: fmt.Errorf("empty url")}
	}

	cacheKey := "fetch:" + rawURL
	if data, ok := f.cache.Get(cacheKey); ok {
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &models.FetchError{URL: rawURL, Kind: models.FetchNetwork, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &models.FetchError{URL: rawURL, Kind: models.FetchNetwork, Err: err}
	}
	defer resp.Body.Close()

	if kind, ok := statusFetchKind(resp.StatusCode); ok {
		f.logger.Warnf(providers.TypeApp, "Fetch of %s failed with status %d", rawURL, resp.StatusCode)
		return nil, &models.FetchError{
			URL:  rawURL,
			Kind: kind,
			Err:  fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, &models.FetchError{URL: rawURL, Kind: models.FetchNetwork, Err: err}
	}

	f.cache.Set(cacheKey, data)
	return data, nil
}

// statusFetchKind maps failing status codes onto the error taxonomy:
// access-blocked responses are reported distinctly from missing resources.
func statusFetchKind(code int) (models.FetchKind, bool) {
	switch {
	case code >= 200 && code < 300:
		return "", false
	case code == http.StatusUnauthorized, code == http.StatusForbidden, code == http.StatusUnavailableForLegalReasons:
		return models.FetchBlocked, true
	case code == http.StatusNotFound, code == http.StatusGone:
		return models.FetchNotFound, true
	default:
		return models.FetchNetwork, true
	}
}
