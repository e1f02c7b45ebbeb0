package providers

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"vsd/internal/models"
	"vsd/internal/structures"
)

// SnippetUsageSource exposes the snippet store's quota accounting for gauges.
type SnippetUsageSource interface {
	Usage() models.StorageUsage
	Len() int
}

// DatasetCountSource exposes the dataset store's record count for gauges.
type DatasetCountSource interface {
	Count(ctx context.Context) (int, error)
}

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	ObservePersistenceDuration(duration time.Duration)
	IncResolveTotal(status string)
	ObserveResolveDuration(duration time.Duration)
	// RegisterStoreGauges is called once at startup, after the stores exist.
	// Gauges pull from the stores on scrape, so they can't be constructor
	// dependencies without a cycle through the cache.
	RegisterStoreGauges(snippets SnippetUsageSource, datasets DatasetCountSource)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	persistenceDuration prometheus.Histogram
	resolveTotal        *prometheus.CounterVec
	resolveDuration     prometheus.Histogram
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncResolveTotal(status string) {
	m.resolveTotal.WithLabelValues(status).Inc()
}

func (m *MetricsProvider) ObserveResolveDuration(duration time.Duration) {
	m.resolveDuration.Observe(duration.Seconds())
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func (m *MetricsProvider) RegisterStoreGauges(snippets SnippetUsageSource, datasets DatasetCountSource) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "vsd_snippet_store_used_bytes",
		Help: "Serialized size of the snippet collection",
	}, func() float64 {
		return float64(snippets.Usage().UsedBytes)
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "vsd_snippet_store_quota_percent",
		Help: "Snippet store quota usage in percent",
	}, func() float64 {
		return snippets.Usage().Percent
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "vsd_snippets_total",
		Help: "Total number of snippets",
	}, func() float64 {
		return float64(snippets.Len())
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "vsd_datasets_total",
		Help: "Total number of datasets",
	}, func() float64 {
		n, err := datasets.Count(context.Background())
		if err != nil {
			return 0
		}
		return float64(n)
	})
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vsd_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vsd_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vsd_cache_hits_total",
			Help: "Total number of cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vsd_cache_misses_total",
			Help: "Total number of cache misses",
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vsd_persistence_duration_seconds",
			Help:    "Duration of snippet persistence operations in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		resolveTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vsd_resolve_total",
			Help: "Total number of reference resolutions by outcome",
		}, []string{"status"}),

		resolveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vsd_resolve_duration_seconds",
			Help:    "Reference resolution duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) IncResolveTotal(_ string)                         {}
func (n *noopMetrics) ObserveResolveDuration(_ time.Duration)           {}

func (n *noopMetrics) RegisterStoreGauges(_ SnippetUsageSource, _ DatasetCountSource) {}
