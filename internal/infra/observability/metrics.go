package observability

import (
	"time"

	"github.com/boddenberg/timesheet-charts-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the chart service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	recomputes      prometheus.Counter
	renders         *prometheus.CounterVec
	exports         prometheus.Counter
	datasetsLoaded  *prometheus.CounterVec
	mergeErrors     *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "charts_operation_duration_seconds",
				Help:    "Duration of recompute, render, export and merge operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		recomputes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "charts_recomputes_total",
				Help: "Total derived series recomputations.",
			},
		),
		renders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "charts_renders_total",
				Help: "Total chart surfaces rendered.",
			},
			[]string{"metric"},
		),
		exports: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "charts_exports_total",
				Help: "Total composite exports.",
			},
		),
		datasetsLoaded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "charts_datasets_loaded_total",
				Help: "Total datasets loaded into a dashboard.",
			},
			[]string{"source"},
		),
		mergeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "charts_merge_errors_total",
				Help: "Total failed merge service calls.",
			},
			[]string{"kind"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "charts_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "charts_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
	}
}

// RecordDuration records the duration of an operation.
func (m *Metrics) RecordDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrRecompute counts a derived series recomputation.
func (m *Metrics) IncrRecompute() {
	m.recomputes.Inc()
}

// IncrRender counts a rendered chart surface.
func (m *Metrics) IncrRender(metric string) {
	m.renders.WithLabelValues(metric).Inc()
}

// IncrExport counts a composite export.
func (m *Metrics) IncrExport() {
	m.exports.Inc()
}

// IncrDatasetLoaded counts a dataset load by source.
func (m *Metrics) IncrDatasetLoaded(source string) {
	m.datasetsLoaded.WithLabelValues(source).Inc()
}

// IncrMergeError counts a failed merge call.
func (m *Metrics) IncrMergeError(kind string) {
	m.mergeErrors.WithLabelValues(kind).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// GetRenderSnapshot returns the counters behind GET /v1/metrics/render.
func (m *Metrics) GetRenderSnapshot() *domain.RenderMetrics {
	renders := 0.0
	for _, metric := range domain.Metrics {
		renders += getCounterValue(m.renders, string(metric))
	}
	loaded := getCounterValue(m.datasetsLoaded, domain.SourceUpload) +
		getCounterValue(m.datasetsLoaded, domain.SourceDirect)
	mergeErrors := getCounterValue(m.mergeErrors, "remote") +
		getCounterValue(m.mergeErrors, "unauthorized") +
		getCounterValue(m.mergeErrors, "unavailable")

	hits, misses := 0.0, 0.0
	for _, c := range []string{"surface", "merge"} {
		hits += getCounterValue(m.cacheHits, c)
		misses += getCounterValue(m.cacheMisses, c)
	}
	hitRate := 0.0
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	return &domain.RenderMetrics{
		Recomputes:     int64(readCounter(m.recomputes)),
		Renders:        int64(renders),
		Exports:        int64(readCounter(m.exports)),
		DatasetsLoaded: int64(loaded),
		MergeErrors:    int64(mergeErrors),
		CacheHitRate:   hitRate,
		Period:         "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	return readCounter(cv.WithLabelValues(label))
}

func readCounter(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
