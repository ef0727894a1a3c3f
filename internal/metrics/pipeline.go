package metrics

import "github.com/prometheus/client_golang/prometheus"

// Indexing and search Prometheus metrics.
var (
	IndexedChunksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docpipe",
			Name:      "indexed_chunks_total",
			Help:      "Total chunks indexed, by outcome",
		},
		[]string{"status"}, // "stored" / "failed"
	)

	IndexingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "docpipe",
			Name:      "indexing_duration_seconds",
			Help:      "Full document indexing duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docpipe",
			Name:      "search_duration_seconds",
			Help:      "Search request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"mode"}, // "hybrid" / "vector"
	)

	SearchTimeoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docpipe",
			Name:      "search_timeouts_total",
			Help:      "Searches that exceeded the deadline",
		},
	)

	ResultCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docpipe",
			Name:      "result_cache_total",
			Help:      "Result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss" / "stale_hit"
	)

	ResultCacheEvictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docpipe",
			Name:      "result_cache_evictions_total",
			Help:      "Result cache evictions, by reason",
		},
		[]string{"reason"}, // "expired" / "capacity"
	)

	ResultCacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docpipe",
			Name:      "result_cache_entries",
			Help:      "Current number of result cache entries",
		},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers indexing, search and cache metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(IndexedChunksTotal)
	prometheus.MustRegister(IndexingDuration)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchTimeoutsTotal)
	prometheus.MustRegister(ResultCacheTotal)
	prometheus.MustRegister(ResultCacheEvictionsTotal)
	prometheus.MustRegister(ResultCacheEntries)
	pipelineMetricsRegistered = true
}
