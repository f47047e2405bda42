package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Generation metrics
	CodesGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortcode_codes_generated_total",
			Help: "Total number of codes persisted",
		},
	)

	SequencesBurned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shortcode_sequences_burned_total",
			Help: "Sequence numbers consumed without a persisted record",
		},
	)

	NextSequence = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shortcode_counter_next_sequence",
			Help: "Sequence number the counter will issue next",
		},
	)

	// Lookup metrics
	Lookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortcode_lookups_total",
			Help: "Total number of lookups by outcome",
		},
		[]string{"result"}, // "found", "not_found", "invalid", "error"
	)

	// Cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortcode_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"layer"}, // "l1" or "l2"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortcode_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"layer"},
	)

	// Request metrics
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shortcode_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"route", "method", "status"},
	)

	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortcode_requests_total",
			Help: "Total number of requests",
		},
		[]string{"route", "method", "status"},
	)

	// Store metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shortcode_store_operation_duration_seconds",
			Help:    "Store operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"driver", "operation"},
	)
)

// ObserveStore records the time elapsed since start for a store operation.
// Meant for defer: defer metrics.ObserveStore("postgres", "insert", time.Now())
func ObserveStore(driver, operation string, start time.Time) {
	StoreOperationDuration.WithLabelValues(driver, operation).Observe(time.Since(start).Seconds())
}
