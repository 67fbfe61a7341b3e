package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all pipeline metrics
type Metrics struct {
	// Submission metrics
	RecordsSubmitted  *prometheus.CounterVec
	RecordsFailed     *prometheus.CounterVec
	RecordsSkipped    *prometheus.CounterVec
	SubmissionLatency prometheus.Histogram

	// Retry queue metrics
	RetriesAttempted *prometheus.CounterVec
	RetriesDropped   *prometheus.CounterVec
	QueueDepth       prometheus.Gauge

	// Enrichment metrics
	GeocodeLookups   *prometheus.CounterVec
	GeocodeFallbacks prometheus.Counter
	PositionFailures prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics on the default
// registry.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsOn(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsOn registers the collectors on a caller-supplied registerer.
// Tests use this to avoid duplicate registration on the default registry.
func NewMetricsOn(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RecordsSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_submitted_total",
			Help:      "Total number of activity records accepted by the backend",
		}, []string{"activity_type"}),
		RecordsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_failed_total",
			Help:      "Total number of activity submissions that failed and were queued",
		}, []string{"activity_type"}),
		RecordsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Total number of submissions skipped before any HTTP call",
		}, []string{"reason"}),
		SubmissionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "submission_duration_seconds",
			Help:      "Time spent posting activity records to the backend",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		RetriesAttempted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retry_attempts_total",
			Help:      "Total number of retry attempts for failed submissions",
		}, []string{"activity_type"}),
		RetriesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_dropped_total",
			Help:      "Total number of queue entries dropped after exhausting retries",
		}, []string{"activity_type"}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "retry_queue_depth",
			Help:      "Current number of entries in the retry queue",
		}),
		GeocodeLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_lookups_total",
			Help:      "Total number of reverse-geocoding lookups",
		}, []string{"status"}),
		GeocodeFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_fallbacks_total",
			Help:      "Total number of lookups that fell back to formatted coordinates",
		}),
		PositionFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "position_failures_total",
			Help:      "Total number of failed or timed-out position acquisitions",
		}),
	}
}
