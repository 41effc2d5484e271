package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wildfire"

// Metrics holds every Prometheus collector the service exports.
type Metrics struct {
	RecordsPrepared  prometheus.Counter
	RecordsDropped   prometheus.Counter
	TransformErrors  prometheus.Counter
	MessagesConsumed prometheus.Counter
	MessagesProduced prometheus.Counter
	BatchSize        prometheus.Histogram
	BatchDuration    prometheus.Histogram
	DatasetRecords   prometheus.Gauge
	RefreshDuration  prometheus.Histogram
	PipelineRunning  prometheus.Gauge
	GeocodeRequests  prometheus.Counter
	GeocodeCacheHits prometheus.Counter
	GeocodeFailures  prometheus.Counter
}

// NewMetrics builds the metric set and registers it with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting builds an unregistered metric set so parallel tests
// never collide on the default registry.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsPrepared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_prepared_total",
			Help:      "Raw fire reports successfully prepared into analysis records.",
		}),
		RecordsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Raw fire reports dropped for an unparseable fire year.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Ingest messages that failed decoding or preparation.",
		}),
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Messages read from the raw fire report topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Prepared records published to the sink topic.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of messages per ingest batch.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Time spent transforming and loading one ingest batch.",
			Buckets:   prometheus.DefBuckets,
		}),
		DatasetRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_records",
			Help:      "Prepared fire records currently in the analysis store.",
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Time spent on one full dataset refresh.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while the ingest pipeline loop is active.",
		}),
		GeocodeRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding lookups attempted for state backfill.",
		}),
		GeocodeCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_hits_total",
			Help:      "Reverse geocoding lookups served from the in-process cache.",
		}),
		GeocodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_failures_total",
			Help:      "Reverse geocoding lookups that returned an error.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RecordsPrepared,
		m.RecordsDropped,
		m.TransformErrors,
		m.MessagesConsumed,
		m.MessagesProduced,
		m.BatchSize,
		m.BatchDuration,
		m.DatasetRecords,
		m.RefreshDuration,
		m.PipelineRunning,
		m.GeocodeRequests,
		m.GeocodeCacheHits,
		m.GeocodeFailures,
	}
}
