package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for the ingestion pipeline.
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    prometheus.CounterVec
	HTTPRequestDuration  prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.GaugeVec

	// Database Metrics
	DBQueriesTotal  prometheus.CounterVec
	DBQueryDuration prometheus.HistogramVec
	DBConnections   prometheus.GaugeVec

	// Cache Metrics
	CacheHitsTotal   prometheus.CounterVec
	CacheMissesTotal prometheus.CounterVec

	// Ingestion pipeline metrics
	TickDuration          prometheus.HistogramVec
	TickFlightsAccepted   prometheus.Counter
	TickFlightsRejected   prometheus.CounterVec
	TickControllersActive prometheus.Gauge
	SectorTransitions     prometheus.CounterVec
	SweeperRowsClosed     prometheus.CounterVec
	SummaryJobDuration    prometheus.HistogramVec
	FlightsSummarized     prometheus.Counter
	ControllersSummarized prometheus.Counter
	UpstreamRetries       prometheus.Counter
	LastIngestTimestamp   prometheus.Gauge
}

// NewMetricsRegistry initializes and returns a new MetricsRegistry with all metrics.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		HTTPRequestsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vatpac_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vatpac_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: *promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vatpac_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		DBQueriesTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vatpac_db_queries_total",
				Help: "Total database queries by operation type",
			},
			[]string{"query_type"},
		),
		DBQueryDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vatpac_db_query_duration_seconds",
				Help:    "Database query execution time in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"query_type"},
		),
		DBConnections: *promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vatpac_db_connections",
				Help: "Current number of database connections",
			},
			[]string{"state"},
		),

		CacheHitsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vatpac_cache_hits_total",
				Help: "Total cache hits by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),
		CacheMissesTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vatpac_cache_misses_total",
				Help: "Total cache misses by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),

		TickDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vatpac_ingest_tick_duration_seconds",
				Help:    "Time to fetch, normalize and persist one upstream snapshot",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"stage"},
		),
		TickFlightsAccepted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "vatpac_tick_flights_accepted_total",
				Help: "Flights that passed both the boundary filter and flight-plan validator",
			},
		),
		TickFlightsRejected: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vatpac_tick_flights_rejected_total",
				Help: "Flights rejected during a tick, by reason",
			},
			[]string{"reason"},
		),
		TickControllersActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "vatpac_controllers_active",
				Help: "Controllers present in the most recent snapshot",
			},
		),
		SectorTransitions: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vatpac_sector_transitions_total",
				Help: "Sector occupancy rows opened or closed",
			},
			[]string{"transition"},
		),
		SweeperRowsClosed: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vatpac_sweeper_rows_closed_total",
				Help: "Rows closed by the stale sweeper, by entity kind",
			},
			[]string{"kind"},
		),
		SummaryJobDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vatpac_summary_job_duration_seconds",
				Help:    "Summarizer execution time in seconds",
				Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"job_name"},
		),
		FlightsSummarized: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "vatpac_flights_summarized_total",
				Help: "Flights archived and summarized",
			},
		),
		ControllersSummarized: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "vatpac_controllers_summarized_total",
				Help: "Controller sessions archived and summarized",
			},
		),
		UpstreamRetries: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "vatpac_upstream_retries_total",
				Help: "Retry attempts against the VATSIM data feed",
			},
		),
		LastIngestTimestamp: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "vatpac_last_ingest_unixtime",
				Help: "Unix timestamp of the last successfully committed ingest tick",
			},
		),
	}
}
