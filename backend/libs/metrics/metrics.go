package metrics

import (
	"database/sql"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "uei_"

	// Result label values.
	ResultSuccess  = "success"
	ResultError    = "error"
	ResultRejected = "rejected"
	ResultNotFound = "not_found"
)

var (
	registerOnce sync.Once

	ingestRequests *prometheus.CounterVec
	ingestErrors   *prometheus.CounterVec
	ingestLatency  *prometheus.HistogramVec

	queryRequests *prometheus.CounterVec
	queryLatency  *prometheus.HistogramVec
)

// Init registers telemetry metrics and, when db is non-nil, connection pool gauges.
func Init(db *sql.DB) {
	registerOnce.Do(func() {
		ingestRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_requests_total",
				Help: "Total telemetry ingest requests by result",
			},
			[]string{"result"},
		)
		ingestErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_errors_total",
				Help: "Total telemetry ingest errors by reason",
			},
			[]string{"reason"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_latency_seconds",
				Help:    "Telemetry ingest latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		queryRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "latest_queries_total",
				Help: "Total latest-reading queries by scope and result",
			},
			[]string{"scope", "result"},
		)
		queryLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "latest_query_latency_seconds",
				Help:    "Latest-reading query latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"scope"},
		)

		prometheus.MustRegister(
			ingestRequests,
			ingestErrors,
			ingestLatency,
			queryRequests,
			queryLatency,
		)

		if db != nil {
			registerDBMetrics(db)
		}
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveIngest records ingest request duration and result.
func ObserveIngest(result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if ingestRequests != nil {
		ingestRequests.WithLabelValues(result).Inc()
	}
	if ingestLatency != nil {
		ingestLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncIngestError increments ingest error counter.
func IncIngestError(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if ingestErrors != nil {
		ingestErrors.WithLabelValues(reason).Inc()
	}
}

// ObserveQuery records a latest-reading query.
func ObserveQuery(scope, result string, duration time.Duration) {
	if scope == "" {
		scope = "unknown"
	}
	if result == "" {
		result = ResultSuccess
	}
	if queryRequests != nil {
		queryRequests.WithLabelValues(scope, result).Inc()
	}
	if queryLatency != nil {
		queryLatency.WithLabelValues(scope).Observe(duration.Seconds())
	}
}

