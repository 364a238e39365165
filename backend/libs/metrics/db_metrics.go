package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
)

func registerDBMetrics(db *sql.DB) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "db_open_connections",
			Help: "Open connections in the Postgres pool",
		},
		func() float64 { return float64(db.Stats().OpenConnections) },
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "db_in_use_connections",
			Help: "Connections currently checked out of the Postgres pool",
		},
		func() float64 { return float64(db.Stats().InUse) },
	))

	prometheus.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: metricPrefix + "db_wait_count_total",
			Help: "Connection checkouts that had to wait",
		},
		func() float64 { return float64(db.Stats().WaitCount) },
	))
}
