package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConnectAttemptsTotal tracks lazy connect attempts per driver and result
	ConnectAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lazygate_connect_attempts_total",
			Help: "Total number of database connect attempts made by the connection gate",
		},
		[]string{"driver", "result"},
	)

	// FailuresTotal tracks responses produced by the failure classifier
	FailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lazygate_failures_total",
			Help: "Total number of classified failure responses",
		},
		[]string{"status", "category"},
	)

	// RequestsTotal tracks every request leaving the pipeline
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lazygate_requests_total",
			Help: "Total number of requests handled by the pipeline",
		},
		[]string{"status"},
	)

	// DBConnectionPoolUsage tracks the percentage of open SQL connections
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lazygate_db_connection_pool_usage_percent",
			Help: "Open SQL connections as a percentage of the pool limit",
		},
	)
)
