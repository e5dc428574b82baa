// Package metrics provides Prometheus metrics collection for stacgate.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for stacgate.
type Collector struct {
	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Auth metrics
	TokenExchanges *prometheus.CounterVec

	// Worker pool metrics
	PoolQueueDepth prometheus.Gauge
	PoolBusy       prometheus.Gauge

	// Search metrics
	SearchDuration *prometheus.HistogramVec
}

// New creates a new metrics collector registered on the default
// registry.
func New() *Collector {
	return with(promauto.With(prometheus.DefaultRegisterer))
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	return with(promauto.With(reg))
}

func with(factory promauto.Factory) *Collector {
	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stacgate",
				Name:      "requests_total",
				Help:      "Total number of requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stacgate",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "stacgate",
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),
		TokenExchanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stacgate",
				Name:      "token_exchanges_total",
				Help:      "Total number of token exchange attempts",
			},
			[]string{"outcome"},
		),
		PoolQueueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "stacgate",
				Name:      "worker_queue_depth",
				Help:      "Number of handler tasks waiting for a worker",
			},
		),
		PoolBusy: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "stacgate",
				Name:      "workers_busy",
				Help:      "Number of workers currently executing a handler",
			},
		),
		SearchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stacgate",
				Name:      "search_duration_seconds",
				Help:      "Search execution duration in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"kind"},
		),
	}
}

// NormalizeRoute reduces label cardinality by capping unmatched paths.
func NormalizeRoute(route string) string {
	if len(route) > 80 {
		return route[:80] + "..."
	}
	return route
}
