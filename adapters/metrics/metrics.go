// Package metrics provides Prometheus metrics collection for generated
// CRUD routes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for the generated routes.
type Collector struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
}

// New creates a collector registered against reg. Tests pass a fresh
// registry; the server passes prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "crudgate",
				Name:      "requests_total",
				Help:      "Total number of CRUD requests processed",
			},
			[]string{"resource", "operation", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "crudgate",
				Name:      "request_duration_seconds",
				Help:      "CRUD request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"resource", "operation"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "crudgate",
				Name:      "requests_in_flight",
				Help:      "Number of CRUD requests currently being processed",
			},
		),
	}
}
