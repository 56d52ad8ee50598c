// Package metrics exposes prometheus instruments for the occupancy engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector served on /metrics.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	operations = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "asrama",
		Name:      "operations_total",
		Help:      "Occupancy engine operations by outcome.",
	}, []string{"operation", "outcome"})

	operationDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "asrama",
		Name:      "operation_duration_seconds",
		Help:      "Wall time of occupancy engine operations, lock wait included.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	lockWait = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: "asrama",
		Name:      "lock_wait_seconds",
		Help:      "Time spent waiting for room and resident locks.",
		Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// ObserveOperation records one finished engine call.
func ObserveOperation(operation, outcome string, took time.Duration) {
	operations.WithLabelValues(operation, outcome).Inc()
	operationDuration.WithLabelValues(operation).Observe(took.Seconds())
}

// ObserveLockWait records how long a caller waited for its keyed locks.
func ObserveLockWait(took time.Duration) {
	lockWait.Observe(took.Seconds())
}

// Handler serves the registry in the prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
