// Package metrics expone contadores Prometheus del backend y del guard de navegación.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder es lo que el cliente del backend y el guard necesitan para reportar.
type Recorder interface {
	RecordBackendCall(operation, outcome string, duration time.Duration)
	RecordGuardDecision(destination, target string)
}

// Collector implementa Recorder sobre un registro Prometheus.
type Collector struct {
	backendCalls   *prometheus.CounterVec
	backendLatency *prometheus.HistogramVec
	guardDecisions *prometheus.CounterVec
}

// NewCollector crea el Collector y registra sus métricas en reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		backendCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mycoaching_backend_calls_total",
			Help: "Backend calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mycoaching_backend_latency_seconds",
			Help:    "Backend call latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		guardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mycoaching_guard_decisions_total",
			Help: "Navigation guard decisions by destination and resulting target.",
		}, []string{"destination", "target"}),
	}

	reg.MustRegister(c.backendCalls, c.backendLatency, c.guardDecisions)
	return c
}

func (c *Collector) RecordBackendCall(operation, outcome string, duration time.Duration) {
	c.backendCalls.WithLabelValues(operation, outcome).Inc()
	c.backendLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

func (c *Collector) RecordGuardDecision(destination, target string) {
	c.guardDecisions.WithLabelValues(destination, target).Inc()
}

// Handler devuelve el handler de scrape para gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

type nopRecorder struct{}

func (nopRecorder) RecordBackendCall(string, string, time.Duration) {}
func (nopRecorder) RecordGuardDecision(string, string)             {}

// Nop devuelve un Recorder que descarta todo.
func Nop() Recorder {
	return nopRecorder{}
}
