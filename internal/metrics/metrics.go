package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bookingcrm"

type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
	listFetches  *prometheus.CounterVec
	bulkActions  *prometheus.CounterVec
}

// New registers every collector on a fresh registry, along with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency distribution of HTTP requests.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route"}),
		listFetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "list",
			Name:      "fetches_total",
			Help:      "List fetches by resource and outcome (success, failure, discarded).",
		}, []string{"resource", "outcome"}),
		bulkActions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "list",
			Name:      "bulk_actions_total",
			Help:      "Bulk update/delete requests by resource, action and result.",
		}, []string{"resource", "action", "result"}),
	}
}

func (m *Metrics) ObserveHTTP(method, route, status string, seconds float64) {
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(seconds)
}

// FetchObserver returns a callback counting list fetch outcomes for resource.
func (m *Metrics) FetchObserver(resource string) func(outcome string) {
	return func(outcome string) {
		m.listFetches.WithLabelValues(resource, outcome).Inc()
	}
}

func (m *Metrics) ObserveBulk(resource, action string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.bulkActions.WithLabelValues(resource, action, result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
