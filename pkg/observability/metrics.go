// Package observability exposes Prometheus metrics for the FlowScope
// server: HTTP traffic, Docker discovery calls, layout computations, cache
// effectiveness, and the websocket feed.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every metric the server emits, backed by its own
// prometheus registry so tests can create isolated instances.
type Registry struct {
	// HTTP
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Discovery
	DockerCallsTotal   *prometheus.CounterVec
	DockerCallDuration *prometheus.HistogramVec
	ContainersObserved prometheus.Gauge
	ContainersByStatus *prometheus.GaugeVec

	// Layout
	LayoutsTotal   *prometheus.CounterVec
	LayoutDuration *prometheus.HistogramVec

	// Cache
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Websocket
	WSClients         prometheus.Gauge
	WSBroadcastsTotal prometheus.Counter

	registry *prometheus.Registry
}

// NewRegistry creates a Registry with all metrics registered.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}

	r.HTTPRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowscope_http_requests_total",
			Help: "Total HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)
	r.HTTPRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flowscope_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"method", "route"},
	)
	r.HTTPRequestsInFlight = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "flowscope_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		},
	)

	r.DockerCallsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowscope_docker_calls_total",
			Help: "Docker Engine API calls by operation and outcome",
		},
		[]string{"operation", "status"},
	)
	r.DockerCallDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flowscope_docker_call_duration_seconds",
			Help:    "Docker Engine API call latency in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"operation"},
	)
	r.ContainersObserved = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "flowscope_containers_observed",
			Help: "Containers seen in the most recent discovery snapshot",
		},
	)
	r.ContainersByStatus = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flowscope_containers_by_status",
			Help: "Containers in the most recent snapshot by status",
		},
		[]string{"status"},
	)

	r.LayoutsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowscope_layouts_total",
			Help: "Layout computations by algorithm",
		},
		[]string{"algorithm"},
	)
	r.LayoutDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flowscope_layout_duration_seconds",
			Help:    "Layout computation time in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1.0},
		},
		[]string{"algorithm"},
	)

	r.CacheHitsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowscope_cache_hits_total",
			Help: "Cache hits by key kind",
		},
		[]string{"kind"},
	)
	r.CacheMissesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowscope_cache_misses_total",
			Help: "Cache misses by key kind",
		},
		[]string{"kind"},
	)

	r.WSClients = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "flowscope_ws_clients",
			Help: "Connected websocket clients",
		},
	)
	r.WSBroadcastsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "flowscope_ws_broadcasts_total",
			Help: "Topology broadcasts sent over the websocket feed",
		},
	)

	return r
}

// Handler serves the registry in Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveLayout records one layout computation.
func (r *Registry) ObserveLayout(algorithm string, d time.Duration) {
	r.LayoutsTotal.WithLabelValues(algorithm).Inc()
	r.LayoutDuration.WithLabelValues(algorithm).Observe(d.Seconds())
}

// ObserveDockerCall records one Docker Engine API call. It has the
// signature of a discovery observer so it can be handed straight to
// the discovery client.
func (r *Registry) ObserveDockerCall(operation string, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	r.DockerCallsTotal.WithLabelValues(operation, status).Inc()
	r.DockerCallDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// ObserveSnapshot records the container counts of a discovery snapshot.
func (r *Registry) ObserveSnapshot(byStatus map[string]int) {
	total := 0
	for status, count := range byStatus {
		total += count
		r.ContainersByStatus.WithLabelValues(status).Set(float64(count))
	}
	r.ContainersObserved.Set(float64(total))
}
