package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "clipstore"

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestTotal    *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	CatalogErrorTotal *prometheus.CounterVec

	SearchQueryTotal    prometheus.Counter
	SearchQueryDuration prometheus.Histogram
	SearchResults       prometheus.Histogram
	SearchRateLimited   prometheus.Counter

	RealtimeEventTotal *prometheus.CounterVec
}

// New registers every collector, plus the Go and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		HTTPRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		CatalogErrorTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_errors_total",
			Help:      "Catalog operation failures by operation and reason",
		}, []string{"operation", "reason"}),

		SearchQueryTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_queries_total",
			Help:      "Total number of search queries executed",
		}),

		SearchQueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_query_duration_seconds",
			Help:      "Search scoring and ranking duration in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),

		SearchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of results returned per search",
			Buckets:   prometheus.LinearBuckets(0, 10, 6),
		}),

		SearchRateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_rate_limited_total",
			Help:      "Search requests rejected by the rate limiter",
		}),

		RealtimeEventTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realtime_events_total",
			Help:      "Realtime events by type and delivery result",
		}, []string{"event_type", "result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestTotal,
		m.HTTPRequestDuration,
		m.CatalogErrorTotal,
		m.SearchQueryTotal,
		m.SearchQueryDuration,
		m.SearchResults,
		m.SearchRateLimited,
		m.RealtimeEventTotal,
	)
	return m
}

// Registry exposes the underlying registry for tests and custom collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequestTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordCatalogError counts one failed catalog call.
func (m *Metrics) RecordCatalogError(operation, reason string) {
	m.CatalogErrorTotal.WithLabelValues(operation, reason).Inc()
}

// RecordSearch records one executed search.
func (m *Metrics) RecordSearch(duration time.Duration, results int) {
	m.SearchQueryTotal.Inc()
	m.SearchQueryDuration.Observe(duration.Seconds())
	m.SearchResults.Observe(float64(results))
}

// RecordRateLimited counts one rejected search.
func (m *Metrics) RecordRateLimited() {
	m.SearchRateLimited.Inc()
}

// RecordRealtimeEvent counts one published realtime event.
func (m *Metrics) RecordRealtimeEvent(eventType string, delivered bool) {
	result := "dropped"
	if delivered {
		result = "delivered"
	}
	m.RealtimeEventTotal.WithLabelValues(eventType, result).Inc()
}
