package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpRequestsTotal      *prometheus.CounterVec
	httpLatencySeconds     *prometheus.HistogramVec
	httpErrorsTotal        *prometheus.CounterVec
	rosterMutationsTotal   *prometheus.CounterVec
	rosterStudents         prometheus.Gauge
	rosterExportsTotal     prometheus.Counter
	authAttemptsTotal      *prometheus.CounterVec
	rosterEventsPublishErr prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used by the roster service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "roster_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		rosterMutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_mutations_total",
			Help: "Roster mutations by operation and outcome.",
		}, []string{"operation", "outcome"})

		rosterStudents = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roster_students",
			Help: "Number of students currently on the roster.",
		})

		rosterExportsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roster_exports_total",
			Help: "Number of spreadsheet exports generated.",
		})

		authAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_auth_attempts_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"})

		rosterEventsPublishErr = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roster_event_publish_errors_total",
			Help: "Roster change events that could not be published.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			rosterMutationsTotal,
			rosterStudents,
			rosterExportsTotal,
			authAttemptsTotal,
			rosterEventsPublishErr,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// RosterMutations exposes the roster mutation counter.
func RosterMutations() *prometheus.CounterVec {
	RegisterMetrics()
	return rosterMutationsTotal
}

// RosterStudents exposes the roster size gauge.
func RosterStudents() prometheus.Gauge {
	RegisterMetrics()
	return rosterStudents
}

// RosterExports exposes the export counter.
func RosterExports() prometheus.Counter {
	RegisterMetrics()
	return rosterExportsTotal
}

// AuthAttempts exposes the login attempt counter.
func AuthAttempts() *prometheus.CounterVec {
	RegisterMetrics()
	return authAttemptsTotal
}

// RosterEventPublishErrors exposes the failed event publication counter.
func RosterEventPublishErrors() prometheus.Counter {
	RegisterMetrics()
	return rosterEventsPublishErr
}
