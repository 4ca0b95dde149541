package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "vowline"

// PrometheusRecorder exports metrics through a Prometheus registry.
type PrometheusRecorder struct {
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	rateLimited       *prometheus.CounterVec
	registrations     prometheus.Counter
	logins            *prometheus.CounterVec
	tokenRefreshes    *prometheus.CounterVec
	entityOps         *prometheus.CounterVec
	dashboardDuration prometheus.Histogram
}

// NewPrometheus creates a recorder and registers its collectors, plus the Go
// runtime and process collectors, on reg.
func NewPrometheus(reg prometheus.Registerer) *PrometheusRecorder {
	p := &PrometheusRecorder{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),

		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~2.5s
		}, []string{"method", "route"}),

		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}, []string{"scope"}),

		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "registrations_total",
			Help:      "Accounts registered.",
		}),

		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),

		tokenRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "token_refreshes_total",
			Help:      "Refresh-token rotations by result.",
		}, []string{"result"}),

		entityOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entity_operations_total",
			Help:      "Entity writes by entity and operation.",
		}, []string{"entity", "op"}),

		dashboardDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "aggregation_duration_seconds",
			Help:      "Time spent computing dashboard metrics.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.httpRequests,
		p.httpDuration,
		p.rateLimited,
		p.registrations,
		p.logins,
		p.tokenRefreshes,
		p.entityOps,
		p.dashboardDuration,
	)

	return p
}

func (p *PrometheusRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (p *PrometheusRecorder) IncRateLimited(scope string) {
	p.rateLimited.WithLabelValues(scope).Inc()
}

func (p *PrometheusRecorder) IncRegistration() {
	p.registrations.Inc()
}

func (p *PrometheusRecorder) IncLogin(result string) {
	p.logins.WithLabelValues(result).Inc()
}

func (p *PrometheusRecorder) IncTokenRefresh(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	p.tokenRefreshes.WithLabelValues(result).Inc()
}

func (p *PrometheusRecorder) IncEntityCreated(entity string) {
	p.entityOps.WithLabelValues(entity, "create").Inc()
}

func (p *PrometheusRecorder) IncEntityUpdated(entity string) {
	p.entityOps.WithLabelValues(entity, "update").Inc()
}

func (p *PrometheusRecorder) IncEntityDeleted(entity string) {
	p.entityOps.WithLabelValues(entity, "delete").Inc()
}

func (p *PrometheusRecorder) ObserveDashboardDuration(duration time.Duration) {
	p.dashboardDuration.Observe(duration.Seconds())
}
