package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Collector holds all Prometheus metrics for dbconsole.
type Collector struct {
	Registry *prometheus.Registry

	backendDuration   *prometheus.HistogramVec
	backendRequests   *prometheus.CounterVec
	coalescedRequests *prometheus.CounterVec
	pageActions       *prometheus.CounterVec
	backendHealth     prometheus.Gauge
	healthCheckTime   prometheus.Histogram
	healthCheckErrors *prometheus.CounterVec
}

// New creates all metrics and registers them, together with the Go runtime
// collectors, on a dedicated registry.
func New() *Collector {
	c := &Collector{
		Registry: prometheus.NewRegistry(),
		backendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dbconsole_backend_request_duration_seconds",
				Help:    "Duration of calls to the administration backend",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
			},
			[]string{"op", "method"},
		),
		backendRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbconsole_backend_requests_total",
				Help: "Calls to the administration backend by outcome class",
			},
			[]string{"op", "code"},
		),
		coalescedRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbconsole_backend_requests_coalesced_total",
				Help: "Reads that shared the result of an identical in-flight call",
			},
			[]string{"op"},
		),
		pageActions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbconsole_page_actions_total",
				Help: "Dashboard form actions by page, action and result",
			},
			[]string{"page", "action", "result"},
		),
		backendHealth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dbconsole_backend_health",
				Help: "Health of the administration backend (1=healthy, 0=unhealthy)",
			},
		),
		healthCheckTime: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dbconsole_health_check_duration_seconds",
				Help:    "Duration of backend health probes",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
			},
		),
		healthCheckErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbconsole_health_check_errors_total",
				Help: "Failed backend health probes by reason",
			},
			[]string{"reason"},
		),
	}

	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.backendDuration,
		c.backendRequests,
		c.coalescedRequests,
		c.pageActions,
		c.backendHealth,
		c.healthCheckTime,
		c.healthCheckErrors,
	)

	return c
}

// CodeClass buckets an HTTP status into 2xx/4xx/5xx. Status 0 means the
// request never got a response.
func CodeClass(status int) string {
	if status == 0 {
		return "transport"
	}
	return strconv.Itoa(status/100) + "xx"
}

// BackendRequest records one completed backend call.
func (c *Collector) BackendRequest(op, method string, status int, d time.Duration) {
	c.backendDuration.WithLabelValues(op, method).Observe(d.Seconds())
	c.backendRequests.WithLabelValues(op, CodeClass(status)).Inc()
}

// RequestCoalesced counts a read served from another caller's in-flight call.
// The caller that issued the request is not counted.
func (c *Collector) RequestCoalesced(op string) {
	c.coalescedRequests.WithLabelValues(op).Inc()
}

// PageAction counts a dashboard form submission.
func (c *Collector) PageAction(page, action string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.pageActions.WithLabelValues(page, action, result).Inc()
}

// SetBackendHealth sets the backend health gauge.
func (c *Collector) SetBackendHealth(healthy bool) {
	val := 0.0
	if healthy {
		val = 1.0
	}
	c.backendHealth.Set(val)
}

// HealthCheckCompleted observes a probe duration and updates the health gauge.
func (c *Collector) HealthCheckCompleted(d time.Duration, healthy bool) {
	c.healthCheckTime.Observe(d.Seconds())
	c.SetBackendHealth(healthy)
}

// HealthCheckError counts a failed probe.
func (c *Collector) HealthCheckError(reason string) {
	c.healthCheckErrors.WithLabelValues(reason).Inc()
}
