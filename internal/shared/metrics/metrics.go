package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Scheduling metrics
	SchedulingRunsTotal     *prometheus.CounterVec
	InstancesCreatedTotal   prometheus.Counter
	SchedulingSkipsTotal    *prometheus.CounterVec
	TeamErrorsTotal         prometheus.Counter
	RecoveredInstancesTotal prometheus.Counter

	// Lifecycle metrics
	TransitionsTotal    *prometheus.CounterVec
	StaleCallbacksTotal prometheus.Counter

	// Job queue metrics
	JobsScheduledTotal *prometheus.CounterVec
	JobsFiredTotal     *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "standsync"
	}

	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Number of HTTP requests currently being served",
			},
		),
		SchedulingRunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scheduler",
				Name:      "runs_total",
				Help:      "Total number of scheduling runs by status",
			},
			[]string{"status"},
		),
		InstancesCreatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scheduler",
				Name:      "instances_created_total",
				Help:      "Total number of standup instances created",
			},
		),
		SchedulingSkipsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scheduler",
				Name:      "skips_total",
				Help:      "Total number of per-team skips by reason",
			},
			[]string{"reason"},
		),
		TeamErrorsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scheduler",
				Name:      "team_errors_total",
				Help:      "Total number of per-team processing errors",
			},
		),
		RecoveredInstancesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scheduler",
				Name:      "recovered_instances_total",
				Help:      "Total number of instances created by the recovery sweep",
			},
		),
		TransitionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "lifecycle",
				Name:      "transitions_total",
				Help:      "Total number of instance state transitions",
			},
			[]string{"to_state"},
		),
		StaleCallbacksTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "lifecycle",
				Name:      "stale_callbacks_total",
				Help:      "Total number of callbacks ignored by the state guard",
			},
		),
		JobsScheduledTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "jobs",
				Name:      "scheduled_total",
				Help:      "Total number of one-shot callbacks scheduled",
			},
			[]string{"kind"},
		),
		JobsFiredTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "jobs",
				Name:      "fired_total",
				Help:      "Total number of one-shot callbacks fired",
			},
			[]string{"kind"},
		),
	}
}

// RecordHTTPRequest records a completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusLabel(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func statusLabel(status int) string {
	switch {
	case status < 200:
		return "1xx"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
