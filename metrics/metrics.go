// Package metrics exposes Prometheus metrics for the gateway.
// All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brettbedarf/adaptergw"
)

const namespace = "adaptergw"

// Outcome labels for finished requests
const (
	OutcomeCompleted = "completed"
	OutcomeEmpty     = "empty"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

// Metrics contains the gateway's collectors registered on a private registry
type Metrics struct {
	Requests       *prometheus.CounterVec
	Responses      *prometheus.CounterVec
	HopDuration    *prometheus.HistogramVec
	HopFailures    *prometheus.CounterVec
	InFlight       prometheus.Gauge
	RequestLatency *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates a Metrics instance with all collectors registered
func New() *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "requests",
				Name:      "total",
				Help:      "Dispatched requests by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),

		Responses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "responses_total",
				Help:      "Inbound HTTP responses by route and status code",
			},
			[]string{"route", "code"},
		),

		HopDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "hop",
				Name:      "duration_seconds",
				Help:      "Outbound hop duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"hop", "operation"},
		),

		HopFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "hop",
				Name:      "failures_total",
				Help:      "Failed outbound hops",
			},
			[]string{"hop", "operation"},
		),

		InFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "inflight_requests",
				Help:      "Inbound requests currently being handled",
			},
		),

		RequestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Inbound request handling duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),

		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.Requests,
		m.Responses,
		m.HopDuration,
		m.HopFailures,
		m.InFlight,
		m.RequestLatency,
	)
	return m
}

// Registry returns the Prometheus registry holding the collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collected metrics in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// ObserveHop records the duration of one hop and whether it failed
func (m *Metrics) ObserveHop(hop adaptergw.Hop, op adaptergw.Operation, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.HopDuration.WithLabelValues(string(hop), op.String()).Observe(elapsed.Seconds())
	if err != nil {
		m.HopFailures.WithLabelValues(string(hop), op.String()).Inc()
	}
}

// ObserveResult records the terminal outcome of a dispatched request
func (m *Metrics) ObserveResult(op adaptergw.Operation, res adaptergw.Result) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(op.String(), ResultOutcome(res)).Inc()
}

// ObserveResponse records the status and latency of an inbound request
func (m *Metrics) ObserveResponse(route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Responses.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.RequestLatency.WithLabelValues(route).Observe(elapsed.Seconds())
}

// TrackInFlight increments the in-flight gauge and returns its decrement
func (m *Metrics) TrackInFlight() func() {
	if m == nil {
		return func() {}
	}
	m.InFlight.Inc()
	return m.InFlight.Dec
}

// ResultOutcome returns the outcome label for res
func ResultOutcome(res adaptergw.Result) string {
	switch {
	case res.State == adaptergw.Completed && res.Empty():
		return OutcomeEmpty
	case res.State == adaptergw.Completed:
		return OutcomeCompleted
	case errors.Is(res.Err, adaptergw.ErrInvalidRequest):
		return OutcomeRejected
	default:
		return OutcomeFailed
	}
}
