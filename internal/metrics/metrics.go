// Package metrics holds the Prometheus collectors and the HTTP server that
// exposes them.
package metrics

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cinedeck"

// Metrics owns a private registry; nothing is added to the global one.
type Metrics struct {
	registry *prometheus.Registry

	requests    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	inFlight    prometheus.Gauge
	fetches     *prometheus.CounterVec
	fetchTime   prometheus.Histogram
	rotations   prometheus.Counter
	transitions *prometheus.CounterVec
	toolCalls   *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tmdb",
			Name:      "requests_total",
			Help:      "TMDB API requests by status code.",
		}, []string{"code", "method"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tmdb",
			Name:      "request_duration_seconds",
			Help:      "TMDB API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"code"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tmdb",
			Name:      "in_flight_requests",
			Help:      "TMDB API requests currently in flight.",
		}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "fetches_total",
			Help:      "Home feed fetches by outcome.",
		}, []string{"outcome"}),
		fetchTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "fetch_duration_seconds",
			Help:      "Wall time of a full feed fetch.",
			Buckets:   prometheus.DefBuckets,
		}),
		rotations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "home",
			Name:      "featured_rotations_total",
			Help:      "Timer-driven featured carousel advances.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "screen",
			Name:      "transitions_total",
			Help:      "Screen transitions.",
		}, []string{"from", "to"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mcp",
			Name:      "tool_calls_total",
			Help:      "MCP tool calls by tool and outcome.",
		}, []string{"tool", "outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.latency, m.inFlight,
		m.fetches, m.fetchTime,
		m.rotations, m.transitions, m.toolCalls,
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// InstrumentTransport wraps next (http.DefaultTransport when nil) with
// request counters, latency and in-flight tracking.
func (m *Metrics) InstrumentTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return promhttp.InstrumentRoundTripperInFlight(m.inFlight,
		promhttp.InstrumentRoundTripperCounter(m.requests,
			promhttp.InstrumentRoundTripperDuration(m.latency, next),
		),
	)
}

// ObserveFeed records one feed fetch. It matches feed.Observer.
func (m *Metrics) ObserveFeed(elapsed time.Duration, err error) {
	m.fetchTime.Observe(elapsed.Seconds())
	m.fetches.WithLabelValues(outcome(err)).Inc()
}

// Rotated counts one timer-driven carousel advance.
func (m *Metrics) Rotated() { m.rotations.Inc() }

// Transition counts one screen transition.
func (m *Metrics) Transition(from, to fmt.Stringer) {
	m.transitions.WithLabelValues(from.String(), to.String()).Inc()
}

// ToolCall counts one MCP tool invocation.
func (m *Metrics) ToolCall(tool string, err error) {
	m.toolCalls.WithLabelValues(tool, outcome(err)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler(logger *slog.Logger) http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      promLogger{logger},
		ErrorHandling: promhttp.ContinueOnError,
	})
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// promLogger adapts slog to promhttp.Logger.
type promLogger struct{ logger *slog.Logger }

func (l promLogger) Println(v ...any) {
	l.logger.Error("metrics handler error", slog.String("error", fmt.Sprint(v...)))
}
