// Package metrics exposes Prometheus instrumentation for playground runs,
// HTTP traffic and live-update connections.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tsxrunner"

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// Run metrics
	RunsTotal     *prometheus.CounterVec
	RunDuration   *prometheus.HistogramVec
	SourceBytes   prometheus.Histogram
	ConsoleOutput prometheus.Counter

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current run totals for the JSON API.
type Snapshot struct {
	Runs          int64            `json:"runs"`
	ByOutcome     map[string]int64 `json:"by_outcome"`
	TotalDuration time.Duration    `json:"total_duration"`
}

// New creates a metrics collector backed by its own registry, so several
// instances can coexist in one process.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of playground runs by outcome",
			},
			[]string{"outcome"},
		),
		RunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of playground run stages in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"stage"},
		),
		SourceBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "source_bytes",
				Help:      "Size of submitted component source in bytes",
				Buckets:   prometheus.ExponentialBuckets(128, 4, 8),
			},
		),
		ConsoleOutput: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "console_entries_total",
				Help:      "Total number of console entries captured from user code",
			},
		),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ws_connections",
				Help:      "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ws_messages_total",
				Help:      "Total number of WebSocket messages",
			},
			[]string{"direction"},
		),

		snapshot: Snapshot{ByOutcome: make(map[string]int64)},
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordRun records a finished run. outcome is "rendered" or an error kind.
func (m *Metrics) RecordRun(outcome string, duration time.Duration, sourceBytes, consoleEntries int) {
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.RunDuration.WithLabelValues("total").Observe(duration.Seconds())
	m.SourceBytes.Observe(float64(sourceBytes))
	m.ConsoleOutput.Add(float64(consoleEntries))

	m.mu.Lock()
	m.snapshot.Runs++
	m.snapshot.ByOutcome[outcome]++
	m.snapshot.TotalDuration += duration
	m.mu.Unlock()
}

// ObserveStage records the duration of one pipeline stage.
func (m *Metrics) ObserveStage(stage string, duration time.Duration) {
	m.RunDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, status).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Snapshot returns a copy of the current run totals.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := Snapshot{
		Runs:          m.snapshot.Runs,
		ByOutcome:     make(map[string]int64, len(m.snapshot.ByOutcome)),
		TotalDuration: m.snapshot.TotalDuration,
	}
	for k, v := range m.snapshot.ByOutcome {
		out.ByOutcome[k] = v
	}
	return out
}
