// Package metrics exposes Prometheus metrics for tool calls.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "review_mcp"

	// UnknownToolLabel is the tool_name recorded for names outside the catalog.
	UnknownToolLabel = "unknown"
)

// Metrics holds all Prometheus metrics for a review-mcp backend
type Metrics struct {
	// Tool execution metrics
	ToolExecutionDuration *prometheus.HistogramVec
	ToolExecutionTotal    *prometheus.CounterVec
	ToolExecutionErrors   *prometheus.CounterVec

	// Script output size
	ScriptOutputBytes *prometheus.HistogramVec

	// Request metrics
	RequestsInFlight prometheus.Gauge
}

// New registers the collectors with the default Prometheus registry.
func New(backend string) *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer, backend)
}

// NewWithRegistry registers the collectors with reg. Every series carries a
// constant backend label.
func NewWithRegistry(reg prometheus.Registerer, backend string) *Metrics {
	factory := promauto.With(reg)
	labels := prometheus.Labels{"backend": backend}

	return &Metrics{
		// Buckets: 10ms, 50ms, 100ms, 250ms, 500ms, 1s, 2.5s, 5s, 10s, 30s, 2m, 15m
		ToolExecutionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   namespace,
				Name:        "tool_execution_duration_seconds",
				Help:        "Duration of tool execution in seconds",
				ConstLabels: labels,
				Buckets:     []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 120, 900},
			},
			[]string{"tool_name", "status"},
		),

		ToolExecutionTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "tool_execution_total",
				Help:        "Total number of tool executions",
				ConstLabels: labels,
			},
			[]string{"tool_name", "status"},
		),

		ToolExecutionErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Name:        "tool_execution_errors_total",
				Help:        "Total number of tool execution errors",
				ConstLabels: labels,
			},
			[]string{"tool_name", "error_type"},
		),

		ScriptOutputBytes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   namespace,
				Name:        "script_output_bytes",
				Help:        "Size of script stdout in bytes",
				ConstLabels: labels,
				Buckets:     prometheus.ExponentialBuckets(256, 4, 10),
			},
			[]string{"tool_name"},
		),

		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Name:        "requests_in_flight",
				Help:        "Number of tool calls currently running",
				ConstLabels: labels,
			},
		),
	}
}

// RecordToolExecution records a tool execution with its duration and status
func (m *Metrics) RecordToolExecution(toolName string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	m.ToolExecutionDuration.WithLabelValues(toolName, status).Observe(duration.Seconds())
	m.ToolExecutionTotal.WithLabelValues(toolName, status).Inc()
}

// RecordToolExecutionError records a tool execution error with error type
func (m *Metrics) RecordToolExecutionError(toolName, errorType string) {
	m.ToolExecutionErrors.WithLabelValues(toolName, errorType).Inc()
}

// RecordScriptOutput records how much a script wrote to stdout.
func (m *Metrics) RecordScriptOutput(toolName string, n int) {
	m.ScriptOutputBytes.WithLabelValues(toolName).Observe(float64(n))
}

// RecordRequestStart increments in-flight requests
func (m *Metrics) RecordRequestStart() {
	m.RequestsInFlight.Inc()
}

// RecordRequestEnd decrements in-flight requests
func (m *Metrics) RecordRequestEnd() {
	m.RequestsInFlight.Dec()
}
