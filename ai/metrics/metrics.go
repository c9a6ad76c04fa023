// Package metrics provides Prometheus metrics export for the assistant.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter exports assistant metrics in Prometheus format.
type Exporter struct {
	registry *prometheus.Registry

	functionCalls   *prometheus.CounterVec
	functionLatency *prometheus.HistogramVec

	chatRequests *prometheus.CounterVec
	chatLatency  *prometheus.HistogramVec

	retrievalResults prometheus.Histogram
}

// Config configures the exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default exporter configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}
}

// NewExporter creates a Prometheus metrics exporter.
func NewExporter(cfg Config) *Exporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &Exporter{registry: registry}

	e.functionCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coachdesk",
			Subsystem: "assistant",
			Name:      "function_calls_total",
			Help:      "Total number of dispatched function calls",
		},
		[]string{"function", "outcome"},
	)

	e.functionLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "coachdesk",
			Subsystem: "assistant",
			Name:      "function_latency_seconds",
			Help:      "Function call latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"function"},
	)

	e.chatRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coachdesk",
			Subsystem: "assistant",
			Name:      "chat_requests_total",
			Help:      "Total number of chat requests",
		},
		[]string{"status"},
	)

	e.chatLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "coachdesk",
			Subsystem: "assistant",
			Name:      "chat_latency_seconds",
			Help:      "Chat request latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"status"},
	)

	e.retrievalResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "coachdesk",
			Subsystem: "assistant",
			Name:      "retrieval_results",
			Help:      "Number of results returned per message search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	registry.MustRegister(
		e.functionCalls,
		e.functionLatency,
		e.chatRequests,
		e.chatLatency,
		e.retrievalResults,
	)
	return e
}

// RecordFunctionCall records one function dispatch.
func (e *Exporter) RecordFunctionCall(function, outcome string, latency time.Duration) {
	e.functionCalls.WithLabelValues(function, outcome).Inc()
	e.functionLatency.WithLabelValues(function).Observe(latency.Seconds())
}

// RecordChatRequest records one chat round trip.
func (e *Exporter) RecordChatRequest(latency time.Duration, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	e.chatRequests.WithLabelValues(status).Inc()
	e.chatLatency.WithLabelValues(status).Observe(latency.Seconds())
}

// RecordRetrievalResults records the result count of a message search.
func (e *Exporter) RecordRetrievalResults(count int) {
	e.retrievalResults.Observe(float64(count))
}

// Handler returns the scrape handler for the exporter's registry.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}
