package provider

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/uxinsight/backend/internal/domain/integration"
)

// Call outcomes used as the "outcome" label.
const (
	outcomeSuccess        = "success"
	outcomeHTTPError      = "http_error"
	outcomeTransportError = "transport_error"
	outcomeAuthError      = "auth_error"
)

// CallMetrics records every outbound provider call in a dedicated Prometheus registry.
// A nil *CallMetrics records nothing.
//
// Thread Safety: Safe for concurrent use.
type CallMetrics struct {
	registry *prometheus.Registry

	callsTotal      *prometheus.CounterVec
	callDurationSec *prometheus.HistogramVec
}

// NewCallMetrics creates provider call metrics under the given namespace
func NewCallMetrics(namespace string) *CallMetrics {
	registry := prometheus.NewRegistry()

	m := &CallMetrics{
		registry: registry,
		callsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "calls_total",
				Help:      "Total number of outbound provider API calls.",
			},
			[]string{"provider", "operation", "outcome"},
		),
		callDurationSec: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "provider",
				Name:      "call_duration_seconds",
				Help:      "Duration of outbound provider API calls in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"provider", "operation"},
		),
	}

	registry.MustRegister(m.callsTotal, m.callDurationSec)
	return m
}

// Observe records one call
func (m *CallMetrics) Observe(p integration.ProviderType, operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	if operation == "" {
		operation = "request"
	}
	m.callsTotal.WithLabelValues(string(p), operation, outcome).Inc()
	if d > 0 {
		m.callDurationSec.WithLabelValues(string(p), operation).Observe(d.Seconds())
	}
}

// Registry exposes the underlying registry
func (m *CallMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the scrape endpoint for these metrics
func (m *CallMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
