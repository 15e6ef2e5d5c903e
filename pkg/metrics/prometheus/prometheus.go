// Package prommetrics implements metrics.Metrics using Prometheus.
package prommetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sunknudsen/ghost-join/pkg/metrics"
)

// Metrics implements metrics.Metrics using Prometheus.
type Metrics struct {
	webhookEventsTotal *prometheus.CounterVec
	webhookDuration    *prometheus.HistogramVec
	webhookErrorsTotal *prometheus.CounterVec
	statsSyncTotal     *prometheus.CounterVec
	statsSyncDuration  prometheus.Histogram
	apiCallsTotal      *prometheus.CounterVec
	apiCallDuration    *prometheus.HistogramVec
}

// NewMetrics creates a Prometheus metrics implementation registered on reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		webhookEventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Total number of webhook events processed.",
		}, []string{"event_type", "status"}),

		webhookDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "webhook_duration_seconds",
			Help:      "Duration of webhook processing in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event_type"}),

		webhookErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_errors_total",
			Help:      "Total number of webhook rejections and failures.",
		}, []string{"error_type"}),

		statsSyncTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stats_sync_total",
			Help:      "Total number of stats aggregation cycles.",
		}, []string{"status"}),

		statsSyncDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stats_sync_duration_seconds",
			Help:      "Duration of stats aggregation cycles in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),

		apiCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_calls_total",
			Help:      "Total number of outbound remote API calls.",
		}, []string{"service", "endpoint", "status"}),

		apiCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_call_duration_seconds",
			Help:      "Duration of outbound remote API calls in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "endpoint"}),
	}
}

func (m *Metrics) RecordWebhookEvent(eventType, status string) {
	m.webhookEventsTotal.WithLabelValues(eventType, status).Inc()
}

func (m *Metrics) RecordWebhookDuration(eventType string, duration time.Duration) {
	m.webhookDuration.WithLabelValues(eventType).Observe(duration.Seconds())
}

func (m *Metrics) RecordWebhookError(errorType string) {
	m.webhookErrorsTotal.WithLabelValues(errorType).Inc()
}

func (m *Metrics) RecordStatsSync(status string) {
	m.statsSyncTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordStatsSyncDuration(duration time.Duration) {
	m.statsSyncDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordAPICall(service, endpoint, status string) {
	m.apiCallsTotal.WithLabelValues(service, endpoint, status).Inc()
}

func (m *Metrics) RecordAPICallDuration(service, endpoint string, duration time.Duration) {
	m.apiCallDuration.WithLabelValues(service, endpoint).Observe(duration.Seconds())
}

// DefaultMetrics returns a Metrics implementation using the default
// Prometheus registerer.
func DefaultMetrics(namespace string) metrics.Metrics {
	return NewMetrics(prometheus.DefaultRegisterer, namespace)
}
