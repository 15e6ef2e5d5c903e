// Package metrics defines the instrumentation interface for ghost-join.
package metrics

import "time"

// Metrics tracks webhook processing, remote API calls and stats sync cycles.
// Implementations must be safe for concurrent use.
type Metrics interface {
	// RecordWebhookEvent records a processed webhook event.
	// status: "success" or "error"
	RecordWebhookEvent(eventType, status string)

	// RecordWebhookDuration records how long a webhook took end to end.
	RecordWebhookDuration(eventType string, duration time.Duration)

	// RecordWebhookError records a webhook rejection or failure.
	// errorType: e.g. "auth_failed", "invalid_payload", "wrong_product"
	RecordWebhookError(errorType string)

	// RecordStatsSync records a stats aggregation cycle.
	// status: "success" or "error"
	RecordStatsSync(status string)

	// RecordStatsSyncDuration records how long a stats cycle took.
	RecordStatsSyncDuration(duration time.Duration)

	// RecordAPICall records an outbound call to a remote service.
	// service: "stripe" or "ghost"; status: HTTP status code as string
	RecordAPICall(service, endpoint, status string)

	// RecordAPICallDuration records how long an outbound call took.
	RecordAPICallDuration(service, endpoint string, duration time.Duration)
}

// Noop is a no-op implementation of the Metrics interface.
type Noop struct{}

func (n *Noop) RecordWebhookEvent(_, _ string)                     {}
func (n *Noop) RecordWebhookDuration(_ string, _ time.Duration)    {}
func (n *Noop) RecordWebhookError(_ string)                        {}
func (n *Noop) RecordStatsSync(_ string)                           {}
func (n *Noop) RecordStatsSyncDuration(_ time.Duration)            {}
func (n *Noop) RecordAPICall(_, _, _ string)                       {}
func (n *Noop) RecordAPICallDuration(_, _ string, _ time.Duration) {}
