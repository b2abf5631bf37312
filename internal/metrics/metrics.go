// Package metrics exposes Prometheus instrumentation for the webhook
// listener and the event dispatcher.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Webhook ingestion metrics
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xihi_webhook_requests_total",
			Help: "Total number of webhook requests by response status",
		},
		[]string{"status"},
	)

	BodyBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "xihi_webhook_body_bytes",
			Help:    "Size of accepted webhook bodies in bytes",
			Buckets: prometheus.ExponentialBuckets(256, 4, 10),
		},
	)

	// Dispatch metrics
	EventsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xihi_events_dispatched_total",
			Help: "Total number of verified events dispatched",
		},
		[]string{"event"},
	)

	SubscriberInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xihi_subscriber_invocations_total",
			Help: "Total number of subscriber invocations by result",
		},
		[]string{"event", "result"},
	)

	SubscriberDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "xihi_subscriber_duration_seconds",
			Help:    "Duration of subscriber invocations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"event"},
	)
)

// Subscriber invocation results.
const (
	ResultOK    = "ok"
	ResultError = "error"
	ResultPanic = "panic"
)
