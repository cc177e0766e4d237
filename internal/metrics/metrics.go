package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Event dispatch metrics
var (
	// EventsEmitted tracks entry-point invocations that passed the gate
	EventsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_emitted_total",
			Help: "Total number of domain events emitted by event type",
		},
		[]string{"event_type"},
	)

	// DeliveryJobsEnqueued tracks fan-out jobs submitted to the task substrate
	DeliveryJobsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_jobs_enqueued_total",
			Help: "Total number of delivery jobs enqueued by event type",
		},
		[]string{"event_type"},
	)

	// DeliveryJobsDropped tracks submission failures
	DeliveryJobsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_jobs_dropped_total",
			Help: "Total number of delivery jobs that failed to enqueue",
		},
		[]string{"event_type"},
	)
)

// Webhook delivery metrics
var (
	// WebhookDeliveries tracks delivery attempts by outcome
	WebhookDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_deliveries_total",
			Help: "Total number of webhook delivery attempts by event type and status",
		},
		[]string{"event_type", "status"},
	)

	// WebhookDeliveryDuration tracks delivery round-trip time
	WebhookDeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webhook_delivery_duration_seconds",
			Help:    "Webhook delivery duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"event_type"},
	)

	// WebhookPayloadBytes tracks payload sizes
	WebhookPayloadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "webhook_payload_bytes",
			Help:    "Size of dispatched webhook payloads in bytes",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		},
	)
)

// Payment webhook metrics
var (
	// PaymentWebhookRequests tracks synchronous payment webhook calls by result
	PaymentWebhookRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhook_requests_total",
			Help: "Total number of synchronous payment webhook calls by result",
		},
		[]string{"result"},
	)

	// PaymentWebhookDuration tracks the blocking payment call duration
	PaymentWebhookDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "payment_webhook_duration_seconds",
			Help:    "Payment webhook call duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
	)
)

// Retention metrics
var (
	// DeliveriesCleaned tracks delivery log rows removed by retention cleanup
	DeliveriesCleaned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_deliveries_cleaned_total",
			Help: "Total number of delivery log rows removed by retention cleanup",
		},
	)
)
