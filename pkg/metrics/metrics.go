package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Poll cycle duration (seconds)
	PollCycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poll_cycle_duration_seconds",
			Help:    "Poll cycle duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"status"},
	)

	// Graph API call latency (milliseconds)
	GraphCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graph_call_latency_ms",
			Help:    "Microsoft Graph call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"endpoint", "status"},
	)

	// Messages observed per fetch
	MessagesFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messages_fetched_total",
			Help: "Total number of messages returned by mailbox fetches",
		},
	)

	// Delivery outcomes
	DeliveryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_count",
			Help: "Total number of message deliveries by outcome",
		},
		[]string{"outcome"}, // outcome: delivered, unauthorized, failed, dropped
	)

	// Attachment uploads to the task service
	AttachmentUploadCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attachment_upload_count",
			Help: "Total number of task attachment uploads",
		},
		[]string{"status"}, // status: success, failed
	)

	// Pending-delivery retry queue depth
	RetryQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "retry_queue_depth",
			Help: "Number of deliveries waiting in the retry queue",
		},
	)
)

// RecordPollCycle records one completed poll cycle.
func RecordPollCycle(status string, duration time.Duration) {
	PollCycleDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordGraphCall records the latency of one Graph API call.
func RecordGraphCall(endpoint, status string, duration time.Duration) {
	GraphCallLatency.WithLabelValues(endpoint, status).Observe(float64(duration.Milliseconds()))
}

// IncrementDelivery increments the delivery outcome counter.
func IncrementDelivery(outcome string) {
	DeliveryCount.WithLabelValues(outcome).Inc()
}

// AddDeliveries adds count to the delivery outcome counter.
func AddDeliveries(outcome string, count int) {
	DeliveryCount.WithLabelValues(outcome).Add(float64(count))
}

// IncrementAttachmentUpload increments the attachment upload counter.
func IncrementAttachmentUpload(status string) {
	AttachmentUploadCount.WithLabelValues(status).Inc()
}

// SetRetryQueueDepth updates the retry queue depth gauge.
func SetRetryQueueDepth(n int) {
	RetryQueueDepth.Set(float64(n))
}
