package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forwarder_events_received_total",
		Help: "The total number of inbound Telegram events by kind",
	}, []string{"kind"})

	EventsForwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forwarder_events_forwarded_total",
		Help: "The total number of payloads handed to the webhook by event tag",
	}, []string{"event"})

	EventsIgnored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forwarder_events_ignored_total",
		Help: "The total number of inbound events not forwarded by reason",
	}, []string{"reason"})

	WebhookAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forwarder_webhook_attempts_total",
		Help: "The total number of webhook POST attempts by outcome",
	}, []string{"outcome"})

	WebhookDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forwarder_webhook_deliveries_total",
		Help: "The total number of webhook deliveries by final status (delivered, dropped)",
	}, []string{"status"})

	WebhookDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "forwarder_webhook_duration_seconds",
		Help:    "Duration of a full webhook delivery including retries",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
	})

	MediaResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forwarder_media_resolved_total",
		Help: "The total number of resolved media items by kind and status",
	}, []string{"kind", "status"})

	MediaBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "forwarder_media_bytes",
		Help:    "Size of downloaded media items",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
	})

	HeartbeatsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forwarder_heartbeats_total",
		Help: "The total number of heartbeat payloads by status",
	}, []string{"status"})

	TelegramAuthorized = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "forwarder_telegram_authorized",
		Help: "1 when the Telegram session is authorized and receiving updates",
	})
)
