package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	FeedLinesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aprs_feed_lines_total",
			Help: "Total lines received from the APRS-IS feed by classification (count)",
		},
		[]string{"kind"},
	)

	AcksSentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aprs_acks_sent_total",
			Help: "Total acknowledgments written back to the feed (count)",
		},
	)

	DedupCheckTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aprs_dedup_checks_total",
			Help: "Total dedup store lookups by outcome (count)",
		},
		[]string{"status"},
	)

	PublishTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aprs_publish_total",
			Help: "Total publish attempts against the Mastodon instance by outcome (count)",
		},
		[]string{"status"},
	)

	PublishDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aprs_publish_duration_ms",
			Help:    "Publish call duration in milliseconds",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"status"},
	)

	ReconnectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aprs_feed_reconnects_total",
			Help: "Total reconnect attempts against the APRS-IS server (count)",
		},
	)

	ConnectionState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "aprs_feed_connection_state",
			Help: "Feed connection state (0=disconnected, 1=resolving, 2=connected, 3=authenticating, 4=streaming)",
		},
	)

	StoredMessages = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "aprs_stored_messages",
			Help: "Number of processed message records in the dedup store (count)",
		},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

func RegisterBridgeMetrics() {
	prometheus.MustRegister(
		FeedLinesTotal,
		AcksSentTotal,
		DedupCheckTotal,
		PublishTotal,
		PublishDuration,
		ReconnectsTotal,
		ConnectionState,
		StoredMessages,
	)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(CircuitBreakerState)
}

func ObservePublishDuration(d time.Duration, status string) {
	PublishDuration.WithLabelValues(status).Observe(float64(d.Milliseconds()))
}
