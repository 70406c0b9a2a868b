package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GateDecisions counts access-gate outcomes by decision kind.
	GateDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riddlery_gate_decisions_total",
		Help: "Total number of access gate decisions by kind",
	}, []string{"decision"})

	// BotHits counts requests whose user agent matched the crawler vocabulary.
	BotHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riddlery_gate_bot_hits_total",
		Help: "Total number of requests classified as automated crawlers",
	})

	// ModerationTransitions counts moderation state-machine transitions by
	// operation and outcome (success, already_decided, forbidden, invalid).
	ModerationTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riddlery_moderation_transitions_total",
		Help: "Total number of moderation transitions by operation and outcome",
	}, []string{"operation", "outcome"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riddlery_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// WebSocketBackpressureDrops counts messages dropped because a client's
	// send buffer was full or closed.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riddlery_websocket_backpressure_drops_total",
		Help: "Total number of websocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "riddlery_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// RecordGateDecision increments the gate decision counter for the kind.
func RecordGateDecision(decision string) {
	GateDecisions.WithLabelValues(decision).Inc()
}

// RecordModerationTransition increments the moderation transition counter.
func RecordModerationTransition(operation, outcome string) {
	ModerationTransitions.WithLabelValues(operation, outcome).Inc()
}

// DatabaseMetrics wraps DB access for recording query latency.
type DatabaseMetrics struct{}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics() *DatabaseMetrics {
	return &DatabaseMetrics{}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation, table string, start time.Time) {
	latency := time.Since(start).Seconds()
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(latency)
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, table, start)
	}
}
