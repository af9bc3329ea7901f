package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogpose_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blogpose_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ResetEmailsSent counts password reset emails handed to the mailer.
	ResetEmailsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blogpose_reset_emails_sent_total",
		Help: "Total number of password reset emails sent",
	})

	// ResetTokensSwept counts reset tokens cleared by the expiry sweeper.
	ResetTokensSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blogpose_reset_tokens_swept_total",
		Help: "Total number of expired password reset tokens cleared",
	})

	// SessionsRevoked counts logouts that blacklisted a session token.
	SessionsRevoked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blogpose_sessions_revoked_total",
		Help: "Total number of session tokens revoked via logout",
	})
)

// DatabaseMetrics wraps DB access for recording query latency.
type DatabaseMetrics struct {
	db *gorm.DB
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics(db *gorm.DB) *DatabaseMetrics {
	return &DatabaseMetrics{db: db}
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
