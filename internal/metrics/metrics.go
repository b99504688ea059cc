// Package metrics provides Prometheus instrumentation for the Rejection Hero backend.
package metrics

import (
	"context"
	"database/sql"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rejectionhero",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rejectionhero",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// QuestsCreatedTotal counts quests created.
	QuestsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rejectionhero",
		Name:      "quests_created_total",
		Help:      "Total quests created.",
	})

	// QuestsCompletedTotal counts quests that reached their goal.
	QuestsCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rejectionhero",
		Name:      "quests_completed_total",
		Help:      "Total quests completed.",
	})

	// QuestsFlaggedTotal counts quests flagged by the integrity scorer.
	QuestsFlaggedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rejectionhero",
		Name:      "quests_flagged_total",
		Help:      "Total quests flagged as suspicious.",
	})

	// ActionsRecordedTotal counts logged actions by kind.
	ActionsRecordedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rejectionhero",
			Name:      "actions_recorded_total",
			Help:      "Total quest actions recorded by kind.",
		},
		[]string{"kind"},
	)

	// IntegrityVerdictsTotal counts integrity verdicts by outcome.
	IntegrityVerdictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rejectionhero",
			Name:      "integrity_verdicts_total",
			Help:      "Total integrity verdicts by outcome (clean, suspicious, flagged).",
		},
		[]string{"outcome"},
	)

	// NotificationsTotal counts push notification deliveries by result.
	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rejectionhero",
			Name:      "notifications_total",
			Help:      "Total push notification deliveries by result.",
		},
		[]string{"result"},
	)

	// ConfidenceDecayRunsTotal counts confidence decay sweeps.
	ConfidenceDecayRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rejectionhero",
		Name:      "confidence_decay_runs_total",
		Help:      "Total confidence meter decay sweeps.",
	})

	// LeaderboardSweepsTotal counts fall-behind notification sweeps.
	LeaderboardSweepsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rejectionhero",
		Name:      "leaderboard_sweeps_total",
		Help:      "Total leaderboard fall-behind sweeps.",
	})

	// ActiveWebSocketClients tracks connected WebSocket clients.
	ActiveWebSocketClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "rejectionhero",
			Name:      "active_websocket_clients",
			Help:      "Number of currently connected WebSocket clients.",
		},
	)

	// DBOpenConnections tracks open database connections.
	DBOpenConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "rejectionhero", Name: "db_open_connections",
		Help: "Number of open database connections.",
	})
	// DBIdleConnections tracks idle database connections.
	DBIdleConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "rejectionhero", Name: "db_idle_connections",
		Help: "Number of idle database connections.",
	})
	// DBInUseConnections tracks in-use database connections.
	DBInUseConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "rejectionhero", Name: "db_in_use_connections",
		Help: "Number of in-use database connections.",
	})
	// GoroutineCount tracks the current number of goroutines.
	GoroutineCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "rejectionhero", Name: "goroutines",
		Help: "Current number of goroutines.",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		QuestsCreatedTotal,
		QuestsCompletedTotal,
		QuestsFlaggedTotal,
		ActionsRecordedTotal,
		IntegrityVerdictsTotal,
		NotificationsTotal,
		ConfidenceDecayRunsTotal,
		LeaderboardSweepsTotal,
		ActiveWebSocketClients,
		DBOpenConnections,
		DBIdleConnections,
		DBInUseConnections,
		GoroutineCount,
	)
}

// StartDBStatsCollector periodically samples sql.DBStats and runtime goroutine
// count into Prometheus gauges. Call in a goroutine; exits when ctx is done.
func StartDBStatsCollector(ctx context.Context, db *sql.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := db.Stats()
			DBOpenConnections.Set(float64(stats.OpenConnections))
			DBIdleConnections.Set(float64(stats.Idle))
			DBInUseConnections.Set(float64(stats.InUse))
			GoroutineCount.Set(float64(runtime.NumGoroutine()))
		}
	}
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // Uses route pattern, not actual path (avoids cardinality explosion)
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler for /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
