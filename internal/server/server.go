// Package server sets up the HTTP server with all routes
package server

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rejectionhero/backend/internal/confidence"
	"github.com/rejectionhero/backend/internal/config"
	"github.com/rejectionhero/backend/internal/health"
	"github.com/rejectionhero/backend/internal/integrity"
	"github.com/rejectionhero/backend/internal/leaderboard"
	"github.com/rejectionhero/backend/internal/logging"
	"github.com/rejectionhero/backend/internal/metrics"
	"github.com/rejectionhero/backend/internal/notify"
	"github.com/rejectionhero/backend/internal/quests"
	"github.com/rejectionhero/backend/internal/ratelimit"
	"github.com/rejectionhero/backend/internal/realtime"
	"github.com/rejectionhero/backend/internal/security"
	"github.com/rejectionhero/backend/internal/traces"
	"github.com/rejectionhero/backend/internal/validation"
)

// -----------------------------------------------------------------------------
// Server
// -----------------------------------------------------------------------------

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg               *config.Config
	questStore        quests.Store
	questService      *quests.Service
	confidenceService *confidence.Service
	leaderService     *leaderboard.Service
	pushSender        notify.Sender
	notifier          *notify.Emitter
	realtimeHub       *realtime.Hub
	decayWorker       *confidence.Worker
	leaderWorker      *leaderboard.Worker
	rateLimiter       *ratelimit.Limiter
	healthReg         *health.Registry
	db                *sql.DB // nil if using in-memory
	router            *gin.Engine
	httpSrv           *http.Server
	logger            *slog.Logger
	shutdownTraces    func(context.Context) error
	cancelRunCtx      context.CancelFunc // cancels background goroutines started in Run

	// Health state
	ready   atomic.Bool
	healthy atomic.Bool
}

// Option configures the server
type Option func(*Server)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithSender overrides the push sender (for testing)
func WithSender(sender notify.Sender) Option {
	return func(s *Server) {
		s.pushSender = sender
	}
}

// New creates a new server instance
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:       cfg,
		logger:    logging.New(cfg.LogLevel, "json"),
		healthReg: health.NewRegistry(),
	}

	// Apply options first (may set logger/sender)
	for _, opt := range opts {
		opt(s)
	}

	// Initialize storage (Postgres if DATABASE_URL set, otherwise in-memory)
	var (
		questStore     quests.Store
		verdictStore   integrity.Store
		meterStore     confidence.Store
		standingsStore leaderboard.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}

		// Configure connection pool
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		// Test connection
		if err := db.Ping(); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		s.db = db
		questStore = quests.NewPostgresStore(db)
		verdictStore = integrity.NewPostgresStore(db)
		meterStore = confidence.NewPostgresStore(db)
		standingsStore = leaderboard.NewPostgresStore(db)
		s.logger.Info("using PostgreSQL storage", "url", maskDSN(cfg.DatabaseURL))
	} else {
		questStore = quests.NewMemoryStore()
		verdictStore = integrity.NewMemoryStore()
		meterStore = confidence.NewMemoryStore()
		standingsStore = leaderboard.NewMemoryStore()
		s.logger.Info("using in-memory storage (data will not persist)")
	}
	s.questStore = questStore

	// Push notifications
	if s.pushSender == nil {
		if cfg.PushGatewayURL != "" {
			sender, err := notify.NewPushSender(cfg.PushGatewayURL, cfg.PushSecret)
			if err != nil {
				return nil, fmt.Errorf("push sender: %w", err)
			}
			s.pushSender = sender
			s.logger.Info("push notifications enabled", "gateway", cfg.PushGatewayURL)
		} else {
			s.pushSender = notify.NewMemorySender()
			s.logger.Info("push notifications in memory-only mode")
		}
	}
	s.notifier = notify.NewEmitter(s.pushSender, s.logger)

	// Realtime hub for WebSocket streaming
	s.realtimeHub = realtime.NewHub(s.logger)

	// Confidence meter + decay worker
	s.confidenceService = confidence.NewService(meterStore, s.logger)
	s.decayWorker = confidence.NewWorker(meterStore, s.notifier, cfg.DecayInterval, cfg.DecayPerDay, s.logger)

	// Weekly standings + fall-behind worker
	s.leaderService = leaderboard.NewService(standingsStore, s.logger)
	s.leaderWorker = leaderboard.NewWorker(standingsStore, s.notifier, cfg.LeaderboardSweep, cfg.LeaderboardMaxGap, cfg.LeaderboardTopSize, s.logger)

	// Quest service with the integrity checker on the record-action path
	checker := integrity.NewChecker(questStore, questStore, questStore, s.logger)
	s.questService = quests.NewService(questStore, checker, verdictStore, s.logger).
		WithNotifier(s.notifier).
		WithEvents(&questEventFanout{hub: s.realtimeHub, standings: s.leaderService}).
		WithActivitySink(s.confidenceService)

	// Health checks
	s.healthReg.Register("database", func(ctx context.Context) health.Status {
		if s.db == nil {
			return health.Status{Name: "database", Healthy: true, Detail: "in-memory"}
		}
		if err := s.db.PingContext(ctx); err != nil {
			return health.Status{Name: "database", Healthy: false, Detail: err.Error()}
		}
		return health.Status{Name: "database", Healthy: true}
	})
	s.healthReg.Register("push_gateway", func(ctx context.Context) health.Status {
		if cfg.PushGatewayURL == "" {
			return health.Status{Name: "push_gateway", Healthy: true, Detail: "not configured"}
		}
		return health.Status{Name: "push_gateway", Healthy: true}
	})

	// Configure gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()

	s.healthy.Store(true)

	return s, nil
}

// maskDSN hides password in connection string for logging
func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}

// questEventFanout forwards quest events to the realtime hub and credits
// the weekly standings.
type questEventFanout struct {
	hub       *realtime.Hub
	standings *leaderboard.Service
}

func (f *questEventFanout) ActionLogged(questID, userID string, actionCount, goalCount int) {
	f.hub.ActionLogged(questID, userID, actionCount, goalCount)
	f.standings.RecordAction(context.Background(), userID)
}

func (f *questEventFanout) QuestCompleted(questID, userID string) {
	f.hub.QuestCompleted(questID, userID)
	f.standings.RecordCompletion(context.Background(), userID)
}

func (f *questEventFanout) QuestFlagged(questID, userID string, score float64) {
	f.hub.QuestFlagged(questID, userID, score)
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

func (s *Server) setupMiddleware() {
	// Recovery with logging
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logging.L(c.Request.Context()).Error("panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}))

	// Security headers
	s.router.Use(security.HeadersMiddleware())

	// CORS (allow all origins in development - restrict in production)
	s.router.Use(security.CORSMiddleware([]string{"*"}))

	// Request size limit (1MB)
	s.router.Use(validation.RequestSizeMiddleware(validation.MaxRequestSize))

	// Rate limiting
	limitCfg := ratelimit.DefaultConfig()
	limitCfg.RequestsPerMinute = s.cfg.RateLimitRPM
	s.rateLimiter = ratelimit.New(limitCfg)
	s.router.Use(s.rateLimiter.Middleware())

	// Prometheus metrics
	s.router.Use(metrics.Middleware())

	// Request ID
	s.router.Use(s.requestIDMiddleware())

	// Logging
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check for existing request ID (from load balancer, etc.)
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}

		// Add to context
		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		ctx = logging.WithLogger(ctx, s.logger)
		c.Request = c.Request.WithContext(ctx)

		// Set response header
		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		logger := logging.L(c.Request.Context())

		// Log level based on status code
		switch {
		case status >= 500:
			logger.Error("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
				"client_ip", c.ClientIP(),
			)
		case status >= 400:
			logger.Warn("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		default:
			logger.Info("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}
	}
}

// -----------------------------------------------------------------------------
// Routes
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	// Health & metrics endpoints
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/health/live", s.livenessHandler)
	s.router.GET("/health/ready", s.readinessHandler)
	s.router.GET("/metrics", metrics.Handler())

	// WebSocket for real-time streaming
	s.router.GET("/ws", func(c *gin.Context) {
		s.realtimeHub.HandleWebSocket(c.Writer, c.Request)
	})

	// API info
	s.router.GET("/api", s.infoHandler)

	// V1 API group
	v1 := s.router.Group("/v1")
	// Validate :userId URL params on all v1 routes (no-op when param absent)
	v1.Use(validation.UserIDParamMiddleware())

	quests.NewHandler(s.questService).RegisterRoutes(v1)
	confidence.NewHandler(s.confidenceService).RegisterRoutes(v1)
	leaderboard.NewHandler(s.leaderService).RegisterRoutes(v1)

	// Live feed stats
	v1.GET("/realtime/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.realtimeHub.Stats())
	})
}

// -----------------------------------------------------------------------------
// Handlers
// -----------------------------------------------------------------------------

// HealthResponse for health check endpoints
type HealthResponse struct {
	Status    string          `json:"status"`
	Version   string          `json:"version"`
	Checks    []health.Status `json:"checks,omitempty"`
	Timestamp string          `json:"timestamp"`
}

func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	healthy, statuses := s.healthReg.CheckAll(ctx)

	status := "healthy"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, HealthResponse{
		Status:    status,
		Version:   "0.1.0",
		Checks:    statuses,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) livenessHandler(c *gin.Context) {
	if !s.healthy.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) infoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        "Rejection Hero",
		"description": "Quest backend for practicing rejection",
		"version":     "0.1.0",
	})
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Run starts the HTTP server with graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	// Create a cancellable context for background goroutines so Shutdown() can stop them.
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRunCtx = cancel

	// Tracing
	shutdownTraces, err := traces.Init(runCtx, s.cfg.OTLPEndpoint, s.logger)
	if err != nil {
		s.logger.Warn("failed to initialize tracing", "error", err)
	} else {
		s.shutdownTraces = shutdownTraces
	}

	// DB pool stats for Prometheus
	if s.db != nil {
		metrics.StartDBStatsCollector(runCtx, s.db, 15*time.Second)
	}

	s.httpSrv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Channel to catch server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		s.logger.Info("starting server", "port", s.cfg.Port)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Start realtime hub
	go s.realtimeHub.Run(runCtx)

	// Start confidence decay worker
	go s.decayWorker.Start(runCtx)

	// Start leaderboard fall-behind worker
	go s.leaderWorker.Start(runCtx)

	// Mark as ready after brief delay for startup
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.ready.Store(true)
		s.logger.Info("server ready")
	}()

	// Wait for shutdown signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	s.ready.Store(false)
	s.logger.Info("starting graceful shutdown")

	// Cancel the context for all background goroutines (hub, workers)
	if s.cancelRunCtx != nil {
		s.cancelRunCtx()
	}

	// Give load balancers time to stop sending traffic
	time.Sleep(5 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpSrv.Shutdown(ctx); err != nil {
		s.logger.Error("shutdown error", "error", err)
		return err
	}

	// Stop background workers
	if s.decayWorker != nil {
		s.decayWorker.Stop()
		s.logger.Info("confidence decay worker stopped")
	}
	if s.leaderWorker != nil {
		s.leaderWorker.Stop()
		s.logger.Info("leaderboard worker stopped")
	}

	// Stop rate limiter cleanup goroutine
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
		s.logger.Info("rate limiter stopped")
	}

	// Flush traces
	if s.shutdownTraces != nil {
		if err := s.shutdownTraces(ctx); err != nil {
			s.logger.Warn("trace shutdown error", "error", err)
		}
	}

	// Close database connection pool
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("database close error", "error", err)
		} else {
			s.logger.Info("database connection closed")
		}
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the gin router for testing
func (s *Server) Router() *gin.Engine {
	return s.router
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func generateRequestID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp-based ID
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}
