// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// Push notifications
	PushGatewayURL string // HTTP endpoint of the push delivery service
	PushSecret     string // HMAC secret for signing push payloads

	// Tracing
	OTLPEndpoint string // OTLP gRPC endpoint (optional, tracing disabled if not set)

	// Rate limiting
	RateLimitRPM int

	// Background workers
	DecayInterval      time.Duration // confidence decay sweep interval
	LeaderboardSweep   time.Duration // fall-behind notification sweep interval
	DecayPerDay        float64       // confidence points lost per idle day
	LeaderboardMaxGap  int           // points behind the cutoff before a nudge
	LeaderboardTopSize int           // leaderboard size users are nudged toward
}

// Defaults
const (
	DefaultPort             = "8080"
	DefaultEnv              = "development"
	DefaultLogLevel         = "info"
	DefaultRateLimitRPM     = 120
	DefaultDecayPerDay      = 5.0
	DefaultLeaderboardGap   = 50
	DefaultLeaderboardTop   = 10
	DefaultDecayInterval    = time.Hour
	DefaultLeaderboardSweep = 6 * time.Hour
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", DefaultPort),
		Env:                getEnv("ENV", DefaultEnv),
		LogLevel:           getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:        os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		PushGatewayURL:     os.Getenv("PUSH_GATEWAY_URL"),
		PushSecret:         os.Getenv("PUSH_SECRET"),
		OTLPEndpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		RateLimitRPM:       int(getEnvInt64("RATE_LIMIT_RPM", DefaultRateLimitRPM)),
		DecayInterval:      getEnvDuration("DECAY_INTERVAL", DefaultDecayInterval),
		LeaderboardSweep:   getEnvDuration("LEADERBOARD_SWEEP_INTERVAL", DefaultLeaderboardSweep),
		DecayPerDay:        getEnvFloat("DECAY_PER_DAY", DefaultDecayPerDay),
		LeaderboardMaxGap:  int(getEnvInt64("LEADERBOARD_MAX_GAP", DefaultLeaderboardGap)),
		LeaderboardTopSize: int(getEnvInt64("LEADERBOARD_TOP_SIZE", DefaultLeaderboardTop)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.RateLimitRPM <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPM must be positive")
	}
	if c.DecayPerDay < 0 {
		return fmt.Errorf("DECAY_PER_DAY must not be negative")
	}
	if c.PushGatewayURL != "" && c.PushSecret == "" {
		return fmt.Errorf("PUSH_SECRET is required when PUSH_GATEWAY_URL is set")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
