package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper to set env vars and clean up after
func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old := os.Getenv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if old == "" {
			os.Unsetenv(key)
		} else {
			os.Setenv(key, old)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, "PORT", "")
	setEnv(t, "PUSH_GATEWAY_URL", "")
	setEnv(t, "PUSH_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultEnv, cfg.Env)
	assert.Equal(t, DefaultRateLimitRPM, cfg.RateLimitRPM)
	assert.Equal(t, DefaultDecayInterval, cfg.DecayInterval)
	assert.Equal(t, DefaultDecayPerDay, cfg.DecayPerDay)
}

func TestLoad_Overrides(t *testing.T) {
	setEnv(t, "PORT", "9090")
	setEnv(t, "DECAY_INTERVAL", "30m")
	setEnv(t, "RATE_LIMIT_RPM", "600")
	setEnv(t, "DECAY_PER_DAY", "2.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.DecayInterval)
	assert.Equal(t, 600, cfg.RateLimitRPM)
	assert.Equal(t, 2.5, cfg.DecayPerDay)
}

func TestLoad_PushSecretRequiredWithGateway(t *testing.T) {
	setEnv(t, "PUSH_GATEWAY_URL", "https://push.example.com/send")
	setEnv(t, "PUSH_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "PUSH_SECRET is required")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "valid",
			config: Config{
				Port:         "8080",
				RateLimitRPM: 60,
			},
			wantErr: false,
		},
		{
			name: "empty port",
			config: Config{
				RateLimitRPM: 60,
			},
			wantErr: true,
		},
		{
			name: "zero rate limit",
			config: Config{
				Port: "8080",
			},
			wantErr: true,
		},
		{
			name: "negative decay",
			config: Config{
				Port:         "8080",
				RateLimitRPM: 60,
				DecayPerDay:  -1,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_EnvHelpers(t *testing.T) {
	cfg := &Config{Env: "development"}
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())

	cfg.Env = "production"
	assert.True(t, cfg.IsProduction())
}
