package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, "http://127.0.0.1:8000", cfg.Scoring.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.Scoring.Timeout)
	assert.Greater(t, cfg.Server.WriteTimeout, 2*cfg.Scoring.Timeout)
	assert.False(t, cfg.Scoring.Breaker.Enabled)
	assert.Equal(t, uint32(5), cfg.Scoring.Breaker.ConsecutiveFailures)
	assert.Equal(t, SourceHTTP, cfg.Monitoring.Source)
	assert.Equal(t, "03:04 PM", cfg.Chat.TimeFormat)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTTL)
	assert.Equal(t, 12*time.Hour, cfg.Auth.ConsoleTokenTTL)
	assert.Equal(t, time.Minute, cfg.Session.SweepInterval)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MINDEASE_SCORING_BASE_URL", "http://scoring.internal:9000")
	t.Setenv("MINDEASE_SCORING_TIMEOUT", "5s")
	t.Setenv("MINDEASE_SCORING_BREAKER_ENABLED", "true")
	t.Setenv("MINDEASE_SERVER_PORT", "9090")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://scoring.internal:9000", cfg.Scoring.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Scoring.Timeout)
	assert.True(t, cfg.Scoring.Breaker.Enabled)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "console.yaml")
	content := []byte(`
scoring:
  base_url: http://from-file:8000
monitoring:
  source: postgres
  database_url: postgres://localhost/mindease
log:
  level: debug
  format: json
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://from-file:8000", cfg.Scoring.BaseURL)
	assert.Equal(t, SourcePostgres, cfg.Monitoring.Source)
	assert.Equal(t, "postgres://localhost/mindease", cfg.Monitoring.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(c *Config)
		expectedError string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:          "postgres_without_url",
			mutate:        func(c *Config) { c.Monitoring.Source = SourcePostgres },
			expectedError: "monitoring.database_url is required",
		},
		{
			name:          "unknown_source",
			mutate:        func(c *Config) { c.Monitoring.Source = "redis" },
			expectedError: "invalid monitoring.source",
		},
		{
			name: "write_timeout_too_short_for_submit",
			mutate: func(c *Config) {
				c.Server.WriteTimeout = 120 * time.Second
				c.Scoring.Timeout = 60 * time.Second
			},
			expectedError: "must exceed twice scoring.timeout",
		},
		{
			name: "write_timeout_covers_submit",
			mutate: func(c *Config) {
				c.Server.WriteTimeout = 121 * time.Second
				c.Scoring.Timeout = 60 * time.Second
			},
		},
		{
			name:          "console_auth_without_access_key",
			mutate:        func(c *Config) { c.Auth.ConsoleSigningKey = "secret" },
			expectedError: "auth.console_access_key is required",
		},
		{
			name: "console_auth_with_access_key",
			mutate: func(c *Config) {
				c.Auth.ConsoleSigningKey = "secret"
				c.Auth.ConsoleAccessKey = "open-sesame"
			},
		},
		{
			name:          "access_key_too_long",
			mutate:        func(c *Config) { c.Auth.ConsoleAccessKey = strings.Repeat("k", 73) },
			expectedError: "at most 72 bytes",
		},
		{
			name:          "negative_idle_ttl",
			mutate:        func(c *Config) { c.Session.IdleTTL = -time.Second },
			expectedError: "invalid session.idle_ttl",
		},
		{
			name:          "idle_ttl_without_sweep",
			mutate:        func(c *Config) { c.Session.IdleTTL = time.Minute },
			expectedError: "session.sweep_interval must be positive",
		},
		{
			name:          "empty_base_url",
			mutate:        func(c *Config) { c.Scoring.BaseURL = " " },
			expectedError: "scoring.base_url is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Server:     ServerConfig{Port: 8080},
				Scoring:    ScoringConfig{BaseURL: "http://127.0.0.1:8000"},
				Monitoring: MonitoringConfig{Source: SourceHTTP},
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
