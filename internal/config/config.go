package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config aggregates every setting of the console process.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Scoring    ScoringConfig    `mapstructure:"scoring"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Chat       ChatConfig       `mapstructure:"chat"`
	Session    SessionConfig    `mapstructure:"session"`
	Log        LogConfig        `mapstructure:"log"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`

	// AllowedOrigins restricts websocket origins. Empty allows any.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ScoringConfig describes the remote scoring/explanation/chat service.
type ScoringConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Breaker BreakerConfig `mapstructure:"breaker"`
}

type BreakerConfig struct {
	Enabled             bool          `mapstructure:"enabled"`
	MaxRequests         uint32        `mapstructure:"max_requests"`
	Interval            time.Duration `mapstructure:"interval"`
	Timeout             time.Duration `mapstructure:"timeout"`
	ConsecutiveFailures uint32        `mapstructure:"consecutive_failures"`
}

// AuthConfig holds the optional signing keys. An empty key disables the
// corresponding feature.
type AuthConfig struct {
	ServiceSigningKey string        `mapstructure:"service_signing_key"`
	ConsoleSigningKey string        `mapstructure:"console_signing_key"`
	ServiceTokenTTL   time.Duration `mapstructure:"service_token_ttl"`

	// ConsoleAccessKey is exchanged for a console token at /api/auth/token.
	ConsoleAccessKey string        `mapstructure:"console_access_key"`
	ConsoleTokenTTL  time.Duration `mapstructure:"console_token_ttl"`
}

type MonitoringConfig struct {
	Source      string `mapstructure:"source"`
	DatabaseURL string `mapstructure:"database_url"`
}

type ChatConfig struct {
	TimeFormat string `mapstructure:"time_format"`
}

// SessionConfig bounds how long an untouched session stays in memory.
// An IdleTTL of 0 disables eviction.
type SessionConfig struct {
	IdleTTL       time.Duration `mapstructure:"idle_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TelemetryConfig struct {
	StdoutTraces bool `mapstructure:"stdout_traces"`
}

const (
	SourceHTTP     = "http"
	SourcePostgres = "postgres"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 150*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.allowed_origins", []string{})

	v.SetDefault("scoring.base_url", "http://127.0.0.1:8000")
	v.SetDefault("scoring.timeout", 60*time.Second)
	v.SetDefault("scoring.breaker.enabled", false)
	v.SetDefault("scoring.breaker.max_requests", 3)
	v.SetDefault("scoring.breaker.interval", 60*time.Second)
	v.SetDefault("scoring.breaker.timeout", 30*time.Second)
	v.SetDefault("scoring.breaker.consecutive_failures", 5)

	v.SetDefault("auth.service_signing_key", "")
	v.SetDefault("auth.console_signing_key", "")
	v.SetDefault("auth.service_token_ttl", 5*time.Minute)
	v.SetDefault("auth.console_access_key", "")
	v.SetDefault("auth.console_token_ttl", 12*time.Hour)

	v.SetDefault("monitoring.source", SourceHTTP)
	v.SetDefault("monitoring.database_url", "")

	v.SetDefault("chat.time_format", "03:04 PM")

	v.SetDefault("session.idle_ttl", 30*time.Minute)
	v.SetDefault("session.sweep_interval", time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("telemetry.stdout_traces", false)
}

// Load reads the optional YAML file at configPath, then applies MINDEASE_*
// environment overrides (e.g. MINDEASE_SCORING_BASE_URL).
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MINDEASE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Scoring.BaseURL) == "" {
		return fmt.Errorf("scoring.base_url is required")
	}
	switch c.Monitoring.Source {
	case SourceHTTP:
	case SourcePostgres:
		if c.Monitoring.DatabaseURL == "" {
			return fmt.Errorf("monitoring.database_url is required when monitoring.source is %q", SourcePostgres)
		}
	default:
		return fmt.Errorf("invalid monitoring.source: %q", c.Monitoring.Source)
	}
	// A submit makes two sequential scoring calls inside one request.
	if c.Server.WriteTimeout > 0 && c.Scoring.Timeout > 0 && c.Server.WriteTimeout <= 2*c.Scoring.Timeout {
		return fmt.Errorf("server.write_timeout (%s) must exceed twice scoring.timeout (%s)", c.Server.WriteTimeout, c.Scoring.Timeout)
	}
	if c.Auth.ConsoleSigningKey != "" && c.Auth.ConsoleAccessKey == "" {
		return fmt.Errorf("auth.console_access_key is required when auth.console_signing_key is set")
	}
	// bcrypt only reads the first 72 bytes.
	if len(c.Auth.ConsoleAccessKey) > 72 {
		return fmt.Errorf("auth.console_access_key must be at most 72 bytes")
	}
	if c.Session.IdleTTL < 0 {
		return fmt.Errorf("invalid session.idle_ttl: %s", c.Session.IdleTTL)
	}
	if c.Session.IdleTTL > 0 && c.Session.SweepInterval <= 0 {
		return fmt.Errorf("session.sweep_interval must be positive when session.idle_ttl is set")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server.port: %d", c.Server.Port)
	}
	return nil
}

// Addr is the listen address for the console API.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}
