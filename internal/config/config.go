// Package config provides application configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config holds all application configuration.
type Config struct {
	Port          string `env:"PORT" envDefault:"8080"`
	AllowedOrigin string `env:"ALLOWED_ORIGIN" envDefault:"*"`
	AppEnv        string `env:"APP_ENV" envDefault:"development"`

	DBPath    string `env:"DB_PATH" envDefault:"./data/pulse.db"`
	RedisAddr string `env:"REDIS_ADDR"` // empty = in-memory cooldowns
	RulesPath string `env:"RULES_PATH"` // empty = built-in rule table

	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"1h"`
	SweepInterval      time.Duration `env:"SWEEP_INTERVAL" envDefault:"10m"`
	EventRetention     time.Duration `env:"EVENT_RETENTION" envDefault:"720h"`

	IngestQueueSize  int `env:"INGEST_QUEUE_SIZE" envDefault:"256"`
	MonitorQueueSize int `env:"MONITOR_QUEUE_SIZE" envDefault:"100"`
	SinkQueueSize    int `env:"SINK_QUEUE_SIZE" envDefault:"1000"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be > 0")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be > 0")
	}
	if c.EventRetention <= 0 {
		return fmt.Errorf("EVENT_RETENTION must be > 0")
	}
	if c.IngestQueueSize <= 0 {
		return fmt.Errorf("INGEST_QUEUE_SIZE must be > 0")
	}
	if c.MonitorQueueSize <= 0 {
		return fmt.Errorf("MONITOR_QUEUE_SIZE must be > 0")
	}
	if c.SinkQueueSize <= 0 {
		return fmt.Errorf("SINK_QUEUE_SIZE must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}
