// Package config loads daemon configuration from environment variables with
// an optional YAML overlay file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration for the daemon.
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development" yaml:"environment"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" yaml:"log_level"`

	ListenAddr     string `envconfig:"LISTEN_ADDR" default:":8085" yaml:"listen_addr"`
	AuthMode       string `envconfig:"AUTH_MODE" default:"api-key" yaml:"auth_mode"`
	APIKey         string `envconfig:"API_KEY" yaml:"api_key"`
	RateLimitRPS   int    `envconfig:"RATE_LIMIT_RPS" default:"100" yaml:"rate_limit_rps"`
	RateLimitBurst int    `envconfig:"RATE_LIMIT_BURST" default:"200" yaml:"rate_limit_burst"`
	CORSOrigins    string `envconfig:"CORS_ORIGINS" yaml:"cors_origins"`

	StateDir      string        `envconfig:"STATE_DIR" default:".foreman" yaml:"state_dir"`
	PollInterval  time.Duration `envconfig:"POLL_INTERVAL" default:"2s" yaml:"poll_interval"`
	SaveInterval  int           `envconfig:"SAVE_INTERVAL" default:"10" yaml:"save_interval"`
	DispatchGrace time.Duration `envconfig:"DISPATCH_GRACE" default:"5m" yaml:"dispatch_grace"`

	// ConfigFile points at an optional YAML file whose values take
	// precedence over the environment.
	ConfigFile string `envconfig:"CONFIG_FILE" yaml:"-"`
}

// Load builds a Config from the FOREMAN_* environment, applies the YAML
// overlay when configured, and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("FOREMAN", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	if cfg.ConfigFile != "" {
		if err := cfg.ApplyFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyFile overlays values from the YAML file at path onto the config.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks invariants that envconfig defaults cannot guarantee once
// overrides are applied.
func (c *Config) Validate() error {
	if c.StateDir == "" {
		return fmt.Errorf("state_dir must not be empty")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.SaveInterval <= 0 {
		return fmt.Errorf("save_interval must be positive, got %d", c.SaveInterval)
	}
	switch c.AuthMode {
	case "api-key", "none":
	default:
		return fmt.Errorf("auth_mode must be api-key or none, got %q", c.AuthMode)
	}
	if c.AuthMode == "api-key" && c.APIKey == "" {
		return fmt.Errorf("api_key is required when auth_mode is api-key")
	}
	return nil
}

// IsDevelopment reports whether the daemon runs in development mode.
func (c *Config) IsDevelopment() bool { return c.Environment == "development" }
