// Package config provides configuration management for the price feed service
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the application configuration. It is built once at startup
// and treated as immutable afterwards.
type Config struct {
	WitnessName string `envconfig:"HIVE_WITNESS_NAME" required:"true"`       // Witness account publishing the feed
	ActiveKey   string `envconfig:"HIVE_WITNESS_ACTIVE_KEY" required:"true"` // Active-authority WIF key

	NodeURL string `envconfig:"HIVE_NODE_URL" default:"https://api.hive.blog"`                             // Condenser API endpoint
	ChainID string `envconfig:"HIVE_CHAIN_ID" default:"beeab0de00000000000000000000000000000000000000000000000000000000"` // Network chain id

	PriceURL  string `envconfig:"PRICE_API_URL" default:"https://api.v4v.app/v1/cryptoprices/?use_cache=true"` // Price source URL
	StateFile string `envconfig:"PRICE_FEED_STATE_FILE" default:"price_feed.json"`                             // Last-published record path

	PublishInterval      time.Duration `envconfig:"PUBLISH_INTERVAL" default:"15m"`        // Idle time between successful cycles
	MaxRecordAge         time.Duration `envconfig:"PRICE_FEED_MAX_AGE" default:"12h"`      // Republish once the feed is this old
	MinDelta             float64       `envconfig:"PRICE_FEED_MIN_DELTA" default:"0.02"`   // Relative change that forces a publish
	MaxConsecutiveErrors int           `envconfig:"MAX_CONSECUTIVE_ERRORS" default:"20"`   // Failure budget before giving up

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Option is a function that modifies Config
type Option func(*Config) error

// WithEnvFile loads configuration from a .env file
func WithEnvFile(path string) Option {
	return func(c *Config) error {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
		return nil
	}
}

// validate performs validation on the config values
func (c *Config) validate() error {
	for name, urlStr := range map[string]string{
		"node":  c.NodeURL,
		"price": c.PriceURL,
	} {
		if _, err := url.ParseRequestURI(urlStr); err != nil {
			return fmt.Errorf("invalid %s URL: %s", name, urlStr)
		}
	}

	if len(c.ChainID) != 64 || !isHex(c.ChainID) {
		return fmt.Errorf("invalid chain id: must be 32 hex-encoded bytes")
	}

	if c.PublishInterval <= 0 {
		return fmt.Errorf("publish interval must be positive")
	}

	if c.MinDelta <= 0 || c.MinDelta >= 1 {
		return fmt.Errorf("min delta must be in (0, 1), got %g", c.MinDelta)
	}

	if c.MaxConsecutiveErrors <= 0 {
		return fmt.Errorf("max consecutive errors must be positive")
	}

	if strings.TrimSpace(c.StateFile) == "" {
		return fmt.Errorf("state file path is required")
	}

	return nil
}

// isHex checks if a string is valid hexadecimal
func isHex(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

// NewConfig creates a new validated Config instance
func NewConfig(opts ...Option) (*Config, error) {
	var cfg Config

	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// String renders the config for startup logging with the key redacted
func (c *Config) String() string {
	return fmt.Sprintf(
		"witness=%s node=%s price_url=%s state_file=%s interval=%s max_age=%s min_delta=%g active_key=<redacted>",
		c.WitnessName, c.NodeURL, c.PriceURL, c.StateFile,
		c.PublishInterval, c.MaxRecordAge, c.MinDelta,
	)
}
