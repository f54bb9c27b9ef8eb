package infra

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every runtime setting. Values load from YAML first, then
// environment variables override (a .env file is honored when present).
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Upstream struct {
		RestURL      string `yaml:"rest_url"`
		WSURL        string `yaml:"ws_url"`
		RetryDelayMS int    `yaml:"retry_delay_ms"`
		TimeoutSec   int    `yaml:"timeout_sec"`
	} `yaml:"upstream"`

	Engine struct {
		InboxSize int `yaml:"inbox_size"`
	} `yaml:"engine"`

	Journal struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"journal"`

	API struct {
		Listen string `yaml:"listen"`
	} `yaml:"api"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	// A local .env is optional; absence is not an error.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// RetryDelay returns the fixed reconnect/refetch delay.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Upstream.RetryDelayMS) * time.Millisecond
}

// Timeout returns the per-request HTTP timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Upstream.TimeoutSec) * time.Second
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Upstream.RestURL == "" || !strings.HasPrefix(c.Upstream.RestURL, "http") {
		return fmt.Errorf("invalid upstream REST URL: %s", c.Upstream.RestURL)
	}
	if c.Upstream.WSURL == "" || (!strings.HasPrefix(c.Upstream.WSURL, "ws://") && !strings.HasPrefix(c.Upstream.WSURL, "wss://")) {
		return fmt.Errorf("invalid upstream WS URL: %s", c.Upstream.WSURL)
	}
	if c.Upstream.RetryDelayMS <= 0 {
		return fmt.Errorf("retry delay must be positive")
	}
	if c.Engine.InboxSize <= 0 {
		return fmt.Errorf("inbox size must be positive")
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		return fmt.Errorf("journal enabled but no path configured")
	}
	return nil
}

// overrideWithEnv overrides config values from the environment when set.
func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("MIRROR_REST_URL"); v != "" {
		cfg.Upstream.RestURL = v
	}
	if v := os.Getenv("MIRROR_WS_URL"); v != "" {
		cfg.Upstream.WSURL = v
	}
	if v := os.Getenv("MIRROR_API_LISTEN"); v != "" {
		cfg.API.Listen = v
	}
	if v := os.Getenv("MIRROR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// DefaultConfig returns a config with sane defaults, used when no file
// is present (local development against a localhost exchange).
func DefaultConfig() *Config {
	var cfg Config
	cfg.App.Name = "book-mirror"
	cfg.Upstream.RestURL = "http://localhost:8080"
	cfg.Upstream.WSURL = "ws://localhost:8080/event"
	cfg.Upstream.RetryDelayMS = 1000
	cfg.Upstream.TimeoutSec = 10
	cfg.Engine.InboxSize = 1024
	cfg.API.Listen = ":8090"
	cfg.Logging.Level = "info"
	overrideWithEnv(&cfg)
	return &cfg
}
