package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for configuration when --config is not given.
const DefaultPath = "daub.yml"

// Defaults applied by Validate.
const (
	DefaultRedisURL      = "redis://localhost:6379/0"
	DefaultCanvasSize    = 100
	DefaultCellSize      = 10
	DefaultSubmitTimeout = 30 * time.Second
	DefaultWatchInterval = 5 * time.Second
	DefaultListenAddr    = ":8080"
)

// DaubConfig represents the top-level daub.yml configuration
type DaubConfig struct {
	Version    string            `yaml:"version"`
	Identity   string            `yaml:"identity,omitempty"` // Painter identity; may be set later
	Ledger     *LedgerConfig     `yaml:"ledger,omitempty"`
	Canvas     *CanvasConfig     `yaml:"canvas,omitempty"`
	Controller *ControllerConfig `yaml:"controller,omitempty"`
	Watch      *WatchConfig      `yaml:"watch,omitempty"`
	Server     *ServerConfig     `yaml:"server,omitempty"`
}

// LedgerConfig specifies how to reach the ledger
type LedgerConfig struct {
	RedisURL string `yaml:"redis_url"`
}

// CanvasConfig specifies the canvas to paint on
type CanvasConfig struct {
	ID       string  `yaml:"id,omitempty"`        // Ledger object id; may be set later
	Size     int     `yaml:"size,omitempty"`      // Cells per side (default 100)
	CellSize float64 `yaml:"cell_size,omitempty"` // Display size of a cell at zoom 1 (default 10)
}

// ControllerConfig specifies paint submission behavior
type ControllerConfig struct {
	SubmitTimeout time.Duration `yaml:"submit_timeout,omitempty"` // Per-paint ledger deadline (default 30s)
	RateLimit     float64       `yaml:"rate_limit,omitempty"`     // Paints per second, 0 = unlimited
	RateBurst     int           `yaml:"rate_burst,omitempty"`     // Burst for rate_limit (default 1)
}

// WatchConfig specifies the refresh loop
type WatchConfig struct {
	Interval time.Duration `yaml:"interval,omitempty"` // Re-read period without events (default 5s)
}

// ServerConfig specifies the HTTP display adapter
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr,omitempty"`
}

// EnvOverrides are environment variables that take precedence over daub.yml.
type EnvOverrides struct {
	RedisURL      string        `env:"DAUB_REDIS_URL"`
	CanvasID      string        `env:"DAUB_CANVAS_ID"`
	Identity      string        `env:"DAUB_IDENTITY"`
	ListenAddr    string        `env:"DAUB_LISTEN_ADDR"`
	WatchInterval time.Duration `env:"DAUB_WATCH_INTERVAL"`
}

// Default returns a validated configuration with every default applied.
func Default() *DaubConfig {
	c := &DaubConfig{Version: "1.0"}
	// Defaults always validate.
	_ = c.Validate()
	return c
}

// Validate performs strict validation on the configuration and fills in
// defaults for omitted sections.
func (c *DaubConfig) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if c.Ledger == nil {
		c.Ledger = &LedgerConfig{}
	}
	if c.Ledger.RedisURL == "" {
		c.Ledger.RedisURL = DefaultRedisURL
	}
	u, err := url.Parse(c.Ledger.RedisURL)
	if err != nil || (u.Scheme != "redis" && u.Scheme != "rediss" && u.Scheme != "unix") {
		return fmt.Errorf("ledger.redis_url must be a redis:// URL, got %q", c.Ledger.RedisURL)
	}

	if c.Canvas == nil {
		c.Canvas = &CanvasConfig{}
	}
	if c.Canvas.Size == 0 {
		c.Canvas.Size = DefaultCanvasSize
	}
	if c.Canvas.Size < 0 {
		return fmt.Errorf("canvas.size must be positive, got %d", c.Canvas.Size)
	}
	if c.Canvas.CellSize == 0 {
		c.Canvas.CellSize = DefaultCellSize
	}
	if c.Canvas.CellSize < 0 {
		return fmt.Errorf("canvas.cell_size must be positive, got %v", c.Canvas.CellSize)
	}

	if c.Controller == nil {
		c.Controller = &ControllerConfig{}
	}
	if c.Controller.SubmitTimeout == 0 {
		c.Controller.SubmitTimeout = DefaultSubmitTimeout
	}
	if c.Controller.SubmitTimeout < 0 {
		return fmt.Errorf("controller.submit_timeout must be positive, got %v", c.Controller.SubmitTimeout)
	}
	if c.Controller.RateLimit < 0 {
		return fmt.Errorf("controller.rate_limit must be >= 0 (0 = unlimited), got %v", c.Controller.RateLimit)
	}
	if c.Controller.RateBurst == 0 {
		c.Controller.RateBurst = 1
	}
	if c.Controller.RateBurst < 1 {
		return fmt.Errorf("controller.rate_burst must be >= 1, got %d", c.Controller.RateBurst)
	}

	if c.Watch == nil {
		c.Watch = &WatchConfig{}
	}
	if c.Watch.Interval == 0 {
		c.Watch.Interval = DefaultWatchInterval
	}
	if c.Watch.Interval < 0 {
		return fmt.Errorf("watch.interval must be positive, got %v", c.Watch.Interval)
	}

	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}

	return nil
}

// ApplyEnv overlays environment overrides and re-validates. environ maps
// variable names to values; nil reads the process environment.
func (c *DaubConfig) ApplyEnv(environ map[string]string) error {
	var ov EnvOverrides
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&ov, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if ov.RedisURL != "" {
		c.Ledger.RedisURL = ov.RedisURL
	}
	if ov.CanvasID != "" {
		c.Canvas.ID = ov.CanvasID
	}
	if ov.Identity != "" {
		c.Identity = ov.Identity
	}
	if ov.ListenAddr != "" {
		c.Server.ListenAddr = ov.ListenAddr
	}
	if ov.WatchInterval != 0 {
		c.Watch.Interval = ov.WatchInterval
	}

	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Load reads and validates daub.yml from the specified path
func Load(path string) (*DaubConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config DaubConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Resolve loads path and applies environment overrides. A missing file at
// DefaultPath falls back to Default(); a missing file anywhere else is an error.
func Resolve(path string, environ map[string]string) (*DaubConfig, error) {
	config, err := Load(path)
	if err != nil {
		if path != DefaultPath || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		config = Default()
	}

	if err := config.ApplyEnv(environ); err != nil {
		return nil, err
	}
	return config, nil
}
