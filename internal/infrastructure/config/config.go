package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Desktop   DesktopConfig
	Apps      AppsConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string   `envconfig:"PORT" default:"8000"`
	Host           string   `envconfig:"HOST" default:"0.0.0.0"`
	AllowedOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// DesktopConfig holds the geometry and timing of the simulated desktop.
type DesktopConfig struct {
	Width               int           `envconfig:"DESKTOP_WIDTH" default:"1280"`
	Height              int           `envconfig:"DESKTOP_HEIGHT" default:"800"`
	MenuBarHeight       int           `envconfig:"MENU_BAR_HEIGHT" default:"28"`
	DockHeight          int           `envconfig:"DOCK_HEIGHT" default:"72"`
	MinWindowWidth      int           `envconfig:"MIN_WINDOW_WIDTH" default:"300"`
	MinWindowHeight     int           `envconfig:"MIN_WINDOW_HEIGHT" default:"200"`
	DefaultWindowWidth  int           `envconfig:"DEFAULT_WINDOW_WIDTH" default:"640"`
	DefaultWindowHeight int           `envconfig:"DEFAULT_WINDOW_HEIGHT" default:"400"`
	CascadeOffset       int           `envconfig:"CASCADE_OFFSET" default:"24"`
	MinimizeDuration    time.Duration `envconfig:"MINIMIZE_DURATION" default:"300ms"`
	RestoreDuration     time.Duration `envconfig:"RESTORE_DURATION" default:"300ms"`
	ThumbMinWidth       int           `envconfig:"THUMB_MIN_WIDTH" default:"48"`
	ThumbMaxWidth       int           `envconfig:"THUMB_MAX_WIDTH" default:"160"`
	ShellOwner          string        `envconfig:"SHELL_OWNER" default:"finder"`
	EventBuffer         int           `envconfig:"EVENT_BUFFER" default:"64"`
}

// AppsConfig holds app discovery, launch protection and session storage.
type AppsConfig struct {
	ManifestDir     string        `envconfig:"APPS_MANIFEST_DIR" default:"apps"`
	SessionsDir     string        `envconfig:"SESSIONS_DIR" default:"data/sessions"`
	BreakerFailures uint32        `envconfig:"BREAKER_FAILURES" default:"3"`
	BreakerTimeout  time.Duration `envconfig:"BREAKER_TIMEOUT" default:"30s"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate rejects desktops that leave no room for a window.
func (c *Config) Validate() error {
	d := c.Desktop
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("invalid config: desktop size %dx%d", d.Width, d.Height)
	}
	if d.MenuBarHeight < 0 || d.DockHeight < 0 || d.Height-d.MenuBarHeight-d.DockHeight < d.MinWindowHeight {
		return fmt.Errorf("invalid config: work area too small for %dpx windows", d.MinWindowHeight)
	}
	if d.MinWindowWidth <= 0 || d.MinWindowHeight <= 0 || d.MinWindowWidth > d.Width {
		return fmt.Errorf("invalid config: minimum window %dx%d", d.MinWindowWidth, d.MinWindowHeight)
	}
	if d.ThumbMinWidth <= 0 || d.ThumbMaxWidth < d.ThumbMinWidth {
		return fmt.Errorf("invalid config: thumbnail width %d..%d", d.ThumbMinWidth, d.ThumbMaxWidth)
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8000",
			Host:           "0.0.0.0",
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Desktop: DesktopConfig{
			Width:               1280,
			Height:              800,
			MenuBarHeight:       28,
			DockHeight:          72,
			MinWindowWidth:      300,
			MinWindowHeight:     200,
			DefaultWindowWidth:  640,
			DefaultWindowHeight: 400,
			CascadeOffset:       24,
			MinimizeDuration:    300 * time.Millisecond,
			RestoreDuration:     300 * time.Millisecond,
			ThumbMinWidth:       48,
			ThumbMaxWidth:       160,
			ShellOwner:          "finder",
			EventBuffer:         64,
		},
		Apps: AppsConfig{
			ManifestDir:     "apps",
			SessionsDir:     "data/sessions",
			BreakerFailures: 3,
			BreakerTimeout:  30 * time.Second,
		},
	}
}
