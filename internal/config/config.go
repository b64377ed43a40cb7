// Package config provides configuration types, defaults, and persistence
// for boxtop.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/shroombox/boxtop/internal/log"
)

// ServerConfig describes how to reach the shroombox controller backend.
type ServerConfig struct {
	// URL is the base URL of the controller's web API.
	URL string `mapstructure:"url"`

	// RequestTimeout bounds every control/status request.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// PollInterval is how often the status and measurement widgets refresh.
	PollInterval time.Duration `mapstructure:"poll_interval"`

	// CacheTTL is how long read-only responses (status, settings) are
	// served from the client-side cache.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// StreamConfig tunes the live log tail.
type StreamConfig struct {
	// BufferSize is the log pane retention; oldest lines are evicted first.
	BufferSize int `mapstructure:"buffer_size"`

	// ReconnectMinDelay is the first reconnect delay after a stream drop.
	ReconnectMinDelay time.Duration `mapstructure:"reconnect_min_delay"`

	// ReconnectMaxDelay caps the exponential reconnect backoff.
	ReconnectMaxDelay time.Duration `mapstructure:"reconnect_max_delay"`
}

// UIConfig holds user interface options.
type UIConfig struct {
	ShowStatusBar bool `mapstructure:"show_status_bar"`
	Mouse         bool `mapstructure:"mouse"`
}

// ThemeConfig holds color overrides. Empty values keep the defaults.
type ThemeConfig struct {
	Highlight string `mapstructure:"highlight"`
	Subtle    string `mapstructure:"subtle"`
	Error     string `mapstructure:"error"`
	Success   string `mapstructure:"success"`
}

// TracingConfig holds optional OpenTelemetry settings.
type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	Exporter     string  `mapstructure:"exporter"` // "stdout", "otlp", "none"
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
}

// Config holds all configuration options for boxtop.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Stream  StreamConfig  `mapstructure:"stream"`
	UI      UIConfig      `mapstructure:"ui"`
	Theme   ThemeConfig   `mapstructure:"theme"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			URL:            "http://shroombox.local:5000",
			RequestTimeout: 10 * time.Second,
			PollInterval:   5 * time.Second,
			CacheTTL:       2 * time.Second,
		},
		Stream: StreamConfig{
			BufferSize:        100,
			ReconnectMinDelay: 1 * time.Second,
			ReconnectMaxDelay: 30 * time.Second,
		},
		UI: UIConfig{
			ShowStatusBar: true,
			Mouse:         true,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "stdout",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// Validate checks the configuration for values the app cannot run with.
func (c Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server.url is required")
	}
	u, err := url.Parse(c.Server.URL)
	if err != nil {
		return fmt.Errorf("server.url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server.url must use http or https, got %q", u.Scheme)
	}
	if c.Stream.BufferSize <= 0 {
		return fmt.Errorf("stream.buffer_size must be positive, got %d", c.Stream.BufferSize)
	}
	if c.Stream.ReconnectMinDelay <= 0 {
		return fmt.Errorf("stream.reconnect_min_delay must be positive")
	}
	if c.Stream.ReconnectMaxDelay < c.Stream.ReconnectMinDelay {
		return fmt.Errorf("stream.reconnect_max_delay must be >= stream.reconnect_min_delay")
	}
	if c.Server.PollInterval <= 0 {
		return fmt.Errorf("server.poll_interval must be positive")
	}
	return nil
}

// Load reads the config file at path over the built-in defaults.
// Used for hot reload; initial loading goes through the root command.
func Load(path string) (Config, error) {
	cfg := Defaults()

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// DefaultPath returns the user config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "boxtop", "config.yaml")
}

// WriteDefaultConfig writes the commented default config template to path,
// creating parent directories as needed.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
