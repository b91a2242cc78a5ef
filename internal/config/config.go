// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Voyager   VoyagerConfig   `mapstructure:"voyager" yaml:"voyager"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit" yaml:"ratelimit"`
	Browser   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	Sourcing  SourcingConfig  `mapstructure:"sourcing" yaml:"sourcing"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// VoyagerConfig tunes the HTTP client for the internal LinkedIn API.
type VoyagerConfig struct {
	RequestTimeout  time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	ProxyURL        string        `mapstructure:"proxy_url" yaml:"proxy_url"`
	IgnoreTLSErrors bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
}

// RateLimitConfig controls the anti-detection request throttle.
type RateLimitConfig struct {
	RequestsPerMinute int           `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	MinDelay          time.Duration `mapstructure:"min_delay" yaml:"min_delay"`
	MaxDelay          time.Duration `mapstructure:"max_delay" yaml:"max_delay"`
	BurstSize         int           `mapstructure:"burst_size" yaml:"burst_size"`
}

// BrowserConfig holds settings for the headless browser used for login and scraping.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent"`
	ViewportWidth     int           `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight    int           `mapstructure:"viewport_height" yaml:"viewport_height"`
	Args              []string      `mapstructure:"args" yaml:"args"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	LoginTimeout      time.Duration `mapstructure:"login_timeout" yaml:"login_timeout"`
	CheckpointTimeout time.Duration `mapstructure:"checkpoint_timeout" yaml:"checkpoint_timeout"`
	WarmUp            bool          `mapstructure:"warm_up" yaml:"warm_up"`
	PagesPerSecond    float64       `mapstructure:"pages_per_second" yaml:"pages_per_second"`
}

// SourcingConfig tunes the top-level search orchestration.
type SourcingConfig struct {
	DefaultLimit    int    `mapstructure:"default_limit" yaml:"default_limit"`
	DefaultLocation string `mapstructure:"default_location" yaml:"default_location"`
}

// SetDefaults applies sane defaults for any values not present in the
// config file or environment.
func (c *Config) SetDefaults() {
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "console"
	}
	if c.Logger.ServiceName == "" {
		c.Logger.ServiceName = "sourcing-cli"
	}
	if c.Voyager.RequestTimeout <= 0 {
		c.Voyager.RequestTimeout = 30 * time.Second
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		c.RateLimit.RequestsPerMinute = 10
	}
	if c.RateLimit.MinDelay <= 0 {
		c.RateLimit.MinDelay = 3 * time.Second
	}
	if c.RateLimit.MaxDelay <= 0 {
		c.RateLimit.MaxDelay = 8 * time.Second
	}
	if c.RateLimit.BurstSize <= 0 {
		c.RateLimit.BurstSize = 3
	}
	if c.Browser.ViewportWidth <= 0 {
		c.Browser.ViewportWidth = 1280
	}
	if c.Browser.ViewportHeight <= 0 {
		c.Browser.ViewportHeight = 720
	}
	if c.Browser.NavigationTimeout <= 0 {
		c.Browser.NavigationTimeout = 60 * time.Second
	}
	if c.Browser.LoginTimeout <= 0 {
		c.Browser.LoginTimeout = 30 * time.Second
	}
	if c.Browser.CheckpointTimeout <= 0 {
		c.Browser.CheckpointTimeout = 5 * time.Minute
	}
	if c.Browser.PagesPerSecond <= 0 {
		c.Browser.PagesPerSecond = 0.2
	}
	if c.Sourcing.DefaultLimit <= 0 {
		c.Sourcing.DefaultLimit = 50
	}
	if c.Sourcing.DefaultLocation == "" {
		c.Sourcing.DefaultLocation = "Belarus"
	}
}

// Validate rejects configurations that would misbehave at runtime.
func (c *Config) Validate() error {
	if c.RateLimit.MinDelay > c.RateLimit.MaxDelay {
		return fmt.Errorf("ratelimit: min_delay (%s) exceeds max_delay (%s)",
			c.RateLimit.MinDelay, c.RateLimit.MaxDelay)
	}
	switch c.Logger.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logger: unknown format %q (supported: console, json)", c.Logger.Format)
	}
	return nil
}

// Load reads the configuration from the given file (or the default search
// path), merges environment variables, and returns a validated Config.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("SOURCING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Boolean defaults that SetDefaults cannot express.
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.warm_up", true)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
