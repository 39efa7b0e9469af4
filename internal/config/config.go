package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/vadimtrunov/CineDeck/internal/core"
	"github.com/vadimtrunov/CineDeck/internal/feed"
	"github.com/vadimtrunov/CineDeck/internal/httpclient"
)

// Config represents the main application configuration
type Config struct {
	// Metadata provider
	TMDB TMDBConfig `yaml:"tmdb"`

	// Outbound HTTP behaviour (single attempt, no timeout unless set)
	HTTP httpclient.Config `yaml:"http"`

	// Home feed layout and carousel
	Feed FeedConfig `yaml:"feed"`

	// Trailer playback
	Player PlayerConfig `yaml:"player"`

	// Frontends
	Telegram *TelegramConfig `yaml:"telegram,omitempty"`

	// Observability
	Metrics MetricsConfig `yaml:"metrics"`

	// Application settings
	App AppConfig `yaml:"app"`
}

// TMDBConfig holds TMDB API credentials. Either key is enough.
type TMDBConfig struct {
	APIKey      string `yaml:"api_key"`
	AccessToken string `yaml:"access_token,omitempty"`
	BaseURL     string `yaml:"base_url,omitempty"`
}

// FeedConfig selects the home rows and the featured recipe.
type FeedConfig struct {
	Page             int                  `yaml:"page"`
	RotationInterval time.Duration        `yaml:"rotation_interval"`
	Rows             []string             `yaml:"rows,omitempty"`
	Featured         []feed.FeaturedSlice `yaml:"featured,omitempty"`
}

// PlayerConfig controls how trailers resolve.
type PlayerConfig struct {
	InlineFrames bool `yaml:"inline_frames"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken       string  `yaml:"bot_token"`
	AllowedUserIDs []int64 `yaml:"allowed_user_ids,omitempty"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	LogLevel string `yaml:"log_level"`          // "debug", "info", "warn", "error"
	LogFile  string `yaml:"log_file,omitempty"` // TUI logs go here instead of stdout
}

const defaultRotationInterval = 5 * time.Second

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "warning": true, "error": true,
}

// Load loads configuration from a YAML file with environment variable overrides.
// An empty path skips the file and builds the config from the environment.
func Load(path string) (*Config, error) {
	cfg := Config{HTTP: httpclient.DefaultConfig()}

	if path != "" {
		if err := validateConfigPath(path); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// validateConfigPath checks that path names a regular, readable file.
func validateConfigPath(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("config file not found: %s", path)
	}
	if err != nil {
		return fmt.Errorf("stat config file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}
	return nil
}

// applyEnvOverrides overrides config values with environment variables
func (c *Config) applyEnvOverrides() {
	// TMDB
	if v := os.Getenv("CINEDECK_TMDB_API_KEY"); v != "" {
		c.TMDB.APIKey = v
	}
	if v := os.Getenv("CINEDECK_TMDB_ACCESS_TOKEN"); v != "" {
		c.TMDB.AccessToken = v
	}
	if v := os.Getenv("CINEDECK_TMDB_BASE_URL"); v != "" {
		c.TMDB.BaseURL = v
	}

	// Telegram section is created from env when absent
	if v := os.Getenv("CINEDECK_TELEGRAM_BOT_TOKEN"); v != "" {
		if c.Telegram == nil {
			c.Telegram = &TelegramConfig{}
		}
		c.Telegram.BotToken = v
	}

	// Metrics
	if v := os.Getenv("CINEDECK_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}

	// App
	if v := os.Getenv("CINEDECK_LOG_LEVEL"); v != "" {
		c.App.LogLevel = v
	}
	if v := os.Getenv("CINEDECK_LOG_FILE"); v != "" {
		c.App.LogFile = v
	}
}

// Validate validates the configuration and fills in defaults.
func (c *Config) Validate() error {
	if c.TMDB.APIKey == "" && c.TMDB.AccessToken == "" {
		return fmt.Errorf("tmdb.api_key or tmdb.access_token is required")
	}
	if c.TMDB.BaseURL != "" {
		if err := validateURL(c.TMDB.BaseURL, "tmdb.base_url"); err != nil {
			return err
		}
	}

	if c.HTTP.MaxAttempts < 0 {
		return fmt.Errorf("http.max_attempts must not be negative")
	}
	if c.HTTP.BaseDelay < 0 || c.HTTP.MaxDelay < 0 || c.HTTP.Timeout < 0 {
		return fmt.Errorf("http delays and timeout must not be negative")
	}

	if c.Feed.Page < 0 {
		return fmt.Errorf("feed.page must not be negative")
	}
	if c.Feed.RotationInterval < 0 {
		return fmt.Errorf("feed.rotation_interval must not be negative")
	}
	for _, r := range c.Feed.Rows {
		if _, err := core.ParseCategory(r); err != nil {
			return fmt.Errorf("feed.rows: %w", err)
		}
	}
	for i, f := range c.Feed.Featured {
		if _, err := core.ParseCategory(string(f.Category)); err != nil {
			return fmt.Errorf("feed.featured[%d]: %w", i, err)
		}
		if f.Count < 1 {
			return fmt.Errorf("feed.featured[%d].count must be positive", i)
		}
	}

	if c.Telegram != nil && c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}

	if c.App.LogLevel != "" && !validLogLevels[strings.ToLower(c.App.LogLevel)] {
		return fmt.Errorf("app.log_level must be one of debug, info, warn, error")
	}

	c.setDefaults()
	return nil
}

// setDefaults fills zero values after validation.
func (c *Config) setDefaults() {
	if c.HTTP.MaxAttempts == 0 {
		c.HTTP.MaxAttempts = 1
	}
	if c.Feed.Page == 0 {
		c.Feed.Page = 1
	}
	if c.Feed.RotationInterval == 0 {
		c.Feed.RotationInterval = defaultRotationInterval
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
}

// FeedOptions converts the feed section for the aggregator. Empty lists
// give the default home layout.
func (c *Config) FeedOptions() feed.Options {
	opts := feed.Options{Page: c.Feed.Page, Featured: c.Feed.Featured}
	for _, r := range c.Feed.Rows {
		opts.Rows = append(opts.Rows, core.Category(r))
	}
	return opts
}

// validateURL checks that raw is an absolute http(s) URL.
func validateURL(raw, field string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https", field)
	}
	if u.Host == "" {
		return fmt.Errorf("%s: missing host", field)
	}
	return nil
}
