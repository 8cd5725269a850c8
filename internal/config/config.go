// Package config loads and validates scraper configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Scraper  ScraperConfig  `mapstructure:"scraper"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Headless HeadlessConfig `mapstructure:"headless"`
	DB       DBConfig       `mapstructure:"db"`
	Remote   RemoteConfig   `mapstructure:"remote"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls the diagnostics HTTP server.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// ScraperConfig governs the orchestration pipeline.
type ScraperConfig struct {
	Concurrency      int    `mapstructure:"concurrency"`
	MinContentLength int    `mapstructure:"min_content_length"`
	DefaultStrategy  string `mapstructure:"default_strategy"`
	UserAgent        string `mapstructure:"user_agent"`
}

// HTTPConfig configures the shared HTTP client.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// HeadlessConfig configures the browser-backed strategies.
type HeadlessConfig struct {
	MaxPages      int `mapstructure:"max_pages"`
	NavTimeoutSec int `mapstructure:"nav_timeout_seconds"`
}

// DBConfig controls access to the persistence sink. An empty DSN disables
// persistence entirely.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int    `mapstructure:"max_conns"`
	MinConns int    `mapstructure:"min_conns"`
}

// RemoteConfig holds credentials and retry budgets for the hosted scraping
// services. Keys are normally supplied through the environment
// (SCRAPER_REMOTE_SCRAPERAPI_KEY and friends); an adapter whose key is
// missing is simply not registered.
type RemoteConfig struct {
	ScraperAPIKey      string `mapstructure:"scraperapi_key"`
	ScraperAPIAttempts int    `mapstructure:"scraperapi_attempts"`
	ScrapingBeeKey     string `mapstructure:"scrapingbee_key"`
	ScrapingBeeRetries int    `mapstructure:"scrapingbee_retries"`
	ZenRowsKey         string `mapstructure:"zenrows_key"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCRAPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("scraper.concurrency", 10)
	v.SetDefault("scraper.min_content_length", 100)
	v.SetDefault("scraper.default_strategy", "web_loader")
	v.SetDefault("scraper.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36")
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("headless.max_pages", 4)
	v.SetDefault("headless.nav_timeout_seconds", 30)
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("remote.scraperapi_attempts", 5)
	v.SetDefault("remote.scrapingbee_retries", 2)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Scraper.Concurrency <= 0 {
		return fmt.Errorf("scraper.concurrency must be > 0")
	}
	if c.Scraper.MinContentLength < 0 {
		return fmt.Errorf("scraper.min_content_length must be >= 0")
	}
	if c.Scraper.DefaultStrategy == "" {
		return fmt.Errorf("scraper.default_strategy must be set")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0 when the server is enabled")
	}
	if c.Headless.MaxPages <= 0 {
		return fmt.Errorf("headless.max_pages must be > 0")
	}
	return nil
}

// HTTPTimeout converts the HTTP timeout config into a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// NavTimeout converts the headless navigation timeout into a duration.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Headless.NavTimeoutSec) * time.Second
}
