// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs recognized by the core.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Scraping ScrapingConfig `mapstructure:"scraping"`
	Crawler  CrawlerConfig  `mapstructure:"crawler"`
	Headless HeadlessConfig `mapstructure:"headless"`
	Sources  SourcesConfig  `mapstructure:"sources"`
	Fallback FallbackConfig `mapstructure:"fallback"`
	Extract  ExtractConfig  `mapstructure:"extract"`
	DB       DBConfig       `mapstructure:"db"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls the HTTP submission API.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// ScrapingConfig governs fetch pacing, retries, and politeness.
type ScrapingConfig struct {
	RateLimitSeconds float64 `mapstructure:"rate_limit_seconds"`
	Concurrency      int     `mapstructure:"concurrency"`
	MaxRetries       int     `mapstructure:"max_retries"`
	TimeoutSeconds   int     `mapstructure:"timeout_seconds"`
	UserAgent        string  `mapstructure:"user_agent"`
	RespectRobotsTxt bool    `mapstructure:"respect_robots_txt"`
}

// CrawlerConfig bounds the per-company site crawl.
type CrawlerConfig struct {
	MaxPagesPerDomain  int  `mapstructure:"max_pages_per_domain"`
	MaxDepth           int  `mapstructure:"max_depth"`
	StopWhenSufficient bool `mapstructure:"stop_when_sufficient"`
}

// HeadlessConfig configures browser-backed fetch escalation.
type HeadlessConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxParallel   int  `mapstructure:"max_parallel"`
	NavTimeoutSec int  `mapstructure:"nav_timeout_seconds"`
	MinHTMLBytes  int  `mapstructure:"min_html_bytes"`
}

// SourcesConfig feature-flags each fallback source adapter.
type SourcesConfig struct {
	MapsEnabled        bool `mapstructure:"maps_enabled"`
	LinkedInEnabled    bool `mapstructure:"linkedin_enabled"`
	DirectoriesEnabled bool `mapstructure:"directories_enabled"`
}

// FallbackConfig tunes the "insufficient data" predicate that gates the
// fallback chain. With the default all-missing trigger, the chain runs only
// when the crawl yielded neither a phone nor an email.
type FallbackConfig struct {
	TriggerOnAnyMissing bool `mapstructure:"trigger_on_any_missing"`
}

// ExtractConfig tunes value normalization.
type ExtractConfig struct {
	DefaultRegion string `mapstructure:"default_region"`
}

// DBConfig controls the Postgres record store. An empty DSN selects the
// in-memory store.
type DBConfig struct {
	DSN          string `mapstructure:"dsn"`
	RecordsTable string `mapstructure:"records_table"`
	MaxConns     int32  `mapstructure:"max_conns"`
}

// PubSubConfig holds metadata for progress notifications. An empty project
// selects the in-memory notifier.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CONTACTS")
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
	v.SetDefault("server.port", 8080)
	v.SetDefault("scraping.rate_limit_seconds", 2.0)
	v.SetDefault("scraping.concurrency", 5)
	v.SetDefault("scraping.max_retries", 3)
	v.SetDefault("scraping.timeout_seconds", 30)
	v.SetDefault("scraping.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	v.SetDefault("scraping.respect_robots_txt", true)
	v.SetDefault("crawler.max_pages_per_domain", 10)
	v.SetDefault("crawler.max_depth", 2)
	v.SetDefault("crawler.stop_when_sufficient", false)
	v.SetDefault("headless.enabled", false)
	v.SetDefault("headless.max_parallel", 1)
	v.SetDefault("headless.nav_timeout_seconds", 25)
	v.SetDefault("headless.min_html_bytes", 2048)
	v.SetDefault("sources.maps_enabled", true)
	v.SetDefault("sources.linkedin_enabled", true)
	v.SetDefault("sources.directories_enabled", true)
	v.SetDefault("fallback.trigger_on_any_missing", false)
	v.SetDefault("extract.default_region", "US")
	v.SetDefault("db.records_table", "contact_records")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Scraping.Concurrency <= 0 {
		return fmt.Errorf("scraping.concurrency must be > 0")
	}
	if c.Scraping.RateLimitSeconds < 0 {
		return fmt.Errorf("scraping.rate_limit_seconds must be >= 0")
	}
	if c.Scraping.TimeoutSeconds <= 0 {
		return fmt.Errorf("scraping.timeout_seconds must be > 0")
	}
	if c.Crawler.MaxPagesPerDomain <= 0 {
		return fmt.Errorf("crawler.max_pages_per_domain must be > 0")
	}
	if c.Crawler.MaxDepth < 0 {
		return fmt.Errorf("crawler.max_depth must be >= 0")
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when headless is enabled")
	}
	if c.Extract.DefaultRegion == "" {
		return fmt.Errorf("extract.default_region must be set")
	}
	return nil
}

// RateLimit returns the minimum delay between fetches to one domain.
func (c Config) RateLimit() time.Duration {
	return time.Duration(c.Scraping.RateLimitSeconds * float64(time.Second))
}

// FetchTimeout returns the per-request timeout.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Scraping.TimeoutSeconds) * time.Second
}
