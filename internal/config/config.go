// Package config loads and validates scraper configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/site-metascraper/internal/scraper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Robots    RobotsConfig    `mapstructure:"robots"`
	Headless  HeadlessConfig  `mapstructure:"headless"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	History   HistoryConfig   `mapstructure:"history"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Events    EventsConfig    `mapstructure:"events"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                   int `mapstructure:"port"`
	RequestTimeoutSeconds  int `mapstructure:"request_timeout_seconds"`
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds"`
}

// ScraperConfig governs the fetch and classification pipeline.
type ScraperConfig struct {
	UserAgent         string            `mapstructure:"user_agent"`
	TimeoutSeconds    int               `mapstructure:"timeout_seconds"`
	MaxBodyBytes      int               `mapstructure:"max_body_bytes"`
	AllowDomains      []string          `mapstructure:"allow_domains"`
	DenyDomains       []string          `mapstructure:"deny_domains"`
	IndustryOverrides map[string]string `mapstructure:"industry_overrides"`
	BatchLimit        int               `mapstructure:"batch_limit"`
	MaxImages         int               `mapstructure:"max_images"`
	MaxBatchURLs      int               `mapstructure:"max_batch_urls"`
}

// RobotsConfig configures the robots.txt fetch.
type RobotsConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// HeadlessConfig configures the headless rendering subsystem.
type HeadlessConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	MaxParallel     int    `mapstructure:"max_parallel"`
	NavTimeoutSec   int    `mapstructure:"nav_timeout_seconds"`
	PromotionThresh int    `mapstructure:"promotion_threshold"`
	ExecPath        string `mapstructure:"exec_path"`
}

// LoggingConfig toggles zap development features and the rotating file sink.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
	MaxSizeMB   int    `mapstructure:"max_size_mb"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAgeDays  int    `mapstructure:"max_age_days"`
}

// HistoryConfig selects where scrape records are kept.
type HistoryConfig struct {
	Provider string         `mapstructure:"provider"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig controls access to the relational database.
type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int    `mapstructure:"max_conns"`
}

// ArchiveConfig sets where HTML snapshots are written.
type ArchiveConfig struct {
	Provider    string `mapstructure:"provider"`
	Bucket      string `mapstructure:"bucket"`
	BaseDir     string `mapstructure:"base_dir"`
	Prefix      string `mapstructure:"prefix"`
	ContentType string `mapstructure:"content_type"`
}

// EventsConfig holds metadata for completion notifications.
type EventsConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// TelemetryConfig configures OpenTelemetry tracing. Spans are exported to
// Cloud Trace only when ProjectID is set.
type TelemetryConfig struct {
	ServiceName string  `mapstructure:"service_name"`
	ProjectID   string  `mapstructure:"project_id"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// Provider names accepted by the history, archive and events sections.
const (
	ProviderNone     = "none"
	ProviderMemory   = "memory"
	ProviderPostgres = "postgres"
	ProviderLocal    = "local"
	ProviderGCS      = "gcs"
	ProviderPubSub   = "pubsub"
)

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
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_seconds", 60)
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("scraper.user_agent", "site-metascraper/0.1")
	v.SetDefault("scraper.timeout_seconds", 15)
	v.SetDefault("scraper.max_body_bytes", 5<<20)
	v.SetDefault("scraper.allow_domains", []string{})
	v.SetDefault("scraper.deny_domains", scraper.DefaultDeniedDomains)
	v.SetDefault("scraper.batch_limit", 4)
	v.SetDefault("scraper.max_images", 50)
	v.SetDefault("scraper.max_batch_urls", 25)
	v.SetDefault("robots.timeout_seconds", 10)
	v.SetDefault("headless.enabled", false)
	v.SetDefault("headless.max_parallel", 1)
	v.SetDefault("headless.nav_timeout_seconds", 25)
	v.SetDefault("headless.promotion_threshold", 2048)
	v.SetDefault("headless.exec_path", "")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
	v.SetDefault("history.provider", ProviderMemory)
	v.SetDefault("history.postgres.dsn", "")
	v.SetDefault("history.postgres.table", "scrape_results")
	v.SetDefault("history.postgres.max_conns", 4)
	v.SetDefault("archive.provider", ProviderNone)
	v.SetDefault("archive.bucket", "")
	v.SetDefault("archive.base_dir", "snapshots")
	v.SetDefault("archive.prefix", "pages")
	v.SetDefault("archive.content_type", "text/html; charset=utf-8")
	v.SetDefault("events.provider", ProviderNone)
	v.SetDefault("events.project_id", "")
	v.SetDefault("events.topic", "scrape-completed")
	v.SetDefault("telemetry.service_name", "site-metascraper")
	v.SetDefault("telemetry.project_id", "")
	v.SetDefault("telemetry.sample_ratio", 1.0)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Scraper.TimeoutSeconds <= 0 {
		return fmt.Errorf("scraper.timeout_seconds must be > 0")
	}
	if c.Scraper.BatchLimit <= 0 {
		return fmt.Errorf("scraper.batch_limit must be > 0")
	}
	if c.Robots.TimeoutSeconds <= 0 {
		return fmt.Errorf("robots.timeout_seconds must be > 0")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry.sample_ratio must be within [0, 1]")
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when headless is enabled")
	}
	switch c.History.Provider {
	case ProviderMemory:
	case ProviderPostgres:
		if c.History.Postgres.DSN == "" {
			return fmt.Errorf("history.postgres.dsn must be set when history.provider is postgres")
		}
	default:
		return fmt.Errorf("history.provider %q is not supported", c.History.Provider)
	}
	switch c.Archive.Provider {
	case ProviderNone, ProviderMemory, ProviderLocal:
	case ProviderGCS:
		if c.Archive.Bucket == "" {
			return fmt.Errorf("archive.bucket must be set when archive.provider is gcs")
		}
	default:
		return fmt.Errorf("archive.provider %q is not supported", c.Archive.Provider)
	}
	switch c.Events.Provider {
	case ProviderNone, ProviderMemory:
	case ProviderPubSub:
		if c.Events.ProjectID == "" || c.Events.Topic == "" {
			return fmt.Errorf("events.project_id and events.topic must be set when events.provider is pubsub")
		}
	default:
		return fmt.Errorf("events.provider %q is not supported", c.Events.Provider)
	}
	return nil
}

// FetchTimeout converts the page fetch timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Scraper.TimeoutSeconds) * time.Second
}

// RobotsTimeout converts the robots fetch timeout into a duration.
func (c Config) RobotsTimeout() time.Duration {
	return time.Duration(c.Robots.TimeoutSeconds) * time.Second
}
