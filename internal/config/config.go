// Package config provides configuration management for the application.
// It handles loading, validation, and access to configuration values from
// YAML files and environment variables via viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values.
const (
	DefaultBaseURL       = "https://api.svt.se/nss-api/page/"
	DefaultPageLimit     = 50
	DefaultTimeout       = 30 * time.Second
	DefaultUserAgent     = "svt-crawler/1.0"
	DefaultStopThreshold = 50
	DefaultFlushEvery    = 25
	DefaultDataDir       = "data"
	DefaultStoreFile     = "records.json"
	DefaultFailedFile    = "failed.json"
	DefaultOutputDir     = "export"
	DefaultCorpusPrefix  = "svt"
)

// Config represents the application configuration.
type Config struct {
	// App holds application-level settings
	App AppConfig `mapstructure:"app"`
	// Logger holds logging settings
	Logger LoggerConfig `mapstructure:"logger"`
	// API holds SVT API client settings
	API APIConfig `mapstructure:"api"`
	// Crawler holds crawl loop settings
	Crawler CrawlerConfig `mapstructure:"crawler"`
	// Storage holds record store settings
	Storage StorageConfig `mapstructure:"storage"`
	// Convert holds corpus conversion settings
	Convert ConvertConfig `mapstructure:"convert"`
}

// AppConfig represents application-specific configuration settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level       string `mapstructure:"level"`
	Encoding    string `mapstructure:"encoding"`
	Development bool   `mapstructure:"development"`
}

// APIConfig holds SVT API client configuration.
type APIConfig struct {
	// BaseURL is the listing API base, with a trailing slash
	BaseURL string `mapstructure:"base_url"`
	// PageLimit is the number of listing items requested per page
	PageLimit int `mapstructure:"page_limit"`
	// Timeout bounds a single HTTP request
	Timeout time.Duration `mapstructure:"timeout"`
	// UserAgent is sent on every request
	UserAgent string `mapstructure:"user_agent"`
}

// RetryConfig holds bounded-retry settings for transient fetch failures.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	InitialWait time.Duration `mapstructure:"initial_wait"`
	MaxWait     time.Duration `mapstructure:"max_wait"`
}

// CrawlerConfig holds crawl loop configuration.
type CrawlerConfig struct {
	// TopicsFile optionally points to a YAML topic list; empty means the
	// built-in defaults
	TopicsFile string `mapstructure:"topics_file"`
	// StopThreshold is the number of consecutive already-stored articles
	// after which a topic crawl stops early
	StopThreshold int `mapstructure:"stop_threshold"`
	// FlushEvery is the number of new records between store flushes
	FlushEvery int `mapstructure:"flush_every"`
	// RequestDelay is an optional politeness delay between fetches
	RequestDelay time.Duration `mapstructure:"request_delay"`
	// Retry configures bounded retry of transient fetch failures
	Retry RetryConfig `mapstructure:"retry"`
}

// StorageConfig holds record store configuration.
type StorageConfig struct {
	DataDir    string `mapstructure:"data_dir"`
	StoreFile  string `mapstructure:"store_file"`
	FailedFile string `mapstructure:"failed_file"`
}

// ConvertConfig holds corpus conversion configuration.
type ConvertConfig struct {
	// OutputDir is the root directory for per-year corpus directories
	OutputDir string `mapstructure:"output_dir"`
	// CorpusPrefix prefixes corpus IDs, e.g. "svt" -> "svt-2015"
	CorpusPrefix string `mapstructure:"corpus_prefix"`
}

// StorePath returns the full path of the record store file.
func (s *StorageConfig) StorePath() string {
	return filepath.Join(s.DataDir, s.StoreFile)
}

// FailedPath returns the full path of the failed-ID list file.
func (s *StorageConfig) FailedPath() string {
	return filepath.Join(s.DataDir, s.FailedFile)
}

// Load builds a Config from the current viper state and validates it.
// Viper itself is initialized by the root command (defaults, config file,
// environment).
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for values the rest of the application
// relies on.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	case "":
		return errors.New("app: environment must be specified")
	default:
		return fmt.Errorf("app: invalid environment: %s", c.App.Environment)
	}

	if c.API.BaseURL == "" {
		return errors.New("api: base_url must be specified")
	}
	if _, err := url.Parse(c.API.BaseURL); err != nil {
		return fmt.Errorf("api: invalid base_url: %w", err)
	}
	if c.API.PageLimit <= 0 {
		return errors.New("api: page_limit must be positive")
	}
	if c.API.Timeout <= 0 {
		return errors.New("api: timeout must be positive")
	}

	if c.Crawler.StopThreshold <= 0 {
		return errors.New("crawler: stop_threshold must be positive")
	}
	if c.Crawler.FlushEvery <= 0 {
		return errors.New("crawler: flush_every must be positive")
	}
	if c.Crawler.Retry.MaxAttempts <= 0 {
		return errors.New("crawler: retry.max_attempts must be positive")
	}

	if c.Storage.DataDir == "" {
		return errors.New("storage: data_dir must be specified")
	}
	if c.Storage.StoreFile == "" {
		return errors.New("storage: store_file must be specified")
	}
	if c.Storage.FailedFile == "" {
		return errors.New("storage: failed_file must be specified")
	}

	if c.Convert.OutputDir == "" {
		return errors.New("convert: output_dir must be specified")
	}
	if c.Convert.CorpusPrefix == "" {
		return errors.New("convert: corpus_prefix must be specified")
	}

	return nil
}
