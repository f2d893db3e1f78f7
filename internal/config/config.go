// Package config loads dashboard client configuration from file and
// environment using viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the dashboard client.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Search    SearchConfig    `mapstructure:"search"`
	Documents DocumentsConfig `mapstructure:"documents"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// APIConfig contains dashboard API connection settings.
type APIConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	AuthCookie     string        `mapstructure:"auth_cookie"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
}

func (a APIConfig) Validate() error {
	if strings.TrimSpace(a.BaseURL) == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if a.MaxRetries < 0 {
		return fmt.Errorf("api.max_retries cannot be negative")
	}
	return nil
}

// RedisConfig contains Redis connection settings. An empty address
// disables response caching.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig contains response cache settings.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

func (c CacheConfig) Validate() error {
	if c.Enabled && c.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be > 0 when cache is enabled")
	}
	return nil
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// BatchConfig bounds batch operations (email dispatch, bulk downloads).
type BatchConfig struct {
	MailConcurrency     int `mapstructure:"mail_concurrency"`
	DownloadConcurrency int `mapstructure:"download_concurrency"`
}

func (b BatchConfig) Validate() error {
	if b.MailConcurrency < 0 {
		return fmt.Errorf("batch.mail_concurrency cannot be negative")
	}
	if b.DownloadConcurrency < 0 {
		return fmt.Errorf("batch.download_concurrency cannot be negative")
	}
	return nil
}

// SearchConfig contains loan search settings.
type SearchConfig struct {
	PageSize      int           `mapstructure:"page_size"`
	DebounceDelay time.Duration `mapstructure:"debounce_delay"`
}

func (s SearchConfig) Validate() error {
	if s.PageSize <= 0 {
		return fmt.Errorf("search.page_size must be > 0")
	}
	return nil
}

// DocumentsConfig contains document download settings.
type DocumentsConfig struct {
	DownloadDir string `mapstructure:"download_dir"`
}

// TelemetryConfig contains telemetry settings.
type TelemetryConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	MetricsPort int  `mapstructure:"metrics_port"`
}

func (t TelemetryConfig) Validate() error {
	if t.Enabled && t.MetricsPort <= 0 {
		return fmt.Errorf("telemetry.metrics_port must be > 0 when telemetry is enabled")
	}
	return nil
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if err := c.API.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Batch.Validate(); err != nil {
		return err
	}
	if err := c.Search.Validate(); err != nil {
		return err
	}
	return c.Telemetry.Validate()
}

// setDefaults registers defaults on a viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.max_retries", 3)
	v.SetDefault("api.initial_backoff", time.Second)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.pretty", false)
	v.SetDefault("batch.mail_concurrency", 1)
	v.SetDefault("batch.download_concurrency", 1)
	v.SetDefault("search.page_size", 10)
	v.SetDefault("search.debounce_delay", 500*time.Millisecond)
	v.SetDefault("documents.download_dir", "./downloads")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.metrics_port", 9090)
}

// Load reads configuration from the given file path, falling back to a
// config.yaml in the working directory. Environment variables with the
// DASHBOARD_ prefix override file values (DASHBOARD_API_BASE_URL, ...).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("DASHBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine when no explicit path was given;
		// defaults and environment variables still apply.
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Validation is the caller's job: command-line flags may still
	// override loaded values before the config is used.
	return &cfg, nil
}
