// Package config provides application configuration management using Viper.
// Configuration is loaded from YAML files and environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Provider   ProviderConfig   `mapstructure:"provider"`
	Validation ValidationConfig `mapstructure:"validation"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Migration  MigrationConfig  `mapstructure:"migration"`
	Logger     LoggerConfig     `mapstructure:"logger"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
	Redis      RedisConfig      `mapstructure:"redis"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name  string `mapstructure:"name"`
	Env   string `mapstructure:"env"` // development, staging, production
	Port  int    `mapstructure:"port"`
	Debug bool   `mapstructure:"debug"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Name         string        `mapstructure:"name"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	SSLMode      string        `mapstructure:"ssl_mode"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	MaxLifetime  time.Duration `mapstructure:"max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// ProviderConfig holds external photo provider settings.
type ProviderConfig struct {
	Places PlacesConfig `mapstructure:"places"`
}

// PlacesConfig holds the places photo API configuration.
// APIKey has no default: an empty key is an infrastructure error surfaced at
// migration start, not a per-photo failure.
type PlacesConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	MaxWidth int           `mapstructure:"max_width"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Retry    RetryConfig   `mapstructure:"retry"`
	CB       CBConfig      `mapstructure:"circuit_breaker"`
}

// RetryConfig holds retry settings.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	WaitTime    time.Duration `mapstructure:"wait_time"`
	MaxWaitTime time.Duration `mapstructure:"max_wait_time"`
}

// CBConfig holds circuit breaker settings.
type CBConfig struct {
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
}

// ValidationConfig holds photo URL validation settings.
type ValidationConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxConcurrency int64         `mapstructure:"max_concurrency"`
}

// StorageConfig holds durable object storage settings.
type StorageConfig struct {
	// PublicBaseURL prefixes stored object keys to form stable photo URLs,
	// e.g. https://api.example.com/photos
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// CacheConfig holds two-tier cache settings. Both TTLs are deployment
// tunables, not business constants.
type CacheConfig struct {
	MemoryTTL     time.Duration `mapstructure:"memory_ttl"`
	MemoryCleanup time.Duration `mapstructure:"memory_cleanup"`
	PersistedTTL  time.Duration `mapstructure:"persisted_ttl"`
	KeyPrefix     string        `mapstructure:"key_prefix"`
}

// MigrationConfig holds photo migration job settings.
type MigrationConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	OnStartup     bool          `mapstructure:"on_startup"`
	Timeout       time.Duration `mapstructure:"timeout"`
	BatchSize     int           `mapstructure:"batch_size"`
	EntityDelay   time.Duration `mapstructure:"entity_delay"`
	DownloadDelay time.Duration `mapstructure:"download_delay"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr, file path
}

// SentryConfig holds Sentry error tracking settings.
type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// RedisConfig holds Redis connection settings for the persisted cache tier
// and distributed locking.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Load reads configuration from file and environment variables.
// Priority: env vars > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Config file not found, continue with defaults + env vars
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "photo-ingest-service")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.debug", true)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "photo_ingest")
	v.SetDefault("database.user", "app")
	v.SetDefault("database.password", "secret")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_lifetime", "5m")

	// Places photo provider defaults
	v.SetDefault("provider.places.base_url", "http://localhost:8081")
	v.SetDefault("provider.places.api_key", "")
	v.SetDefault("provider.places.max_width", 1600)
	v.SetDefault("provider.places.timeout", "15s")
	v.SetDefault("provider.places.retry.max_attempts", 2)
	v.SetDefault("provider.places.retry.wait_time", "1s")
	v.SetDefault("provider.places.retry.max_wait_time", "5s")
	v.SetDefault("provider.places.circuit_breaker.max_requests", 3)
	v.SetDefault("provider.places.circuit_breaker.interval", "60s")
	v.SetDefault("provider.places.circuit_breaker.timeout", "30s")
	v.SetDefault("provider.places.circuit_breaker.failure_ratio", 0.5)

	// Validation defaults
	v.SetDefault("validation.timeout", "5s")
	v.SetDefault("validation.max_concurrency", 3)

	// Storage defaults
	v.SetDefault("storage.public_base_url", "http://localhost:8080/photos")

	// Cache defaults: seconds for burst dedup, hours for re-fetch avoidance
	v.SetDefault("cache.memory_ttl", "30s")
	v.SetDefault("cache.memory_cleanup", "1m")
	v.SetDefault("cache.persisted_ttl", "48h")
	v.SetDefault("cache.key_prefix", "photo-ingest")

	// Migration job defaults
	v.SetDefault("migration.interval", "10m")
	v.SetDefault("migration.on_startup", false)
	v.SetDefault("migration.timeout", "5m")
	v.SetDefault("migration.batch_size", 10)
	v.SetDefault("migration.entity_delay", "500ms")
	v.SetDefault("migration.download_delay", "200ms")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stdout")

	// Sentry defaults
	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
	v.SetDefault("sentry.sample_rate", 1.0)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
}
