// Package config loads the gateway configuration from environment variables.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/Sternrassler/projecthub-gateway/pkg/cache"
	"github.com/Sternrassler/projecthub-gateway/pkg/logging"
	"github.com/Sternrassler/projecthub-gateway/pkg/store"
)

// StartupPolicy decides what happens when the store cannot be reached at
// startup.
type StartupPolicy string

const (
	// StartupFatal aborts the process.
	StartupFatal StartupPolicy = "fatal"

	// StartupDegrade serves without a cache while the store keeps
	// reconnecting in the background.
	StartupDegrade StartupPolicy = "degrade"
)

// Config is the complete gateway configuration.
type Config struct {
	Port            int           `env:"PORT"                 envDefault:"8080"`
	UpstreamURL     string        `env:"UPSTREAM_URL"         envDefault:"http://localhost:3000"`
	LogLevel        string        `env:"LOG_LEVEL"            envDefault:"info"`
	LogPretty       bool          `env:"LOG_PRETTY"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"     envDefault:"10s"`
	StartupPolicy   StartupPolicy `env:"STORE_STARTUP_POLICY" envDefault:"fatal"`

	Redis Redis `envPrefix:"REDIS_"`
	Cache Cache `envPrefix:"CACHE_"`
}

// Redis holds the store connection settings.
type Redis struct {
	URL                 string        `env:"URL"`
	Host                string        `env:"HOST"                  envDefault:"localhost"`
	Port                int           `env:"PORT"                  envDefault:"6379"`
	Username            string        `env:"USERNAME"`
	Password            string        `env:"PASSWORD"`
	DB                  int           `env:"DB"                    envDefault:"0"`
	TLS                 bool          `env:"TLS"`
	TTLSeconds          int           `env:"TTL"                   envDefault:"300"`
	DialTimeout         time.Duration `env:"DIAL_TIMEOUT"          envDefault:"2s"`
	ReadTimeout         time.Duration `env:"READ_TIMEOUT"          envDefault:"1s"`
	WriteTimeout        time.Duration `env:"WRITE_TIMEOUT"         envDefault:"1s"`
	RetryStep           time.Duration `env:"RETRY_STEP"            envDefault:"50ms"`
	RetryCap            time.Duration `env:"RETRY_CAP"             envDefault:"2s"`
	HealthCheckInterval time.Duration `env:"HEALTH_CHECK_INTERVAL" envDefault:"5s"`
}

// Cache holds the response cache settings.
type Cache struct {
	BypassPrefixes   []string      `env:"BYPASS_PREFIXES"   envDefault:"/api/auth" envSeparator:","`
	OperationTimeout time.Duration `env:"OPERATION_TIMEOUT" envDefault:"2s"`
	MaxBodyBytes     int           `env:"MAX_BODY_BYTES"    envDefault:"1048576"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the gateway cannot run with.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}

	u, err := url.Parse(c.UpstreamURL)
	if err != nil {
		return fmt.Errorf("invalid UPSTREAM_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("invalid UPSTREAM_URL %q: need http(s)://host", c.UpstreamURL)
	}

	if _, err := logging.ParseLevel(logging.LogLevel(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	switch c.StartupPolicy {
	case StartupFatal, StartupDegrade:
	default:
		return fmt.Errorf("invalid STORE_STARTUP_POLICY %q (want %q or %q)", c.StartupPolicy, StartupFatal, StartupDegrade)
	}

	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Cache.OperationTimeout <= 0 {
		return fmt.Errorf("CACHE_OPERATION_TIMEOUT must be positive")
	}

	if err := c.StoreConfig().Validate(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}

// LoggingConfig converts LOG_LEVEL and LOG_PRETTY for logging.Setup.
func (c Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.LogLevel)
	cfg.Pretty = c.LogPretty
	return cfg
}

// StoreConfig converts the Redis settings for the store connection manager.
func (c Config) StoreConfig() store.Config {
	return store.Config{
		URL:                 c.Redis.URL,
		Host:                c.Redis.Host,
		Port:                c.Redis.Port,
		Username:            c.Redis.Username,
		Password:            c.Redis.Password,
		DB:                  c.Redis.DB,
		TLS:                 c.Redis.TLS,
		DefaultTTL:          time.Duration(c.Redis.TTLSeconds) * time.Second,
		DialTimeout:         c.Redis.DialTimeout,
		ReadTimeout:         c.Redis.ReadTimeout,
		WriteTimeout:        c.Redis.WriteTimeout,
		RetryStep:           c.Redis.RetryStep,
		RetryCap:            c.Redis.RetryCap,
		HealthCheckInterval: c.Redis.HealthCheckInterval,
	}
}

// CacheConfig converts the cache settings for the middleware. Entries use
// the REDIS_TTL expiry.
func (c Config) CacheConfig() cache.Config {
	prefixes := make([]string, 0, len(c.Cache.BypassPrefixes))
	for _, p := range c.Cache.BypassPrefixes {
		if p = strings.TrimSpace(p); p != "" {
			prefixes = append(prefixes, p)
		}
	}

	return cache.Config{
		BypassPrefixes:   prefixes,
		TTL:              time.Duration(c.Redis.TTLSeconds) * time.Second,
		OperationTimeout: c.Cache.OperationTimeout,
		MaxBodyBytes:     c.Cache.MaxBodyBytes,
	}
}
