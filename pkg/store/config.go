package store

import (
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds the Redis connection settings.
type Config struct {
	// URL is a redis:// or rediss:// connection URL. When set it takes
	// precedence over Host, Port, Username, Password, DB and TLS.
	URL string

	Host     string
	Port     int
	Username string
	Password string
	DB       int

	// TLS enables TLS for host/port connections. rediss:// URLs enable
	// it on their own.
	TLS bool

	// DefaultTTL is applied by Set when no TTL is given.
	DefaultTTL time.Duration

	// Timeouts bound every operation; a timed out operation is reported
	// like any other store error.
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// RetryStep and RetryCap shape the reconnect backoff:
	// delay = min(attempt × RetryStep, RetryCap).
	RetryStep time.Duration
	RetryCap  time.Duration

	// HealthCheckInterval is how often a ready connection is pinged.
	HealthCheckInterval time.Duration
}

// DefaultConfig returns a configuration for a local Redis.
func DefaultConfig() Config {
	return Config{
		Host:                "localhost",
		Port:                6379,
		DefaultTTL:          300 * time.Second,
		DialTimeout:         2 * time.Second,
		ReadTimeout:         1 * time.Second,
		WriteTimeout:        1 * time.Second,
		RetryStep:           50 * time.Millisecond,
		RetryCap:            2 * time.Second,
		HealthCheckInterval: 5 * time.Second,
	}
}

// Addr returns the host:port the client connects to, for logging.
func (c Config) Addr() string {
	if c.URL != "" {
		if opts, err := redis.ParseURL(c.URL); err == nil {
			return opts.Addr
		}
		return "invalid-url"
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate checks that the configuration can produce redis options.
func (c Config) Validate() error {
	if c.URL == "" && c.Host == "" {
		return fmt.Errorf("redis host or url is required")
	}
	if c.URL == "" && (c.Port <= 0 || c.Port > 65535) {
		return fmt.Errorf("redis port must be in 1..65535 (got %d)", c.Port)
	}
	if c.DefaultTTL <= 0 {
		return fmt.Errorf("default ttl must be positive (got %s)", c.DefaultTTL)
	}
	if c.RetryStep <= 0 || c.RetryCap < c.RetryStep {
		return fmt.Errorf("retry step must be positive and not exceed retry cap (step %s, cap %s)", c.RetryStep, c.RetryCap)
	}
	if c.URL != "" {
		if _, err := redis.ParseURL(c.URL); err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
	}
	return nil
}

// Options builds go-redis client options from the configuration.
func (c Config) Options() (*redis.Options, error) {
	var opts *redis.Options
	if c.URL != "" {
		parsed, err := redis.ParseURL(c.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     c.Addr(),
			Username: c.Username,
			Password: c.Password,
			DB:       c.DB,
		}
		if c.TLS {
			opts.TLSConfig = &tls.Config{
				MinVersion: tls.VersionTLS12,
				ServerName: c.Host,
			}
		}
	}

	opts.DialTimeout = c.DialTimeout
	opts.ReadTimeout = c.ReadTimeout
	opts.WriteTimeout = c.WriteTimeout

	// Reconnects are driven by the supervisor; a failed command surfaces
	// immediately and the request falls back to a cache miss.
	opts.MaxRetries = -1

	return opts, nil
}
