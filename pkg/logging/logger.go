// Package logging provides structured logging configuration using zerolog,
// plus an HTTP request logger that redacts credentials from logged bodies.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel is a LOG_LEVEL value: debug, info, warn (or warning), error,
// or any other level name zerolog understands.
type LogLevel string

// Levels used by the gateway.
const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	Level LogLevel

	// Pretty switches from JSON lines to zerolog's console writer.
	Pretty bool

	// Output defaults to os.Stderr when nil.
	Output io.Writer
}

// DefaultConfig returns JSON logging at info level on stderr.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Output: os.Stderr,
	}
}

// ParseLevel converts a LogLevel to a zerolog level. An empty level means
// info.
func ParseLevel(level LogLevel) (zerolog.Level, error) {
	name := strings.ToLower(strings.TrimSpace(string(level)))
	switch name {
	case "":
		return zerolog.InfoLevel, nil
	case "warning":
		return zerolog.WarnLevel, nil
	}

	parsed, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
	return parsed, nil
}

// Setup configures the global zerolog logger and returns it. Unknown
// levels fall back to info; validate with ParseLevel first to reject them.
func Setup(cfg Config) zerolog.Logger {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}

// NewLogger returns a child of the global logger tagged with component
// (store, cache, http). Call it after Setup.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Cache hit/miss/bypass per request (key, status)
//   - Cached writes after a miss
//
// Info: Normal operation events
//   - Completed requests (see RequestLogger)
//   - Cache flushes triggered by mutations
//   - Store connected/ready/closed
//   - Server startup/shutdown
//
// Warn: Warning conditions that don't prevent operation
//   - Store reconnect attempts
//   - Response cache degraded
//
// Error: Error conditions requiring attention
//   - Store connection errors
//   - Cache lookup, write or flush failures (request served without cache);
//     debug while the store is already reported down
//   - Configuration errors
//
// Context Fields:
//   - component: store, cache, http
//   - operation: failed cache call (get, set, encode, flush)
//   - key: cache key (request target)
//   - method, url, status: request and response
//   - duration: request duration
//   - attempt, delay: reconnect progress
//   - addr: store address
