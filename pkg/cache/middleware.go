package cache

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/projecthub-gateway/pkg/store"
)

const (
	// DefaultOperationTimeout bounds each lookup, write and flush.
	DefaultOperationTimeout = 2 * time.Second

	// DefaultMaxBodyBytes is the largest response body that is cached.
	DefaultMaxBodyBytes = 1 << 20
)

// DefaultBypassPrefixes lists the path prefixes never cached by default.
var DefaultBypassPrefixes = []string{"/api/auth"}

// Config holds the middleware configuration.
type Config struct {
	// BypassPrefixes are request path prefixes that skip caching entirely:
	// no lookup, no write, no flush.
	BypassPrefixes []string

	// TTL is the expiry applied to cached entries. Zero uses the store
	// default.
	TTL time.Duration

	// OperationTimeout bounds every store call made by the middleware.
	OperationTimeout time.Duration

	// MaxBodyBytes is the largest body that is cached. Larger responses are
	// served normally but not stored. Zero or less disables the limit.
	MaxBodyBytes int
}

// DefaultConfig returns the default middleware configuration.
func DefaultConfig() Config {
	return Config{
		BypassPrefixes:   append([]string(nil), DefaultBypassPrefixes...),
		OperationTimeout: DefaultOperationTimeout,
		MaxBodyBytes:     DefaultMaxBodyBytes,
	}
}

// Middleware caches GET responses and flushes the cache on mutations.
type Middleware struct {
	manager *Manager
	config  Config
	logger  zerolog.Logger

	pending sync.WaitGroup
}

// New creates the cache middleware on top of s. The gateway passes
// logging.NewLogger("cache").
func New(s Store, cfg Config, logger zerolog.Logger) (*Middleware, error) {
	if s == nil {
		return nil, fmt.Errorf("cache store is required")
	}
	if cfg.TTL < 0 {
		return nil, fmt.Errorf("cache ttl must not be negative (got %s)", cfg.TTL)
	}
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = DefaultOperationTimeout
	}

	return &Middleware{
		manager: NewManager(s, cfg.TTL),
		config:  cfg,
		logger:  logger,
	}, nil
}

// Handler wraps next with the response cache.
//
// Each request takes exactly one branch: bypass, read lookup, write
// invalidation or passthrough.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case m.bypassed(r):
			Requests.WithLabelValues("bypass").Inc()
			m.logger.Debug().Str("path", r.URL.Path).Msg("Cache bypass")
			next.ServeHTTP(w, r)
		case r.Method == http.MethodGet:
			m.serveRead(w, r, next)
		case isMutating(r.Method):
			m.invalidate(r)
			next.ServeHTTP(w, r)
		default:
			Requests.WithLabelValues("passthrough").Inc()
			next.ServeHTTP(w, r)
		}
	})
}

// Wait blocks until every pending cache write has finished or ctx is done.
func (m *Middleware) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Middleware) serveRead(w http.ResponseWriter, r *http.Request, next http.Handler) {
	key := Key(r)

	ctx, cancel := context.WithTimeout(r.Context(), m.config.OperationTimeout)
	entry, err := m.manager.Get(ctx, key)
	cancel()

	if err == nil {
		Requests.WithLabelValues("hit").Inc()
		m.logger.Debug().Str("key", key).Int("status", entry.StatusCode()).Msg("Cache hit")
		writeCached(w, entry)
		return
	}
	if !errors.Is(err, ErrCacheMiss) {
		m.logFailure(err, "get", key, "Cache lookup failed, serving from downstream")
	}

	Requests.WithLabelValues("miss").Inc()
	m.logger.Debug().Str("key", key).Msg("Cache miss")

	rec := newResponseRecorder(w, m.config.MaxBodyBytes)
	next.ServeHTTP(rec, r)
	rec.finish()

	m.save(key, rec)
}

// save writes a captured response in the background. The response has
// already been sent; failures are only logged.
func (m *Middleware) save(key string, rec *responseRecorder) {
	if !IsCacheable(rec.status) {
		Writes.WithLabelValues("skipped").Inc()
		m.logger.Debug().Str("key", key).Int("status", rec.status).Msg("Response not cacheable")
		return
	}
	if rec.overflow {
		Writes.WithLabelValues("skipped").Inc()
		m.logger.Debug().Str("key", key).Int("max_body_bytes", m.config.MaxBodyBytes).Msg("Response too large to cache")
		return
	}

	entry, err := NewCachedResponse(rec.status, rec.body.Bytes())
	if err != nil {
		Writes.WithLabelValues("failed").Inc()
		Errors.WithLabelValues("encode").Inc()
		m.logger.Error().Err(err).Str("operation", "encode").Str("key", key).Msg("Failed to cache response")
		return
	}

	m.pending.Add(1)
	go func() {
		defer m.pending.Done()
		defer func() {
			if p := recover(); p != nil {
				Writes.WithLabelValues("failed").Inc()
				m.logger.Error().Interface("panic", p).Str("key", key).Msg("Cache write panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), m.config.OperationTimeout)
		defer cancel()

		if err := m.manager.Set(ctx, key, entry); err != nil {
			Writes.WithLabelValues("failed").Inc()
			m.logFailure(err, "set", key, "Failed to cache response")
			return
		}
		Writes.WithLabelValues("stored").Inc()
		m.logger.Debug().Str("key", key).Int("status", entry.Status).Msg("Cached response")
	}()
}

// invalidate flushes the whole cache before a mutation reaches downstream
// handlers. Failures are logged and the request proceeds.
func (m *Middleware) invalidate(r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), m.config.OperationTimeout)
	defer cancel()

	if err := m.manager.Flush(ctx); err != nil {
		Flushes.WithLabelValues("failed").Inc()
		m.logger.Error().Err(err).
			Str("operation", "flush").
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Cache flush failed")
		return
	}
	Flushes.WithLabelValues("ok").Inc()
	m.logger.Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("Cache flushed")
}

// logFailure logs a failed store call. While the store is known to be down
// the store's own error event is the error-level record, so each request
// only logs at debug.
func (m *Middleware) logFailure(err error, operation, key, msg string) {
	event := m.logger.Error()
	if errors.Is(err, store.ErrUnavailable) || errors.Is(err, store.ErrClosed) {
		event = m.logger.Debug()
	}
	event.Err(err).Str("operation", operation).Str("key", key).Msg(msg)
}

func (m *Middleware) bypassed(r *http.Request) bool {
	for _, prefix := range m.config.BypassPrefixes {
		if prefix != "" && strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
