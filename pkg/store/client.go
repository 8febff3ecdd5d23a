// Package store manages the single long-lived Redis connection used by the
// response cache.
//
// The Client owns one go-redis pool for the whole process. It is created
// once at startup, handed to the cache middleware and to the shutdown
// sequence, and never recreated per request.
//
// Lifecycle:
//
//	disconnected -> connecting -> ready -> (error | disconnected)
//
// A supervisor goroutine pings the store while it is ready. When a ping or
// an operation fails at the connection level the client moves to error and
// reconnects forever with a capped linear backoff
// (min(attempt × RetryStep, RetryCap)). Every transition and every attempt
// is logged and delivered to the hooks registered with WithStateHook.
//
// While the connection is not ready every operation fails fast with
// ErrUnavailable so callers can degrade to a cache miss without waiting on
// network timeouts.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const defaultPingTimeout = 3 * time.Second

// Client is the store connection manager.
type Client struct {
	redis  *redis.Client
	config Config
	logger zerolog.Logger
	hooks  []Hook

	state  atomic.Int32
	closed atomic.Bool

	connectOnce sync.Once
	connectErr  error

	mu      sync.Mutex
	started bool
	stop    chan struct{}
	done    chan struct{}
	kick    chan struct{}
}

// Option configures a Client.
type Option func(*Client)

// WithStateHook registers a hook that observes every connection event, in
// addition to the client's own event log.
func WithStateHook(hook Hook) Option {
	return func(c *Client) {
		if hook != nil {
			c.hooks = append(c.hooks, hook)
		}
	}
}

// New creates a store client. It does not dial; call Connect. The
// gateway passes logging.NewLogger("store").
func New(cfg Config, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store config: %w", err)
	}
	if cfg.HealthCheckInterval <= 0 {
		cfg.HealthCheckInterval = DefaultConfig().HealthCheckInterval
	}

	redisOpts, err := cfg.Options()
	if err != nil {
		return nil, err
	}

	c := &Client{
		redis:  redis.NewClient(redisOpts),
		config: cfg,
		logger: logger.With().Str("addr", cfg.Addr()).Logger(),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		kick:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}

	ConnectionState.Set(float64(StateDisconnected))
	return c, nil
}

// Connect dials the store and verifies it with a ping. It is safe to call
// more than once; later calls return the result of the first.
//
// On failure the error wraps ErrConnect and the supervisor keeps retrying
// in the background, so the caller decides whether a failed connect is
// fatal or the process continues with caching degraded.
func (c *Client) Connect(ctx context.Context) error {
	c.connectOnce.Do(func() {
		if c.closed.Load() {
			c.connectErr = ErrClosed
			return
		}

		c.transition(Event{State: StateConnecting})
		if err := c.redis.Ping(ctx).Err(); err != nil {
			OperationErrors.WithLabelValues("connect").Inc()
			c.transition(Event{State: StateError, Err: err})
			c.connectErr = fmt.Errorf("%w: %s: %v", ErrConnect, c.config.Addr(), err)
		} else if !c.closed.Load() {
			c.transition(Event{State: StateReady})
		}

		c.mu.Lock()
		if !c.closed.Load() {
			c.started = true
			go c.supervise()
		}
		c.mu.Unlock()
	})
	return c.connectErr
}

// Get returns the value stored under key, or ErrCacheMiss when the key is
// absent or expired.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if err := c.available(); err != nil {
		return nil, err
	}

	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		c.fail("get", err)
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

// Set stores value under key, overwriting any previous value. A ttl of
// zero or less applies Config.DefaultTTL.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.available(); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = c.config.DefaultTTL
	}

	if err := c.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		c.fail("set", err)
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// FlushAll removes every key in the configured database. It is not
// selective: entries unrelated to the caller are removed too.
func (c *Client) FlushAll(ctx context.Context) error {
	if err := c.available(); err != nil {
		return err
	}

	if err := c.redis.FlushDB(ctx).Err(); err != nil {
		c.fail("flush", err)
		return fmt.Errorf("redis flushdb: %w", err)
	}
	return nil
}

// Ping checks the store regardless of the tracked state.
func (c *Client) Ping(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := c.redis.Ping(ctx).Err(); err != nil {
		c.fail("ping", err)
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// State returns the current connection state.
func (c *Client) State() State {
	return State(c.state.Load())
}

// Disconnect stops the supervisor and closes the connection pool. It is
// safe to call when Connect never succeeded and safe to call twice.
func (c *Client) Disconnect(ctx context.Context) error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.stop)

	c.mu.Lock()
	started := c.started
	c.mu.Unlock()

	if started {
		select {
		case <-c.done:
		case <-ctx.Done():
			c.logger.Warn().Err(ctx.Err()).Msg("Store supervisor did not stop before deadline")
		}
	}

	err := c.redis.Close()
	c.transition(Event{State: StateDisconnected})
	if err != nil {
		OperationErrors.WithLabelValues("disconnect").Inc()
		c.logger.Error().Err(err).Str("operation", "disconnect").Msg("Error disconnecting store")
		return fmt.Errorf("redis close: %w", err)
	}
	return nil
}

func (c *Client) available() error {
	if c.closed.Load() {
		return ErrClosed
	}
	if c.State() != StateReady {
		return ErrUnavailable
	}
	return nil
}

// fail records an operation error and, when the connection itself looks
// broken, hands the client to the supervisor for reconnection.
func (c *Client) fail(operation string, err error) {
	OperationErrors.WithLabelValues(operation).Inc()
	if !isConnectionError(err) {
		return
	}
	c.markDown(err)
	select {
	case c.kick <- struct{}{}:
	default:
	}
}

func (c *Client) markDown(err error) {
	if c.state.CompareAndSwap(int32(StateReady), int32(StateError)) {
		ConnectionState.Set(float64(StateError))
		c.emit(Event{State: StateError, Err: err})
	}
}

func (c *Client) supervise() {
	defer close(c.done)

	ticker := time.NewTicker(c.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		if c.State() != StateReady {
			if !c.reconnect() {
				return
			}
			continue
		}

		select {
		case <-c.stop:
			return
		case <-c.kick:
		case <-ticker.C:
			if err := c.ping(); err != nil {
				OperationErrors.WithLabelValues("ping").Inc()
				c.markDown(err)
			}
		}
	}
}

// reconnect retries until a ping succeeds or the client is stopped.
// It returns false when stopped.
func (c *Client) reconnect() bool {
	for attempt := 1; ; attempt++ {
		delay := backoffDelay(attempt, c.config.RetryStep, c.config.RetryCap)

		timer := time.NewTimer(delay)
		select {
		case <-c.stop:
			timer.Stop()
			return false
		case <-timer.C:
		}

		ReconnectAttempts.Inc()
		c.transition(Event{State: StateConnecting, Attempt: attempt, Delay: delay})

		if err := c.ping(); err != nil {
			c.transition(Event{State: StateError, Attempt: attempt, Err: err})
			continue
		}
		if c.closed.Load() {
			return false
		}
		c.transition(Event{State: StateReady, Attempt: attempt})
		return true
	}
}

func (c *Client) ping() error {
	timeout := c.config.DialTimeout + c.config.ReadTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func (c *Client) transition(ev Event) {
	prev := State(c.state.Swap(int32(ev.State)))
	ConnectionState.Set(float64(ev.State))
	if prev == ev.State && ev.Attempt == 0 {
		return
	}
	c.emit(ev)
}

func (c *Client) emit(ev Event) {
	c.logEvent(ev)
	for _, hook := range c.hooks {
		hook(ev)
	}
}

func (c *Client) logEvent(ev Event) {
	switch ev.State {
	case StateConnecting:
		if ev.Attempt > 0 {
			c.logger.Info().
				Int("attempt", ev.Attempt).
				Dur("delay", ev.Delay).
				Msg("Store reconnecting")
			return
		}
		c.logger.Debug().Msg("Store connecting")
	case StateReady:
		c.logger.Info().Int("attempt", ev.Attempt).Msg("Store connection ready")
	case StateError:
		c.logger.Error().
			Err(ev.Err).
			Int("attempt", ev.Attempt).
			Msg("Store connection error")
	case StateDisconnected:
		c.logger.Info().Msg("Store connection closed")
	}
}
