package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/projecthub-gateway/pkg/store"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache.
	ErrCacheMiss = store.ErrCacheMiss

	// ErrInvalidEntry indicates the stored value could not be decoded.
	ErrInvalidEntry = errors.New("invalid cache entry")

	// ErrNotJSON indicates a response body that cannot be stored as JSON.
	ErrNotJSON = errors.New("response body is not valid JSON")
)

//go:generate mockgen -source=manager.go -destination=mock/mock_store.go -package=mock_cache

// Store is the subset of the store connection manager the cache uses.
// *store.Client satisfies it.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushAll(ctx context.Context) error
}

var _ Store = (*store.Client)(nil)

// Manager encodes and decodes cached responses on top of a Store.
type Manager struct {
	store Store
	ttl   time.Duration
}

// NewManager creates a cache manager. A ttl of zero defers to the store's
// default expiry.
func NewManager(s Store, ttl time.Duration) *Manager {
	if s == nil {
		panic("cache store cannot be nil")
	}
	return &Manager{
		store: s,
		ttl:   ttl,
	}
}

// Get retrieves the cached response for key.
// Returns ErrCacheMiss if the key doesn't exist or has expired, and
// ErrInvalidEntry if the stored value cannot be decoded.
func (m *Manager) Get(ctx context.Context, key string) (*CachedResponse, error) {
	data, err := m.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, ErrCacheMiss
		}
		Errors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("store get: %w", err)
	}

	entry, err := decodeEntry(data)
	if err != nil {
		Errors.WithLabelValues("decode").Inc()
		return nil, err
	}
	return entry, nil
}

// Set stores a cached response under key, overwriting any previous entry.
func (m *Manager) Set(ctx context.Context, key string, entry *CachedResponse) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	data, err := encodeEntry(entry)
	if err != nil {
		Errors.WithLabelValues("encode").Inc()
		return err
	}

	if err := m.store.Set(ctx, key, data, m.ttl); err != nil {
		Errors.WithLabelValues("set").Inc()
		return fmt.Errorf("store set: %w", err)
	}
	return nil
}

// Flush removes every cached response.
func (m *Manager) Flush(ctx context.Context) error {
	if err := m.store.FlushAll(ctx); err != nil {
		Errors.WithLabelValues("flush").Inc()
		return fmt.Errorf("store flush: %w", err)
	}
	return nil
}
