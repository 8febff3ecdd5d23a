// Package cache provides a response cache middleware backed by the Redis
// store connection manager.
//
// The middleware implements a deliberately simple global strategy:
//
// - GET responses with a 2xx status are cached (status + JSON body)
// - Cached responses are replayed without invoking downstream handlers
// - Every GET response that passes through carries X-Cache: HIT or MISS
// - POST, PUT, PATCH and DELETE flush the entire cache before the
// mutation reaches downstream handlers
// - Configured path prefixes (e.g. /api/auth) bypass the cache entirely
//
// # Basic Usage
//
//	// Create and connect the store
//	client, err := store.New(store.DefaultConfig(), logger)
//	if err != nil {
//		return err
//	}
//	if err := client.Connect(ctx); err != nil {
//		return err
//	}
//
//	// Wrap the API handler
//	mw, err := cache.New(client, cache.DefaultConfig(), logger)
//	if err != nil {
//		return err
//	}
//	handler := mw.Handler(api)
//
// # Keys
//
// The cache key is the request target exactly as received (path plus
// query string). Keys are never invalidated individually; the only
// invalidation is the flush on mutation, and entries also expire after the
// configured TTL enforced by Redis.
//
// # Failure Behavior
//
// Store errors never reach the caller. A failed lookup is served as a
// miss, a failed write is logged after the response has been sent, and a
// failed flush is logged before the mutation proceeds. With Redis fully
// unavailable the API behaves as if caching were disabled.
//
// # Limitations
//
// Any mutation flushes every cached key, including keys unrelated to the
// mutated resource. A GET that misses concurrently with a mutation may
// write its (now stale) response right after the flush; the entry then
// lives until the next mutation or its TTL.
//
// # Metrics
//
//   - projecthub_cache_requests_total{result} - hit, miss, bypass, passthrough
//   - projecthub_cache_writes_total{result} - stored, skipped, failed
//   - projecthub_cache_flushes_total{result} - ok, failed
//   - projecthub_cache_errors_total{operation} - cache operation errors
package cache
