// Package cache provides a Redis-backed cache for dashboard API GET
// responses.
//
// The dashboard API sends no cache-control headers, so entries carry a fixed
// TTL chosen by the client configuration. Collection views (loan listings,
// document views, client pages) are the cached surface; mutations that
// change a view invalidate every cached entry under that view's endpoint
// prefix so the mandatory post-operation re-fetches observe fresh data.
//
// # Basic Usage
//
//	// Create Redis client
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	// Create cache manager
//	manager := cache.NewManager(redisClient)
//
//	// Create cache key
//	key := cache.Key{
//		Endpoint: "/api/dash/pdfs/all-documents",
//		Query:    url.Values{"loanId": []string{"l-1"}},
//	}
//
//	// Get from cache
//	entry, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// Cache miss - fetch from the API
//	}
//
// # Invalidation
//
//	// After generating documents, drop every cached document view
//	_ = manager.InvalidatePrefix(ctx, "/api/dash/pdfs")
//
// # Metrics
//
// The cache manager exports Prometheus metrics:
//
//   - dashboard_cache_hits_total{layer="redis"} - Cache hits
//   - dashboard_cache_misses_total - Cache misses
//   - dashboard_cache_invalidations_total - Entries dropped by invalidation
//   - dashboard_cache_errors_total{operation} - Cache operation errors
package cache
