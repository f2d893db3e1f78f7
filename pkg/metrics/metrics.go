// Package metrics provides the centralized Prometheus metrics registry for
// the dashboard client. All metrics are defined in their respective packages
// (api, cache, batch) to maintain modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the dashboard client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/api):
//   - dashboard_api_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - dashboard_api_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - dashboard_api_errors_total{class} (Counter): Errors by class (client, server, network)
//
// Retry Metrics (pkg/api):
//   - dashboard_api_retries_total{error_class} (Counter): Retry attempts by error class
//   - dashboard_api_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - dashboard_api_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Cache Metrics (pkg/cache):
//   - dashboard_cache_hits_total{layer="redis"} (Counter): Cache hits by layer
//   - dashboard_cache_misses_total (Counter): Cache misses
//   - dashboard_cache_size_bytes{layer="redis"} (Gauge): Current cache size in bytes
//   - dashboard_cache_invalidations_total (Counter): Prefix invalidations after write operations
//   - dashboard_cache_errors_total{operation} (Counter): Cache operation errors
//
// Batch Metrics (pkg/batch):
//   - dashboard_batch_units_total{operation, outcome} (Counter): Batch units by operation and outcome
//   - dashboard_batch_duration_seconds{operation} (Histogram): Whole-batch duration by operation
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(dashboard_cache_hits_total[5m])) /
//   (sum(rate(dashboard_cache_hits_total[5m])) + sum(rate(dashboard_cache_misses_total[5m])))
//
//   # Request Error Rate
//   rate(dashboard_api_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(dashboard_api_request_duration_seconds_bucket[5m]))
//
//   # Batch Failure Ratio
//   sum(rate(dashboard_batch_units_total{outcome="failure"}[5m])) /
//   sum(rate(dashboard_batch_units_total[5m]))
