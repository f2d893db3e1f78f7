// Package api provides the dashboard REST API client with response caching,
// retries, and error classification. Every controller in this module talks
// to the lending dashboard's API through this client and treats it as an
// opaque network boundary.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/creditoya/dashboard-client/pkg/cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for dashboard API operations.
var (
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_api_requests_total",
		Help: "Total dashboard API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dashboard_api_request_duration_seconds",
		Help:    "Dashboard API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	apiErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_api_errors_total",
		Help: "Total dashboard API errors by class",
	}, []string{"class"})
)

// Client is the dashboard API client.
type Client struct {
	httpClient *http.Client
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the dashboard API (e.g. "https://admin.creditoya.co")
	BaseURL string

	// Redis client for the GET response cache. Optional: nil disables
	// caching entirely.
	Redis *redis.Client

	// AuthCookie is the session cookie value forwarded with every request.
	// Session handling itself lives outside this layer.
	AuthCookie string

	// Timeout per HTTP request.
	Timeout time.Duration

	// CacheTTL is the lifetime of cached GET collection views.
	CacheTTL time.Duration

	// Retry
	MaxRetries     int
	InitialBackoff time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:        baseURL,
		Timeout:        30 * time.Second,
		CacheTTL:       60 * time.Second,
		MaxRetries:     3,
		InitialBackoff: 1 * time.Second,
	}
}

// New creates a new dashboard API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = cache.DefaultTTL
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 1 * time.Second
	}

	logger := log.With().Str("component", "dashboard-api").Logger()

	var cacheManager *cache.Manager
	if cfg.Redis != nil {
		cacheManager = cache.NewManager(cfg.Redis)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cache:  cacheManager,
		config: cfg,
		logger: logger,
	}, nil
}

// request describes one outbound API call.
type request struct {
	method      string
	endpoint    string
	query       url.Values
	contentType string
	body        []byte

	// cacheable marks GET collection views eligible for the Redis cache.
	cacheable bool
}

// do performs an HTTP request with caching, retries, and error handling.
// This is the core request method every endpoint helper goes through.
func (c *Client) do(ctx context.Context, r request) (*http.Response, error) {
	startTime := time.Now()
	defer func() {
		apiRequestDuration.WithLabelValues(r.endpoint).Observe(time.Since(startTime).Seconds())
	}()

	cacheKey := cache.Key{Endpoint: r.endpoint, Query: r.query}

	// Step 1: serve cacheable GETs from Redis when fresh
	if r.method == http.MethodGet && r.cacheable && c.cache != nil {
		entry, err := c.cache.Get(ctx, cacheKey)
		if err == nil {
			c.logger.Debug().
				Str("endpoint", r.endpoint).
				Dur("ttl", entry.TTL()).
				Msg("Serving response from cache")
			apiRequestsTotal.WithLabelValues(r.endpoint, "cache_hit").Inc()
			return cache.EntryToResponse(entry), nil
		}
		if err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Str("endpoint", r.endpoint).Msg("Cache get error")
		}
	}

	// Step 2: execute with retry; body is rebuilt per attempt
	var resp *http.Response

	retryCfg := RetryConfig{
		MaxAttempts:       c.config.MaxRetries,
		InitialBackoff:    c.config.InitialBackoff,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}

	retryErr := retryWithBackoff(ctx, retryCfg, func() (ErrorClass, error) {
		req, err := c.newRequest(ctx, r)
		if err != nil {
			return ErrorClassClient, err
		}

		resp, err = c.httpClient.Do(req)
		if err != nil {
			c.logger.Error().Err(err).Str("endpoint", r.endpoint).Msg("HTTP request failed")
			apiErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			apiRequestsTotal.WithLabelValues(r.endpoint, "network_error").Inc()
			return ErrorClassNetwork, err
		}

		if resp.StatusCode >= 400 {
			errClass := classifyStatus(resp.StatusCode)
			apiErrorsTotal.WithLabelValues(string(errClass)).Inc()
			apiRequestsTotal.WithLabelValues(r.endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

			c.logger.Warn().
				Str("endpoint", r.endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("Dashboard API request error")

			apiErr := c.errorFromResponse(resp, errClass)
			resp.Body.Close()
			return errClass, apiErr
		}

		apiRequestsTotal.WithLabelValues(r.endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()
		return "", nil
	})
	if retryErr != nil {
		return nil, retryErr
	}

	// Step 3: update cache on success
	if r.method == http.MethodGet && r.cacheable && c.cache != nil && resp.StatusCode == http.StatusOK {
		entry, err := cache.ResponseToEntry(resp, c.config.CacheTTL)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		} else if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache response")
		} else {
			c.logger.Debug().
				Str("endpoint", r.endpoint).
				Dur("ttl", entry.TTL()).
				Msg("Cached response")
		}
	}

	return resp, nil
}

// newRequest builds one HTTP request attempt.
func (c *Client) newRequest(ctx context.Context, r request) (*http.Request, error) {
	u := c.config.BaseURL + r.endpoint
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if len(r.body) > 0 {
		body = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if c.config.AuthCookie != "" {
		req.AddCookie(&http.Cookie{Name: "session", Value: c.config.AuthCookie})
	}

	return req, nil
}

// errorFromResponse drains an error response into an APIError, preferring
// the envelope's error message when the body is well-formed JSON.
func (c *Client) errorFromResponse(resp *http.Response, errClass ErrorClass) *APIError {
	message := resp.Status

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil && len(body) > 0 {
		var env envelope[json.RawMessage]
		if json.Unmarshal(body, &env) == nil && env.Error != "" {
			message = env.Error
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		ErrorClass: errClass,
		Message:    message,
	}
}

// classifyStatus categorizes an HTTP status for observability and retries.
func classifyStatus(status int) ErrorClass {
	switch {
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// getJSON performs a GET and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, cacheable bool, out any) error {
	resp, err := c.do(ctx, request{
		method:    http.MethodGet,
		endpoint:  endpoint,
		query:     query,
		cacheable: cacheable,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// postJSON performs a POST with a JSON body and decodes the response into out.
func (c *Client) postJSON(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", endpoint, err)
	}

	resp, err := c.do(ctx, request{
		method:      http.MethodPost,
		endpoint:    endpoint,
		contentType: "application/json",
		body:        body,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// invalidate drops cached GET views under the given endpoint prefixes after
// a mutation, so the mandatory re-fetches observe fresh data.
func (c *Client) invalidate(ctx context.Context, prefixes ...string) {
	if c.cache == nil {
		return
	}
	for _, prefix := range prefixes {
		if err := c.cache.InvalidatePrefix(ctx, prefix); err != nil {
			c.logger.Warn().Err(err).Str("prefix", prefix).Msg("Cache invalidation failed")
		}
	}
}

// Close closes the client and releases resources.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
