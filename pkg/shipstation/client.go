// Package shipstation provides the ShipStation API client with rate-limit
// aware retries, pagination, and error handling.
package shipstation

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/xtremeops/shipstation-export/pkg/retry"
)

// Prometheus metrics for ShipStation API operations.
var (
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shipstation_requests_total",
		Help: "Total ShipStation requests by endpoint and status",
	}, []string{"endpoint", "status"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shipstation_request_duration_seconds",
		Help:    "ShipStation request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	apiErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shipstation_errors_total",
		Help: "Total ShipStation errors by class",
	}, []string{"class"})

	apiRateLimitWaits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shipstation_rate_limit_waits_total",
		Help: "Total number of rate-limit waits honoring a Retry-After hint",
	})
)

// DefaultBaseURL is the production ShipStation API endpoint.
const DefaultBaseURL = "https://ssapi.shipstation.com"

// Client is the ShipStation API client.
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	retry      retry.Policy
	pageSize   int
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the API (default DefaultBaseURL).
	BaseURL string

	// APIKey and APISecret are the basic-auth credentials (REQUIRED).
	APIKey    string
	APISecret string

	// PageSize for the orders listing (default 100).
	PageSize int

	// ConnectTimeout bounds TCP connection establishment, RequestTimeout
	// bounds the whole request. Both are needed: a half-open connection
	// must not hang the run.
	ConnectTimeout time.Duration
	RequestTimeout time.Duration

	// Retry is the per-request retry policy (default retry.DefaultPolicy
	// with the client's retryable predicate).
	Retry retry.Policy
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(apiKey, apiSecret string) Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		APIKey:         apiKey,
		APISecret:      apiSecret,
		PageSize:       100,
		ConnectTimeout: 10 * time.Second,
		RequestTimeout: 60 * time.Second,
		Retry:          retry.DefaultPolicy(),
	}
}

// New creates a new ShipStation client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("api key and secret are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = retry.DefaultPolicy()
	}
	cfg.Retry.Retryable = retryable

	logger := log.With().Str("component", "shipstation-client").Logger()

	return &Client{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: cfg.ConnectTimeout,
				}).DialContext,
			},
		},
		retry:    cfg.Retry,
		pageSize: cfg.PageSize,
		logger:   logger,
	}, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// get performs a single authenticated GET, wrapped in the retry policy.
// The returned body may be empty; callers treat that as an empty result.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	var body []byte

	err := c.retry.Do(ctx, c.logger, func() error {
		b, err := c.getOnce(ctx, endpoint, params)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, &UpstreamError{Endpoint: endpoint, Err: err}
	}

	return body, nil
}

// getOnce performs exactly one HTTP attempt.
func (c *Client) getOnce(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	start := time.Now()
	defer func() {
		apiRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.apiKey, c.apiSecret)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		apiErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		apiRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		return nil, err
	}
	defer resp.Body.Close()

	apiRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode >= 400 {
		class := classifyStatus(resp.StatusCode)
		apiErrorsTotal.WithLabelValues(string(class)).Inc()

		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Class:      class,
			Endpoint:   endpoint,
			Message:    resp.Status,
		}

		if class == ErrorClassRateLimit {
			if secs, ok := parseRetryAfter(resp.Header.Get("Retry-After")); ok {
				apiErr.Hint = secs
				apiRateLimitWaits.Inc()
			}
			c.logger.Warn().
				Str("endpoint", endpoint).
				Dur("retry_after", apiErr.Hint).
				Msg("rate limited by upstream")
		} else {
			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(class)).
				Msg("ShipStation request error")
		}

		// Drain so the connection can be reused across retries.
		io.Copy(io.Discard, resp.Body)
		return nil, apiErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		apiErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return body, nil
}

// classifyStatus categorizes an HTTP status for observability and retry handling.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	default:
		return ErrorClassServer
	}
}

// parseRetryAfter parses an integer-seconds Retry-After header value.
func parseRetryAfter(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}
