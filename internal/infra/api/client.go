// Package api is the client for the press-release REST API. Every call goes
// through a rate limiter, a circuit breaker and a bounded retry loop.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/kevinnadar22/announce/internal/domain"
	"github.com/kevinnadar22/announce/internal/infra/metrics"
	"github.com/kevinnadar22/announce/pkg/logging"
)

const maxBodyBytes = 8 << 20

type Config struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	RateLimit    float64 // requests per second, 0 disables
	RateBurst    int
	MaxPages     int // cap for fetch-all aggregation
}

type Client struct {
	baseURL    *url.URL
	http       *http.Client
	cb         *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	maxPages   int
	sampler    *logging.ErrorSampler
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithErrorSampler(sampler *logging.ErrorSampler) Option {
	return func(c *Client) { c.sampler = sampler }
}

func New(cfg Config, opts ...Option) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.New("api base url must be absolute")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 50
	}

	name := "press-release-api"
	cbSettings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip if we have 3 consecutive failures
			return counts.ConsecutiveFailures >= 3
		},
		// A 404 or 400 is a valid answer, not an unhealthy upstream.
		IsSuccessful: func(err error) bool {
			return err == nil || !domain.IsRetryable(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("CircuitBreaker state changed", "name", name, "from", from, "to", to)
			open := 0.0
			if to == gobreaker.StateOpen {
				open = 1
			}
			metrics.CircuitBreakerOpen.WithLabelValues(name).Set(open)
		},
	}

	c := &Client{
		baseURL: base,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cb:         gobreaker.NewCircuitBreaker(cbSettings),
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.RetryBackoff,
		maxPages:   cfg.MaxPages,
		sampler:    logging.NewErrorSampler(10),
		logger:     slog.Default(),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// newRequest joins relPath onto the base URL. relPath must not carry a query
// string; the trailing slash the backend routes require is preserved.
func (c *Client) newRequest(ctx context.Context, relPath string, query url.Values) (*http.Request, error) {
	if strings.Contains(relPath, "?") {
		return nil, fmt.Errorf("api: relPath must not contain a query string: %s", relPath)
	}
	u := *c.baseURL
	u.Path = path.Join(u.Path, relPath)
	if strings.HasSuffix(relPath, "/") && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// get performs a GET with retries inside the circuit breaker and returns the
// response body of the first 2xx answer.
func (c *Client) get(ctx context.Context, endpoint, relPath string, query url.Values) ([]byte, error) {
	start := time.Now()
	defer func() {
		metrics.UpstreamDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	out, err := c.cb.Execute(func() (interface{}, error) {
		return c.attempt(ctx, endpoint, relPath, query)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = &domain.APIError{Endpoint: endpoint, Message: "circuit breaker open", Err: err}
			metrics.UpstreamRequests.WithLabelValues(endpoint, "circuit_open").Inc()
		}
		c.logFailure(endpoint, err)
		return nil, err
	}
	metrics.UpstreamRequests.WithLabelValues(endpoint, "success").Inc()
	c.sampler.Recovered(endpoint)
	return out.([]byte), nil
}

func (c *Client) attempt(ctx context.Context, endpoint, relPath string, query url.Values) ([]byte, error) {
	backoff := c.backoff
	var lastErr error

	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			c.logger.Info("Retrying request", "endpoint", endpoint, "attempt", i, "max_retries", c.maxRetries)
			metrics.UpstreamRetries.WithLabelValues(endpoint).Inc()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2 // Exponential backoff
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		body, err := c.do(ctx, endpoint, relPath, query)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		metrics.UpstreamRequests.WithLabelValues(endpoint, outcome(err)).Inc()
		if !domain.IsRetryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, endpoint, relPath string, query url.Values) ([]byte, error) {
	req, err := c.newRequest(ctx, relPath, query)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.APIError{Endpoint: endpoint, Message: err.Error(), Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("Failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := strings.TrimSpace(string(snippet))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &domain.APIError{Status: resp.StatusCode, Endpoint: endpoint, Message: msg}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &domain.APIError{Endpoint: endpoint, Message: "reading body: " + err.Error(), Err: err}
	}
	return body, nil
}

// getJSON decodes the response into out.
func (c *Client) getJSON(ctx context.Context, endpoint, relPath string, query url.Values, out any) error {
	body, err := c.get(ctx, endpoint, relPath, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

func (c *Client) logFailure(endpoint string, err error) {
	if domain.IsNotFound(err) {
		return
	}
	c.sampler.Error(c.logger, logging.Key(endpoint, outcome(err)), "Upstream request failed",
		"endpoint", endpoint,
		"error", err)
}

func outcome(err error) string {
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		return "error"
	}
	switch {
	case apiErr.Status == 0:
		return "network"
	case apiErr.Status == http.StatusNotFound:
		return "not_found"
	case apiErr.Status >= 500:
		return "server_error"
	default:
		return "client_error"
	}
}
