package sources

import (
	"log/slog"
	"net/http"
	"time"

	"countrycatalog/pkg/platform/circuit"
)

// Source names used in errors, logs and metric labels.
const (
	SourceCountries = "countries"
	SourceRates     = "rates"
)

const (
	defaultTimeout  = 30 * time.Second
	maxResponseBody = 32 << 20

	// consecutive failures before a source is logged as unhealthy
	breakerFailures = 3
)

// LatencyObserver receives the duration of each fetch by source name.
type LatencyObserver func(source string, d time.Duration)

// Client fetches the two upstream datasets. It never retries; a failed
// fetch surfaces as *UnavailableError and the caller decides what to do.
type Client struct {
	countriesURL string
	ratesURL     string
	httpClient   *http.Client
	timeout      time.Duration
	logger       *slog.Logger
	observe      LatencyObserver
	breakers     map[string]*circuit.Breaker
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a source client for the given endpoints.
func NewClient(countriesURL, ratesURL string, opts ...ClientOption) *Client {
	c := &Client{
		countriesURL: countriesURL,
		ratesURL:     ratesURL,
		httpClient:   &http.Client{},
		timeout:      defaultTimeout,
		logger:       slog.Default(),
		breakers: map[string]*circuit.Breaker{
			SourceCountries: circuit.New(SourceCountries, circuit.WithFailureThreshold(breakerFailures), circuit.WithSuccessThreshold(1)),
			SourceRates:     circuit.New(SourceRates, circuit.WithFailureThreshold(breakerFailures), circuit.WithSuccessThreshold(1)),
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the per-fetch timeout. Each fetch gets its own budget.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLatencyObserver registers a callback for fetch durations.
func WithLatencyObserver(fn LatencyObserver) ClientOption {
	return func(c *Client) {
		c.observe = fn
	}
}
