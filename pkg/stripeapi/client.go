// Package stripeapi wraps the Stripe Go SDK for the slice of the API this
// service touches, addressed through a configurable prefix URL with a
// restricted API key. It also implements webhook signature verification and
// event classification for inbound subscription lifecycle events.
package stripeapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v83"

	"github.com/sunknudsen/ghost-join/pkg/metrics"
)

const (
	serviceName        = "stripe"
	defaultHTTPTimeout = 10 * time.Second
	defaultMaxRetries  = 2
)

// Config holds configuration for the Stripe client.
type Config struct {
	// PrefixURL is the API base, e.g. "https://api.stripe.com" (required).
	PrefixURL string

	// APIKey is the restricted API key used as a bearer token (required).
	APIKey string

	// HTTPClient overrides the default client. The default carries an
	// explicit timeout so a stalled remote call cannot wedge a request.
	HTTPClient *http.Client

	// MaxRetries bounds retries of transient failures. Defaults to 2.
	MaxRetries int

	Logger  zerolog.Logger
	Metrics metrics.Metrics
}

// Client calls the Stripe API.
type Client struct {
	sc      *stripe.Client
	logger  zerolog.Logger
	metrics metrics.Metrics
}

// NewClient creates a Stripe client from config. The SDK backend is pointed
// at the prefix URL and retries network errors and retryable 5xx responses
// up to MaxRetries times.
func NewClient(config Config) (*Client, error) {
	prefixURL := strings.TrimRight(strings.TrimSpace(config.PrefixURL), "/")
	if prefixURL == "" {
		return nil, fmt.Errorf("stripe: prefix URL is required")
	}
	apiKey := strings.TrimSpace(config.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("stripe: API key is required")
	}

	httpc := config.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: defaultHTTPTimeout}
	}

	maxRetries := int64(config.MaxRetries)
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}

	m := config.Metrics
	if m == nil {
		m = &metrics.Noop{}
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(prefixURL),
		HTTPClient:        httpc,
		MaxNetworkRetries: stripe.Int64(maxRetries),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	})
	sc := stripe.NewClient(apiKey, stripe.WithBackends(&stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	}))

	return &Client{
		sc:      sc,
		logger:  config.Logger,
		metrics: m,
	}, nil
}

// finish records call metrics and translates SDK errors into *APIError.
func (c *Client) finish(endpoint string, start time.Time, err error) error {
	c.metrics.RecordAPICallDuration(serviceName, endpoint, time.Since(start))
	if err == nil {
		c.metrics.RecordAPICall(serviceName, endpoint, "200")
		return nil
	}

	wrapped := wrapError(err)
	status := "error"
	var apiErr *APIError
	if errors.As(wrapped, &apiErr) {
		status = strconv.Itoa(apiErr.StatusCode)
	}
	c.metrics.RecordAPICall(serviceName, endpoint, status)
	c.logger.Error().Str("endpoint", endpoint).Err(wrapped).Msg("stripe call failed")
	return wrapped
}

func wrapError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return &APIError{
			StatusCode: stripeErr.HTTPStatusCode,
			Code:       string(stripeErr.Code),
			Msg:        stripeErr.Msg,
		}
	}
	return err
}
