package ocm

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/giantswarm/mcp-ocm/internal/instrumentation"
)

// DefaultTimeout bounds every token exchange and API request.
const DefaultTimeout = 30 * time.Second

// Option configures a TokenProvider or Client.
type Option func(*options)

type options struct {
	httpClient *http.Client
	timeout    time.Duration
	metrics    *instrumentation.Metrics
	logger     *slog.Logger
}

func newOptions(opts []Option) *options {
	o := &options{
		timeout: DefaultTimeout,
		metrics: &instrumentation.Metrics{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: o.timeout}
	}
	return o
}

// WithHTTPClient sets the HTTP client. Its own Timeout is used as is.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithMetrics records upstream request metrics.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithLogger sets the logger used for upstream failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
