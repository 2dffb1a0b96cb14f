package transport

import (
	"log/slog"
	"time"

	"github.com/giantswarm/mcp-ocm/internal/instrumentation"
)

// Defaults for the SSE transport.
const (
	DefaultSSEEndpoint     = "/sse"
	DefaultMessageEndpoint = "/messages/"
	DefaultKeepAlive       = 15 * time.Second
	DefaultInboxSize       = 32
)

// Option configures an SSE transport.
type Option func(*SSE)

// WithSSEEndpoint sets the path clients open the event stream on.
func WithSSEEndpoint(path string) Option {
	return func(s *SSE) {
		if path != "" {
			s.sseEndpoint = path
		}
	}
}

// WithMessageEndpoint sets the path clients post messages to.
func WithMessageEndpoint(path string) Option {
	return func(s *SSE) {
		if path != "" {
			s.messageEndpoint = path
		}
	}
}

// WithKeepAlive sets the ping interval. Zero disables pings.
func WithKeepAlive(interval time.Duration) Option {
	return func(s *SSE) {
		if interval >= 0 {
			s.keepAlive = interval
		}
	}
}

// WithRequestTimeout bounds each dispatched message. Zero means no bound
// beyond transport shutdown.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *SSE) {
		if d >= 0 {
			s.requestTimeout = d
		}
	}
}

// WithInboxSize bounds the number of accepted but undispatched messages per session.
func WithInboxSize(n int) Option {
	return func(s *SSE) {
		if n > 0 {
			s.inboxSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *SSE) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the recorder for the active sessions gauge.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(s *SSE) {
		if m != nil {
			s.metrics = m
		}
	}
}
