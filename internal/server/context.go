package server

import (
	"context"
	"encoding/json"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/giantswarm/mcp-ocm/internal/instrumentation"
)

// OCMClient is the view of the OCM API client that tool handlers depend on.
// Every method returns nil when the document could not be fetched.
type OCMClient interface {
	Clusters(ctx context.Context) json.RawMessage
	Cluster(ctx context.Context, clusterID string) json.RawMessage
	ClusterAddons(ctx context.Context, clusterID string) json.RawMessage
	CurrentAccount(ctx context.Context) json.RawMessage
	ServiceClusters(ctx context.Context) json.RawMessage
}

// ServerContext encapsulates all dependencies needed by the MCP server
// and provides a clean abstraction for dependency injection and lifecycle management.
type ServerContext struct {
	// Core dependencies
	ocmClient OCMClient
	logger    Logger
	config    *Config

	instrumentationProvider *instrumentation.Provider
	auditLogger             *instrumentation.AuditLogger

	// Context management
	ctx    context.Context
	cancel context.CancelFunc

	// Lifecycle management
	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new ServerContext with default values.
// Use the provided functional options to customize the context.
func NewServerContext(ctx context.Context, opts ...Option) (*ServerContext, error) {
	serverCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:    serverCtx,
		cancel: cancel,
		config: NewDefaultConfig(),
		logger: NewDefaultLogger(),
	}

	for _, opt := range opts {
		if err := opt(sc); err != nil {
			cancel()
			return nil, err
		}
	}

	if err := sc.validate(); err != nil {
		cancel()
		return nil, err
	}

	if sc.auditLogger == nil {
		sc.auditLogger = instrumentation.NewAuditLogger(nil)
	}

	return sc, nil
}

// Context returns the server's context, cancelled on Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// OCMClient returns the OCM API client.
func (sc *ServerContext) OCMClient() OCMClient {
	return sc.ocmClient
}

// Logger returns the logger.
func (sc *ServerContext) Logger() Logger {
	return sc.logger
}

// Config returns a copy of the server configuration.
func (sc *ServerContext) Config() *Config {
	return sc.config.Clone()
}

// InstrumentationProvider returns the instrumentation provider, or nil.
func (sc *ServerContext) InstrumentationProvider() *instrumentation.Provider {
	return sc.instrumentationProvider
}

// Metrics returns the metrics recorder. It is never nil; when no
// instrumentation provider is configured recording is a no-op.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	if sc.instrumentationProvider == nil {
		return &instrumentation.Metrics{}
	}
	return sc.instrumentationProvider.Metrics()
}

// AuditLogger returns the tool invocation audit logger.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.auditLogger
}

// Shutdown cancels the server context. It is safe to call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.logger.Info("Shutting down server context")

	if sc.cancel != nil {
		sc.cancel()
	}
	sc.shutdown = true

	sc.logger.Info("Server context shutdown complete")
	return nil
}

// IsShutdown returns true if the server context has been shutdown.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// validate ensures all required dependencies are set.
func (sc *ServerContext) validate() error {
	if sc.ocmClient == nil {
		return ErrMissingOCMClient
	}
	if sc.logger == nil {
		return ErrMissingLogger
	}
	if sc.config == nil {
		return ErrMissingConfig
	}
	return nil
}

// Logger defines the interface for logging operations.
// logging.SlogAdapter satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds the server configuration.
type Config struct {
	// Server identity
	ServerName string `json:"serverName"`
	Version    string `json:"version"`

	// Listener settings
	Transport string `json:"transport"`
	Host      string `json:"host"`
	Port      int    `json:"port"`

	// Endpoint paths
	SSEEndpoint     string `json:"sseEndpoint"`
	MessageEndpoint string `json:"messageEndpoint"`
	HTTPEndpoint    string `json:"httpEndpoint"`

	KeepAlive      time.Duration `json:"keepAlive"`
	RequestTimeout time.Duration `json:"requestTimeout"`

	Debug bool `json:"debug"`
}

// Default values for Config.
const (
	DefaultServerName      = "mcp-ocm"
	DefaultTransport       = "sse"
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8080
	DefaultSSEEndpoint     = "/sse"
	DefaultMessageEndpoint = "/messages/"
	DefaultHTTPEndpoint    = "/mcp"
	DefaultKeepAlive       = 15 * time.Second
	DefaultRequestTimeout  = 30 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)

// NewDefaultConfig creates a configuration with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		ServerName:      DefaultServerName,
		Version:         "dev",
		Transport:       DefaultTransport,
		Host:            DefaultHost,
		Port:            DefaultPort,
		SSEEndpoint:     DefaultSSEEndpoint,
		MessageEndpoint: DefaultMessageEndpoint,
		HTTPEndpoint:    DefaultHTTPEndpoint,
		KeepAlive:       DefaultKeepAlive,
		RequestTimeout:  DefaultRequestTimeout,
	}
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}
