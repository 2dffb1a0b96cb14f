package cmd

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/giantswarm/mcp-ocm/internal/server"
)

// ServeConfig holds all configuration for the serve command.
type ServeConfig struct {
	// Transport settings
	Transport string
	Host      string
	Port      int

	// Endpoint paths
	SSEEndpoint     string
	MessageEndpoint string
	HTTPEndpoint    string

	KeepAlive       time.Duration
	RequestTimeout  time.Duration
	UpstreamTimeout time.Duration
	DebugMode       bool

	// ConfigFile is an optional YAML file with OCM credentials.
	ConfigFile string

	// HTTP hardening, applied to the sse and streamable-http listeners.
	AllowedOrigins string
	EnableHSTS     bool
	MaxRequestSize int64

	Metrics MetricsServeConfig
}

// MetricsServeConfig configures the dedicated metrics listener.
type MetricsServeConfig struct {
	Enabled bool
	Addr    string
}

// Addr returns the main listen address.
func (c ServeConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate checks the process options. Credentials are validated separately
// once they are loaded.
func (c ServeConfig) Validate() error {
	switch c.Transport {
	case transportStdio, transportSSE, transportStreamableHTTP:
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: %s, %s, %s)",
			c.Transport, transportSSE, transportStreamableHTTP, transportStdio)
	}

	if c.UpstreamTimeout < 0 {
		return fmt.Errorf("--upstream-timeout must not be negative")
	}

	if c.Transport == transportStdio {
		return nil
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	var errs []error
	for name, path := range map[string]string{
		"--sse-endpoint":     c.SSEEndpoint,
		"--message-endpoint": c.MessageEndpoint,
		"--http-endpoint":    c.HTTPEndpoint,
	} {
		if !strings.HasPrefix(path, "/") {
			errs = append(errs, fmt.Errorf("%s must start with '/', got %q", name, path))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	if c.Transport == transportSSE && c.SSEEndpoint == c.MessageEndpoint {
		return fmt.Errorf("--sse-endpoint and --message-endpoint must differ (both %q)", c.SSEEndpoint)
	}
	if c.KeepAlive < 0 {
		return fmt.Errorf("--keep-alive must not be negative")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("--request-timeout must not be negative")
	}
	return nil
}

// serverConfig converts the process options into the server context config.
func (c ServeConfig) serverConfig(version string) *server.Config {
	cfg := server.NewDefaultConfig()
	cfg.Version = version
	cfg.Transport = c.Transport
	cfg.Host = c.Host
	cfg.Port = c.Port
	cfg.SSEEndpoint = c.SSEEndpoint
	cfg.MessageEndpoint = c.MessageEndpoint
	cfg.HTTPEndpoint = c.HTTPEndpoint
	cfg.KeepAlive = c.KeepAlive
	cfg.RequestTimeout = c.RequestTimeout
	cfg.Debug = c.DebugMode
	return cfg
}

// loadHTTPEnvVars fills HTTP hardening settings from the environment.
// Environment variables only apply when the matching flag was not set.
func loadHTTPEnvVars(cmd *cobra.Command, config *ServeConfig) {
	if !cmd.Flags().Changed("allowed-origins") {
		loadEnvIfEmpty(&config.AllowedOrigins, "ALLOWED_ORIGINS")
	}
	if !cmd.Flags().Changed("enable-hsts") && os.Getenv("ENABLE_HSTS") == envValueTrue {
		config.EnableHSTS = true
	}
	if !cmd.Flags().Changed("metrics-addr") {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			config.Metrics.Addr = addr
		}
	}
}

// loadEnvIfEmpty loads an environment variable into a string pointer if it's empty.
func loadEnvIfEmpty(target *string, envKey string) {
	if *target == "" {
		*target = os.Getenv(envKey)
	}
}

// validateUpstreamURL checks an OCM or token endpoint URL. HTTPS is required
// except for loopback hosts, which are allowed over plain HTTP for local
// development.
func validateUpstreamURL(urlStr string, fieldName string) error {
	if urlStr == "" {
		return fmt.Errorf("%s must be a valid URL: empty URL provided", fieldName)
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("%s must be a valid URL: %w", fieldName, err)
	}

	hostname := parsedURL.Hostname()
	switch parsedURL.Scheme {
	case "https":
	case "http":
		if !isLoopbackHost(hostname) {
			return fmt.Errorf("%s must use HTTPS (got: http)", fieldName)
		}
	case "":
		return fmt.Errorf("%s must be a valid URL with HTTPS scheme", fieldName)
	default:
		return fmt.Errorf("%s must use HTTPS (got: %s)", fieldName, parsedURL.Scheme)
	}

	if hostname == "" {
		return fmt.Errorf("%s must have a valid hostname", fieldName)
	}
	return nil
}

func isLoopbackHost(hostname string) bool {
	if strings.EqualFold(hostname, "localhost") {
		return true
	}
	ip := net.ParseIP(hostname)
	return ip != nil && ip.IsLoopback()
}
