package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/mcp-ocm/internal/config"
	"github.com/giantswarm/mcp-ocm/internal/instrumentation"
	"github.com/giantswarm/mcp-ocm/internal/logging"
	"github.com/giantswarm/mcp-ocm/internal/ocm"
	"github.com/giantswarm/mcp-ocm/internal/server"
	"github.com/giantswarm/mcp-ocm/internal/server/middleware"
	ocmtools "github.com/giantswarm/mcp-ocm/internal/tools/ocm"
)

// Transport type constants for the MCP server.
const (
	transportStdio          = "stdio"
	transportSSE            = "sse"
	transportStreamableHTTP = "streamable-http"
)

// envValueTrue is the string value used to enable boolean environment variables.
const envValueTrue = "true"

// newServeCmd creates the Cobra command for starting the MCP server.
func newServeCmd() *cobra.Command {
	var config ServeConfig

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP OCM server",
		Long: `Start the MCP OCM server to provide read-only tools for OpenShift
Cluster Manager via the Model Context Protocol.

Supports multiple transport types:
  - sse: Server-Sent Events over HTTP (default)
  - streamable-http: Streamable HTTP transport
  - stdio: Standard input/output

Credentials are read from the environment (OCM_CLIENT_ID, OCM_OFFLINE_TOKEN,
ACCESS_TOKEN_URL, OCM_API_BASE) and optionally from a YAML file given with
--config. Environment variables take precedence over the file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loadHTTPEnvVars(cmd, &config)
			return runServe(config)
		},
	}

	cmd.Flags().StringVar(&config.Transport, "transport", transportSSE, "Transport type: sse, streamable-http, or stdio")
	cmd.Flags().StringVar(&config.Host, "host", server.DefaultHost, "Host to bind (for sse and streamable-http transports)")
	cmd.Flags().IntVar(&config.Port, "port", server.DefaultPort, "Port to bind (for sse and streamable-http transports)")
	cmd.Flags().StringVar(&config.SSEEndpoint, "sse-endpoint", server.DefaultSSEEndpoint, "SSE endpoint path (for sse transport)")
	cmd.Flags().StringVar(&config.MessageEndpoint, "message-endpoint", server.DefaultMessageEndpoint, "Message endpoint path (for sse transport)")
	cmd.Flags().StringVar(&config.HTTPEndpoint, "http-endpoint", server.DefaultHTTPEndpoint, "HTTP endpoint path (for streamable-http transport)")
	cmd.Flags().DurationVar(&config.KeepAlive, "keep-alive", server.DefaultKeepAlive, "Interval between SSE keep-alive comments, 0 disables them (for sse transport)")
	cmd.Flags().DurationVar(&config.RequestTimeout, "request-timeout", server.DefaultRequestTimeout, "Upper bound for one tool call including its OCM requests, 0 disables it")
	cmd.Flags().DurationVar(&config.UpstreamTimeout, "upstream-timeout", ocm.DefaultTimeout, "Timeout of each OCM API and token request")
	cmd.Flags().BoolVar(&config.DebugMode, "debug", false, "Enable debug logging (default: false)")
	cmd.Flags().StringVar(&config.ConfigFile, "config", "", "Optional YAML file with OCM credentials")

	// HTTP hardening flags
	cmd.Flags().StringVar(&config.AllowedOrigins, "allowed-origins", "", "Comma-separated list of CORS origins (can also be set via ALLOWED_ORIGINS env var)")
	cmd.Flags().BoolVar(&config.EnableHSTS, "enable-hsts", false, "Send Strict-Transport-Security headers (can also be set via ENABLE_HSTS env var)")
	cmd.Flags().Int64Var(&config.MaxRequestSize, "max-request-size", middleware.DefaultMaxRequestSize, "Maximum size in bytes of a posted message")

	// Metrics flags
	cmd.Flags().BoolVar(&config.Metrics.Enabled, "metrics-enabled", true, "Serve Prometheus metrics on a separate listener when instrumentation is enabled")
	cmd.Flags().StringVar(&config.Metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics listener address (can also be set via METRICS_ADDR env var)")

	return cmd
}

// newLogger builds the process logger. Logs always go to w (stderr in
// practice) so they never mix with the stdio transport.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadCredentials reads and validates the OCM credentials.
func loadCredentials(configFile string) (*config.Config, error) {
	var opts []config.Option
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}

	creds, err := config.Load(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := creds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := validateUpstreamURL(creds.OCM.TokenURL, "access token URL"); err != nil {
		return nil, err
	}
	if err := validateUpstreamURL(creds.OCM.APIBase, "OCM API base"); err != nil {
		return nil, err
	}
	return creds, nil
}

// runServe contains the main server logic with support for multiple transports
func runServe(config ServeConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}

	logger := newLogger(os.Stderr, config.DebugMode)
	slog.SetDefault(logger)

	creds, err := loadCredentials(config.ConfigFile)
	if err != nil {
		return err
	}
	logger.Debug("configuration loaded", "ocm", creds.OCM)

	// Setup graceful shutdown - listen for both SIGINT and SIGTERM
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize OpenTelemetry instrumentation provider
	instrumentationConfig := instrumentation.DefaultConfig()
	instrumentationConfig.ServiceVersion = rootCmd.Version
	instrumentationProvider, err := instrumentation.NewProvider(shutdownCtx, instrumentationConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if shutdownErr := instrumentationProvider.Shutdown(context.Background()); shutdownErr != nil {
			logger.Error("error during instrumentation shutdown", logging.Err(shutdownErr))
		}
	}()

	if instrumentationProvider.Enabled() {
		logger.Info("OpenTelemetry instrumentation enabled",
			"metrics", instrumentationConfig.MetricsExporter,
			"tracing", instrumentationConfig.TracingExporter)
	}

	ocmOpts := []ocm.Option{
		ocm.WithMetrics(instrumentationProvider.Metrics()),
		ocm.WithLogger(logger),
		ocm.WithTimeout(config.UpstreamTimeout),
	}
	tokens, err := ocm.NewTokenProvider(creds.OCM, ocmOpts...)
	if err != nil {
		return fmt.Errorf("failed to create token provider: %w", err)
	}
	client, err := ocm.NewClient(creds.OCM.APIBase, tokens, ocmOpts...)
	if err != nil {
		return fmt.Errorf("failed to create OCM client: %w", err)
	}

	serverContext, err := server.NewServerContext(shutdownCtx,
		server.WithOCMClient(client),
		server.WithLogger(logging.NewSlogAdapter(logger)),
		server.WithConfig(config.serverConfig(rootCmd.Version)),
		server.WithInstrumentationProvider(instrumentationProvider),
		server.WithAuditLogger(instrumentation.NewAuditLogger(logger)),
	)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Error("error during server context shutdown", logging.Err(err))
		}
	}()

	mcpSrv := mcpserver.NewMCPServer(server.DefaultServerName, rootCmd.Version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	)

	if err := ocmtools.RegisterOCMTools(mcpSrv, serverContext); err != nil {
		return fmt.Errorf("failed to register OCM tools: %w", err)
	}

	logger.Info("starting MCP OCM server",
		logging.Transport(config.Transport),
		"version", rootCmd.Version,
		logging.Host(creds.OCM.APIBase))

	switch config.Transport {
	case transportStdio:
		return runStdioServer(shutdownCtx, mcpSrv, logger)
	case transportSSE:
		return runSSEServer(shutdownCtx, mcpSrv, config, instrumentationProvider, serverContext)
	case transportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, config, instrumentationProvider, serverContext)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: sse, streamable-http, stdio)", config.Transport)
	}
}
