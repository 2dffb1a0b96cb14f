package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/mcp-ocm/internal/instrumentation"
	"github.com/giantswarm/mcp-ocm/internal/server"
	"github.com/giantswarm/mcp-ocm/internal/transport"
)

// runSSEServer runs the server with SSE transport
func runSSEServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, config ServeConfig, provider *instrumentation.Provider, sc *server.ServerContext) error {
	sse := transport.NewSSE(mcpSrv,
		transport.WithSSEEndpoint(config.SSEEndpoint),
		transport.WithMessageEndpoint(config.MessageEndpoint),
		transport.WithKeepAlive(config.KeepAlive),
		transport.WithRequestTimeout(config.RequestTimeout),
		transport.WithLogger(slog.Default()),
		transport.WithMetrics(provider.Metrics()),
	)

	router, err := newRouter(config, provider)
	if err != nil {
		return err
	}

	healthChecker := server.NewHealthChecker(sc)
	healthChecker.RegisterHealthEndpoints(router)
	sse.Mount(router)

	slog.Info("SSE server starting",
		"addr", config.Addr(),
		"sse_endpoint", sse.SSEEndpoint(),
		"message_endpoint", sse.MessageEndpoint(),
		"health_endpoints", []string{"/healthz", "/readyz"})

	// No WriteTimeout: event streams stay open for the whole session.
	httpServer := &http.Server{
		Addr:              config.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Streams are closed first; http.Server.Shutdown would otherwise wait
	// for them until the deadline.
	return serveHTTP(ctx, httpServer, config.Metrics, provider, healthChecker, sse.Shutdown)
}
