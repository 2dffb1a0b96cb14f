package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"github.com/giantswarm/mcp-ocm/internal/instrumentation"
	"github.com/giantswarm/mcp-ocm/internal/logging"
	"github.com/giantswarm/mcp-ocm/internal/server"
	"github.com/giantswarm/mcp-ocm/internal/server/middleware"
)

// runStreamableHTTPServer runs the server with Streamable HTTP transport
func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, config ServeConfig, provider *instrumentation.Provider, sc *server.ServerContext) error {
	mcpHandler := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath(config.HTTPEndpoint),
	)

	router, err := newRouter(config, provider)
	if err != nil {
		return err
	}
	router.Handle(config.HTTPEndpoint, mcpHandler)

	healthChecker := server.NewHealthChecker(sc)
	healthChecker.RegisterHealthEndpoints(router)

	slog.Info("streamable HTTP server starting",
		"addr", config.Addr(),
		"endpoint", config.HTTPEndpoint,
		"health_endpoints", []string{"/healthz", "/readyz"})

	httpServer := &http.Server{
		Addr:              config.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return serveHTTP(ctx, httpServer, config.Metrics, provider, healthChecker, mcpHandler.Shutdown)
}

// newRouter builds the router shared by the HTTP transports with the
// request id, recovery, metrics and security middleware applied.
func newRouter(config ServeConfig, provider *instrumentation.Provider) (chi.Router, error) {
	origins, err := middleware.ParseAllowedOrigins(config.AllowedOrigins)
	if err != nil {
		return nil, fmt.Errorf("invalid allowed origins: %w", err)
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.HTTPMetrics(provider))
	r.Use(middleware.SecurityHeaders(config.EnableHSTS))
	r.Use(middleware.CORS(origins))
	r.Use(middleware.MaxRequestSize(config.MaxRequestSize))
	return r, nil
}

// serveHTTP runs httpServer and, when enabled, the metrics server until ctx
// is done or either listener fails. On the way out readiness is withdrawn,
// beforeShutdown releases long-lived transport state and both listeners are
// shut down within server.DefaultShutdownTimeout.
func serveHTTP(ctx context.Context, httpServer *http.Server, metricsConfig MetricsServeConfig, provider *instrumentation.Provider, health *server.HealthChecker, beforeShutdown func(context.Context) error) error {
	var metricsServer *server.MetricsServer
	if metricsConfig.Enabled && provider != nil && provider.Enabled() {
		var err error
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    metricsConfig.Addr,
			Enabled:                 metricsConfig.Enabled,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		return nil
	})

	if metricsServer != nil {
		slog.Info("metrics server started", "addr", metricsServer.Addr(), "endpoint", "/metrics")
		g.Go(func() error {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server stopped with error: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received, stopping HTTP server")
		health.SetReady(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()

		var errs []error
		if beforeShutdown != nil {
			if err := beforeShutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("error shutting down transport: %w", err))
			}
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error shutting down metrics server", logging.Err(err))
			}
		}
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("error shutting down HTTP server: %w", err))
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("HTTP server gracefully stopped")
	return nil
}
