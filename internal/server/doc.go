// Package server holds the dependency container shared by the MCP tools and
// the HTTP surfaces that sit next to the transports.
//
// ServerContext carries the OCM client, the logger, the server Config, the
// instrumentation provider and the audit logger. It is built with functional
// options and validated once:
//
//	sc, err := server.NewServerContext(ctx,
//		server.WithOCMClient(client),
//		server.WithLogger(logging.DefaultLogger()),
//		server.WithConfig(cfg),
//		server.WithInstrumentationProvider(provider),
//	)
//	if err != nil {
//		return err
//	}
//	defer sc.Shutdown()
//
// HealthChecker serves /healthz, /readyz and /healthz/detailed on the main
// listener. MetricsServer serves Prometheus /metrics on a separate listener.
package server
