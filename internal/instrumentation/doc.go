// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for the mcp-ocm server.
//
// # Metrics
//
// Server/HTTP:
//   - http_requests_total: HTTP requests by method, normalized path and status
//   - http_request_duration_seconds: HTTP request durations
//
// MCP:
//   - mcp_active_sessions: connected SSE sessions
//   - mcp_tool_invocations_total: tool calls by tool and status
//   - mcp_tool_duration_seconds: tool call durations
//
// OCM upstream:
//   - ocm_api_requests_total: OCM API requests by endpoint and status class
//   - ocm_api_request_duration_seconds: OCM API request durations
//   - ocm_token_requests_total: refresh-token exchanges by result
//
// Cluster ids and session ids never appear as metric labels; they are span
// attributes and audit log fields only.
//
// # Tracing
//
// Spans are created for tool invocations ("tool.<name>"), OCM API requests
// ("ocm.get") and token exchanges ("ocm.token").
//
// # Configuration
//
//   - INSTRUMENTATION_ENABLED: enable metrics and tracing (default: false)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint URL
//   - OTEL_EXPORTER_OTLP_INSECURE: plain HTTP for OTLP (default: false)
//   - OTEL_TRACES_SAMPLER_ARG: sampling rate 0.0 to 1.0 (default: 0.1)
//   - OTEL_SERVICE_NAME: service name (default: mcp-ocm)
//   - METRICS_DETAILED_LABELS: exact OCM status codes instead of classes
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordToolInvocation(ctx, "get_clusters", instrumentation.StatusSuccess, time.Since(start))
package instrumentation
