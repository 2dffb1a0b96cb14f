package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrMethod   = "method"
	attrPath     = "path"
	attrStatus   = "status"
	attrTool     = "tool"
	attrEndpoint = "endpoint"
	attrResult   = "result"
)

// Metrics provides methods for recording observability metrics.
// A zero Metrics is valid and records nothing.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// MCP metrics
	activeSessions       metric.Int64UpDownCounter
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// OCM upstream metrics
	ocmRequestsTotal   metric.Int64Counter
	ocmRequestDuration metric.Float64Histogram
	tokenRequestsTotal metric.Int64Counter

	// detailedLabels records exact status codes for OCM requests
	// instead of the status class.
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	m.activeSessions, err = meter.Int64UpDownCounter(
		"mcp_active_sessions",
		metric.WithDescription("Number of connected MCP stream sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_active_sessions gauge: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool invocation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	m.ocmRequestsTotal, err = meter.Int64Counter(
		"ocm_api_requests_total",
		metric.WithDescription("Total number of requests to the OCM API"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ocm_api_requests_total counter: %w", err)
	}

	m.ocmRequestDuration, err = meter.Float64Histogram(
		"ocm_api_request_duration_seconds",
		metric.WithDescription("OCM API request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ocm_api_request_duration_seconds histogram: %w", err)
	}

	m.tokenRequestsTotal, err = meter.Int64Counter(
		"ocm_token_requests_total",
		metric.WithDescription("Total number of refresh-token exchanges"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ocm_token_requests_total counter: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)

	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// IncrementActiveSessions increments the connected sessions gauge.
func (m *Metrics) IncrementActiveSessions(ctx context.Context) {
	if m.activeSessions == nil {
		return
	}
	m.activeSessions.Add(ctx, 1)
}

// DecrementActiveSessions decrements the connected sessions gauge.
func (m *Metrics) DecrementActiveSessions(ctx context.Context) {
	if m.activeSessions == nil {
		return
	}
	m.activeSessions.Add(ctx, -1)
}

// RecordToolInvocation records one tool call with its outcome status
// ("success" or "error") and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, tool, status string, duration time.Duration) {
	if m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrTool, tool),
		attribute.String(attrStatus, status),
	)

	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordOCMRequest records a request to a logical OCM endpoint. A statusCode
// of zero means no response was received.
//
// Without detailed labels the status is reduced to its class ("2xx", "4xx", ...).
func (m *Metrics) RecordOCMRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if m.ocmRequestsTotal == nil || m.ocmRequestDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrEndpoint, endpoint),
		attribute.String(attrStatus, m.statusLabel(statusCode)),
	)

	m.ocmRequestsTotal.Add(ctx, 1, attrs)
	m.ocmRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordTokenRequest records a refresh-token exchange.
// Result should be one of: "success", "failure"
func (m *Metrics) RecordTokenRequest(ctx context.Context, result string) {
	if m.tokenRequestsTotal == nil {
		return
	}
	m.tokenRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

func (m *Metrics) statusLabel(statusCode int) string {
	switch {
	case statusCode <= 0:
		return StatusError
	case m.detailedLabels:
		return strconv.Itoa(statusCode)
	default:
		return strconv.Itoa(statusCode/100) + "xx"
	}
}
