package instrumentation

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestAllMetricsExposedViaPrometheus verifies that every metric defined in
// metrics.go is registered and reaches the provider's scrape handler.
func TestAllMetricsExposedViaPrometheus(t *testing.T) {
	ctx := context.Background()
	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-metrics-integration",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterNone,
	})
	if err != nil {
		t.Fatalf("Failed to create instrumentation provider: %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	recordAllMetrics(ctx, provider.Metrics())

	metricsOutput := scrape(t, provider)

	expectedMetrics := []struct {
		name        string
		isHistogram bool
	}{
		{"http_requests_total", false},
		{"http_request_duration_seconds", true},
		{"mcp_active_sessions", false},
		{"mcp_tool_invocations_total", false},
		{"mcp_tool_duration_seconds", true},
		{"ocm_api_requests_total", false},
		{"ocm_api_request_duration_seconds", true},
		{"ocm_token_requests_total", false},
		{"go_goroutines", false},
	}

	for _, m := range expectedMetrics {
		found := false
		if m.isHistogram {
			for _, suffix := range []string{"_bucket", "_sum", "_count"} {
				if containsMetric(metricsOutput, m.name+suffix) {
					found = true
					break
				}
			}
		} else {
			found = containsMetric(metricsOutput, m.name)
		}

		if !found {
			t.Errorf("Missing metric %s", m.name)
		}
	}
}

func TestMetricLabelsAreRecorded(t *testing.T) {
	ctx := context.Background()
	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-metrics-labels",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
	})
	if err != nil {
		t.Fatalf("Failed to create instrumentation provider: %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	provider.Metrics().RecordHTTPRequest(ctx, "POST", "/messages/", 202, 50*time.Millisecond)
	provider.Metrics().RecordToolInvocation(ctx, "get_cluster", StatusSuccess, 10*time.Millisecond)
	provider.Metrics().RecordOCMRequest(ctx, "cluster", 404, 10*time.Millisecond)

	metricsOutput := scrape(t, provider)

	for _, expected := range []string{
		`method="POST"`,
		`path="/messages/"`,
		`status="202"`,
		`tool="get_cluster"`,
		`endpoint="cluster"`,
		`status="4xx"`,
	} {
		if !strings.Contains(metricsOutput, expected) {
			t.Errorf("Missing label %s", expected)
		}
	}
}

func TestNewProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	provider, err := NewProvider(ctx, Config{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if provider.Enabled() {
		t.Error("provider should report disabled")
	}
	if provider.Metrics() == nil {
		t.Fatal("Metrics should never be nil")
	}
	if provider.PrometheusHandler() != nil {
		t.Error("disabled provider should not expose a scrape handler")
	}

	// Recording on no-op instruments must be safe.
	recordAllMetrics(ctx, provider.Metrics())

	if err := provider.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown returned %v", err)
	}
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{
		Enabled:         true,
		MetricsExporter: "carrier-pigeon",
	})
	if err == nil {
		t.Fatal("expected error for unknown exporter")
	}
}

func TestNewProvider_StdoutTracing(t *testing.T) {
	ctx := context.Background()
	provider, err := NewProvider(ctx, Config{
		ServiceName:       "test-stdout-tracing",
		Enabled:           true,
		MetricsExporter:   ExporterStdout,
		TracingExporter:   ExporterStdout,
		TraceSamplingRate: 1.0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if provider.PrometheusHandler() != nil {
		t.Error("stdout exporter should not expose a scrape handler")
	}

	_, span := StartToolSpan(ctx, "get_whoami")
	span.End()

	if err := provider.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown returned %v", err)
	}
}

func recordAllMetrics(ctx context.Context, m *Metrics) {
	m.RecordHTTPRequest(ctx, "GET", "/healthz", 200, 50*time.Millisecond)
	m.RecordHTTPRequest(ctx, "POST", "/messages/", 202, 100*time.Millisecond)

	m.IncrementActiveSessions(ctx)
	m.IncrementActiveSessions(ctx)
	m.DecrementActiveSessions(ctx)

	m.RecordToolInvocation(ctx, "get_clusters", StatusSuccess, 200*time.Millisecond)
	m.RecordToolInvocation(ctx, "get_cluster", StatusError, 5*time.Millisecond)

	m.RecordOCMRequest(ctx, "clusters", 200, 150*time.Millisecond)
	m.RecordOCMRequest(ctx, "current_account", 0, 30*time.Second)

	m.RecordTokenRequest(ctx, TokenResultSuccess)
	m.RecordTokenRequest(ctx, TokenResultFailure)
}

func scrape(t *testing.T, provider *Provider) string {
	t.Helper()
	handler := provider.PrometheusHandler()
	if handler == nil {
		t.Fatal("prometheus handler should be available")
	}

	server := httptest.NewServer(handler)
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("Failed to fetch metrics: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read metrics body: %v", err)
	}
	return string(body)
}

// containsMetric reports whether the exposition output has a sample or
// TYPE/HELP line for metricName.
func containsMetric(metricsOutput, metricName string) bool {
	for _, line := range strings.Split(metricsOutput, "\n") {
		if strings.HasPrefix(line, "# TYPE "+metricName+" ") ||
			strings.HasPrefix(line, "# HELP "+metricName+" ") ||
			strings.HasPrefix(line, metricName+"{") ||
			strings.HasPrefix(line, metricName+" ") {
			return true
		}
	}
	return false
}
