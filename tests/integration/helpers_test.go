// Package integration provides end-to-end integration tests for mcp-ocm.
//
// These tests run the real tool stack against a fake OCM API and token
// endpoint and talk to it with the mcp-go client over each HTTP transport.
//
// Run with: go test -v ./tests/integration/... -tags=integration
//
//go:build integration

package integration

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/mcp-ocm/internal/config"
	"github.com/giantswarm/mcp-ocm/internal/instrumentation"
	"github.com/giantswarm/mcp-ocm/internal/logging"
	"github.com/giantswarm/mcp-ocm/internal/ocm"
	"github.com/giantswarm/mcp-ocm/internal/server"
	ocmtools "github.com/giantswarm/mcp-ocm/internal/tools/ocm"
)

const (
	testAccessToken  = "test-access-token"
	testOfflineToken = "test-offline-token"
)

// fakeUpstream serves both the token endpoint and the OCM API.
type fakeUpstream struct {
	*httptest.Server

	tokenFailures atomic.Bool
	tokenRequests atomic.Int64
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()

	f := &fakeUpstream{}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenRequests.Add(1)
		if f.tokenFailures.Load() {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		if err := r.ParseForm(); err != nil || r.PostForm.Get("refresh_token") != testOfflineToken {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"`+testAccessToken+`","token_type":"Bearer","expires_in":300}`)
	})

	api := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+testAccessToken {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, body)
		}
	}

	mux.HandleFunc("GET "+ocm.PathClusters, api(`{"items":[
		{"id":"c1","name":"alpha","api":{"url":"https://api.alpha.example.com:6443"},"console":{"url":"https://console.alpha.example.com"}},
		{"id":"c2","name":"beta"}
	]}`))
	mux.HandleFunc("GET "+ocm.PathClusters+"/c1", api(`{"id":"c1","name":"alpha","api":{"url":"https://api.alpha.example.com:6443"}}`))
	mux.HandleFunc("GET "+ocm.PathClusters+"/c1/addons", api(`{"items":[{"name":"cluster-logging","state":"ready"}]}`))
	mux.HandleFunc("GET "+ocm.PathCurrentAccount, api(`{"id":"acc-1","username":"jdoe"}`))
	mux.HandleFunc("GET "+ocm.PathServiceClusters, api(`{"items":[]}`))

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

// newOCMServer wires the real token provider, client and tools to upstream.
func newOCMServer(t *testing.T, upstream *fakeUpstream) (*mcpserver.MCPServer, *server.ServerContext) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	creds := config.OCM{
		ClientID:     "cloud-services",
		OfflineToken: testOfflineToken,
		TokenURL:     upstream.URL + "/token",
		APIBase:      upstream.URL,
	}

	tokens, err := ocm.NewTokenProvider(creds, ocm.WithLogger(logger))
	require.NoError(t, err)
	ocmClient, err := ocm.NewClient(creds.APIBase, tokens, ocm.WithLogger(logger))
	require.NoError(t, err)

	sc, err := server.NewServerContext(context.Background(),
		server.WithOCMClient(ocmClient),
		server.WithLogger(logging.NewSlogAdapter(logger)),
		server.WithAuditLogger(instrumentation.NewAuditLogger(logger)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	s := mcpserver.NewMCPServer(server.DefaultServerName, "test",
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	)
	require.NoError(t, ocmtools.RegisterOCMTools(s, sc))
	return s, sc
}

func initialize(ctx context.Context, t *testing.T, c *client.Client) {
	t.Helper()

	require.NoError(t, c.Start(ctx), "Failed to start MCP client transport")
	initResult, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    "integration-test",
				Version: "1.0.0",
			},
		},
	})
	require.NoError(t, err, "Failed to initialize MCP client")
	require.Equal(t, server.DefaultServerName, initResult.ServerInfo.Name)
}

func callTool(ctx context.Context, t *testing.T, c *client.Client, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()

	result, err := c.CallTool(ctx, mcp.CallToolRequest{
		Request: mcp.Request{Method: "tools/call"},
		Params:  mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "Failed to call %s", name)
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	require.NotEmpty(t, result.Content)
	var parts []string
	for _, c := range result.Content {
		text, ok := mcp.AsTextContent(c)
		require.True(t, ok, "expected text content, got %T", c)
		parts = append(parts, text.Text)
	}
	return strings.Join(parts, "")
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}
