package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/mcp-ocm/internal/instrumentation"
	"github.com/giantswarm/mcp-ocm/internal/server"
)

type stubOCMClient struct{}

func (stubOCMClient) Clusters(context.Context) json.RawMessage              { return nil }
func (stubOCMClient) Cluster(context.Context, string) json.RawMessage       { return nil }
func (stubOCMClient) ClusterAddons(context.Context, string) json.RawMessage { return nil }
func (stubOCMClient) CurrentAccount(context.Context) json.RawMessage        { return nil }
func (stubOCMClient) ServiceClusters(context.Context) json.RawMessage       { return nil }

type fakeSession struct {
	id string
	ch chan mcp.JSONRPCNotification
}

func newFakeSession(id string) *fakeSession {
	return &fakeSession{id: id, ch: make(chan mcp.JSONRPCNotification, 10)}
}

func (s *fakeSession) Initialize()                                         {}
func (s *fakeSession) Initialized() bool                                   { return true }
func (s *fakeSession) NotificationChannel() chan<- mcp.JSONRPCNotification { return s.ch }
func (s *fakeSession) SessionID() string                                   { return s.id }

// createTestServerContext returns a ServerContext whose audit lines are
// written as JSON into the returned buffer.
func createTestServerContext(t *testing.T) (*server.ServerContext, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	audit := instrumentation.NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	sc, err := server.NewServerContext(context.Background(),
		server.WithOCMClient(stubOCMClient{}),
		server.WithAuditLogger(audit),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc, &buf
}

func createTestRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// auditLines decodes the JSON audit lines written so far.
func auditLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	dec := json.NewDecoder(bytes.NewReader(buf.Bytes()))
	for dec.More() {
		var line map[string]any
		require.NoError(t, dec.Decode(&line))
		lines = append(lines, line)
	}
	return lines
}
