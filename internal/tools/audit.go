package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/codes"

	"github.com/giantswarm/mcp-ocm/internal/instrumentation"
	"github.com/giantswarm/mcp-ocm/internal/server"
)

// ToolHandler is the signature for MCP tool handler functions that take ServerContext.
type ToolHandler func(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error)

// WrapWithAuditLogging wraps a tool handler so every call gets a tool span,
// an mcp_tool_invocations_total / mcp_tool_duration_seconds sample and one
// audit log line carrying the session id, the cluster id (when the tool takes
// one) and the trace ids.
//
// A result with IsError set counts as a failed invocation even though the
// handler returned no Go error.
func WrapWithAuditLogging(toolName string, handler ToolHandler, sc *server.ServerContext) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		sessionID := sessionIDFromContext(ctx)
		clusterID := StringArg(args, "cluster_id")

		ctx, span := instrumentation.StartToolSpan(ctx, toolName,
			instrumentation.NewSpanAttributeBuilder().
				WithSession(sessionID).
				WithClusterID(clusterID).
				Build()...,
		)
		defer span.End()

		invocation := instrumentation.NewToolInvocation(toolName).
			WithSession(sessionID).
			WithCluster(clusterID).
			WithSpanContext(ctx)

		result, err := handler(ctx, request, sc)

		switch {
		case err != nil:
			invocation.CompleteWithError(err)
			instrumentation.SetSpanError(span, err)
		case result != nil && result.IsError:
			invocation.Complete(false, nil)
			if len(result.Content) > 0 {
				if text, ok := result.Content[0].(mcp.TextContent); ok {
					invocation.Error = text.Text
				}
			}
			span.SetStatus(codes.Error, invocation.Error)
		default:
			invocation.CompleteSuccess()
			instrumentation.SetSpanSuccess(span)
		}

		sc.Metrics().RecordToolInvocation(ctx, toolName, invocation.Status(), invocation.Duration)
		if audit := sc.AuditLogger(); audit != nil {
			audit.LogToolInvocation(ctx, invocation)
		}

		return result, err
	}
}

func sessionIDFromContext(ctx context.Context) string {
	if session := mcpserver.ClientSessionFromContext(ctx); session != nil {
		return session.SessionID()
	}
	return ""
}
