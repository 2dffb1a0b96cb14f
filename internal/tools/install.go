package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/mcp-ocm/internal/server"
)

// Install registers every descriptor with the MCP server. Each call is
// validated and dispatched through the registry; failures come back as tool
// error results so the client session stays usable.
func (r *Registry) Install(s *mcpserver.MCPServer, sc *server.ServerContext) {
	for _, name := range r.Names() {
		d, _ := r.Lookup(name)
		s.AddTool(newMCPTool(d), WrapWithAuditLogging(d.Name, r.handlerFor(d.Name), sc))
	}
}

func (r *Registry) handlerFor(name string) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
		text, err := r.Dispatch(ctx, name, request.GetArguments())
		if err != nil {
			sc.Logger().Debug("tool call rejected", "tool", name, "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func newMCPTool(d Descriptor) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(d.Description),
		mcp.WithTitleAnnotation(Title(d.Name)),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	}

	for _, p := range d.Params {
		var propOpts []mcp.PropertyOption
		if p.Description != "" {
			propOpts = append(propOpts, mcp.Description(p.Description))
		}
		if p.Required {
			propOpts = append(propOpts, mcp.Required())
		}

		switch p.Type {
		case ParamNumber:
			opts = append(opts, mcp.WithNumber(p.Name, propOpts...))
		case ParamBoolean:
			opts = append(opts, mcp.WithBoolean(p.Name, propOpts...))
		default:
			opts = append(opts, mcp.WithString(p.Name, propOpts...))
		}
	}

	return mcp.NewTool(d.Name, opts...)
}
