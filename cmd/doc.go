// Package cmd provides the command-line interface for mcp-ocm.
//
// This package implements a Cobra-based CLI with these subcommands:
//   - serve: Starts the MCP server (default behavior when no subcommand is provided)
//   - version: Displays the application version
//   - self-update: Updates the binary to the latest version from GitHub releases
//
// Command Structure:
//
//	mcp-ocm [flags]                 # Starts the MCP server (default)
//	mcp-ocm serve [flags]           # Explicitly starts the MCP server
//	mcp-ocm version                 # Shows version information
//	mcp-ocm self-update             # Updates to latest release
//
// The serve command supports three transports:
//   - sse: Server-Sent Events over HTTP (default), with per-session ordered replies
//   - streamable-http: Streamable HTTP transport
//   - stdio: Standard input/output
//
// Transport Configuration Examples:
//
//	mcp-ocm serve --host 127.0.0.1 --port 8080 --sse-endpoint /sse --message-endpoint /messages/
//	mcp-ocm serve --transport streamable-http --port 9000 --http-endpoint /mcp
//	mcp-ocm serve --transport stdio --config ~/.config/mcp-ocm.yaml
//
// OCM credentials come from OCM_CLIENT_ID, OCM_OFFLINE_TOKEN, ACCESS_TOKEN_URL
// and OCM_API_BASE, optionally backed by the YAML file passed with --config.
package cmd
