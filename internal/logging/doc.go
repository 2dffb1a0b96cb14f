// Package logging provides structured logging utilities for mcp-ocm.
//
// All logging goes through the standard library's slog package. This package
// only adds consistent attribute names and sanitizers so that the same key is
// used for the same concept everywhere:
//
//	logger := logging.WithTool(slog.Default(), "get_cluster")
//	logger.Info("fetching cluster", logging.ClusterID(id))
//
// Offline tokens and access tokens must never be logged; use SanitizeToken.
// Errors from the HTTP client embed dialed addresses; use SanitizedErr.
package logging
