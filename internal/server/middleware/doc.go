// Package middleware provides the HTTP middleware shared by the SSE and
// streamable-http listeners: request metrics, security headers, CORS and
// request size limits.
package middleware
