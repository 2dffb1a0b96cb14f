// Package transport implements the SSE session transport for the MCP server.
//
// A client opens GET /sse and receives an "endpoint" event naming
// /messages/?session_id=<id>. It then posts JSON-RPC messages there; each is
// acknowledged with 202 and queued on the session's bounded inbox. A single
// worker per session dispatches the inbox in order through the MCP server and
// writes every reply to the stream as a "message" event. Notifications the
// server sends during a call are written before that call's reply.
//
// Session ids are random UUIDs rendered as 32 lowercase hex characters.
// Posting to a closed or unknown session answers 404 and never affects other
// sessions.
package transport
