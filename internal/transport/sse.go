package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/mcp-ocm/internal/instrumentation"
	"github.com/giantswarm/mcp-ocm/internal/logging"
)

// ErrTransportClosed is returned for new streams after Shutdown.
var ErrTransportClosed = errors.New("transport is shut down")

const transportName = "sse"

// SSE serves MCP over a text/event-stream per client plus a message endpoint
// that clients post JSON-RPC messages to.
//
// Each session has a single worker that hands accepted messages to the MCP
// server one at a time, so replies reach the stream in acceptance order.
type SSE struct {
	mcp *mcpserver.MCPServer

	sseEndpoint     string
	messageEndpoint string
	keepAlive       time.Duration
	requestTimeout  time.Duration
	inboxSize       int
	logger          *slog.Logger
	metrics         *instrumentation.Metrics

	// ctx is the parent of every dispatch; Shutdown cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	sessions map[string]*session
	closed   bool

	wg sync.WaitGroup
}

// NewSSE creates an SSE transport for mcp.
func NewSSE(mcp *mcpserver.MCPServer, opts ...Option) *SSE {
	ctx, cancel := context.WithCancel(context.Background())
	s := &SSE{
		mcp:             mcp,
		sseEndpoint:     DefaultSSEEndpoint,
		messageEndpoint: DefaultMessageEndpoint,
		keepAlive:       DefaultKeepAlive,
		inboxSize:       DefaultInboxSize,
		logger:          slog.Default(),
		metrics:         &instrumentation.Metrics{},
		ctx:             ctx,
		cancel:          cancel,
		sessions:        make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logging.Transport(transportName))
	return s
}

// SSEEndpoint returns the event stream path.
func (s *SSE) SSEEndpoint() string { return s.sseEndpoint }

// MessageEndpoint returns the message post path.
func (s *SSE) MessageEndpoint() string { return s.messageEndpoint }

// Mount registers the stream and message routes on r.
func (s *SSE) Mount(r chi.Router) {
	r.Get(s.sseEndpoint, s.ServeSSE)
	r.Post(s.messageEndpoint, s.ServeMessage)
}

// SessionCount returns the number of open sessions.
func (s *SSE) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ServeSSE opens an event stream. It announces the message endpoint for the
// new session, then streams replies, notifications and keep-alive comments
// until the client goes away or the transport shuts down.
func (s *SSE) ServeSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	sess := newSession(s.inboxSize)
	if err := s.addSession(r.Context(), sess); err != nil {
		if errors.Is(err, ErrTransportClosed) {
			http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		} else {
			http.Error(w, "Could not register session", http.StatusInternalServerError)
		}
		return
	}
	defer s.removeSession(sess)

	logger := s.logger.With(logging.SessionID(sess.id))
	if reqID := chimiddleware.GetReqID(r.Context()); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	logger.Info("session connected", "active_sessions", s.SessionCount())

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, "endpoint", fmt.Sprintf("%s?session_id=%s", s.messageEndpoint, sess.id)); err != nil {
		logger.Debug("stream write failed", logging.Err(err))
		return
	}
	flusher.Flush()

	s.wg.Add(1)
	go s.runWorker(sess, logger)

	var ping <-chan time.Time
	if s.keepAlive > 0 {
		ticker := time.NewTicker(s.keepAlive)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		var err error
		select {
		case data := <-sess.outbox:
			// Notifications raised while the call ran go out before its reply.
			if err = drainNotifications(w, sess.notifications); err == nil {
				err = writeEvent(w, "message", string(data))
			}
		case n := <-sess.notifications:
			err = writeNotification(w, n)
		case <-ping:
			_, err = io.WriteString(w, ": ping\n\n")
		case <-r.Context().Done():
			logger.Info("session disconnected")
			return
		case <-sess.done:
			logger.Info("session closed")
			return
		case <-s.ctx.Done():
			logger.Info("session closed by shutdown")
			return
		}
		if err != nil {
			logger.Debug("stream write failed", logging.Err(err))
			return
		}
		flusher.Flush()
	}
}

// ServeMessage accepts one JSON-RPC message for the session named by the
// session_id query parameter. It answers 202 once the message is queued;
// the reply arrives on the session's event stream.
func (s *SSE) ServeMessage(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("session_id")
	if raw == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}
	id, ok := parseSessionID(raw)
	if !ok {
		http.Error(w, "Invalid session ID", http.StatusBadRequest)
		return
	}

	sess := s.lookup(id)
	if sess == nil || sess.closed() {
		http.Error(w, "Could not find session", http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Could not read message", http.StatusBadRequest)
		return
	}
	if !json.Valid(body) {
		http.Error(w, "Could not parse message", http.StatusBadRequest)
		return
	}

	select {
	case sess.inbox <- json.RawMessage(body):
	case <-sess.done:
		http.Error(w, "Could not find session", http.StatusNotFound)
		return
	case <-r.Context().Done():
		return
	}

	w.WriteHeader(http.StatusAccepted)
	_, _ = io.WriteString(w, "Accepted")
}

// Shutdown stops accepting streams, cancels in-flight dispatches and closes
// every session. It waits for session goroutines until ctx is done.
func (s *SSE) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	open := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		open = append(open, sess)
	}
	s.mu.Unlock()

	s.cancel()
	for _, sess := range open {
		sess.close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("transport shut down", "sessions_closed", len(open))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runWorker dispatches the session's messages in order. Replies for a
// session that closed meanwhile are discarded.
func (s *SSE) runWorker(sess *session, logger *slog.Logger) {
	defer s.wg.Done()

	ctx := s.mcp.WithContext(s.ctx, sess)
	for {
		select {
		case <-sess.done:
			return
		case <-s.ctx.Done():
			return
		case msg := <-sess.inbox:
			reply := s.dispatch(ctx, msg)
			if reply == nil {
				continue
			}
			data, err := json.Marshal(reply)
			if err != nil {
				logger.Error("failed to encode reply", logging.Err(err))
				continue
			}
			if !sess.deliver(data) {
				logger.Debug("reply discarded for closed session")
				return
			}
		}
	}
}

func (s *SSE) dispatch(ctx context.Context, msg json.RawMessage) mcp.JSONRPCMessage {
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}
	return s.mcp.HandleMessage(ctx, msg)
}

func (s *SSE) addSession(ctx context.Context, sess *session) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrTransportClosed
	}
	s.sessions[sess.id] = sess
	s.wg.Add(1)
	s.mu.Unlock()

	if err := s.mcp.RegisterSession(ctx, sess); err != nil {
		s.mu.Lock()
		delete(s.sessions, sess.id)
		s.mu.Unlock()
		s.wg.Done()
		return fmt.Errorf("register session: %w", err)
	}

	s.metrics.IncrementActiveSessions(ctx)
	return nil
}

func (s *SSE) removeSession(sess *session) {
	sess.close()

	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()

	s.mcp.UnregisterSession(context.Background(), sess.id)
	s.metrics.DecrementActiveSessions(context.Background())
	s.wg.Done()
}

func (s *SSE) lookup(id string) *session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

func writeNotification(w io.Writer, n mcp.JSONRPCNotification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return writeEvent(w, "message", string(data))
}

// drainNotifications writes every notification already queued, without
// waiting for more.
func drainNotifications(w io.Writer, ch <-chan mcp.JSONRPCNotification) error {
	for {
		select {
		case n := <-ch:
			if err := writeNotification(w, n); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func writeEvent(w io.Writer, event, data string) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
