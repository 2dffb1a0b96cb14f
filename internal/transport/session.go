package transport

import (
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// notificationBuffer matches the buffer mcp-go gives its own sessions.
const notificationBuffer = 100

// session is one connected event stream. It implements mcpserver.ClientSession.
type session struct {
	id string

	// inbox holds accepted client messages in acceptance order.
	inbox chan json.RawMessage
	// outbox holds encoded JSON-RPC replies waiting for the stream loop.
	outbox        chan []byte
	notifications chan mcp.JSONRPCNotification

	initialized atomic.Bool

	done      chan struct{}
	closeOnce sync.Once
}

func newSession(inboxSize int) *session {
	return &session{
		id:            newSessionID(),
		inbox:         make(chan json.RawMessage, inboxSize),
		outbox:        make(chan []byte, inboxSize),
		notifications: make(chan mcp.JSONRPCNotification, notificationBuffer),
		done:          make(chan struct{}),
	}
}

func (s *session) SessionID() string { return s.id }

func (s *session) NotificationChannel() chan<- mcp.JSONRPCNotification { return s.notifications }

func (s *session) Initialize() { s.initialized.Store(true) }

func (s *session) Initialized() bool { return s.initialized.Load() }

// close marks the session closed. Pending and later sends are dropped.
func (s *session) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *session) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// deliver queues an encoded reply for the stream. It reports false when the
// session closed first and the reply was discarded.
func (s *session) deliver(data []byte) bool {
	select {
	case s.outbox <- data:
		return true
	case <-s.done:
		return false
	}
}

// newSessionID returns a random UUID as 32 lowercase hex characters.
func newSessionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// parseSessionID accepts any textual UUID form and returns its 32 hex
// character canonical form.
func parseSessionID(raw string) (string, bool) {
	u, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return strings.ReplaceAll(u.String(), "-", ""), true
}
