package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldline/erp-realtime-backend/internal/core/domain"
)

// Transport labels for metrics and logging.
const (
	TransportWebSocket = "websocket"
	TransportPolling   = "polling"
)

// sendBufferSize bounds the per-session outbound queue. A subscriber
// that cannot keep up has events dropped rather than blocking the hub.
const sendBufferSize = 256

// Session is one logical connection registered with the hub,
// independent of the transport carrying it.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Transport string

	// Send is the buffered outbound queue drained by the transport.
	// It is never closed: the hub may be mid-fan-out on another
	// goroutine, and a send on a closed channel panics. Teardown is
	// signalled through Done instead.
	Send chan domain.ServerEvent

	done      chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	lastPong time.Time
}

// NewSession creates a session with a fresh connection ID.
func NewSession(userID uuid.UUID, transport string) *Session {
	return &Session{
		ID:        uuid.New(),
		UserID:    userID,
		Transport: transport,
		Send:      make(chan domain.ServerEvent, sendBufferSize),
		done:      make(chan struct{}),
	}
}

// Close marks the session as torn down exactly once. Transports select
// on Done alongside Send to learn about it.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// Done is closed when the session has been torn down.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Closed reports whether the session has been torn down.
func (s *Session) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// MarkPong records a liveness reply from the client.
func (s *Session) MarkPong(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPong = now
}

// LastPong returns when the client last answered a ping. Zero if never.
func (s *Session) LastPong() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPong
}
