package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/fieldline/erp-realtime-backend/internal/core/domain"
	"github.com/fieldline/erp-realtime-backend/internal/core/ports"
	"github.com/fieldline/erp-realtime-backend/internal/metrics"
)

// DefaultPingInterval is how often the hub pings every connection.
const DefaultPingInterval = 25 * time.Second

// Hub owns the set of active sessions and the room registry. It is the
// single Broadcaster for the process; one instance is constructed by the
// entry point with injected dependencies, no ambient singletons.
type Hub struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	rooms        *RoomRegistry
	snapshots    ports.SnapshotSource
	clock        clockwork.Clock
	pingInterval time.Duration
	logger       *slog.Logger
}

// Ensure Hub implements the ports.Broadcaster interface.
var _ ports.Broadcaster = (*Hub)(nil)

// NewHub creates a hub. snapshots may be nil when no aggregator is
// wired (tests); joining the dashboard room then delivers no greeting.
func NewHub(snapshots ports.SnapshotSource, clock clockwork.Clock, pingInterval time.Duration, logger *slog.Logger) *Hub {
	if pingInterval <= 0 {
		pingInterval = DefaultPingInterval
	}
	return &Hub{
		sessions:     make(map[uuid.UUID]*Session),
		rooms:        NewRoomRegistry(),
		snapshots:    snapshots,
		clock:        clock,
		pingInterval: pingInterval,
		logger:       logger.With("component", "hub"),
	}
}

// Run emits the periodic liveness ping to every connection until ctx is
// cancelled. Clients answer with a pong message.
func (h *Hub) Run(ctx context.Context) {
	ticker := h.clock.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			h.pingAll()
		case <-ctx.Done():
			h.logger.Info("hub stopped")
			return
		}
	}
}

// Register adds a session to the hub.
func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	h.sessions[s.ID] = s
	h.mu.Unlock()

	metrics.ConnectedSessions.WithLabelValues(s.Transport).Inc()
	h.logger.Info("session registered",
		"session_id", s.ID,
		"user_id", s.UserID,
		"transport", s.Transport,
	)
}

// Unregister removes a session, clears its room memberships
// synchronously and signals its teardown. Safe to call repeatedly.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	_, present := h.sessions[s.ID]
	delete(h.sessions, s.ID)
	h.mu.Unlock()

	if !present {
		return
	}

	// Room entries must go before anything else can fan out to this
	// session; a closed connection must never receive a broadcast.
	h.rooms.LeaveAll(s.ID)
	s.Close()

	metrics.ConnectedSessions.WithLabelValues(s.Transport).Dec()
	h.logger.Info("session unregistered",
		"session_id", s.ID,
		"user_id", s.UserID,
	)
}

// Join subscribes a registered session to a room. Joining the dashboard
// room immediately delivers the current snapshot so a fresh dashboard
// does not wait a full aggregation interval.
func (h *Hub) Join(sessionID uuid.UUID, room string) {
	s := h.session(sessionID)
	if s == nil {
		h.logger.Warn("join for unknown session", "session_id", sessionID, "room", room)
		return
	}

	h.rooms.Join(sessionID, room)
	h.logger.Debug("session joined room", "session_id", sessionID, "room", room)

	if room == domain.RoomDashboard && h.snapshots != nil {
		if snapshot, ok := h.snapshots.Current(); ok {
			h.deliver(s, domain.ServerEvent{
				Type:    domain.ServerEventDashboardUpdate,
				Payload: snapshot,
			})
		}
	}
}

// Leave unsubscribes a session from a room.
func (h *Hub) Leave(sessionID uuid.UUID, room string) {
	h.rooms.Leave(sessionID, room)
	h.logger.Debug("session left room", "session_id", sessionID, "room", room)
}

// BroadcastToRoom fans an event out to every member of a room. Delivery
// is best effort: a member whose buffer is full has the event dropped.
func (h *Hub) BroadcastToRoom(room string, event domain.ServerEvent) {
	members := h.rooms.Members(room)
	if len(members) == 0 {
		return
	}

	metrics.BroadcastsTotal.WithLabelValues(string(event.Type)).Inc()

	for _, id := range members {
		if s := h.session(id); s != nil {
			h.deliver(s, event)
		}
	}
}

// pingAll sends the liveness probe to every session regardless of room
// membership.
func (h *Hub) pingAll() {
	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	ping := domain.ServerEvent{Type: domain.ServerEventPing}
	for _, s := range sessions {
		h.deliver(s, ping)
	}
}

// deliver queues an event for one session. A fan-out may race with
// Unregister; the done case makes that window a silent no-op instead of
// a send on a dead session's queue.
func (h *Hub) deliver(s *Session, event domain.ServerEvent) {
	select {
	case <-s.done:
	case s.Send <- event:
	default:
		metrics.DroppedEventsTotal.Inc()
		h.logger.Warn("session send buffer full, dropping event",
			"session_id", s.ID,
			"event_type", event.Type,
		)
	}
}

func (h *Hub) session(id uuid.UUID) *Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sessions[id]
}

// MarkPong records a liveness reply for a session.
func (h *Hub) MarkPong(sessionID uuid.UUID) {
	if s := h.session(sessionID); s != nil {
		s.MarkPong(h.clock.Now())
	}
}

// SessionCount returns the number of registered sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// RoomCount returns the number of rooms with at least one member.
func (h *Hub) RoomCount() int {
	return h.rooms.RoomCount()
}

// MembersOf returns the connection IDs subscribed to a room.
func (h *Hub) MembersOf(room string) []uuid.UUID {
	return h.rooms.Members(room)
}
