package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	mw "github.com/fieldline/erp-realtime-backend/internal/adapters/primary/http/middleware"
	"github.com/fieldline/erp-realtime-backend/internal/adapters/primary/realtime"
	"github.com/fieldline/erp-realtime-backend/internal/core/domain"
	apperrors "github.com/fieldline/erp-realtime-backend/internal/core/errors"
)

// maxEmitBodySize bounds the size of an emitted event body.
const maxEmitBodySize = 64 * 1024

// pollBatchSize bounds how many queued events one poll request returns.
const pollBatchSize = 32

// PollingHandler is the long-poll fallback transport for clients that
// cannot hold a WebSocket open. Sessions registered here share the hub,
// its rooms and its broadcast path with the socket transport; only the
// delivery mechanics differ.
type PollingHandler struct {
	hub        *realtime.Hub
	messages   *realtime.MessageHandler
	errors     *ErrorHandler
	clock      clockwork.Clock
	pollWait   time.Duration
	sessionTTL time.Duration
	logger     *slog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*pollSession
}

type pollSession struct {
	session  *realtime.Session
	lastSeen time.Time
}

// NewPollingHandler creates the long-poll transport handler.
func NewPollingHandler(
	hub *realtime.Hub,
	messages *realtime.MessageHandler,
	errors *ErrorHandler,
	clock clockwork.Clock,
	pollWait time.Duration,
	sessionTTL time.Duration,
	logger *slog.Logger,
) *PollingHandler {
	return &PollingHandler{
		hub:        hub,
		messages:   messages,
		errors:     errors,
		clock:      clock,
		pollWait:   pollWait,
		sessionTTL: sessionTTL,
		logger:     logger.With("component", "polling_handler"),
		sessions:   make(map[uuid.UUID]*pollSession),
	}
}

// RegisterRoutes mounts the long-poll endpoints on the given router.
func (h *PollingHandler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.HandleCreateSession)
	r.Get("/session/{sessionID}/events", h.HandlePoll)
	r.Post("/session/{sessionID}/events", h.HandleEmit)
	r.Delete("/session/{sessionID}", h.HandleCloseSession)
}

// Run reaps idle polling sessions until ctx is cancelled. A client that
// stops polling is treated exactly like a dropped socket: unregistered
// from the hub, rooms cleared.
func (h *PollingHandler) Run(ctx context.Context) {
	ticker := h.clock.NewTicker(h.sessionTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			h.reapIdle()
		}
	}
}

func (h *PollingHandler) reapIdle() {
	cutoff := h.clock.Now().Add(-h.sessionTTL)

	h.mu.Lock()
	var stale []*realtime.Session
	for id, ps := range h.sessions {
		if ps.lastSeen.Before(cutoff) {
			stale = append(stale, ps.session)
			delete(h.sessions, id)
		}
	}
	h.mu.Unlock()

	for _, s := range stale {
		h.logger.Info("reaping idle polling session", "session_id", s.ID)
		h.hub.Unregister(s)
	}
}

// HandleCreateSession registers a new polling session for the
// authenticated user and returns its identifier.
func (h *PollingHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := mw.ClaimsFromContext(r.Context())
	if !ok {
		h.errors.Handle(w, r, apperrors.ErrUnauthorized)
		return
	}

	session := realtime.NewSession(claims.UserID, realtime.TransportPolling)
	h.hub.Register(session)

	h.mu.Lock()
	h.sessions[session.ID] = &pollSession{session: session, lastSeen: h.clock.Now()}
	h.mu.Unlock()

	h.logger.Info("polling session created",
		"session_id", session.ID,
		"user_id", claims.UserID,
	)

	WriteCreated(w, map[string]string{"sessionId": session.ID.String()})
}

// HandlePoll drains queued events for the session, parking the request
// until an event arrives, the poll window lapses or the client goes
// away. An empty batch is a normal response, not an error.
func (h *PollingHandler) HandlePoll(w http.ResponseWriter, r *http.Request) {
	ps, ok := h.touch(r)
	if !ok || ps.session.Closed() {
		h.errors.Handle(w, r, apperrors.ErrSessionNotFound)
		return
	}

	events := h.drain(ps.session)
	if len(events) == 0 {
		select {
		case <-ps.session.Done():
			// Hub unregistered the session while we were parked.
			h.forget(ps.session.ID)
			h.errors.Handle(w, r, apperrors.ErrSessionNotFound)
			return
		case ev := <-ps.session.Send:
			events = append(events, ev)
			events = append(events, h.drain(ps.session)...)
		case <-h.clock.After(h.pollWait):
		case <-r.Context().Done():
			return
		}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

// HandleEmit accepts one client message (room management, liveness or a
// domain event) and routes it as if it had arrived over a socket.
func (h *PollingHandler) HandleEmit(w http.ResponseWriter, r *http.Request) {
	ps, ok := h.touch(r)
	if !ok {
		h.errors.Handle(w, r, apperrors.ErrSessionNotFound)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxEmitBodySize))
	if err != nil {
		h.errors.Handle(w, r, apperrors.ErrInvalidPayload)
		return
	}

	h.messages.Handle(r.Context(), ps.session, body)
	WriteAccepted(w)
}

// HandleCloseSession tears down a polling session explicitly.
func (h *PollingHandler) HandleCloseSession(w http.ResponseWriter, r *http.Request) {
	ps, ok := h.touch(r)
	if !ok {
		h.errors.Handle(w, r, apperrors.ErrSessionNotFound)
		return
	}

	h.forget(ps.session.ID)
	h.hub.Unregister(ps.session)
	WriteNoContent(w)
}

// touch looks up the session from the URL and refreshes its idle timer.
func (h *PollingHandler) touch(r *http.Request) (*pollSession, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		return nil, false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	ps, ok := h.sessions[id]
	if !ok {
		return nil, false
	}
	ps.lastSeen = h.clock.Now()
	return ps, true
}

func (h *PollingHandler) forget(id uuid.UUID) {
	h.mu.Lock()
	delete(h.sessions, id)
	h.mu.Unlock()
}

// drain collects immediately available events without blocking.
func (h *PollingHandler) drain(s *realtime.Session) []domain.ServerEvent {
	events := make([]domain.ServerEvent, 0)
	for len(events) < pollBatchSize {
		select {
		case ev := <-s.Send:
			events = append(events, ev)
		default:
			return events
		}
	}
	return events
}

// SessionCount returns the number of live polling sessions.
func (h *PollingHandler) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}
