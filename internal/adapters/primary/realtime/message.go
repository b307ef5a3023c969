package realtime

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/fieldline/erp-realtime-backend/internal/core/domain"
	"github.com/fieldline/erp-realtime-backend/internal/core/ports"
)

// Inbound message types that address the hub itself rather than a
// domain store.
const (
	MsgJoinDashboard          = "join-dashboard"
	MsgJoinInventory          = "join-inventory"
	MsgJoinEquipmentTracking  = "join-equipment-tracking"
	MsgLeaveDashboard         = "leave-dashboard"
	MsgLeaveInventory         = "leave-inventory"
	MsgLeaveEquipmentTracking = "leave-equipment-tracking"
	MsgPong                   = "pong"
)

// ClientMessage is the wire structure for messages sent by a client,
// over either transport.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// EquipmentTrackingPayload selects the equipment room to join or leave.
type EquipmentTrackingPayload struct {
	EquipmentID string `json:"equipmentId"`
}

// MessageHandler decodes inbound client messages and routes them to the
// hub (room management, liveness) or the dispatcher (domain events).
type MessageHandler struct {
	hub        *Hub
	dispatcher ports.EventDispatcher
	logger     *slog.Logger
}

// NewMessageHandler creates a message handler bound to one hub.
func NewMessageHandler(hub *Hub, dispatcher ports.EventDispatcher, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{
		hub:        hub,
		dispatcher: dispatcher,
		logger:     logger.With("component", "message_handler"),
	}
}

// Handle processes one raw client message for a session. Malformed or
// failing messages are logged and dropped; the connection stays up.
func (mh *MessageHandler) Handle(ctx context.Context, session *Session, raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		mh.logger.Warn("failed to unmarshal client message",
			"session_id", session.ID,
			"error", err,
		)
		return
	}

	switch msg.Type {
	case MsgJoinDashboard:
		mh.hub.Join(session.ID, domain.RoomDashboard)

	case MsgJoinInventory:
		mh.hub.Join(session.ID, domain.RoomInventory)

	case MsgJoinEquipmentTracking:
		if room, ok := mh.equipmentRoom(session, msg.Payload); ok {
			mh.hub.Join(session.ID, room)
		}

	case MsgLeaveDashboard:
		mh.hub.Leave(session.ID, domain.RoomDashboard)

	case MsgLeaveInventory:
		mh.hub.Leave(session.ID, domain.RoomInventory)

	case MsgLeaveEquipmentTracking:
		if room, ok := mh.equipmentRoom(session, msg.Payload); ok {
			mh.hub.Leave(session.ID, room)
		}

	case MsgPong:
		mh.hub.MarkPong(session.ID)

	default:
		kind := domain.EventKind(msg.Type)
		if !domain.KnownEventKind(kind) {
			mh.logger.Debug("received unknown message type",
				"session_id", session.ID,
				"type", msg.Type,
			)
			return
		}
		// Dispatch errors are already logged with their cause; the
		// event is dropped without feedback to the sender.
		_ = mh.dispatcher.Dispatch(ctx, domain.DomainEvent{Kind: kind, Payload: msg.Payload})
	}
}

func (mh *MessageHandler) equipmentRoom(session *Session, raw json.RawMessage) (string, bool) {
	var p EquipmentTrackingPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.EquipmentID == "" {
		mh.logger.Warn("invalid equipment tracking payload",
			"session_id", session.ID,
			"error", err,
		)
		return "", false
	}
	return domain.EquipmentRoom(p.EquipmentID), true
}
