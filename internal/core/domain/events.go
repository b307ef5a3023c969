package domain

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/fieldline/erp-realtime-backend/internal/core/errors"
)

// EventKind identifies a client-originated business event.
type EventKind string

const (
	EventEquipmentStatusUpdate EventKind = "equipment-status-update"
	EventInventoryUpdate       EventKind = "inventory-update"
	EventSafetyAlert           EventKind = "safety-alert"
	EventGPSUpdate             EventKind = "gps-update"
)

// KnownEventKind reports whether kind names one of the dispatchable events.
func KnownEventKind(kind EventKind) bool {
	switch kind {
	case EventEquipmentStatusUpdate, EventInventoryUpdate, EventSafetyAlert, EventGPSUpdate:
		return true
	}
	return false
}

// DomainEvent is an inbound message from a client. It is transient and
// exists only for the duration of dispatch.
type DomainEvent struct {
	Kind    EventKind       `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// ServerEventType identifies a message pushed from the hub to room members.
type ServerEventType string

const (
	ServerEventDashboardUpdate ServerEventType = "dashboard-update"
	ServerEventAlert           ServerEventType = "alert"
	ServerEventEquipmentStatus ServerEventType = "equipment-status"
	ServerEventGPSUpdate       ServerEventType = "gps-update"
	ServerEventInventoryUpdate ServerEventType = "inventory-update"
	ServerEventPing            ServerEventType = "ping"
)

// ServerEvent is the payload fanned out to subscribed connections.
type ServerEvent struct {
	Type    ServerEventType `json:"type"`
	Payload interface{}     `json:"payload,omitempty"`
}

// Well-known room names. Per-equipment rooms are derived with EquipmentRoom.
const (
	RoomDashboard = "dashboard"
	RoomInventory = "inventory"
)

// EquipmentRoom returns the broadcast room for one piece of equipment.
func EquipmentRoom(equipmentID string) string {
	return "equipment-" + equipmentID
}

// EquipmentStatusPayload carries a status change for one piece of equipment.
type EquipmentStatusPayload struct {
	EquipmentID    string  `json:"equipmentId"`
	Status         string  `json:"status"`
	Location       string  `json:"location,omitempty"`
	EngineHours    float64 `json:"engineHours,omitempty"`
	MaintenanceDue bool    `json:"maintenanceDue,omitempty"`
}

func (p EquipmentStatusPayload) Validate() error {
	if p.EquipmentID == "" {
		return apperrors.ErrEquipmentIDRequired
	}
	if p.Status == "" {
		return apperrors.ErrStatusRequired
	}
	if p.EngineHours < 0 {
		return fmt.Errorf("%w: engineHours must not be negative", apperrors.ErrInvalidPayload)
	}
	return nil
}

// InventoryUpdatePayload carries a quantity change for one inventory item.
type InventoryUpdatePayload struct {
	ItemID       string `json:"itemId"`
	Name         string `json:"name,omitempty"`
	Quantity     int64  `json:"quantity"`
	ReorderPoint int64  `json:"reorderPoint,omitempty"`
	LowStock     bool   `json:"lowStock,omitempty"`
}

func (p InventoryUpdatePayload) Validate() error {
	if p.ItemID == "" {
		return apperrors.ErrItemIDRequired
	}
	if p.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", apperrors.ErrInvalidPayload)
	}
	return nil
}

// SafetyAlertPayload carries an urgent safety notification. It is never
// persisted; the hub passes it straight through to the dashboard.
type SafetyAlertPayload struct {
	EquipmentID string `json:"equipmentId,omitempty"`
	Severity    string `json:"severity,omitempty"`
	Message     string `json:"message"`
}

func (p SafetyAlertPayload) Validate() error {
	if p.Message == "" {
		return apperrors.ErrMessageRequired
	}
	return nil
}

// GPSPayload carries a positional update for one piece of equipment.
// These are high frequency and are routed to the equipment room only.
type GPSPayload struct {
	EquipmentID string  `json:"equipmentId"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

func (p GPSPayload) Validate() error {
	if p.EquipmentID == "" {
		return apperrors.ErrEquipmentIDRequired
	}
	if p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("%w: latitude out of range", apperrors.ErrInvalidPayload)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("%w: longitude out of range", apperrors.ErrInvalidPayload)
	}
	return nil
}
