package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/fieldline/erp-realtime-backend/internal/core/domain"
	apperrors "github.com/fieldline/erp-realtime-backend/internal/core/errors"
	"github.com/fieldline/erp-realtime-backend/internal/core/ports"
	"github.com/fieldline/erp-realtime-backend/internal/metrics"
)

// Dispatcher routes client-originated domain events. Every handler
// follows the same order: validate, persist, broadcast. A persist
// failure drops the event; nothing is broadcast for it.
type Dispatcher struct {
	equipment   ports.EquipmentRepository
	inventory   ports.InventoryRepository
	broadcaster ports.Broadcaster
	clock       clockwork.Clock
	logger      *slog.Logger
}

// Ensure Dispatcher implements the ports.EventDispatcher interface.
var _ ports.EventDispatcher = (*Dispatcher)(nil)

// NewDispatcher creates an event dispatcher with injected stores.
func NewDispatcher(
	equipment ports.EquipmentRepository,
	inventory ports.InventoryRepository,
	broadcaster ports.Broadcaster,
	clock clockwork.Clock,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		equipment:   equipment,
		inventory:   inventory,
		broadcaster: broadcaster,
		clock:       clock,
		logger:      logger.With("component", "dispatcher"),
	}
}

// Dispatch handles one inbound DomainEvent. Handlers for different
// events may run concurrently; ordering is only guaranteed within a
// single event (persist happens-before broadcast).
func (d *Dispatcher) Dispatch(ctx context.Context, event domain.DomainEvent) error {
	var err error
	switch event.Kind {
	case domain.EventEquipmentStatusUpdate:
		err = d.handleEquipmentStatus(ctx, event.Payload)
	case domain.EventInventoryUpdate:
		err = d.handleInventoryUpdate(ctx, event.Payload)
	case domain.EventSafetyAlert:
		err = d.handleSafetyAlert(event.Payload)
	case domain.EventGPSUpdate:
		err = d.handleGPSUpdate(ctx, event.Payload)
	default:
		err = fmt.Errorf("%w: %q", apperrors.ErrUnknownEventKind, event.Kind)
	}

	status := "ok"
	if err != nil {
		status = "error"
		d.logger.Warn("event dropped",
			"kind", event.Kind,
			"error", err,
		)
	}
	metrics.EventsTotal.WithLabelValues(string(event.Kind), status).Inc()

	return err
}

func (d *Dispatcher) handleEquipmentStatus(ctx context.Context, raw json.RawMessage) error {
	var p domain.EquipmentStatusPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidPayload, err)
	}
	if err := p.Validate(); err != nil {
		return err
	}

	if err := d.equipment.UpdateStatus(ctx, p); err != nil {
		return fmt.Errorf("persist equipment status: %w", err)
	}

	d.broadcaster.BroadcastToRoom(domain.EquipmentRoom(p.EquipmentID), domain.ServerEvent{
		Type:    domain.ServerEventEquipmentStatus,
		Payload: p,
	})

	if p.MaintenanceDue {
		d.broadcaster.BroadcastToRoom(domain.RoomDashboard, domain.ServerEvent{
			Type:    domain.ServerEventAlert,
			Payload: domain.NewMaintenanceDueAlert(p.EquipmentID, d.clock.Now()),
		})
	}

	return nil
}

func (d *Dispatcher) handleInventoryUpdate(ctx context.Context, raw json.RawMessage) error {
	var p domain.InventoryUpdatePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidPayload, err)
	}
	if err := p.Validate(); err != nil {
		return err
	}

	if err := d.inventory.UpdateQuantity(ctx, p); err != nil {
		return fmt.Errorf("persist inventory update: %w", err)
	}

	d.broadcaster.BroadcastToRoom(domain.RoomInventory, domain.ServerEvent{
		Type:    domain.ServerEventInventoryUpdate,
		Payload: p,
	})

	if p.LowStock {
		d.broadcaster.BroadcastToRoom(domain.RoomDashboard, domain.ServerEvent{
			Type:    domain.ServerEventAlert,
			Payload: domain.NewLowStockAlert(p, d.clock.Now()),
		})
	}

	return nil
}

// handleSafetyAlert is a pure pass-through: no store write, immediate
// broadcast. Safety alerts are the highest urgency events in the system.
func (d *Dispatcher) handleSafetyAlert(raw json.RawMessage) error {
	var p domain.SafetyAlertPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidPayload, err)
	}
	if err := p.Validate(); err != nil {
		return err
	}

	d.broadcaster.BroadcastToRoom(domain.RoomDashboard, domain.ServerEvent{
		Type:    domain.ServerEventAlert,
		Payload: domain.NewSafetyAlert(p, d.clock.Now()),
	})

	return nil
}

// handleGPSUpdate fans out to the equipment room only. Dashboard cards
// do not need per-update GPS churn.
func (d *Dispatcher) handleGPSUpdate(ctx context.Context, raw json.RawMessage) error {
	var p domain.GPSPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidPayload, err)
	}
	if err := p.Validate(); err != nil {
		return err
	}

	if err := d.equipment.UpdateLocation(ctx, p); err != nil {
		return fmt.Errorf("persist gps update: %w", err)
	}

	d.broadcaster.BroadcastToRoom(domain.EquipmentRoom(p.EquipmentID), domain.ServerEvent{
		Type:    domain.ServerEventGPSUpdate,
		Payload: p,
	})

	return nil
}
