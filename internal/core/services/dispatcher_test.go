package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fieldline/erp-realtime-backend/internal/core/domain"
	apperrors "github.com/fieldline/erp-realtime-backend/internal/core/errors"
	"github.com/fieldline/erp-realtime-backend/internal/core/mocks"
	"github.com/fieldline/erp-realtime-backend/internal/core/services"
)

func rawPayload(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func newDispatcher(
	equipment *mocks.MockEquipmentRepository,
	inventory *mocks.MockInventoryRepository,
	broadcaster *mocks.RecordingBroadcaster,
) *services.Dispatcher {
	return services.NewDispatcher(
		equipment,
		inventory,
		broadcaster,
		clockwork.NewFakeClock(),
		slog.New(slog.DiscardHandler),
	)
}

func TestDispatcher_EquipmentStatusUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("persists then broadcasts to equipment room", func(t *testing.T) {
		equipment := mocks.NewMockEquipmentRepository()
		inventory := mocks.NewMockInventoryRepository()
		broadcaster := mocks.NewRecordingBroadcaster()
		d := newDispatcher(equipment, inventory, broadcaster)

		payload := domain.EquipmentStatusPayload{
			EquipmentID: "EXC-001",
			Status:      "operational",
			EngineHours: 1250.5,
		}
		equipment.On("UpdateStatus", ctx, payload).Return(nil)

		err := d.Dispatch(ctx, domain.DomainEvent{
			Kind:    domain.EventEquipmentStatusUpdate,
			Payload: rawPayload(t, payload),
		})

		require.NoError(t, err)
		equipment.AssertExpectations(t)

		events := broadcaster.EventsFor(domain.EquipmentRoom("EXC-001"))
		require.Len(t, events, 1)
		assert.Equal(t, domain.ServerEventEquipmentStatus, events[0].Type)
		assert.Empty(t, broadcaster.EventsFor(domain.RoomDashboard))
	})

	t.Run("maintenance due synthesizes dashboard alert", func(t *testing.T) {
		equipment := mocks.NewMockEquipmentRepository()
		inventory := mocks.NewMockInventoryRepository()
		broadcaster := mocks.NewRecordingBroadcaster()
		d := newDispatcher(equipment, inventory, broadcaster)

		payload := domain.EquipmentStatusPayload{
			EquipmentID:    "EXC-002",
			Status:         "idle",
			MaintenanceDue: true,
		}
		equipment.On("UpdateStatus", ctx, payload).Return(nil)

		err := d.Dispatch(ctx, domain.DomainEvent{
			Kind:    domain.EventEquipmentStatusUpdate,
			Payload: rawPayload(t, payload),
		})

		require.NoError(t, err)

		dashboard := broadcaster.EventsFor(domain.RoomDashboard)
		require.Len(t, dashboard, 1)
		assert.Equal(t, domain.ServerEventAlert, dashboard[0].Type)

		alert, ok := dashboard[0].Payload.(domain.Alert)
		require.True(t, ok)
		assert.Equal(t, domain.AlertWarning, alert.Type)
		assert.Equal(t, "EXC-002", alert.SubjectID)
	})

	t.Run("store write failure produces zero broadcasts", func(t *testing.T) {
		equipment := mocks.NewMockEquipmentRepository()
		inventory := mocks.NewMockInventoryRepository()
		broadcaster := mocks.NewRecordingBroadcaster()
		d := newDispatcher(equipment, inventory, broadcaster)

		equipment.On("UpdateStatus", ctx, mock.AnythingOfType("domain.EquipmentStatusPayload")).
			Return(errors.New("connection refused"))

		err := d.Dispatch(ctx, domain.DomainEvent{
			Kind: domain.EventEquipmentStatusUpdate,
			Payload: rawPayload(t, domain.EquipmentStatusPayload{
				EquipmentID:    "EXC-003",
				Status:         "operational",
				MaintenanceDue: true,
			}),
		})

		assert.Error(t, err)
		assert.Zero(t, broadcaster.TotalEvents())
	})

	t.Run("invalid payload never reaches the store", func(t *testing.T) {
		equipment := mocks.NewMockEquipmentRepository()
		inventory := mocks.NewMockInventoryRepository()
		broadcaster := mocks.NewRecordingBroadcaster()
		d := newDispatcher(equipment, inventory, broadcaster)

		err := d.Dispatch(ctx, domain.DomainEvent{
			Kind:    domain.EventEquipmentStatusUpdate,
			Payload: rawPayload(t, domain.EquipmentStatusPayload{Status: "operational"}),
		})

		assert.ErrorIs(t, err, apperrors.ErrEquipmentIDRequired)
		equipment.AssertNotCalled(t, "UpdateStatus")
		assert.Zero(t, broadcaster.TotalEvents())
	})
}

func TestDispatcher_InventoryUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("low stock fans out raw update and dashboard alert", func(t *testing.T) {
		equipment := mocks.NewMockEquipmentRepository()
		inventory := mocks.NewMockInventoryRepository()
		broadcaster := mocks.NewRecordingBroadcaster()
		d := newDispatcher(equipment, inventory, broadcaster)

		payload := domain.InventoryUpdatePayload{
			ItemID:       "HYD-FILTER-20",
			Name:         "Hydraulic filter",
			Quantity:     3,
			ReorderPoint: 5,
			LowStock:     true,
		}
		inventory.On("UpdateQuantity", ctx, payload).Return(nil)

		err := d.Dispatch(ctx, domain.DomainEvent{
			Kind:    domain.EventInventoryUpdate,
			Payload: rawPayload(t, payload),
		})

		require.NoError(t, err)

		invEvents := broadcaster.EventsFor(domain.RoomInventory)
		require.Len(t, invEvents, 1)
		assert.Equal(t, domain.ServerEventInventoryUpdate, invEvents[0].Type)
		assert.Equal(t, payload, invEvents[0].Payload)

		dashboard := broadcaster.EventsFor(domain.RoomDashboard)
		require.Len(t, dashboard, 1)
		alert, ok := dashboard[0].Payload.(domain.Alert)
		require.True(t, ok)
		assert.Equal(t, domain.AlertWarning, alert.Type)
		assert.Contains(t, alert.Message, "Hydraulic filter")
	})

	t.Run("normal stock level produces no alert", func(t *testing.T) {
		equipment := mocks.NewMockEquipmentRepository()
		inventory := mocks.NewMockInventoryRepository()
		broadcaster := mocks.NewRecordingBroadcaster()
		d := newDispatcher(equipment, inventory, broadcaster)

		payload := domain.InventoryUpdatePayload{ItemID: "BOLT-M12", Quantity: 500}
		inventory.On("UpdateQuantity", ctx, payload).Return(nil)

		err := d.Dispatch(ctx, domain.DomainEvent{
			Kind:    domain.EventInventoryUpdate,
			Payload: rawPayload(t, payload),
		})

		require.NoError(t, err)
		assert.Len(t, broadcaster.EventsFor(domain.RoomInventory), 1)
		assert.Empty(t, broadcaster.EventsFor(domain.RoomDashboard))
	})

	t.Run("store write failure produces zero broadcasts", func(t *testing.T) {
		equipment := mocks.NewMockEquipmentRepository()
		inventory := mocks.NewMockInventoryRepository()
		broadcaster := mocks.NewRecordingBroadcaster()
		d := newDispatcher(equipment, inventory, broadcaster)

		inventory.On("UpdateQuantity", ctx, mock.AnythingOfType("domain.InventoryUpdatePayload")).
			Return(errors.New("write timeout"))

		err := d.Dispatch(ctx, domain.DomainEvent{
			Kind: domain.EventInventoryUpdate,
			Payload: rawPayload(t, domain.InventoryUpdatePayload{
				ItemID: "HYD-FILTER-20", Quantity: 3, LowStock: true,
			}),
		})

		assert.Error(t, err)
		assert.Zero(t, broadcaster.TotalEvents())
	})
}

func TestDispatcher_SafetyAlert(t *testing.T) {
	ctx := context.Background()

	t.Run("pass-through with no store write", func(t *testing.T) {
		equipment := mocks.NewMockEquipmentRepository()
		inventory := mocks.NewMockInventoryRepository()
		broadcaster := mocks.NewRecordingBroadcaster()
		d := newDispatcher(equipment, inventory, broadcaster)

		err := d.Dispatch(ctx, domain.DomainEvent{
			Kind: domain.EventSafetyAlert,
			Payload: rawPayload(t, domain.SafetyAlertPayload{
				EquipmentID: "CRN-007",
				Severity:    "critical",
				Message:     "Load limit exceeded",
			}),
		})

		require.NoError(t, err)
		equipment.AssertNotCalled(t, "UpdateStatus")
		inventory.AssertNotCalled(t, "UpdateQuantity")

		dashboard := broadcaster.EventsFor(domain.RoomDashboard)
		require.Len(t, dashboard, 1)
		alert, ok := dashboard[0].Payload.(domain.Alert)
		require.True(t, ok)
		assert.Equal(t, domain.AlertError, alert.Type)
		assert.Equal(t, "Load limit exceeded", alert.Message)
	})
}

func TestDispatcher_GPSUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("routes to equipment room only", func(t *testing.T) {
		equipment := mocks.NewMockEquipmentRepository()
		inventory := mocks.NewMockInventoryRepository()
		broadcaster := mocks.NewRecordingBroadcaster()
		d := newDispatcher(equipment, inventory, broadcaster)

		payload := domain.GPSPayload{EquipmentID: "TRK-014", Latitude: 52.52, Longitude: 13.405}
		equipment.On("UpdateLocation", ctx, payload).Return(nil)

		err := d.Dispatch(ctx, domain.DomainEvent{
			Kind:    domain.EventGPSUpdate,
			Payload: rawPayload(t, payload),
		})

		require.NoError(t, err)
		assert.Len(t, broadcaster.EventsFor(domain.EquipmentRoom("TRK-014")), 1)
		assert.Empty(t, broadcaster.EventsFor(domain.RoomDashboard))
	})

	t.Run("rejects out of range coordinates", func(t *testing.T) {
		equipment := mocks.NewMockEquipmentRepository()
		inventory := mocks.NewMockInventoryRepository()
		broadcaster := mocks.NewRecordingBroadcaster()
		d := newDispatcher(equipment, inventory, broadcaster)

		err := d.Dispatch(ctx, domain.DomainEvent{
			Kind:    domain.EventGPSUpdate,
			Payload: rawPayload(t, domain.GPSPayload{EquipmentID: "TRK-014", Latitude: 123}),
		})

		assert.ErrorIs(t, err, apperrors.ErrInvalidPayload)
		equipment.AssertNotCalled(t, "UpdateLocation")
	})
}

func TestDispatcher_UnknownKind(t *testing.T) {
	equipment := mocks.NewMockEquipmentRepository()
	inventory := mocks.NewMockInventoryRepository()
	broadcaster := mocks.NewRecordingBroadcaster()
	d := newDispatcher(equipment, inventory, broadcaster)

	err := d.Dispatch(context.Background(), domain.DomainEvent{Kind: "made-up-event"})

	assert.ErrorIs(t, err, apperrors.ErrUnknownEventKind)
	assert.Zero(t, broadcaster.TotalEvents())
}
