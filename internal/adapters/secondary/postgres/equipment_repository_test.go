package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline/erp-realtime-backend/internal/core/domain"
	apperrors "github.com/fieldline/erp-realtime-backend/internal/core/errors"
)

func seedEquipment(t *testing.T, id, status string) {
	t.Helper()
	_, err := testPool.Exec(context.Background(),
		`INSERT INTO equipment (id, name, status) VALUES ($1, $1, $2)`, id, status)
	require.NoError(t, err)
}

func TestEquipmentRepository_UpdateStatus(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := NewEquipmentRepository(testPool)

	seedEquipment(t, "eq-101", "idle")

	err := repo.UpdateStatus(ctx, domain.EquipmentStatusPayload{
		EquipmentID:    "eq-101",
		Status:         "active",
		Location:       "north-yard",
		EngineHours:    1250.5,
		MaintenanceDue: true,
	})
	require.NoError(t, err)

	var (
		status, site   string
		engineHours    float64
		maintenanceDue bool
	)
	err = testPool.QueryRow(ctx,
		`SELECT status, site, engine_hours, maintenance_due FROM equipment WHERE id = $1`,
		"eq-101").Scan(&status, &site, &engineHours, &maintenanceDue)
	require.NoError(t, err)

	assert.Equal(t, "active", status)
	assert.Equal(t, "north-yard", site)
	assert.Equal(t, 1250.5, engineHours)
	assert.True(t, maintenanceDue)
}

func TestEquipmentRepository_UpdateStatusKeepsSiteWhenOmitted(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := NewEquipmentRepository(testPool)

	seedEquipment(t, "eq-102", "idle")
	_, err := testPool.Exec(ctx, `UPDATE equipment SET site = 'south-yard' WHERE id = 'eq-102'`)
	require.NoError(t, err)

	err = repo.UpdateStatus(ctx, domain.EquipmentStatusPayload{
		EquipmentID: "eq-102",
		Status:      "maintenance",
	})
	require.NoError(t, err)

	var site string
	require.NoError(t, testPool.QueryRow(ctx,
		`SELECT site FROM equipment WHERE id = 'eq-102'`).Scan(&site))
	assert.Equal(t, "south-yard", site)
}

func TestEquipmentRepository_UpdateStatusUnknownID(t *testing.T) {
	resetTables(t)
	repo := NewEquipmentRepository(testPool)

	err := repo.UpdateStatus(context.Background(), domain.EquipmentStatusPayload{
		EquipmentID: "eq-missing",
		Status:      "active",
	})
	assert.ErrorIs(t, err, apperrors.ErrEquipmentNotFound)
}

func TestEquipmentRepository_UpdateLocation(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := NewEquipmentRepository(testPool)

	seedEquipment(t, "eq-103", "active")

	err := repo.UpdateLocation(ctx, domain.GPSPayload{
		EquipmentID: "eq-103",
		Latitude:    59.3293,
		Longitude:   18.0686,
	})
	require.NoError(t, err)

	var lat, lng float64
	require.NoError(t, testPool.QueryRow(ctx,
		`SELECT latitude, longitude FROM equipment WHERE id = 'eq-103'`).Scan(&lat, &lng))
	assert.Equal(t, 59.3293, lat)
	assert.Equal(t, 18.0686, lng)
}

func TestInventoryRepository_UpdateQuantity(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := NewInventoryRepository(testPool)

	_, err := testPool.Exec(ctx,
		`INSERT INTO inventory_items (id, name, quantity, reorder_level, unit_value)
		 VALUES ('it-1', 'hydraulic hose', 40, 10, 19.90)`)
	require.NoError(t, err)

	err = repo.UpdateQuantity(ctx, domain.InventoryUpdatePayload{
		ItemID:   "it-1",
		Quantity: 7,
	})
	require.NoError(t, err)

	var quantity, reorderLevel int64
	require.NoError(t, testPool.QueryRow(ctx,
		`SELECT quantity, reorder_level FROM inventory_items WHERE id = 'it-1'`).
		Scan(&quantity, &reorderLevel))
	assert.Equal(t, int64(7), quantity)
	assert.Equal(t, int64(10), reorderLevel, "reorder level untouched when the event omits it")
}

func TestInventoryRepository_UpdateQuantityUnknownItem(t *testing.T) {
	resetTables(t)
	repo := NewInventoryRepository(testPool)

	err := repo.UpdateQuantity(context.Background(), domain.InventoryUpdatePayload{
		ItemID:   "it-missing",
		Quantity: 3,
	})
	assert.ErrorIs(t, err, apperrors.ErrItemNotFound)
}

func TestEquipmentRepository_ScopedToTransaction(t *testing.T) {
	resetTables(t)
	ctx := context.Background()

	seedEquipment(t, "eq-501", "idle")

	tx, err := testPool.Begin(ctx)
	require.NoError(t, err)

	repo := NewEquipmentRepository(tx)
	require.NoError(t, repo.UpdateStatus(ctx, domain.EquipmentStatusPayload{
		EquipmentID: "eq-501",
		Status:      "active",
	}))
	require.NoError(t, tx.Rollback(ctx))

	// The write lived and died with the transaction.
	var status string
	err = testPool.QueryRow(ctx,
		`SELECT status FROM equipment WHERE id = $1`, "eq-501").Scan(&status)
	require.NoError(t, err)
	assert.Equal(t, "idle", status)
}
