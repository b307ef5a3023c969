package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRepository_InventoryMetrics(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := NewMetricsRepository(testPool)

	_, err := testPool.Exec(ctx, `
INSERT INTO inventory_items (id, name, quantity, reorder_level, unit_value) VALUES
	('it-1', 'hose', 40, 10, 10.00),
	('it-2', 'filter', 5, 10, 2.50),
	('it-3', 'belt', 0, 5, 30.00)`)
	require.NoError(t, err)

	m, err := repo.InventoryMetrics(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(3), m.TotalItems)
	assert.Equal(t, int64(1), m.LowStock, "only items above zero count as low stock")
	assert.Equal(t, int64(1), m.OutOfStock)
	assert.InDelta(t, 40*10.0+5*2.5, m.TotalValue, 0.001)
}

func TestMetricsRepository_RentalMetrics(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := NewMetricsRepository(testPool)

	_, err := testPool.Exec(ctx, `
INSERT INTO equipment (id, name, status) VALUES
	('eq-1', 'excavator', 'rented'),
	('eq-2', 'loader', 'idle'),
	('eq-3', 'crane', 'rented'),
	('eq-4', 'dozer', 'maintenance')`)
	require.NoError(t, err)

	_, err = testPool.Exec(ctx, `
INSERT INTO rentals (equipment_id, rate, started_at, due_at, returned_at) VALUES
	('eq-1', 500, NOW(), NOW() + INTERVAL '5 days', NULL),
	('eq-3', 800, NOW(), NOW() - INTERVAL '1 day', NULL),
	('eq-2', 300, NOW() - INTERVAL '60 days', NOW() - INTERVAL '30 days', NOW() - INTERVAL '30 days')`)
	require.NoError(t, err)

	m, err := repo.RentalMetrics(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(2), m.ActiveRentals)
	assert.Equal(t, int64(1), m.OverdueRentals)
	assert.InDelta(t, 50.0, m.UtilizationPct, 0.001)
	assert.InDelta(t, 1300.0, m.MonthlyRevenue, 0.001)
}

func TestMetricsRepository_FinanceMetrics(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := NewMetricsRepository(testPool)

	_, err := testPool.Exec(ctx, `
INSERT INTO finance_entries (entry_date, amount, direction, invoice_outstanding) VALUES
	(CURRENT_DATE, 1000, 'revenue', TRUE),
	(CURRENT_DATE, 250, 'revenue', FALSE),
	(CURRENT_DATE, 400, 'expense', FALSE),
	(CURRENT_DATE - INTERVAL '2 months', 9999, 'revenue', TRUE)`)
	require.NoError(t, err)

	m, err := repo.FinanceMetrics(ctx)
	require.NoError(t, err)

	assert.InDelta(t, 1250.0, m.Revenue, 0.001, "only current month counts")
	assert.InDelta(t, 400.0, m.Expenses, 0.001)
	assert.InDelta(t, 850.0, m.NetChange, 0.001)
	assert.Equal(t, int64(2), m.OutstandingInvoices, "outstanding invoices are not month scoped")
}

func TestMetricsRepository_HRMetrics(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := NewMetricsRepository(testPool)

	_, err := testPool.Exec(ctx, `
INSERT INTO employees (full_name, status) VALUES
	('A', 'active'), ('B', 'active'), ('C', 'on_leave'), ('D', 'terminated')`)
	require.NoError(t, err)

	_, err = testPool.Exec(ctx, `
INSERT INTO job_positions (title, filled) VALUES
	('operator', FALSE), ('mechanic', FALSE), ('dispatcher', TRUE)`)
	require.NoError(t, err)

	m, err := repo.HRMetrics(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(2), m.ActiveEmployees)
	assert.Equal(t, int64(1), m.OnLeave)
	assert.Equal(t, int64(2), m.OpenPositions)
}

func TestMetricsRepository_MaintenanceMetrics(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := NewMetricsRepository(testPool)

	_, err := testPool.Exec(ctx,
		`INSERT INTO equipment (id, name, status) VALUES ('eq-1', 'excavator', 'idle')`)
	require.NoError(t, err)

	_, err = testPool.Exec(ctx, `
INSERT INTO work_orders (equipment_id, status, due_at, scheduled_for) VALUES
	('eq-1', 'open', NOW() + INTERVAL '3 days', CURRENT_DATE),
	('eq-1', 'open', NOW() - INTERVAL '1 day', NULL),
	('eq-1', 'closed', NOW() - INTERVAL '10 days', NULL)`)
	require.NoError(t, err)

	m, err := repo.MaintenanceMetrics(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(2), m.OpenWorkOrders)
	assert.Equal(t, int64(1), m.OverdueWorkOrders)
	assert.Equal(t, int64(1), m.ScheduledThisWeek)
}

func TestMetricsRepository_EmptyTablesYieldZeroSections(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	repo := NewMetricsRepository(testPool)

	inv, err := repo.InventoryMetrics(ctx)
	require.NoError(t, err)
	assert.Zero(t, inv.TotalItems)
	assert.Zero(t, inv.TotalValue)

	rental, err := repo.RentalMetrics(ctx)
	require.NoError(t, err)
	assert.Zero(t, rental.ActiveRentals)
	assert.Zero(t, rental.UtilizationPct)

	fin, err := repo.FinanceMetrics(ctx)
	require.NoError(t, err)
	assert.Zero(t, fin.Revenue)
	assert.Zero(t, fin.NetChange)
}
