package postgres

import (
	"context"
	"fmt"

	"github.com/fieldline/erp-realtime-backend/internal/core/domain"
	"github.com/fieldline/erp-realtime-backend/internal/core/ports"
)

// MetricsRepository runs the aggregate reads behind the dashboard
// snapshot, one query set per section. Every method either returns a
// complete section or an error; there are no partial results.
type MetricsRepository struct {
	db DBTX
}

var _ ports.MetricsRepository = (*MetricsRepository)(nil)

func NewMetricsRepository(db DBTX) *MetricsRepository {
	return &MetricsRepository{db: db}
}

func (r *MetricsRepository) InventoryMetrics(ctx context.Context) (domain.InventoryMetrics, error) {
	const query = `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE quantity > 0 AND quantity <= reorder_level),
       COUNT(*) FILTER (WHERE quantity = 0),
       COALESCE(SUM(quantity * unit_value), 0)::float8
FROM inventory_items
`

	var m domain.InventoryMetrics
	err := r.db.QueryRow(ctx, query).Scan(
		&m.TotalItems, &m.LowStock, &m.OutOfStock, &m.TotalValue)
	if err != nil {
		return domain.InventoryMetrics{}, fmt.Errorf("inventory metrics: %w", err)
	}
	return m, nil
}

func (r *MetricsRepository) RentalMetrics(ctx context.Context) (domain.RentalMetrics, error) {
	const rentalsQuery = `
SELECT COUNT(*) FILTER (WHERE returned_at IS NULL),
       COUNT(*) FILTER (WHERE returned_at IS NULL AND due_at < NOW()),
       COALESCE(SUM(rate) FILTER (WHERE started_at >= date_trunc('month', NOW())), 0)::float8
FROM rentals
`

	var m domain.RentalMetrics
	q := r.db
	err := q.QueryRow(ctx, rentalsQuery).Scan(
		&m.ActiveRentals, &m.OverdueRentals, &m.MonthlyRevenue)
	if err != nil {
		return domain.RentalMetrics{}, fmt.Errorf("rental metrics: %w", err)
	}

	const utilizationQuery = `
SELECT CASE WHEN COUNT(*) = 0 THEN 0
       ELSE COUNT(*) FILTER (WHERE status = 'rented')::float8 * 100 / COUNT(*)
       END
FROM equipment
`

	if err := q.QueryRow(ctx, utilizationQuery).Scan(&m.UtilizationPct); err != nil {
		return domain.RentalMetrics{}, fmt.Errorf("rental utilization: %w", err)
	}
	return m, nil
}

func (r *MetricsRepository) FinanceMetrics(ctx context.Context) (domain.FinanceMetrics, error) {
	const monthQuery = `
SELECT COALESCE(SUM(amount) FILTER (WHERE direction = 'revenue'), 0)::float8,
       COALESCE(SUM(amount) FILTER (WHERE direction = 'expense'), 0)::float8
FROM finance_entries
WHERE entry_date >= date_trunc('month', NOW())
`

	var m domain.FinanceMetrics
	q := r.db
	if err := q.QueryRow(ctx, monthQuery).Scan(&m.Revenue, &m.Expenses); err != nil {
		return domain.FinanceMetrics{}, fmt.Errorf("finance metrics: %w", err)
	}
	m.NetChange = m.Revenue - m.Expenses

	const outstandingQuery = `
SELECT COUNT(*) FROM finance_entries WHERE direction = 'revenue' AND invoice_outstanding
`

	if err := q.QueryRow(ctx, outstandingQuery).Scan(&m.OutstandingInvoices); err != nil {
		return domain.FinanceMetrics{}, fmt.Errorf("outstanding invoices: %w", err)
	}
	return m, nil
}

func (r *MetricsRepository) HRMetrics(ctx context.Context) (domain.HRMetrics, error) {
	const employeesQuery = `
SELECT COUNT(*) FILTER (WHERE status = 'active'),
       COUNT(*) FILTER (WHERE status = 'on_leave')
FROM employees
`

	var m domain.HRMetrics
	q := r.db
	if err := q.QueryRow(ctx, employeesQuery).Scan(&m.ActiveEmployees, &m.OnLeave); err != nil {
		return domain.HRMetrics{}, fmt.Errorf("hr metrics: %w", err)
	}

	const positionsQuery = `
SELECT COUNT(*) FROM job_positions WHERE NOT filled
`

	if err := q.QueryRow(ctx, positionsQuery).Scan(&m.OpenPositions); err != nil {
		return domain.HRMetrics{}, fmt.Errorf("open positions: %w", err)
	}
	return m, nil
}

func (r *MetricsRepository) MaintenanceMetrics(ctx context.Context) (domain.MaintenanceMetrics, error) {
	const query = `
SELECT COUNT(*) FILTER (WHERE status = 'open'),
       COUNT(*) FILTER (WHERE status = 'open' AND due_at < NOW()),
       COUNT(*) FILTER (WHERE scheduled_for >= date_trunc('week', NOW())
                        AND scheduled_for < date_trunc('week', NOW()) + INTERVAL '7 days')
FROM work_orders
`

	var m domain.MaintenanceMetrics
	err := r.db.QueryRow(ctx, query).Scan(
		&m.OpenWorkOrders, &m.OverdueWorkOrders, &m.ScheduledThisWeek)
	if err != nil {
		return domain.MaintenanceMetrics{}, fmt.Errorf("maintenance metrics: %w", err)
	}
	return m, nil
}
