package ports

import (
	"context"

	"github.com/fieldline/erp-realtime-backend/internal/core/domain"
)

// EquipmentRepository is the port for the external equipment store.
// Writes here are the source of truth; the hub never caches equipment
// state in process.
type EquipmentRepository interface {
	UpdateStatus(ctx context.Context, p domain.EquipmentStatusPayload) error
	UpdateLocation(ctx context.Context, p domain.GPSPayload) error
}

// InventoryRepository is the port for the external inventory store.
type InventoryRepository interface {
	UpdateQuantity(ctx context.Context, p domain.InventoryUpdatePayload) error
}

// MetricsRepository is the port for the aggregation reads across the
// external domain stores. Each method covers one snapshot section.
type MetricsRepository interface {
	InventoryMetrics(ctx context.Context) (domain.InventoryMetrics, error)
	RentalMetrics(ctx context.Context) (domain.RentalMetrics, error)
	FinanceMetrics(ctx context.Context) (domain.FinanceMetrics, error)
	HRMetrics(ctx context.Context) (domain.HRMetrics, error)
	MaintenanceMetrics(ctx context.Context) (domain.MaintenanceMetrics, error)
}
