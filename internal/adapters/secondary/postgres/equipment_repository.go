package postgres

import (
	"context"
	"fmt"

	"github.com/fieldline/erp-realtime-backend/internal/core/domain"
	apperrors "github.com/fieldline/erp-realtime-backend/internal/core/errors"
	"github.com/fieldline/erp-realtime-backend/internal/core/ports"
)

// EquipmentRepository persists equipment state changes carried by
// realtime events. Rows are owned by the fleet service; this service
// only updates the fields its events carry.
type EquipmentRepository struct {
	db DBTX
}

var _ ports.EquipmentRepository = (*EquipmentRepository)(nil)

func NewEquipmentRepository(db DBTX) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

// UpdateStatus applies a status change to one piece of equipment.
func (r *EquipmentRepository) UpdateStatus(ctx context.Context, p domain.EquipmentStatusPayload) error {
	const query = `
UPDATE equipment
SET status = $2,
    site = COALESCE(NULLIF($3, ''), site),
    engine_hours = CASE WHEN $4::float8 > 0 THEN $4::float8 ELSE engine_hours END,
    maintenance_due = $5,
    updated_at = NOW()
WHERE id = $1
`

	tag, err := r.db.Exec(ctx, query,
		p.EquipmentID, p.Status, p.Location, p.EngineHours, p.MaintenanceDue)
	if err != nil {
		return fmt.Errorf("update equipment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrEquipmentNotFound
	}
	return nil
}

// UpdateLocation applies a GPS fix to one piece of equipment.
func (r *EquipmentRepository) UpdateLocation(ctx context.Context, p domain.GPSPayload) error {
	const query = `
UPDATE equipment
SET latitude = $2,
    longitude = $3,
    location_updated_at = NOW(),
    updated_at = NOW()
WHERE id = $1
`

	tag, err := r.db.Exec(ctx, query, p.EquipmentID, p.Latitude, p.Longitude)
	if err != nil {
		return fmt.Errorf("update equipment location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrEquipmentNotFound
	}
	return nil
}
