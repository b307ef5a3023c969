package postgres

import (
	"context"
	"fmt"

	"github.com/fieldline/erp-realtime-backend/internal/core/domain"
	apperrors "github.com/fieldline/erp-realtime-backend/internal/core/errors"
	"github.com/fieldline/erp-realtime-backend/internal/core/ports"
)

// InventoryRepository persists stock level changes carried by realtime
// events.
type InventoryRepository struct {
	db DBTX
}

var _ ports.InventoryRepository = (*InventoryRepository)(nil)

func NewInventoryRepository(db DBTX) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// UpdateQuantity sets the on-hand quantity for one inventory item. The
// reorder level is only touched when the event carries one.
func (r *InventoryRepository) UpdateQuantity(ctx context.Context, p domain.InventoryUpdatePayload) error {
	const query = `
UPDATE inventory_items
SET quantity = $2,
    reorder_level = CASE WHEN $3::bigint > 0 THEN $3::bigint ELSE reorder_level END,
    updated_at = NOW()
WHERE id = $1
`

	tag, err := r.db.Exec(ctx, query, p.ItemID, p.Quantity, p.ReorderPoint)
	if err != nil {
		return fmt.Errorf("update inventory quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrItemNotFound
	}
	return nil
}
