package ports

import (
	"context"

	"github.com/fieldline/erp-realtime-backend/internal/core/domain"
)

// Broadcaster fans a server event out to every member of a room.
// Delivery is best effort; a slow subscriber never blocks the caller.
type Broadcaster interface {
	BroadcastToRoom(room string, event domain.ServerEvent)
}

// EventDispatcher routes one DomainEvent through validate, persist and
// broadcast. Persist always happens before broadcast; a failed persist
// produces zero broadcasts.
type EventDispatcher interface {
	Dispatch(ctx context.Context, event domain.DomainEvent) error
}

// SnapshotSource exposes the most recent successfully aggregated
// snapshot, if one exists yet.
type SnapshotSource interface {
	Current() (domain.DashboardSnapshot, bool)
}
