package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/fieldline/erp-realtime-backend/internal/core/domain"
	"github.com/fieldline/erp-realtime-backend/internal/core/ports"
	"github.com/fieldline/erp-realtime-backend/internal/metrics"
)

// DefaultSnapshotInterval is how often the aggregator assembles a new
// dashboard snapshot.
const DefaultSnapshotInterval = 30 * time.Second

// Aggregator periodically assembles one cross-domain DashboardSnapshot
// and pushes it to the dashboard room as a single atomic payload. If any
// sub-query fails the whole tick is abandoned and the previous snapshot
// stays authoritative.
type Aggregator struct {
	store       ports.MetricsRepository
	broadcaster ports.Broadcaster
	interval    time.Duration
	clock       clockwork.Clock
	logger      *slog.Logger

	mu      sync.RWMutex
	current *domain.DashboardSnapshot
}

// Ensure Aggregator implements the ports.SnapshotSource interface.
var _ ports.SnapshotSource = (*Aggregator)(nil)

// NewAggregator creates a snapshot aggregator. A zero interval falls
// back to DefaultSnapshotInterval.
func NewAggregator(
	store ports.MetricsRepository,
	broadcaster ports.Broadcaster,
	interval time.Duration,
	clock clockwork.Clock,
	logger *slog.Logger,
) *Aggregator {
	if interval <= 0 {
		interval = DefaultSnapshotInterval
	}
	return &Aggregator{
		store:       store,
		broadcaster: broadcaster,
		interval:    interval,
		clock:       clock,
		logger:      logger.With("component", "aggregator"),
	}
}

// SetBroadcaster binds the broadcaster after construction. The hub
// needs the aggregator as its snapshot source, so one of the two has to
// be wired late; call this before Run.
func (a *Aggregator) SetBroadcaster(b ports.Broadcaster) {
	a.broadcaster = b
}

// Run ticks until ctx is cancelled. The tick is independent of any
// individual connection's lifecycle; it never waits on a client.
func (a *Aggregator) Run(ctx context.Context) {
	ticker := a.clock.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			if err := a.Collect(ctx); err != nil {
				a.logger.Warn("snapshot tick abandoned", "error", err)
			}
		case <-ctx.Done():
			a.logger.Info("aggregator stopped")
			return
		}
	}
}

// Collect performs one aggregation tick: query every domain store,
// assemble the snapshot, publish it. Any failing sub-query abandons the
// tick without publishing and without touching the cached snapshot.
func (a *Aggregator) Collect(ctx context.Context) error {
	start := a.clock.Now()

	snapshot, err := a.assemble(ctx)
	if err != nil {
		metrics.SnapshotTicksTotal.WithLabelValues("error").Inc()
		return err
	}

	if err := snapshot.Validate(); err != nil {
		metrics.SnapshotTicksTotal.WithLabelValues("invalid").Inc()
		return err
	}

	a.mu.Lock()
	a.current = &snapshot
	a.mu.Unlock()

	a.broadcaster.BroadcastToRoom(domain.RoomDashboard, domain.ServerEvent{
		Type:    domain.ServerEventDashboardUpdate,
		Payload: snapshot,
	})

	metrics.SnapshotTicksTotal.WithLabelValues("ok").Inc()
	metrics.SnapshotDuration.Observe(a.clock.Since(start).Seconds())

	a.logger.Debug("snapshot published",
		"generated_at", snapshot.GeneratedAt,
	)

	return nil
}

func (a *Aggregator) assemble(ctx context.Context) (domain.DashboardSnapshot, error) {
	var snapshot domain.DashboardSnapshot
	var err error

	if snapshot.Inventory, err = a.store.InventoryMetrics(ctx); err != nil {
		return snapshot, fmt.Errorf("inventory metrics: %w", err)
	}
	if snapshot.Rental, err = a.store.RentalMetrics(ctx); err != nil {
		return snapshot, fmt.Errorf("rental metrics: %w", err)
	}
	if snapshot.Finance, err = a.store.FinanceMetrics(ctx); err != nil {
		return snapshot, fmt.Errorf("finance metrics: %w", err)
	}
	if snapshot.HR, err = a.store.HRMetrics(ctx); err != nil {
		return snapshot, fmt.Errorf("hr metrics: %w", err)
	}
	if snapshot.Maintenance, err = a.store.MaintenanceMetrics(ctx); err != nil {
		return snapshot, fmt.Errorf("maintenance metrics: %w", err)
	}

	snapshot.GeneratedAt = a.clock.Now()
	return snapshot, nil
}

// Current returns the most recent successfully published snapshot.
func (a *Aggregator) Current() (domain.DashboardSnapshot, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.current == nil {
		return domain.DashboardSnapshot{}, false
	}
	return *a.current, true
}
