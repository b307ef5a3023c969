package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/fieldline/erp-realtime-backend/internal/core/domain"
)

// MockEquipmentRepository is a mock implementation of ports.EquipmentRepository
type MockEquipmentRepository struct {
	mock.Mock
}

func NewMockEquipmentRepository() *MockEquipmentRepository {
	return &MockEquipmentRepository{}
}

func (m *MockEquipmentRepository) UpdateStatus(ctx context.Context, p domain.EquipmentStatusPayload) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockEquipmentRepository) UpdateLocation(ctx context.Context, p domain.GPSPayload) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// MockInventoryRepository is a mock implementation of ports.InventoryRepository
type MockInventoryRepository struct {
	mock.Mock
}

func NewMockInventoryRepository() *MockInventoryRepository {
	return &MockInventoryRepository{}
}

func (m *MockInventoryRepository) UpdateQuantity(ctx context.Context, p domain.InventoryUpdatePayload) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// MockMetricsRepository is a mock implementation of ports.MetricsRepository
type MockMetricsRepository struct {
	mock.Mock
}

func NewMockMetricsRepository() *MockMetricsRepository {
	return &MockMetricsRepository{}
}

func (m *MockMetricsRepository) InventoryMetrics(ctx context.Context) (domain.InventoryMetrics, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.InventoryMetrics), args.Error(1)
}

func (m *MockMetricsRepository) RentalMetrics(ctx context.Context) (domain.RentalMetrics, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.RentalMetrics), args.Error(1)
}

func (m *MockMetricsRepository) FinanceMetrics(ctx context.Context) (domain.FinanceMetrics, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.FinanceMetrics), args.Error(1)
}

func (m *MockMetricsRepository) HRMetrics(ctx context.Context) (domain.HRMetrics, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.HRMetrics), args.Error(1)
}

func (m *MockMetricsRepository) MaintenanceMetrics(ctx context.Context) (domain.MaintenanceMetrics, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.MaintenanceMetrics), args.Error(1)
}

// MockEventDispatcher is a mock implementation of ports.EventDispatcher
type MockEventDispatcher struct {
	mock.Mock
}

func NewMockEventDispatcher() *MockEventDispatcher {
	return &MockEventDispatcher{}
}

func (m *MockEventDispatcher) Dispatch(ctx context.Context, event domain.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// RecordingBroadcaster is a ports.Broadcaster that records every event
// per room so tests can assert on exact fan-out.
type RecordingBroadcaster struct {
	mu     sync.Mutex
	events map[string][]domain.ServerEvent
}

func NewRecordingBroadcaster() *RecordingBroadcaster {
	return &RecordingBroadcaster{events: make(map[string][]domain.ServerEvent)}
}

func (b *RecordingBroadcaster) BroadcastToRoom(room string, event domain.ServerEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[room] = append(b.events[room], event)
}

// EventsFor returns a copy of all events broadcast to the given room.
func (b *RecordingBroadcaster) EventsFor(room string) []domain.ServerEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.ServerEvent, len(b.events[room]))
	copy(out, b.events[room])
	return out
}

// TotalEvents returns the number of events broadcast across all rooms.
func (b *RecordingBroadcaster) TotalEvents() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := 0
	for _, evs := range b.events {
		total += len(evs)
	}
	return total
}
