package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// RoomRegistry maps room names to connection IDs and back. Membership
// mutations are serialized behind one lock; join and leave are
// idempotent so disconnect cleanup can run unconditionally.
type RoomRegistry struct {
	mu     sync.RWMutex
	rooms  map[string]map[uuid.UUID]struct{}
	byConn map[uuid.UUID]map[string]struct{}
}

// NewRoomRegistry creates an empty registry.
func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms:  make(map[string]map[uuid.UUID]struct{}),
		byConn: make(map[uuid.UUID]map[string]struct{}),
	}
}

// Join adds a connection to a room. Adding an existing member is a no-op.
func (r *RoomRegistry) Join(connID uuid.UUID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rooms[room] == nil {
		r.rooms[room] = make(map[uuid.UUID]struct{})
	}
	r.rooms[room][connID] = struct{}{}

	if r.byConn[connID] == nil {
		r.byConn[connID] = make(map[string]struct{})
	}
	r.byConn[connID][room] = struct{}{}
}

// Leave removes a connection from a room. Safe to call repeatedly.
func (r *RoomRegistry) Leave(connID uuid.UUID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(connID, room)
}

// LeaveAll removes a connection from every room it joined. Called
// unconditionally on disconnect.
func (r *RoomRegistry) LeaveAll(connID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for room := range r.byConn[connID] {
		r.leaveLocked(connID, room)
	}
}

func (r *RoomRegistry) leaveLocked(connID uuid.UUID, room string) {
	if members, ok := r.rooms[room]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	if rooms, ok := r.byConn[connID]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(r.byConn, connID)
		}
	}
}

// Members returns the connection IDs currently in a room.
func (r *RoomRegistry) Members(room string) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]uuid.UUID, 0, len(r.rooms[room]))
	for id := range r.rooms[room] {
		members = append(members, id)
	}
	return members
}

// Rooms returns the rooms a connection currently belongs to.
func (r *RoomRegistry) Rooms(connID uuid.UUID) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]string, 0, len(r.byConn[connID]))
	for room := range r.byConn[connID] {
		rooms = append(rooms, room)
	}
	return rooms
}

// InRoom reports whether a connection is a member of a room.
func (r *RoomRegistry) InRoom(connID uuid.UUID, room string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.rooms[room][connID]
	return ok
}

// RoomCount returns the number of rooms with at least one member.
func (r *RoomRegistry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
