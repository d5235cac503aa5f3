package relay

import (
	"sync"

	"project-relay/contract"
	"project-relay/domain"
)

// room holds one project's member set behind its own lock so that traffic in
// one room never serializes against another.
type room struct {
	mu      sync.RWMutex
	members map[string]contract.EventSink // session id -> sink
}

// Registry is the in-memory mapping from room id to admitted sessions.
// Rooms are created lazily on first join and reclaimed once empty.
// Registry is safe for concurrent use by multiple goroutines.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[domain.RoomID]*room)}
}

// Subscribe adds a session's sink to a room, creating the room on the fly.
// Subscribing the same session id twice replaces its sink, so the operation
// is idempotent per session.
func (r *Registry) Subscribe(sessionID string, roomID domain.RoomID, sink contract.EventSink) {
	r.mu.Lock()
	rm, ok := r.rooms[roomID]
	if !ok {
		rm = &room{members: make(map[string]contract.EventSink)}
		r.rooms[roomID] = rm
	}
	// The room lock is taken before the registry lock is released, matching
	// the registry->room order of the reclaim path in Unsubscribe. A reclaim
	// racing this join therefore either sees the new member or runs before
	// the room was fetched; it can never delete the map entry in between and
	// strand the member in an orphaned room.
	rm.mu.Lock()
	r.mu.Unlock()

	rm.members[sessionID] = sink
	rm.mu.Unlock()
}

// Unsubscribe removes a session from its room. The room entry is reclaimed
// once its member set drains, so no empty sets accumulate over time.
func (r *Registry) Unsubscribe(sessionID string, roomID domain.RoomID) {
	r.mu.RLock()
	rm, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if !ok {
		return
	}

	rm.mu.Lock()
	delete(rm.members, sessionID)
	empty := len(rm.members) == 0
	rm.mu.Unlock()

	if !empty {
		return
	}

	// Re-check under the registry lock: someone may have joined between the
	// emptiness check and here.
	r.mu.Lock()
	if rm, ok := r.rooms[roomID]; ok {
		rm.mu.RLock()
		if len(rm.members) == 0 {
			delete(r.rooms, roomID)
		}
		rm.mu.RUnlock()
	}
	r.mu.Unlock()
}

// SinksForRoom returns a snapshot of the room's sinks for broadcast.
// No iteration order is guaranteed. A non-empty excludeSessionID leaves that
// member out. Returns nil if the room doesn't exist or has no members.
func (r *Registry) SinksForRoom(roomID domain.RoomID, excludeSessionID string) []contract.EventSink {
	r.mu.RLock()
	rm, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	rm.mu.RLock()
	defer rm.mu.RUnlock()

	var sinks []contract.EventSink
	for sessionID, sink := range rm.members {
		if excludeSessionID != "" && sessionID == excludeSessionID {
			continue
		}
		sinks = append(sinks, sink)
	}
	return sinks
}
