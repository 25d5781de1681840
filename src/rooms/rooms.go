package rooms

import "sync"

// Manager tracks many-to-many membership between rooms and sessions.
// Rooms are created implicitly on first join and pruned when the last
// member leaves.
type Manager struct {
	mu        sync.RWMutex
	rooms     map[string]map[string]struct{} // room key -> session IDs
	bySession map[string]map[string]struct{} // session ID -> room keys
}

// New creates an empty Manager.
func New() *Manager {
	return &Manager{
		rooms:     make(map[string]map[string]struct{}),
		bySession: make(map[string]map[string]struct{}),
	}
}

// Join adds a session to a room, creating the room if needed.
// Joining twice is the same as joining once.
func (m *Manager) Join(roomKey, sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rooms[roomKey] == nil {
		m.rooms[roomKey] = make(map[string]struct{})
	}
	m.rooms[roomKey][sessionID] = struct{}{}
	if m.bySession[sessionID] == nil {
		m.bySession[sessionID] = make(map[string]struct{})
	}
	m.bySession[sessionID][roomKey] = struct{}{}
}

// Leave removes a session from a room.
func (m *Manager) Leave(roomKey, sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaveLocked(roomKey, sessionID)
}

// LeaveAll removes a session from every room it joined. Called on
// disconnect before the session is unregistered.
func (m *Manager) LeaveAll(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for roomKey := range m.bySession[sessionID] {
		m.leaveLocked(roomKey, sessionID)
	}
}

func (m *Manager) leaveLocked(roomKey, sessionID string) {
	if members, ok := m.rooms[roomKey]; ok {
		delete(members, sessionID)
		if len(members) == 0 {
			delete(m.rooms, roomKey)
		}
	}
	if keys, ok := m.bySession[sessionID]; ok {
		delete(keys, roomKey)
		if len(keys) == 0 {
			delete(m.bySession, sessionID)
		}
	}
}

// Members returns a snapshot of the sessions in a room. A member may
// disconnect before a caller finishes delivering to the snapshot;
// delivery to a gone session is a no-op, not an error.
func (m *Manager) Members(roomKey string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	members, ok := m.rooms[roomKey]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	return ids
}

// SessionRooms returns a snapshot of the rooms a session has joined.
func (m *Manager) SessionRooms(sessionID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.bySession[sessionID]))
	for key := range m.bySession[sessionID] {
		keys = append(keys, key)
	}
	return keys
}

// Rooms returns room keys with their member counts.
func (m *Manager) Rooms() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string]int, len(m.rooms))
	for key, members := range m.rooms {
		result[key] = len(members)
	}
	return result
}
