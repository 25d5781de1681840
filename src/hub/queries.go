package hub

import (
	"github.com/bizdesk/realtime/src/types"
)

// OnConnection registers a callback for new sessions.
func (h *Hub) OnConnection(cb func(string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onConnect = append(h.onConnect, cb)
}

// OnDisconnection registers a callback for closed sessions.
func (h *Hub) OnDisconnection(cb func(string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onDisconn = append(h.onDisconn, cb)
}

// ConnectedSessions returns a snapshot of live session IDs.
func (h *Hub) ConnectedSessions() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	return ids
}

// SessionCount returns the number of live sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// SessionInfo returns metadata for a live session, or nil.
func (h *Hub) SessionInfo(sessionID string) *types.SessionInfo {
	h.mu.RLock()
	s, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	if !ok {
		return nil
	}

	info := types.SessionInfo{
		ID:          s.ID,
		ConnectedAt: s.ConnectedAt(),
		Rooms:       h.rooms.SessionRooms(s.ID),
	}
	if id, ok := h.reg.Identity(s.ID); ok {
		info.UserID = id.UserID
		info.TenantID = id.TenantID
	}
	return &info
}

// Rooms returns room keys with their member counts.
func (h *Hub) Rooms() map[string]int {
	return h.rooms.Rooms()
}
