package service

import (
	"fmt"
	"time"

	"github.com/bizdesk/realtime/src/hub"
	"github.com/bizdesk/realtime/src/router"
	"github.com/bizdesk/realtime/src/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service is the producer-facing API. REST handlers and background
// jobs call it from any goroutine; every delivery method is
// fire-and-forget and returns nothing, because delivery success is
// not observable to the producer.
type Service struct {
	hub    *hub.Hub
	router *router.Router
	logger zerolog.Logger
}

// New creates a Service backed by the given hub and router.
func New(h *hub.Hub, rt *router.Router, logger zerolog.Logger) *Service {
	return &Service{hub: h, router: rt, logger: logger.With().Str("component", "service").Logger()}
}

// Hub returns the underlying hub.
func (s *Service) Hub() *hub.Hub { return s.hub }

// Deliver pushes a notification to the sessions selected by target.
// Missing fields are stamped: a fresh ID when none is set, the current
// time when the timestamp is zero, and an info kind by default.
func (s *Service) Deliver(target types.Target, n types.Notification) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	if n.Kind == "" {
		n.Kind = types.KindInfo
	}
	s.router.Deliver(target, n)
}

// NotifyUser delivers to the most recent session of one user. An
// offline user is a silent no-op.
func (s *Service) NotifyUser(userID string, n types.Notification) {
	s.Deliver(types.UserTarget{UserID: userID}, n)
}

// NotifyTenant delivers to every session subscribed under a tenant.
func (s *Service) NotifyTenant(tenantID string, n types.Notification) {
	s.Deliver(types.TenantTarget{TenantID: tenantID}, n)
}

// NotifyRoom delivers to every member of a room.
func (s *Service) NotifyRoom(roomKey string, n types.Notification) {
	s.Deliver(types.RoomTarget{Key: roomKey}, n)
}

// Broadcast delivers to every connected session, identified or not.
func (s *Service) Broadcast(n types.Notification) {
	s.Deliver(types.BroadcastTarget{}, n)
}

// OnConnection registers a callback for new sessions.
func (s *Service) OnConnection(cb func(sessionID string)) {
	s.hub.OnConnection(cb)
}

// OnDisconnection registers a callback for closed sessions.
func (s *Service) OnDisconnection(cb func(sessionID string)) {
	s.hub.OnDisconnection(cb)
}

// ConnectedSessions returns IDs of all live sessions.
func (s *Service) ConnectedSessions() []string {
	return s.hub.ConnectedSessions()
}

// SessionCount returns the number of live sessions.
func (s *Service) SessionCount() int {
	return s.hub.SessionCount()
}

// SessionInfo returns metadata for a live session, or an error.
func (s *Service) SessionInfo(sessionID string) (*types.SessionInfo, error) {
	info := s.hub.SessionInfo(sessionID)
	if info == nil {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	return info, nil
}

// Rooms returns active rooms with member counts.
func (s *Service) Rooms() map[string]int {
	return s.hub.Rooms()
}
