package router

import (
	"sync"
	"time"

	"github.com/bizdesk/realtime/src/registry"
	"github.com/bizdesk/realtime/src/rooms"
	"github.com/bizdesk/realtime/src/types"
	"github.com/rs/zerolog"
)

// Bridge publishes deliveries to other server instances.
// Defined here to avoid circular imports with the bridge package.
type Bridge interface {
	Publish(target types.Target, n types.Notification) error
	Available() bool
}

// Router resolves a target to the live sessions it names and pushes
// the payload to each, best effort. Delivery is fire-and-forget: no
// retry, no acknowledgment, and no error ever reaches the producer.
type Router struct {
	reg    *registry.Registry
	rooms  *rooms.Manager
	mu     sync.RWMutex
	bridge Bridge
	logger zerolog.Logger
}

// New creates a Router over the given registry and room manager.
func New(reg *registry.Registry, rm *rooms.Manager, logger zerolog.Logger) *Router {
	return &Router{
		reg:    reg,
		rooms:  rm,
		logger: logger.With().Str("component", "router").Logger(),
	}
}

// SetBridge attaches a cross-instance bridge. When set, every delivery
// is also forwarded to other instances.
func (rt *Router) SetBridge(b Bridge) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.bridge = b
}

// Deliver pushes a notification to the sessions selected by target,
// on this instance and, through the bridge, on every other one.
func (rt *Router) Deliver(target types.Target, n types.Notification) {
	rt.publishToBridge(target, n)
	rt.DeliverLocal(target, n)
}

// DeliverLocal fans out to sessions on this instance only. The bridge
// calls it for deliveries relayed from other instances, so nothing is
// re-published and no loop forms.
//
// Each recipient is handled independently: a session that disconnected
// between resolution and write is skipped, and a full send buffer is
// dropped with a warning. Neither stops the rest of the fan-out.
func (rt *Router) DeliverLocal(target types.Target, n types.Notification) {
	frame := types.Frame{
		Event:     eventFor(target),
		Payload:   &n,
		Timestamp: time.Now(),
	}
	if room, ok := target.(types.RoomTarget); ok {
		frame.Room = room.Key
	}

	for _, sid := range rt.resolve(target) {
		sink, ok := rt.reg.Sink(sid)
		if !ok {
			continue
		}
		if !sink.Enqueue(frame) {
			rt.logger.Warn().Str("session_id", sid).Msg("send buffer full, dropping")
		}
	}
}

// resolve maps a target to a snapshot of candidate session IDs.
// Tenant-wide delivery goes through the implicit tenant room that
// every identified session joins at subscribe time; there is no
// separate tenant index. An empty result is a valid, silent outcome.
func (rt *Router) resolve(target types.Target) []string {
	switch t := target.(type) {
	case types.UserTarget:
		if sid, ok := rt.reg.SessionByUser(t.UserID); ok {
			return []string{sid}
		}
		return nil
	case types.TenantTarget:
		return rt.rooms.Members(types.TenantRoomKey(t.TenantID))
	case types.RoomTarget:
		members := rt.rooms.Members(t.Key)
		if t.Except == "" {
			return members
		}
		filtered := make([]string, 0, len(members))
		for _, sid := range members {
			if sid != t.Except {
				filtered = append(filtered, sid)
			}
		}
		return filtered
	case types.BroadcastTarget:
		return rt.reg.Sessions()
	}
	return nil
}

// eventFor picks the client-facing event name: room traffic arrives as
// new_message, everything else as notification.
func eventFor(target types.Target) string {
	if _, ok := target.(types.RoomTarget); ok {
		return types.EventNewMessage
	}
	return types.EventNotification
}

// publishToBridge forwards a delivery to the bridge if one is attached.
func (rt *Router) publishToBridge(target types.Target, n types.Notification) {
	rt.mu.RLock()
	b := rt.bridge
	rt.mu.RUnlock()

	if b == nil || !b.Available() {
		return
	}
	if err := b.Publish(target, n); err != nil {
		rt.logger.Error().Err(err).Msg("bridge publish failed")
	}
}
