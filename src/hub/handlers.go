package hub

import (
	"github.com/bizdesk/realtime/src/types"
)

func (h *Hub) handleFrame(f types.Frame) {
	switch f.Event {
	case types.EventSubscribe:
		h.handleSubscribe(f)
	case types.EventJoinRoom:
		h.handleJoinRoom(f)
	case types.EventLeaveRoom:
		h.handleLeaveRoom(f)
	case types.EventSendToRoom:
		h.handleSendToRoom(f)
	default:
		h.logger.Debug().Str("event", f.Event).Msg("unknown event")
	}
}

// handleSubscribe attaches a verified identity to the session and joins
// it to its tenant's implicit room. A bad token leaves the session
// connected but anonymous; the client is not told.
func (h *Hub) handleSubscribe(f types.Frame) {
	if h.verifier == nil {
		h.logger.Debug().Str("session_id", f.SessionID).Msg("subscribe ignored, no verifier configured")
		return
	}
	if f.Token == "" {
		h.logger.Debug().Str("session_id", f.SessionID).Msg("subscribe without token")
		return
	}

	id, err := h.verifier.Verify(f.Token)
	if err != nil {
		h.logger.Warn().Err(err).Str("session_id", f.SessionID).Msg("subscribe token rejected")
		return
	}

	h.reg.AttachIdentity(f.SessionID, id)

	// The session may have disconnected while the frame was queued;
	// joining a room for a gone session would leak the membership.
	if _, ok := h.reg.Sink(f.SessionID); !ok {
		return
	}
	h.rooms.Join(types.TenantRoomKey(id.TenantID), f.SessionID)

	h.logger.Debug().
		Str("session_id", f.SessionID).
		Str("user_id", id.UserID).
		Str("tenant_id", id.TenantID).
		Msg("subscribed")
}

func (h *Hub) handleJoinRoom(f types.Frame) {
	if f.Room == "" {
		h.logger.Debug().Str("session_id", f.SessionID).Msg("join_room without room key")
		return
	}
	if _, ok := h.reg.Sink(f.SessionID); !ok {
		return
	}
	h.rooms.Join(f.Room, f.SessionID)
	h.logger.Debug().Str("session_id", f.SessionID).Str("room", f.Room).Msg("joined room")
}

func (h *Hub) handleLeaveRoom(f types.Frame) {
	if f.Room == "" {
		return
	}
	h.rooms.Leave(f.Room, f.SessionID)
	h.logger.Debug().Str("session_id", f.SessionID).Str("room", f.Room).Msg("left room")
}

// handleSendToRoom treats a client frame as a producer call targeting
// the room, with the sender excluded so it does not echo to itself.
func (h *Hub) handleSendToRoom(f types.Frame) {
	if f.Room == "" || f.Payload == nil {
		h.logger.Debug().Str("session_id", f.SessionID).Msg("send_to_room missing room or payload")
		return
	}
	h.router.Deliver(types.RoomTarget{Key: f.Room, Except: f.SessionID}, *f.Payload)
}
