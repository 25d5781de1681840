package types

import "time"

// Kind classifies a notification for client-side presentation.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Notification is a producer-defined payload. The core forwards it
// verbatim and never inspects Data.
type Notification struct {
	ID        string         `json:"id,omitempty"`
	Title     string         `json:"title,omitempty"`
	Message   string         `json:"message,omitempty"`
	Kind      Kind           `json:"kind,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Identity is the verified user/tenant pair supplied by the auth
// collaborator when a client subscribes.
type Identity struct {
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
}

// Frame is one WebSocket message, in either direction.
type Frame struct {
	Event     string        `json:"event"`
	Room      string        `json:"room,omitempty"`
	Token     string        `json:"token,omitempty"`
	Payload   *Notification `json:"payload,omitempty"`
	SessionID string        `json:"session_id,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// Client-to-server events.
const (
	EventSubscribe  = "subscribe"
	EventJoinRoom   = "join_room"
	EventLeaveRoom  = "leave_room"
	EventSendToRoom = "send_to_room"
)

// Server-to-client events.
const (
	EventNotification = "notification"
	EventNewMessage   = "new_message"
	EventPing         = "ping"
)

// Target selects which sessions a delivery reaches. The type is
// closed: a switch over the four variants is exhaustive.
type Target interface{ target() }

// UserTarget addresses the most recently identified session of one user.
type UserTarget struct{ UserID string }

// TenantTarget addresses every session subscribed under a tenant.
type TenantTarget struct{ TenantID string }

// RoomTarget addresses the members of a room. Except, when set, names
// a session to skip so a sender does not echo to itself.
type RoomTarget struct {
	Key    string
	Except string
}

// BroadcastTarget addresses every registered session.
type BroadcastTarget struct{}

func (UserTarget) target()      {}
func (TenantTarget) target()    {}
func (RoomTarget) target()      {}
func (BroadcastTarget) target() {}

// TenantRoomKey names the implicit room every identified session joins
// when it subscribes, used for tenant-wide delivery.
func TenantRoomKey(tenantID string) string { return "tenant:" + tenantID }

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	WriteJSON(v any) error
	ReadJSON(v any) error
	Close() error
}

// Sink is the outbound side of one live session. Enqueue must not
// block; it reports false when the session's buffer is full or the
// session has closed.
type Sink interface {
	Enqueue(f Frame) bool
}

// SessionInfo holds metadata about a connected session.
type SessionInfo struct {
	ID          string    `json:"id"`
	ConnectedAt time.Time `json:"connected_at"`
	UserID      string    `json:"user_id,omitempty"`
	TenantID    string    `json:"tenant_id,omitempty"`
	Rooms       []string  `json:"rooms"`
}
