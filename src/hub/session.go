package hub

import (
	"sync"
	"time"

	"github.com/bizdesk/realtime/src/types"
)

// Session wraps one live connection and manages its message flow. The
// send channel is the session's bounded outbound queue, drained by
// WritePump; producers enqueue through it and never touch the
// transport directly.
type Session struct {
	ID          string
	conn        types.Conn
	hub         *Hub
	send        chan types.Frame
	connectedAt time.Time
	pingEvery   time.Duration
	mu          sync.Mutex
	done        chan struct{}
	closed      bool
}

// NewSession creates a session over an open connection. queueSize caps
// the outbound buffer; pingEvery of zero disables keepalive pings.
func NewSession(id string, conn types.Conn, h *Hub, queueSize int, pingEvery time.Duration) *Session {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Session{
		ID:          id,
		conn:        conn,
		hub:         h,
		send:        make(chan types.Frame, queueSize),
		connectedAt: time.Now(),
		pingEvery:   pingEvery,
		done:        make(chan struct{}),
	}
}

// ConnectedAt reports when the session was opened.
func (s *Session) ConnectedAt() time.Time { return s.connectedAt }

// Enqueue places a frame on the outbound queue without blocking. It
// reports false when the queue is full or the session has closed; the
// caller drops the frame either way.
func (s *Session) Enqueue(f types.Frame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.send <- f:
		return true
	default:
		return false
	}
}

// ReadPump reads frames from the connection and routes them to the
// hub. It owns the disconnect: when the read side fails for any
// reason, the session is unregistered.
func (s *Session) ReadPump() {
	defer func() {
		s.hub.unregister <- s
		s.conn.Close()
	}()

	for {
		var f types.Frame
		if err := s.conn.ReadJSON(&f); err != nil {
			return
		}
		f.SessionID = s.ID
		f.Timestamp = time.Now()
		s.hub.incoming <- f
	}
}

// WritePump drains the outbound queue to the connection, emitting
// keepalive pings between frames when configured.
func (s *Session) WritePump() {
	var ping <-chan time.Time
	if s.pingEvery > 0 {
		t := time.NewTicker(s.pingEvery)
		defer t.Stop()
		ping = t.C
	}
	defer s.conn.Close()

	for {
		select {
		case f, ok := <-s.send:
			if !ok {
				return
			}
			if err := s.conn.WriteJSON(f); err != nil {
				return
			}
		case <-ping:
			if err := s.conn.WriteJSON(types.Frame{Event: types.EventPing, Timestamp: time.Now()}); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

// Close signals the session to stop its pumps.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.done)
		close(s.send)
	}
}
