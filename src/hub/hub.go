package hub

import (
	"sync"

	"github.com/bizdesk/realtime/src/auth"
	"github.com/bizdesk/realtime/src/registry"
	"github.com/bizdesk/realtime/src/rooms"
	"github.com/bizdesk/realtime/src/router"
	"github.com/bizdesk/realtime/src/types"
	"github.com/rs/zerolog"
)

// Hub drives the lifecycle of every live session: registration,
// inbound client frames, and the cleanup that runs exactly once when
// a transport closes.
type Hub struct {
	reg      *registry.Registry
	rooms    *rooms.Manager
	router   *router.Router
	verifier auth.Verifier

	sessions map[string]*Session

	register   chan *Session
	unregister chan *Session
	incoming   chan types.Frame

	onConnect []func(string)
	onDisconn []func(string)

	mu     sync.RWMutex
	logger zerolog.Logger
	done   chan struct{}
}

// New creates a Hub over the given registry, room manager, and router.
// verifier may be nil; subscribe frames are then logged and ignored
// and every session stays anonymous.
func New(reg *registry.Registry, rm *rooms.Manager, rt *router.Router, verifier auth.Verifier, logger zerolog.Logger) *Hub {
	return &Hub{
		reg:        reg,
		rooms:      rm,
		router:     rt,
		verifier:   verifier,
		sessions:   make(map[string]*Session),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		incoming:   make(chan types.Frame, 256),
		logger:     logger.With().Str("component", "hub").Logger(),
		done:       make(chan struct{}),
	}
}

// Run starts the hub event loop. Call in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case s := <-h.register:
			h.addSession(s)
		case s := <-h.unregister:
			h.removeSession(s)
		case f := <-h.incoming:
			h.handleFrame(f)
		case <-h.done:
			return
		}
	}
}

// Stop halts the hub event loop.
func (h *Hub) Stop() {
	close(h.done)
}

// Register queues a session for registration.
func (h *Hub) Register(s *Session) {
	h.register <- s
}

// Unregister queues a session for removal.
func (h *Hub) Unregister(s *Session) {
	h.unregister <- s
}

// Router returns the delivery router backing this hub.
func (h *Hub) Router() *router.Router { return h.router }

func (h *Hub) addSession(s *Session) {
	h.mu.Lock()
	h.sessions[s.ID] = s
	h.mu.Unlock()

	h.reg.Register(s.ID, s)
	h.logger.Info().Str("session_id", s.ID).Msg("session opened")

	for _, cb := range h.onConnect {
		cb(s.ID)
	}
}

// removeSession runs the close transition: leave every room, then drop
// the registry entry. The sessions map guards against running twice
// when both the read and write pumps report the same close.
func (h *Hub) removeSession(s *Session) {
	h.mu.Lock()
	if _, ok := h.sessions[s.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, s.ID)
	h.mu.Unlock()

	h.rooms.LeaveAll(s.ID)
	h.reg.Unregister(s.ID)

	s.Close()
	h.logger.Info().Str("session_id", s.ID).Msg("session closed")

	for _, cb := range h.onDisconn {
		cb(s.ID)
	}
}
