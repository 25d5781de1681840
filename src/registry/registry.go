package registry

import (
	"sync"

	"github.com/bizdesk/realtime/src/types"
)

// Registry is the concurrency-safe index of live sessions: session ID
// to outbound sink, and user ID to the session that most recently
// attached that user's identity.
type Registry struct {
	mu         sync.RWMutex
	sinks      map[string]types.Sink
	identities map[string]types.Identity // session ID -> identity
	byUser     map[string]string         // user ID -> session ID
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		sinks:      make(map[string]types.Sink),
		identities: make(map[string]types.Identity),
		byUser:     make(map[string]string),
	}
}

// Register records a new session with no identity yet.
func (r *Registry) Register(sessionID string, sink types.Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[sessionID] = sink
}

// AttachIdentity binds a verified identity to a session. An unknown
// session is ignored: the connection already closed and there is
// nothing to attach to. A session keeps its first identity, but the
// user pointer always moves to the latest attach, so only the newest
// session of a user is reachable by user-targeted delivery.
func (r *Registry) AttachIdentity(sessionID string, id types.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sinks[sessionID]; !ok {
		return
	}
	if _, ok := r.identities[sessionID]; !ok {
		r.identities[sessionID] = id
	}
	r.byUser[id.UserID] = sessionID
}

// Unregister removes a session. The user pointer is cleared only if it
// still names this session, so a stale unregister cannot clobber a
// newer session created by a reconnect.
func (r *Registry) Unregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sinks, sessionID)
	id, ok := r.identities[sessionID]
	if !ok {
		return
	}
	delete(r.identities, sessionID)
	if r.byUser[id.UserID] == sessionID {
		delete(r.byUser, id.UserID)
	}
}

// Sink returns the outbound sink for a session, if it is still live.
func (r *Registry) Sink(sessionID string) (types.Sink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sinks[sessionID]
	return s, ok
}

// SessionByUser returns the most recently identified session for a user.
func (r *Registry) SessionByUser(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sid, ok := r.byUser[userID]
	return sid, ok
}

// Identity returns the identity attached to a session, if any.
func (r *Registry) Identity(sessionID string) (types.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.identities[sessionID]
	return id, ok
}

// Sessions returns a snapshot of all live session IDs.
func (r *Registry) Sessions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sinks))
	for id := range r.sinks {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sinks)
}
