package ws

import "sync"

// Session is an authenticated push channel.
type Session interface {
	ID() string
	// Send queues payload for delivery. It must not block on network I/O; an error means the
	// session can no longer be delivered to.
	Send(payload []byte) error
}

// Registry is the set of live, authenticated sessions. It is safe for concurrent use:
// Add and Remove may run while a broadcast iterates over a Snapshot.
type Registry struct {
	mu       sync.RWMutex
	sessions map[Session]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[Session]struct{})}
}

// Add registers s. It reports whether s was not already present.
func (r *Registry) Add(s Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s]; ok {
		return false
	}
	r.sessions[s] = struct{}{}
	return true
}

// Remove unregisters s. It reports whether s was present.
func (r *Registry) Remove(s Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s]; !ok {
		return false
	}
	delete(r.sessions, s)
	return true
}

// contains reports whether s is registered.
func (r *Registry) contains(s Session) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[s]
	return ok
}

// Snapshot returns the sessions registered at the time of the call. Sessions added after the
// call are not included; sessions removed after the call are still in the returned slice.
func (r *Registry) Snapshot() []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Session, 0, len(r.sessions))
	for s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
