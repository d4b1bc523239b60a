package repositories

import (
	"sync"

	"briar-gateway/internal/models"
)

// ConnectionRegistry tracks which contacts have a live transport connection. A contact may
// be reachable over several transports at once; it counts as connected while any is up.
type ConnectionRegistry struct {
	mu          sync.Mutex
	connections map[models.ContactID]int
	events      models.EventPublisher
}

var _ models.ConnectionRegistry = (*ConnectionRegistry)(nil)

func NewConnectionRegistry(events models.EventPublisher) *ConnectionRegistry {
	return &ConnectionRegistry{connections: make(map[models.ContactID]int), events: events}
}

// MarkConnected records a new connection to id. The first one publishes ContactConnectedEvent.
func (r *ConnectionRegistry) MarkConnected(id models.ContactID) {
	r.mu.Lock()
	r.connections[id]++
	first := r.connections[id] == 1
	r.mu.Unlock()

	if first {
		r.events.Publish(models.ContactConnectedEvent{ContactID: id})
	}
}

// MarkDisconnected records a closed connection to id. The last one publishes
// ContactDisconnectedEvent.
func (r *ConnectionRegistry) MarkDisconnected(id models.ContactID) {
	r.mu.Lock()
	n, ok := r.connections[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	last := n == 1
	if last {
		delete(r.connections, id)
	} else {
		r.connections[id] = n - 1
	}
	r.mu.Unlock()

	if last {
		r.events.Publish(models.ContactDisconnectedEvent{ContactID: id})
	}
}

func (r *ConnectionRegistry) IsConnected(id models.ContactID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connections[id] > 0
}
