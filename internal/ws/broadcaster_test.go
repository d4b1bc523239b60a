package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"briar-gateway/internal/views"
)

type fakeSession struct {
	id       string
	err      error
	mu       sync.Mutex
	received [][]byte
}

func (f *fakeSession) ID() string { return f.id }

func (f *fakeSession) Send(payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, payload)
	return nil
}

func (f *fakeSession) frames() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.received...)
}

func newTestBroadcaster(registry *Registry) *Broadcaster {
	return NewBroadcaster(registry, views.NewEncoder(), logs.GetLoggerFromLevel(slog.LevelDebug))
}

func TestBroadcastIsolatesFailingSession(t *testing.T) {
	registry := NewRegistry()
	broadcaster := newTestBroadcaster(registry)

	const n = 5
	const failing = 2
	sessions := make([]*fakeSession, n)
	for i := range sessions {
		sessions[i] = &fakeSession{id: fmt.Sprintf("s%d", i)}
		if i == failing {
			sessions[i].err = errors.New("broken pipe")
		}
		registry.Add(sessions[i])
	}

	broadcaster.Broadcast(context.Background(), views.EventContactConnected, views.ContactIDView{ContactID: 1})

	for i, s := range sessions {
		if i == failing {
			assert.Empty(t, s.frames())
			assert.False(t, registry.contains(s))
			continue
		}
		assert.Len(t, s.frames(), 1, "session %d", i)
		assert.True(t, registry.contains(s), "session %d", i)
	}
	assert.Equal(t, n-1, registry.Len())
}

func TestBroadcastRendersEnvelopeOnce(t *testing.T) {
	registry := NewRegistry()
	broadcaster := newTestBroadcaster(registry)
	a, b := &fakeSession{id: "a"}, &fakeSession{id: "b"}
	registry.Add(a)
	registry.Add(b)

	broadcaster.Broadcast(context.Background(), views.EventContactAdded, views.ContactAddedView{ContactID: 7, Verified: true})

	require.Len(t, a.frames(), 1)
	require.Len(t, b.frames(), 1)
	assert.JSONEq(t, `{"type":"event","name":"ContactAddedEvent","data":{"contactId":7,"verified":true}}`, string(a.frames()[0]))
	assert.Same(t, &a.frames()[0][0], &b.frames()[0][0])
}

func TestBroadcastPreservesOrderPerSession(t *testing.T) {
	registry := NewRegistry()
	broadcaster := newTestBroadcaster(registry)
	s := &fakeSession{id: "a"}
	registry.Add(s)

	broadcaster.Broadcast(context.Background(), views.EventContactConnected, views.ContactIDView{ContactID: 1})
	broadcaster.Broadcast(context.Background(), views.EventContactDisconnected, views.ContactIDView{ContactID: 1})

	frames := s.frames()
	require.Len(t, frames, 2)
	assert.Contains(t, string(frames[0]), views.EventContactConnected)
	assert.Contains(t, string(frames[1]), views.EventContactDisconnected)
}

func TestBroadcastWithoutSessions(t *testing.T) {
	registry := NewRegistry()
	broadcaster := newTestBroadcaster(registry)

	assert.NotPanics(t, func() {
		broadcaster.Broadcast(context.Background(), views.EventContactConnected, views.ContactIDView{ContactID: 1})
	})
}

func TestSessionSendDoesNotBlock(t *testing.T) {
	s := newSession(nil, ConnInfo{ConnID: "x"}, 1, 0)

	require.NoError(t, s.Send([]byte("one")))
	assert.ErrorIs(t, s.Send([]byte("two")), ErrOutboxFull)

	s.stop()
	assert.ErrorIs(t, s.Send([]byte("three")), ErrSessionClosed)
}

func TestBroadcastStopsSessionWithFullOutbox(t *testing.T) {
	registry := NewRegistry()
	broadcaster := newTestBroadcaster(registry)
	// No writer drains the outbox, so the second event overflows it.
	s := newSession(nil, ConnInfo{ConnID: "slow"}, 1, 0)
	registry.Add(s)

	broadcaster.Broadcast(context.Background(), views.EventContactConnected, views.ContactIDView{ContactID: 1})
	require.True(t, registry.contains(s))

	broadcaster.Broadcast(context.Background(), views.EventContactDisconnected, views.ContactIDView{ContactID: 1})

	assert.False(t, registry.contains(s))
	select {
	case <-s.done:
	default:
		t.Fatal("session was not stopped")
	}
	assert.ErrorIs(t, s.Send([]byte("late")), ErrSessionClosed)
}
