package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"briar-gateway/internal/views"
)

const testToken = "correct-horse-battery-staple"

func newEventsServer(t *testing.T, registry *Registry, authTimeout time.Duration) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	handler := NewEventsWebSocketHandler(registry, testToken, logs.GetLoggerFromLevel(slog.LevelDebug), Options{
		AuthTimeout:  authTimeout,
		WriteTimeout: time.Second,
		OutboxSize:   8,
	})
	router := gin.New()
	router.GET("/v1/ws", handler.Handle)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func dialEvents(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestEventsRejectsWrongToken(t *testing.T) {
	registry := NewRegistry()
	srv := newEventsServer(t, registry, time.Second)
	conn := dialEvents(t, srv)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("wrong-token")))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "unexpected error: %v", err)
	assert.Equal(t, 0, registry.Len())
}

func TestEventsRejectsSilentClient(t *testing.T) {
	registry := NewRegistry()
	srv := newEventsServer(t, registry, 100*time.Millisecond)
	conn := dialEvents(t, srv)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "unexpected error: %v", err)
	assert.Equal(t, 0, registry.Len())
}

func TestEventsDeliversInOrderAfterAuth(t *testing.T) {
	registry := NewRegistry()
	broadcaster := newTestBroadcaster(registry)
	srv := newEventsServer(t, registry, time.Second)
	conn := dialEvents(t, srv)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(testToken)))
	require.Eventually(t, func() bool { return registry.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	broadcaster.Broadcast(context.Background(), views.EventContactConnected, views.ContactIDView{ContactID: 3})
	broadcaster.Broadcast(context.Background(), views.EventContactDisconnected, views.ContactIDView{ContactID: 3})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var names []string
	for i := 0; i < 2; i++ {
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err)
		var envelope struct {
			Type string          `json:"type"`
			Name string          `json:"name"`
			Data json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(payload, &envelope))
		assert.Equal(t, "event", envelope.Type)
		assert.JSONEq(t, `{"contactId":3}`, string(envelope.Data))
		names = append(names, envelope.Name)
	}
	assert.Equal(t, []string{views.EventContactConnected, views.EventContactDisconnected}, names)
}

func TestEventsClientCloseUnregisters(t *testing.T) {
	registry := NewRegistry()
	srv := newEventsServer(t, registry, time.Second)
	conn := dialEvents(t, srv)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(testToken)))
	require.Eventually(t, func() bool { return registry.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()

	require.Eventually(t, func() bool { return registry.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestEventsDroppedSessionIsClosed(t *testing.T) {
	registry := NewRegistry()
	broadcaster := newTestBroadcaster(registry)
	srv := newEventsServer(t, registry, time.Second)
	conn := dialEvents(t, srv)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(testToken)))
	require.Eventually(t, func() bool { return registry.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
	session, ok := registry.Snapshot()[0].(*wsSession)
	require.True(t, ok)

	broadcaster.drop(context.Background(), session, ErrOutboxFull)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseTryAgainLater), "unexpected error: %v", err)
	assert.Equal(t, 0, registry.Len())
	assert.ErrorIs(t, session.Send([]byte("late")), ErrSessionClosed)
}
