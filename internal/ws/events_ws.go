package ws

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"briar-gateway/internal/observability"
)

var errUnauthorized = errors.New("first message is not the auth token")

// Options tunes the event stream handler.
type Options struct {
	// AuthTimeout bounds the wait for the first in-band message.
	AuthTimeout time.Duration
	// WriteTimeout bounds a single frame write.
	WriteTimeout time.Duration
	// OutboxSize is the number of frames a session may have queued.
	OutboxSize int
	// AllowedOrigins restricts the Origin header of upgrade requests. Empty allows any origin.
	AllowedOrigins []string
}

// EventsWebSocketHandler serves the push channel. The upgrade itself is unauthenticated;
// the first message on the channel must be the auth token, and only then is the session
// added to the registry.
type EventsWebSocketHandler struct {
	registry *Registry
	token    []byte
	log      *slog.Logger
	opts     Options
	upgrader websocket.Upgrader
}

// NewEventsWebSocketHandler constructs an EventsWebSocketHandler.
func NewEventsWebSocketHandler(registry *Registry, token string, log *slog.Logger, opts Options) *EventsWebSocketHandler {
	if opts.OutboxSize <= 0 {
		opts.OutboxSize = 64
	}
	if opts.AuthTimeout <= 0 {
		opts.AuthTimeout = 10 * time.Second
	}
	return &EventsWebSocketHandler{
		registry: registry,
		token:    []byte(token),
		log:      log,
		opts:     opts,
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin(opts.AllowedOrigins)},
	}
}

func checkOrigin(allowedOrigins []string) func(r *http.Request) bool {
	if len(allowedOrigins) == 0 {
		return func(r *http.Request) bool { return true }
	}
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin]
	}
}

// Handle upgrades the connection and serves it in the background.
func (h *EventsWebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("briar-gateway/ws").Start(c.Request.Context(), "ws.handshake")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		span.RecordError(err)
		span.End()
		h.log.Debug("WebSocket upgrade failed", "err", err)
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		UserAgent:   c.Request.UserAgent(),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	go h.serve(context.WithoutCancel(ctx), span, conn, info)
}

func (h *EventsWebSocketHandler) serve(ctx context.Context, span trace.Span, conn *websocket.Conn, info ConnInfo) {
	defer conn.Close()

	if err := h.authenticate(conn); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unauthenticated")
		span.End()
		h.log.Info("Rejected unauthenticated session", "session_id", info.ConnID, "ip", info.IP, "err", err)
		publishSessionEvent(ctx, "ws_auth_failed", info, err.Error())
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthorized"),
			time.Now().Add(time.Second))
		return
	}
	span.End()

	session := newSession(conn, info, h.opts.OutboxSize, h.opts.WriteTimeout)
	h.registry.Add(session)
	observability.IncWSActive()
	publishSessionEvent(ctx, "ws_connect", info, "")
	h.log.Info("Session authenticated", "session_id", info.ConnID, "sessions", h.registry.Len())

	go session.writeLoop(func(err error) {
		if h.registry.Remove(session) {
			h.log.Warn("Dropping session after failed write", "session_id", info.ConnID, "err", err)
			publishSessionEvent(ctx, "ws_error", info, err.Error())
		}
	})

	readDone := make(chan struct{})
	go h.closeWhenStopped(session, readDone)

	var closeReason string
	defer func() {
		close(readDone)
		h.registry.Remove(session)
		session.stop()
		observability.DecWSActive()
		publishSessionEvent(ctx, "ws_disconnect", info, closeReason)
		h.log.Info("Session closed", "session_id", info.ConnID, "reason", closeReason)
	}()

	// Clients have nothing to say after authenticating; reading only detects closure.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			closeReason = err.Error()
			select {
			case <-session.done:
				closeReason = "session dropped"
			default:
			}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("Session read failed", "session_id", info.ConnID, "err", err)
			}
			return
		}
	}
}

// closeWhenStopped closes the connection of a session stopped from outside the read loop, for
// example by a broadcast that found its outbox full. Closing the connection ends the read loop,
// which runs the disconnect bookkeeping.
func (h *EventsWebSocketHandler) closeWhenStopped(session *wsSession, readDone <-chan struct{}) {
	select {
	case <-readDone:
		return
	case <-session.done:
	}
	_ = session.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "session dropped"),
		time.Now().Add(time.Second))
	_ = session.conn.Close()
}

// authenticate reads the first message and compares it with the token. There is no second
// attempt.
func (h *EventsWebSocketHandler) authenticate(conn *websocket.Conn) error {
	if err := conn.SetReadDeadline(time.Now().Add(h.opts.AuthTimeout)); err != nil {
		return err
	}
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(msg, h.token) != 1 {
		return errUnauthorized
	}
	return conn.SetReadDeadline(time.Time{})
}
