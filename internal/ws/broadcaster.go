package ws

import (
	"context"
	"log/slog"

	jsoniter "github.com/json-iterator/go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"briar-gateway/internal/observability"
	"briar-gateway/internal/views"
)

// Broadcaster pushes rendered events to every registered session.
type Broadcaster struct {
	registry *Registry
	encoder  jsoniter.API
	log      *slog.Logger
	tracer   trace.Tracer
}

// NewBroadcaster creates a Broadcaster over registry. encoder is shared process-wide.
func NewBroadcaster(registry *Registry, encoder jsoniter.API, log *slog.Logger) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		encoder:  encoder,
		log:      log,
		tracer:   otel.Tracer("briar-gateway/ws"),
	}
}

// Broadcast encodes the envelope for name and data once and hands it to every session.
// A session that fails is removed from the registry; failures never reach the caller and do
// not affect delivery to other sessions.
func (b *Broadcaster) Broadcast(ctx context.Context, name string, data any) {
	ctx, span := b.tracer.Start(ctx, "ws.broadcast", trace.WithAttributes(attribute.String("event.name", name)))
	defer span.End()

	payload, err := b.encoder.Marshal(views.NewEnvelope(name, data))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode envelope")
		b.log.Error("Failed to encode event", "event", name, "err", err)
		return
	}

	sessions := b.registry.Snapshot()
	span.SetAttributes(attribute.Int("ws.sessions", len(sessions)))
	for _, s := range sessions {
		if err := s.Send(payload); err != nil {
			b.drop(ctx, s, err)
			observability.IncBroadcastDelivery(name, "dropped")
			continue
		}
		observability.IncBroadcastDelivery(name, "queued")
	}
}

// drop unregisters a session that failed delivery. A websocket session is also stopped, which
// closes its connection.
func (b *Broadcaster) drop(ctx context.Context, s Session, err error) {
	session, isWS := s.(*wsSession)
	if isWS {
		session.stop()
	}
	if !b.registry.Remove(s) {
		return
	}
	b.log.Warn("Dropping session after failed delivery", "session_id", s.ID(), "err", err)
	if isWS {
		publishSessionEvent(ctx, "ws_error", session.info, err.Error())
		return
	}
	observability.IncWSEvent("ws_error")
}
