package telemetry

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"briar-gateway/internal/observability"
)

// AuditEmitter publishes an audit record for every state-changing REST call.
type AuditEmitter struct {
	publisher   observability.Publisher
	routingKey  string
	service     string
	environment string
	log         *slog.Logger
}

type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	Payload       AuditPayload `json:"payload"`
}

type AuditPayload struct {
	Action     string            `json:"action"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func NewAuditEmitter(publisher observability.Publisher, routingKey, service, environment string, log *slog.Logger) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
		log:         log,
	}
}

// Emit publishes action. A nil emitter does nothing. Publish failures are logged, never returned.
func (e *AuditEmitter) Emit(ctx context.Context, action, requestID string, attrs map[string]string) {
	if e == nil || e.publisher == nil {
		return
	}

	e.log.Debug("Audit emit", "action", action, "request_id", requestID)
	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventType:     "audit_log",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		Payload: AuditPayload{
			Action:     action,
			Attributes: attrs,
		},
	}

	var traceID string
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.HasTraceID() {
		traceID = spanCtx.TraceID().String()
	}
	headers := observability.BuildHeaders(requestID, traceID)
	if err := e.publisher.Publish(ctx, e.routingKey, envelope, headers); err != nil {
		observability.IncAMQPPublishError()
		e.log.Warn("Audit publish failed", "action", action, "err", err)
	}
}
