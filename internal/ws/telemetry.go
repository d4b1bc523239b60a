package ws

import (
	"context"
	"time"

	"briar-gateway/internal/observability"
)

const sessionRoutingKey = "ws_events.sessions"

// publishSessionEvent counts a session lifecycle event and mirrors it to the telemetry exchange.
func publishSessionEvent(ctx context.Context, event string, info ConnInfo, reason string) {
	observability.IncWSEvent(event)
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"client": map[string]interface{}{
			"device_id":  info.DeviceID,
			"ip":         info.IP,
			"user_agent": info.UserAgent,
		},
	}
	envelope := observability.NewEventEnvelope("ws_events", event, payload)
	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.WithoutCancel(ctx), sessionRoutingKey, envelope, headers)
}
