package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"

	"briar-gateway/internal/telemetry"
)

// SessionCounter reports the number of authenticated push sessions.
type SessionCounter interface {
	Len() int
}

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router gin.IRouter, sessions SessionCounter, emitter *telemetry.AuditEmitter,
	encoder jsoniter.API, log *slog.Logger, enabled bool) {
	if !enabled {
		return
	}
	h := &handler{encoder: encoder, auditor: emitter, log: log}

	router.GET("/debug/sessions", func(c *gin.Context) {
		h.render(c, http.StatusOK, gin.H{"sessions": sessions.Len()})
	})

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if h.auditor == nil {
			h.render(c, http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		h.auditor.Emit(c.Request.Context(), "audit_test", requestIDFromContext(c), nil)
		h.render(c, http.StatusOK, gin.H{"status": "ok"})
	})
}
