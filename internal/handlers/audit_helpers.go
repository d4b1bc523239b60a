package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"briar-gateway/internal/observability"
)

const requestIDContextKey = "request_id"

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader(observability.RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

func (h *handler) audit(c *gin.Context, action string, attrs map[string]string) {
	h.auditor.Emit(c.Request.Context(), action, requestIDFromContext(c), attrs)
}
