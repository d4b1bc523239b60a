package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"

	"briar-gateway/internal/models"
	"briar-gateway/internal/telemetry"
)

const contentTypeJSON = "application/json; charset=utf-8"

// Broadcaster pushes a rendered event to every authenticated session.
type Broadcaster interface {
	Broadcast(ctx context.Context, name string, data any)
}

// handler carries what every REST handler shares.
type handler struct {
	encoder jsoniter.API
	auditor *telemetry.AuditEmitter
	log     *slog.Logger
}

// render writes v with the same encoder the push channel uses, so REST bodies and event
// payloads for the same entity are byte-identical.
func (h *handler) render(c *gin.Context, status int, v any) {
	body, err := h.encoder.Marshal(v)
	if err != nil {
		h.log.Error("Failed to encode response", "path", c.FullPath(), "err", err)
		c.Data(http.StatusInternalServerError, contentTypeJSON, []byte(`{"error":"internal error"}`))
		return
	}
	c.Data(status, contentTypeJSON, body)
}

// contactIDParam parses the :contactId path parameter. A malformed id is treated as an unknown
// contact and answered with 404.
func (h *handler) contactIDParam(c *gin.Context) (models.ContactID, bool) {
	id, err := strconv.Atoi(c.Param("contactId"))
	if err != nil {
		h.notFound(c)
		return 0, false
	}
	return models.ContactID(id), true
}
