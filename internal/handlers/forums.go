package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"

	"briar-gateway/internal/models"
	"briar-gateway/internal/telemetry"
	"briar-gateway/internal/views"
)

type ForumHandler struct {
	handler
	forums models.ForumManager
}

func NewForumHandler(forums models.ForumManager, encoder jsoniter.API, auditor *telemetry.AuditEmitter, log *slog.Logger) *ForumHandler {
	return &ForumHandler{handler: handler{encoder: encoder, auditor: auditor, log: log}, forums: forums}
}

func (h *ForumHandler) ListForums(c *gin.Context) {
	forums, err := h.forums.GetForums(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.render(c, http.StatusOK, lo.Map(forums, func(f models.Forum, _ int) views.ForumView {
		return views.Forum(f)
	}))
}

func (h *ForumHandler) CreateForum(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	if err := validateText("name", req.Name, models.MaxForumNameLength); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	forum, err := h.forums.AddForum(c.Request.Context(), req.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.audit(c, "forum_created", map[string]string{"name": forum.Name})
	h.render(c, http.StatusOK, views.Forum(forum))
}
