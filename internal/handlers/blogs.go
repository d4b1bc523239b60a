package handlers

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"

	"briar-gateway/internal/models"
	"briar-gateway/internal/telemetry"
	"briar-gateway/internal/views"
)

type BlogHandler struct {
	handler
	blogs models.BlogManager
}

func NewBlogHandler(blogs models.BlogManager, encoder jsoniter.API, auditor *telemetry.AuditEmitter, log *slog.Logger) *BlogHandler {
	return &BlogHandler{handler: handler{encoder: encoder, auditor: auditor, log: log}, blogs: blogs}
}

// ListPosts returns the posts of every visible blog, oldest first.
func (h *BlogHandler) ListPosts(c *gin.Context) {
	ctx := c.Request.Context()
	headers, err := h.blogs.GetPostHeaders(ctx)
	if err != nil {
		h.writeError(c, err)
		return
	}
	sort.SliceStable(headers, func(i, j int) bool {
		return headers[i].Timestamp < headers[j].Timestamp
	})

	resp := make([]views.BlogPostView, 0, len(headers))
	for _, header := range headers {
		text, err := h.blogs.GetPostText(ctx, header.ID)
		if err != nil {
			h.writeError(c, err)
			return
		}
		resp = append(resp, views.BlogPost(header, text))
	}
	h.render(c, http.StatusOK, resp)
}

// CreatePost publishes a post on the local user's blog.
func (h *BlogHandler) CreatePost(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	if err := validateText("text", req.Text, models.MaxBlogPostTextLength); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	header, err := h.blogs.AddLocalPost(c.Request.Context(), req.Text)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.audit(c, "blog_post_created", nil)
	h.render(c, http.StatusOK, views.BlogPost(header, req.Text))
}
