package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"briar-gateway/internal/models"
)

// Error codes returned in the "error" field of 400 and 403 responses.
const (
	codeInvalidLink      = "INVALID_LINK"
	codeInvalidPublicKey = "INVALID_PUBLIC_KEY"
	codeContactExists    = "CONTACT_EXISTS"
	codePendingExists    = "PENDING_EXISTS"
)

func (h *handler) notFound(c *gin.Context) {
	h.render(c, http.StatusNotFound, gin.H{"error": "not found"})
}

func (h *handler) badRequest(c *gin.Context, msg string) {
	h.render(c, http.StatusBadRequest, gin.H{"error": msg})
}

// writeError maps a domain error to its HTTP response.
func (h *handler) writeError(c *gin.Context, err error) {
	var contactExists *models.ContactExistsError
	var pendingExists *models.PendingContactExistsError

	switch {
	case errors.Is(err, models.ErrNoSuchContact),
		errors.Is(err, models.ErrNoSuchPendingContact),
		errors.Is(err, models.ErrNoSuchMessage),
		errors.Is(err, models.ErrNoSuchGroup):
		h.notFound(c)
	case errors.Is(err, models.ErrInvalidLink):
		h.badRequest(c, codeInvalidLink)
	case errors.Is(err, models.ErrInvalidPublicKey):
		h.badRequest(c, codeInvalidPublicKey)
	case errors.As(err, &contactExists):
		h.render(c, http.StatusForbidden, gin.H{
			"error":            codeContactExists,
			"remoteAuthorName": contactExists.RemoteAuthorName,
		})
	case errors.As(err, &pendingExists):
		h.render(c, http.StatusForbidden, gin.H{
			"error":               codePendingExists,
			"pendingContactId":    []byte(pendingExists.PendingContact.ID),
			"pendingContactAlias": pendingExists.PendingContact.Alias,
		})
	default:
		h.log.Error("Request failed", "path", c.FullPath(), "err", err)
		h.render(c, http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
