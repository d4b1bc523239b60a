package handlers

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"

	"briar-gateway/internal/models"
	"briar-gateway/internal/telemetry"
	"briar-gateway/internal/views"
)

var linkRegex = regexp.MustCompile(`^(briar://)?[a-z2-7]{53}$`)

// ContactHandler serves the contact endpoints and pushes contact events.
type ContactHandler struct {
	handler
	contacts      models.ContactManager
	conversations models.ConversationManager
	connections   models.ConnectionRegistry
	broadcaster   Broadcaster
}

// NewContactHandler builds a ContactHandler.
func NewContactHandler(contacts models.ContactManager, conversations models.ConversationManager, connections models.ConnectionRegistry,
	broadcaster Broadcaster, encoder jsoniter.API, auditor *telemetry.AuditEmitter, log *slog.Logger) *ContactHandler {
	return &ContactHandler{
		handler:       handler{encoder: encoder, auditor: auditor, log: log},
		contacts:      contacts,
		conversations: conversations,
		connections:   connections,
		broadcaster:   broadcaster,
	}
}

// ListContacts returns every contact with its conversation summary and connection status.
func (h *ContactHandler) ListContacts(c *gin.Context) {
	ctx := c.Request.Context()
	contacts, err := h.contacts.GetContacts(ctx)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]views.ContactView, 0, len(contacts))
	for _, contact := range contacts {
		count, err := h.conversations.GetGroupCount(ctx, contact.ID)
		if err != nil {
			h.writeError(c, err)
			return
		}
		resp = append(resp, views.Contact(contact, count, h.connections.IsConnected(contact.ID)))
	}
	h.render(c, http.StatusOK, resp)
}

// GetLink returns the local handshake link.
func (h *ContactHandler) GetLink(c *gin.Context) {
	link, err := h.contacts.GetHandshakeLink(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.render(c, http.StatusOK, gin.H{"link": link})
}

// AddPendingContact starts adding a contact from its handshake link.
func (h *ContactHandler) AddPendingContact(c *gin.Context) {
	var req struct {
		Link  string `json:"link"`
		Alias string `json:"alias"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	if !linkRegex.MatchString(req.Link) {
		h.badRequest(c, codeInvalidLink)
		return
	}
	if err := validateText("alias", req.Alias, models.MaxAuthorNameLength); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	pending, err := h.contacts.AddPendingContact(c.Request.Context(), req.Link, req.Alias)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.audit(c, "pending_contact_added", map[string]string{"alias": pending.Alias})
	h.render(c, http.StatusOK, views.PendingContact(pending))
}

// ListPendingContacts returns the pending contacts with their states.
func (h *ContactHandler) ListPendingContacts(c *gin.Context) {
	pending, err := h.contacts.GetPendingContacts(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.render(c, http.StatusOK, lo.Map(pending, func(p models.PendingContactWithState, _ int) views.PendingContactWithStateView {
		return views.PendingContactWithState(p)
	}))
}

// RemovePendingContact cancels adding a pending contact.
func (h *ContactHandler) RemovePendingContact(c *gin.Context) {
	var req struct {
		PendingContactID string `json:"pendingContactId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	id, err := base64.StdEncoding.DecodeString(req.PendingContactID)
	if err != nil || len(id) == 0 {
		h.notFound(c)
		return
	}

	if err := h.contacts.RemovePendingContact(c.Request.Context(), models.PendingContactID(id)); err != nil {
		h.writeError(c, err)
		return
	}

	h.audit(c, "pending_contact_removed", map[string]string{"pending_contact_id": req.PendingContactID})
	c.Status(http.StatusOK)
}

// DeleteContact removes a contact.
func (h *ContactHandler) DeleteContact(c *gin.Context) {
	id, ok := h.contactIDParam(c)
	if !ok {
		return
	}

	if err := h.contacts.RemoveContact(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}

	h.audit(c, "contact_removed", map[string]string{"contact_id": strconv.Itoa(int(id))})
	c.Status(http.StatusOK)
}

// SetContactAlias sets the local alias of a contact.
func (h *ContactHandler) SetContactAlias(c *gin.Context) {
	id, ok := h.contactIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Alias string `json:"alias"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	if err := validateText("alias", req.Alias, models.MaxAuthorNameLength); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	if err := h.contacts.SetContactAlias(c.Request.Context(), id, req.Alias); err != nil {
		h.writeError(c, err)
		return
	}

	h.audit(c, "contact_alias_set", map[string]string{"contact_id": strconv.Itoa(int(id))})
	c.Status(http.StatusOK)
}

// OnEvent pushes contact and pending contact events. Other events are ignored.
func (h *ContactHandler) OnEvent(e models.Event) {
	e.Accept(contactEventPusher{h: h})
}

// contactEventPusher broadcasts the events that change the contact list.
type contactEventPusher struct{ h *ContactHandler }

var _ models.EventVisitor = contactEventPusher{}

func (p contactEventPusher) push(e models.Event) {
	name, data := views.Event(e)
	p.h.broadcaster.Broadcast(context.Background(), name, data)
}

func (p contactEventPusher) VisitContactAdded(e models.ContactAddedEvent) {
	p.push(e)
}

func (p contactEventPusher) VisitContactConnected(e models.ContactConnectedEvent) {
	p.push(e)
}

func (p contactEventPusher) VisitContactDisconnected(e models.ContactDisconnectedEvent) {
	p.push(e)
}

func (p contactEventPusher) VisitPendingContactAdded(e models.PendingContactAddedEvent) {
	p.push(e)
}

func (p contactEventPusher) VisitPendingContactStateChanged(e models.PendingContactStateChangedEvent) {
	p.push(e)
}

func (p contactEventPusher) VisitPendingContactRemoved(e models.PendingContactRemovedEvent) {
	p.push(e)
}

func (contactEventPusher) VisitConversationMessageReceived(models.ConversationMessageReceivedEvent) {}
func (contactEventPusher) VisitMessagesSent(models.MessagesSentEvent)                               {}
func (contactEventPusher) VisitMessagesAcked(models.MessagesAckedEvent)                             {}
