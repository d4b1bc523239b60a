package handlers

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"

	"briar-gateway/internal/models"
	"briar-gateway/internal/telemetry"
	"briar-gateway/internal/views"
)

// MessageHandler serves the conversation endpoints and pushes message events.
type MessageHandler struct {
	handler
	contacts      models.ContactManager
	conversations models.ConversationManager
	messaging     models.MessagingManager
	broadcaster   Broadcaster
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(contacts models.ContactManager, conversations models.ConversationManager, messaging models.MessagingManager,
	broadcaster Broadcaster, encoder jsoniter.API, auditor *telemetry.AuditEmitter, log *slog.Logger) *MessageHandler {
	return &MessageHandler{
		handler:       handler{encoder: encoder, auditor: auditor, log: log},
		contacts:      contacts,
		conversations: conversations,
		messaging:     messaging,
		broadcaster:   broadcaster,
	}
}

// ListMessages returns the conversation with a contact, oldest first.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	contactID, ok := h.contactIDParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.contacts.GetContact(ctx, contactID); err != nil {
		h.writeError(c, err)
		return
	}

	headers, err := h.conversations.GetMessageHeaders(ctx, contactID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	sort.SliceStable(headers, func(i, j int) bool {
		return headers[i].Header().Timestamp < headers[j].Header().Timestamp
	})

	resp := make([]views.ConversationMessageView, 0, len(headers))
	for _, m := range headers {
		text, err := h.privateMessageText(ctx, m)
		if err != nil {
			h.writeError(c, err)
			return
		}
		resp = append(resp, views.ConversationMessage(m, contactID, text))
	}
	h.render(c, http.StatusOK, resp)
}

// privateMessageText loads the text of a private message. It returns nil for other variants and
// for private messages without text.
func (h *MessageHandler) privateMessageText(ctx context.Context, m models.ConversationMessage) (*string, error) {
	pm, ok := m.(models.PrivateMessageHeader)
	if !ok || !pm.HasText {
		return nil, nil
	}
	text, err := h.messaging.GetMessageText(ctx, pm.ID)
	if err != nil {
		return nil, err
	}
	return &text, nil
}

// SendMessage sends a private message to a contact.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	contactID, ok := h.contactIDParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.contacts.GetContact(ctx, contactID); err != nil {
		h.writeError(c, err)
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	if err := validateText("text", req.Text, models.MaxPrivateMessageTextLength); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	msg, err := h.messaging.SendPrivateMessage(ctx, contactID, req.Text)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.audit(c, "message_sent", map[string]string{"contact_id": strconv.Itoa(int(contactID))})
	h.render(c, http.StatusOK, views.OwnPrivateMessage(msg, contactID))
}

// MarkMessageRead marks one message of a conversation as read.
func (h *MessageHandler) MarkMessageRead(c *gin.Context) {
	contactID, ok := h.contactIDParam(c)
	if !ok {
		return
	}

	var req struct {
		MessageID string `json:"messageId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	messageID, err := base64.StdEncoding.DecodeString(req.MessageID)
	if err != nil || len(messageID) == 0 {
		h.notFound(c)
		return
	}

	if err := h.conversations.SetReadFlag(c.Request.Context(), contactID, models.MessageID(messageID), true); err != nil {
		h.writeError(c, err)
		return
	}
	h.render(c, http.StatusOK, gin.H{"messageId": messageID})
}

// DeleteAllMessages deletes every message of a conversation that can be deleted.
func (h *MessageHandler) DeleteAllMessages(c *gin.Context) {
	contactID, ok := h.contactIDParam(c)
	if !ok {
		return
	}

	result, err := h.conversations.DeleteAllMessages(c.Request.Context(), contactID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.audit(c, "messages_deleted", map[string]string{
		"contact_id":  strconv.Itoa(int(contactID)),
		"all_deleted": strconv.FormatBool(result.AllDeleted()),
	})
	h.render(c, http.StatusOK, views.DeletionResult(result))
}

// OnEvent pushes message events. Other events are ignored.
func (h *MessageHandler) OnEvent(e models.Event) {
	e.Accept(messageEventPusher{h: h, ctx: context.Background()})
}

// messageEventPusher broadcasts the events that change a conversation.
type messageEventPusher struct {
	h   *MessageHandler
	ctx context.Context
}

var _ models.EventVisitor = messageEventPusher{}

func (p messageEventPusher) push(e models.Event) {
	name, data := views.Event(e)
	p.h.broadcaster.Broadcast(p.ctx, name, data)
}

func (p messageEventPusher) VisitConversationMessageReceived(e models.ConversationMessageReceivedEvent) {
	text, err := p.h.privateMessageText(p.ctx, e.Message)
	if err != nil {
		p.h.log.Warn("Failed to load text of received message", "contact_id", e.ContactID, "err", err)
	}
	p.h.broadcaster.Broadcast(p.ctx, views.EventConversationMessageReceived, views.ConversationMessageReceived(e, text))
}

func (p messageEventPusher) VisitMessagesSent(e models.MessagesSentEvent)   { p.push(e) }
func (p messageEventPusher) VisitMessagesAcked(e models.MessagesAckedEvent) { p.push(e) }

func (messageEventPusher) VisitContactAdded(models.ContactAddedEvent)                             {}
func (messageEventPusher) VisitContactConnected(models.ContactConnectedEvent)                     {}
func (messageEventPusher) VisitContactDisconnected(models.ContactDisconnectedEvent)               {}
func (messageEventPusher) VisitPendingContactAdded(models.PendingContactAddedEvent)               {}
func (messageEventPusher) VisitPendingContactStateChanged(models.PendingContactStateChangedEvent) {}
func (messageEventPusher) VisitPendingContactRemoved(models.PendingContactRemovedEvent)           {}
