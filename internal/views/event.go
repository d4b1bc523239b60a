package views

import "briar-gateway/internal/models"

// Event names pushed to sessions.
const (
	EventContactAdded                = "ContactAddedEvent"
	EventContactConnected            = "ContactConnectedEvent"
	EventContactDisconnected         = "ContactDisconnectedEvent"
	EventPendingContactAdded         = "PendingContactAddedEvent"
	EventPendingContactStateChanged  = "PendingContactStateChangedEvent"
	EventPendingContactRemoved       = "PendingContactRemovedEvent"
	EventConversationMessageReceived = "ConversationMessageReceivedEvent"
	EventMessagesSent                = "MessagesSentEvent"
	EventMessagesAcked               = "MessagesAckedEvent"
)

// Envelope is the frame pushed over an authenticated session.
type Envelope struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Data any    `json:"data"`
}

// NewEnvelope wraps rendered event data.
func NewEnvelope(name string, data any) Envelope {
	return Envelope{Type: "event", Name: name, Data: data}
}

type ContactAddedView struct {
	ContactID models.ContactID `json:"contactId"`
	Verified  bool             `json:"verified"`
}

type ContactIDView struct {
	ContactID models.ContactID `json:"contactId"`
}

type PendingContactStateView struct {
	PendingContactID []byte `json:"pendingContactId"`
	State            string `json:"state"`
}

type PendingContactIDView struct {
	PendingContactID []byte `json:"pendingContactId"`
}

type MessageIDsView struct {
	ContactID  models.ContactID `json:"contactId"`
	MessageIDs [][]byte         `json:"messageIds"`
}

// Event renders e into its event name and data. Rendering depends only on e's fields, so
// rendering the same event twice gives the same JSON. A received private message is rendered
// without its text; use ConversationMessageReceived to attach it.
func Event(e models.Event) (string, any) {
	if e == nil {
		panic("views: nil event")
	}
	r := &eventRenderer{}
	e.Accept(r)
	if r.name == "" {
		panic("views: event was not rendered")
	}
	return r.name, r.data
}

// ConversationMessageReceived renders a received message event with the message text.
func ConversationMessageReceived(e models.ConversationMessageReceivedEvent, text *string) ConversationMessageView {
	return ConversationMessage(e.Message, e.ContactID, text)
}

type eventRenderer struct {
	name string
	data any
}

var _ models.EventVisitor = (*eventRenderer)(nil)

func (r *eventRenderer) set(name string, data any) {
	r.name, r.data = name, data
}

func (r *eventRenderer) VisitContactAdded(e models.ContactAddedEvent) {
	r.set(EventContactAdded, ContactAddedView{ContactID: e.ContactID, Verified: e.Verified})
}

func (r *eventRenderer) VisitContactConnected(e models.ContactConnectedEvent) {
	r.set(EventContactConnected, ContactIDView{ContactID: e.ContactID})
}

func (r *eventRenderer) VisitContactDisconnected(e models.ContactDisconnectedEvent) {
	r.set(EventContactDisconnected, ContactIDView{ContactID: e.ContactID})
}

func (r *eventRenderer) VisitPendingContactAdded(e models.PendingContactAddedEvent) {
	r.set(EventPendingContactAdded, PendingContact(e.PendingContact))
}

func (r *eventRenderer) VisitPendingContactStateChanged(e models.PendingContactStateChangedEvent) {
	r.set(EventPendingContactStateChanged, PendingContactStateView{
		PendingContactID: e.ID,
		State:            PendingContactState(e.State),
	})
}

func (r *eventRenderer) VisitPendingContactRemoved(e models.PendingContactRemovedEvent) {
	r.set(EventPendingContactRemoved, PendingContactIDView{PendingContactID: e.ID})
}

func (r *eventRenderer) VisitConversationMessageReceived(e models.ConversationMessageReceivedEvent) {
	r.set(EventConversationMessageReceived, ConversationMessageReceived(e, nil))
}

func (r *eventRenderer) VisitMessagesSent(e models.MessagesSentEvent) {
	r.set(EventMessagesSent, messageIDs(e.ContactID, e.MessageIDs))
}

func (r *eventRenderer) VisitMessagesAcked(e models.MessagesAckedEvent) {
	r.set(EventMessagesAcked, messageIDs(e.ContactID, e.MessageIDs))
}

func messageIDs(contactID models.ContactID, ids []models.MessageID) MessageIDsView {
	out := make([][]byte, 0, len(ids))
	for _, id := range ids {
		out = append(out, id)
	}
	return MessageIDsView{ContactID: contactID, MessageIDs: out}
}
