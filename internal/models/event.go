package models

// Event is one of the closed set of notifications the messaging core publishes.
// Events are read-only: they carry identifiers, not state the gateway may persist.
type Event interface {
	Accept(v EventVisitor)
}

// EventVisitor has one method per event kind.
type EventVisitor interface {
	VisitContactAdded(e ContactAddedEvent)
	VisitContactConnected(e ContactConnectedEvent)
	VisitContactDisconnected(e ContactDisconnectedEvent)
	VisitPendingContactAdded(e PendingContactAddedEvent)
	VisitPendingContactStateChanged(e PendingContactStateChangedEvent)
	VisitPendingContactRemoved(e PendingContactRemovedEvent)
	VisitConversationMessageReceived(e ConversationMessageReceivedEvent)
	VisitMessagesSent(e MessagesSentEvent)
	VisitMessagesAcked(e MessagesAckedEvent)
}

type ContactAddedEvent struct {
	ContactID ContactID
	Verified  bool
}

type ContactConnectedEvent struct {
	ContactID ContactID
}

type ContactDisconnectedEvent struct {
	ContactID ContactID
}

type PendingContactAddedEvent struct {
	PendingContact PendingContact
}

type PendingContactStateChangedEvent struct {
	ID    PendingContactID
	State PendingContactState
}

type PendingContactRemovedEvent struct {
	ID PendingContactID
}

type ConversationMessageReceivedEvent struct {
	ContactID ContactID
	Message   ConversationMessage
}

type MessagesSentEvent struct {
	ContactID  ContactID
	MessageIDs []MessageID
}

type MessagesAckedEvent struct {
	ContactID  ContactID
	MessageIDs []MessageID
}

func (e ContactAddedEvent) Accept(v EventVisitor) {
	v.VisitContactAdded(e)
}

func (e ContactConnectedEvent) Accept(v EventVisitor) {
	v.VisitContactConnected(e)
}

func (e ContactDisconnectedEvent) Accept(v EventVisitor) {
	v.VisitContactDisconnected(e)
}

func (e PendingContactAddedEvent) Accept(v EventVisitor) {
	v.VisitPendingContactAdded(e)
}

func (e PendingContactStateChangedEvent) Accept(v EventVisitor) {
	v.VisitPendingContactStateChanged(e)
}

func (e PendingContactRemovedEvent) Accept(v EventVisitor) {
	v.VisitPendingContactRemoved(e)
}

func (e ConversationMessageReceivedEvent) Accept(v EventVisitor) {
	v.VisitConversationMessageReceived(e)
}

func (e MessagesSentEvent) Accept(v EventVisitor) {
	v.VisitMessagesSent(e)
}

func (e MessagesAckedEvent) Accept(v EventVisitor) {
	v.VisitMessagesAcked(e)
}

// EventBus delivers events to subscribers.
type EventBus interface {
	Subscribe(listener func(Event)) (unsubscribe func())
}

// EventPublisher is the producing side of the event bus.
type EventPublisher interface {
	Publish(e Event)
}
