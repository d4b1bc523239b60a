// Package ingest applies the reports the messaging core publishes about transport activity
// to the local stores. The stores announce each change on the event bus.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"

	"briar-gateway/internal/models"
)

var (
	json     = jsoniter.ConfigCompatibleWithStandardLibrary
	validate = validator.New()
)

// RoutingKeyPrefix precedes the report name in the routing key of every core report.
const RoutingKeyPrefix = "core.events."

// ErrUnknownReport is returned for routing keys the gateway does not handle.
var ErrUnknownReport = errors.New("unknown core report")

type Contacts interface {
	AddContact(ctx context.Context, pendingID models.PendingContactID, remote models.Author, verified bool) (models.Contact, error)
	SetPendingContactState(ctx context.Context, id models.PendingContactID, state models.PendingContactState) error
}

type Conversations interface {
	ReceiveMessage(ctx context.Context, contactID models.ContactID, m models.ConversationMessage, text *string) error
	MarkSent(ctx context.Context, contactID models.ContactID, ids []models.MessageID) error
	MarkAcked(ctx context.Context, contactID models.ContactID, ids []models.MessageID) error
}

type Connections interface {
	MarkConnected(id models.ContactID)
	MarkDisconnected(id models.ContactID)
}

type Blogs interface {
	ReceivePost(ctx context.Context, header models.BlogPostHeader, text string) error
}

// Ingester routes core reports to the stores.
type Ingester struct {
	contacts      Contacts
	conversations Conversations
	connections   Connections
	blogs         Blogs
	log           *slog.Logger
	handlers      map[string]func(ctx context.Context, body []byte) error
}

func New(contacts Contacts, conversations Conversations, connections Connections, blogs Blogs, log *slog.Logger) *Ingester {
	i := &Ingester{
		contacts:      contacts,
		conversations: conversations,
		connections:   connections,
		blogs:         blogs,
		log:           log,
	}
	i.handlers = map[string]func(ctx context.Context, body []byte) error{
		"contact_connected":     i.contactConnected,
		"contact_disconnected":  i.contactDisconnected,
		"contact_added":         i.contactAdded,
		"pending_contact_state": i.pendingContactState,
		"message_received":      i.messageReceived,
		"messages_sent":         i.messagesSent,
		"messages_acked":        i.messagesAcked,
		"blog_post_received":    i.blogPostReceived,
	}
	return i
}

// Handle decodes and applies one report. Its signature matches rabbitmq.Handler.
func (i *Ingester) Handle(ctx context.Context, routingKey string, body []byte) error {
	name := strings.TrimPrefix(routingKey, RoutingKeyPrefix)
	handler, ok := i.handlers[name]
	if !ok || name == routingKey {
		return fmt.Errorf("%w: %s", ErrUnknownReport, routingKey)
	}
	if err := handler(ctx, body); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	i.log.Debug("Core report applied", "report", name)
	return nil
}

// decode unmarshals body into report and validates it.
func decode(body []byte, report any) error {
	if err := json.Unmarshal(body, report); err != nil {
		return err
	}
	return validate.Struct(report)
}

func (i *Ingester) contactConnected(ctx context.Context, body []byte) error {
	var r contactReport
	if err := decode(body, &r); err != nil {
		return err
	}
	i.connections.MarkConnected(models.ContactID(r.ContactID))
	return nil
}

func (i *Ingester) contactDisconnected(ctx context.Context, body []byte) error {
	var r contactReport
	if err := decode(body, &r); err != nil {
		return err
	}
	i.connections.MarkDisconnected(models.ContactID(r.ContactID))
	return nil
}

func (i *Ingester) contactAdded(ctx context.Context, body []byte) error {
	var r contactAddedReport
	if err := decode(body, &r); err != nil {
		return err
	}
	_, err := i.contacts.AddContact(ctx, r.PendingContactID, r.Author.toModel(), r.Verified)
	return err
}

func (i *Ingester) pendingContactState(ctx context.Context, body []byte) error {
	var r pendingStateReport
	if err := decode(body, &r); err != nil {
		return err
	}
	return i.contacts.SetPendingContactState(ctx, r.PendingContactID, pendingStates[r.State])
}

func (i *Ingester) messageReceived(ctx context.Context, body []byte) error {
	var r messageReceivedReport
	if err := decode(body, &r); err != nil {
		return err
	}
	m, err := r.Message.toModel()
	if err != nil {
		return err
	}
	return i.conversations.ReceiveMessage(ctx, models.ContactID(r.ContactID), m, r.Message.Text)
}

func (i *Ingester) messagesSent(ctx context.Context, body []byte) error {
	var r messagesReport
	if err := decode(body, &r); err != nil {
		return err
	}
	return i.conversations.MarkSent(ctx, models.ContactID(r.ContactID), r.ids())
}

func (i *Ingester) messagesAcked(ctx context.Context, body []byte) error {
	var r messagesReport
	if err := decode(body, &r); err != nil {
		return err
	}
	return i.conversations.MarkAcked(ctx, models.ContactID(r.ContactID), r.ids())
}

func (i *Ingester) blogPostReceived(ctx context.Context, body []byte) error {
	var r blogPostReport
	if err := decode(body, &r); err != nil {
		return err
	}
	return i.blogs.ReceivePost(ctx, r.toModel(), r.Text)
}
