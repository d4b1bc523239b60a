package views

import (
	"fmt"

	"briar-gateway/internal/models"
)

// Discriminants written to the "type" field of a rendered conversation message.
const (
	TypePrivateMessage          = "PrivateMessage"
	TypeIntroductionRequest     = "IntroductionRequest"
	TypeIntroductionResponse    = "IntroductionResponse"
	TypeForumInvitationRequest  = "ForumInvitationRequest"
	TypeBlogInvitationRequest   = "BlogInvitationRequest"
	TypeGroupInvitationRequest  = "GroupInvitationRequest"
	TypeForumInvitationResponse = "ForumInvitationResponse"
	TypeBlogInvitationResponse  = "BlogInvitationResponse"
	TypeGroupInvitationResponse = "GroupInvitationResponse"
)

// ConversationMessageView is implemented by every rendered conversation message.
type ConversationMessageView interface {
	Base() MessageView
}

// MessageView holds the fields shared by all conversation message views. Variant views embed
// it, so the JSON encoder flattens these fields into the variant object.
type MessageView struct {
	Type      string           `json:"type"`
	ContactID models.ContactID `json:"contactId"`
	Timestamp int64            `json:"timestamp"`
	Read      bool             `json:"read"`
	Seen      bool             `json:"seen"`
	Sent      bool             `json:"sent"`
	Local     bool             `json:"local"`
	ID        []byte           `json:"id"`
	GroupID   []byte           `json:"groupId"`
}

func (v MessageView) Base() MessageView { return v }

type PrivateMessageView struct {
	MessageView
	Text *string `json:"text,omitempty"`
}

type RequestView struct {
	MessageView
	SessionID []byte `json:"sessionId"`
	Name      string `json:"name"`
	Answered  bool   `json:"answered"`
}

type ResponseView struct {
	MessageView
	SessionID []byte `json:"sessionId"`
	Accepted  bool   `json:"accepted"`
}

type IntroductionRequestView struct {
	RequestView
	AlreadyContact bool `json:"alreadyContact"`
}

type IntroductionResponseView struct {
	ResponseView
	IntroducedAuthor AuthorView `json:"introducedAuthor"`
	Introducer       bool       `json:"introducer"`
}

type InvitationRequestView struct {
	RequestView
	CanBeOpened bool `json:"canBeOpened"`
}

type InvitationResponseView struct {
	ResponseView
	ShareableID []byte `json:"shareableId"`
}

// ConversationMessage renders m for the conversation with contactID. The type discriminant is
// taken from m's variant. text is only attached to private messages and is omitted when nil.
func ConversationMessage(m models.ConversationMessage, contactID models.ContactID, text *string) ConversationMessageView {
	if m == nil {
		panic("views: nil conversation message")
	}
	r := &messageRenderer{contactID: contactID, text: text}
	m.Accept(r)
	if r.out == nil {
		panic(fmt.Sprintf("views: conversation message %T was not rendered", m))
	}
	return r.out
}

// OwnPrivateMessage renders a private message the local user has just sent: it is read, but
// neither sent nor seen by the contact yet.
func OwnPrivateMessage(m models.PrivateMessage, contactID models.ContactID) PrivateMessageView {
	text := m.Text
	return PrivateMessageView{
		MessageView: MessageView{
			Type:      TypePrivateMessage,
			ContactID: contactID,
			Timestamp: m.Timestamp,
			Read:      true,
			Seen:      false,
			Sent:      false,
			Local:     true,
			ID:        m.ID,
			GroupID:   m.GroupID,
		},
		Text: &text,
	}
}

type messageRenderer struct {
	contactID models.ContactID
	text      *string
	out       ConversationMessageView
}

var _ models.MessageVisitor = (*messageRenderer)(nil)

func (r *messageRenderer) base(kind string, h models.MessageHeader) MessageView {
	return MessageView{
		Type:      kind,
		ContactID: r.contactID,
		Timestamp: h.Timestamp,
		Read:      h.Read,
		Seen:      h.Seen,
		Sent:      h.Sent,
		Local:     h.Local,
		ID:        h.ID,
		GroupID:   h.GroupID,
	}
}

func (r *messageRenderer) request(kind string, m models.ConversationRequest) RequestView {
	return RequestView{
		MessageView: r.base(kind, m.MessageHeader),
		SessionID:   m.SessionID,
		Name:        m.Name,
		Answered:    m.Answered,
	}
}

func (r *messageRenderer) response(kind string, m models.ConversationResponse) ResponseView {
	return ResponseView{
		MessageView: r.base(kind, m.MessageHeader),
		SessionID:   m.SessionID,
		Accepted:    m.Accepted,
	}
}

func (r *messageRenderer) invitationRequest(kind string, m models.InvitationRequest) {
	r.out = InvitationRequestView{
		RequestView: r.request(kind, m.ConversationRequest),
		CanBeOpened: m.CanBeOpened,
	}
}

func (r *messageRenderer) invitationResponse(kind string, m models.InvitationResponse) {
	r.out = InvitationResponseView{
		ResponseView: r.response(kind, m.ConversationResponse),
		ShareableID:  m.ShareableID,
	}
}

func (r *messageRenderer) VisitPrivateMessage(m models.PrivateMessageHeader) {
	r.out = PrivateMessageView{
		MessageView: r.base(TypePrivateMessage, m.MessageHeader),
		Text:        r.text,
	}
}

func (r *messageRenderer) VisitIntroductionRequest(m models.IntroductionRequest) {
	r.out = IntroductionRequestView{
		RequestView:    r.request(TypeIntroductionRequest, m.ConversationRequest),
		AlreadyContact: m.AlreadyContact,
	}
}

func (r *messageRenderer) VisitIntroductionResponse(m models.IntroductionResponse) {
	r.out = IntroductionResponseView{
		ResponseView:     r.response(TypeIntroductionResponse, m.ConversationResponse),
		IntroducedAuthor: Author(m.IntroducedAuthor),
		Introducer:       m.Introducer,
	}
}

func (r *messageRenderer) VisitForumInvitationRequest(m models.ForumInvitationRequest) {
	r.invitationRequest(TypeForumInvitationRequest, m.InvitationRequest)
}

func (r *messageRenderer) VisitBlogInvitationRequest(m models.BlogInvitationRequest) {
	r.invitationRequest(TypeBlogInvitationRequest, m.InvitationRequest)
}

func (r *messageRenderer) VisitGroupInvitationRequest(m models.GroupInvitationRequest) {
	r.invitationRequest(TypeGroupInvitationRequest, m.InvitationRequest)
}

func (r *messageRenderer) VisitForumInvitationResponse(m models.ForumInvitationResponse) {
	r.invitationResponse(TypeForumInvitationResponse, m.InvitationResponse)
}

func (r *messageRenderer) VisitBlogInvitationResponse(m models.BlogInvitationResponse) {
	r.invitationResponse(TypeBlogInvitationResponse, m.InvitationResponse)
}

func (r *messageRenderer) VisitGroupInvitationResponse(m models.GroupInvitationResponse) {
	r.invitationResponse(TypeGroupInvitationResponse, m.InvitationResponse)
}

// DeletionResultView reports the outcome of deleting a whole conversation.
type DeletionResultView struct {
	AllDeleted                       bool `json:"allDeleted"`
	HasIntroductionSessionInProgress bool `json:"hasIntroductionSessionInProgress"`
	HasInvitationSessionInProgress   bool `json:"hasInvitationSessionInProgress"`
	HasNotAllIntroductionSelected    bool `json:"hasNotAllIntroductionSelected"`
	HasNotAllInvitationSelected      bool `json:"hasNotAllInvitationSelected"`
}

func DeletionResult(r models.DeletionResult) DeletionResultView {
	return DeletionResultView{
		AllDeleted:                       r.AllDeleted(),
		HasIntroductionSessionInProgress: r.IntroductionSessionInProgress,
		HasInvitationSessionInProgress:   r.InvitationSessionInProgress,
		HasNotAllIntroductionSelected:    r.NotAllIntroductionSelected,
		HasNotAllInvitationSelected:      r.NotAllInvitationSelected,
	}
}
