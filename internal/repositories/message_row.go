package repositories

import (
	"database/sql"
	"fmt"

	"briar-gateway/internal/models"
)

// Values of messages.kind.
const (
	kindPrivateMessage          = "private_message"
	kindIntroductionRequest     = "introduction_request"
	kindIntroductionResponse    = "introduction_response"
	kindForumInvitationRequest  = "forum_invitation_request"
	kindBlogInvitationRequest   = "blog_invitation_request"
	kindGroupInvitationRequest  = "group_invitation_request"
	kindForumInvitationResponse = "forum_invitation_response"
	kindBlogInvitationResponse  = "blog_invitation_response"
	kindGroupInvitationResponse = "group_invitation_response"
)

// messageRow is one row of the messages table. Variant columns are NULL or false for variants
// that do not carry them.
type messageRow struct {
	ID        []byte `db:"id"`
	ContactID int    `db:"contact_id"`
	GroupID   []byte `db:"group_id"`
	Kind      string `db:"kind"`
	Timestamp int64  `db:"timestamp"`
	Local     bool   `db:"local"`
	Read      bool   `db:"read"`
	Sent      bool   `db:"sent"`
	Seen      bool   `db:"seen"`

	Text           sql.NullString `db:"text"`
	HasText        bool           `db:"has_text"`
	SessionID      []byte         `db:"session_id"`
	Name           sql.NullString `db:"name"`
	Answered       bool           `db:"answered"`
	Accepted       bool           `db:"accepted"`
	CanBeOpened    bool           `db:"can_be_opened"`
	AlreadyContact bool           `db:"already_contact"`
	Introducer     bool           `db:"introducer"`
	ShareableID    []byte         `db:"shareable_id"`
	SessionActive  bool           `db:"session_active"`

	IntroducedAuthorID            []byte         `db:"introduced_author_id"`
	IntroducedAuthorFormatVersion sql.NullInt32  `db:"introduced_author_format_version"`
	IntroducedAuthorName          sql.NullString `db:"introduced_author_name"`
	IntroducedAuthorPublicKey     []byte         `db:"introduced_author_public_key"`
}

const messageColumns = `id, contact_id, group_id, kind, timestamp, local, read, sent, seen, text, has_text, session_id, name,
        answered, accepted, can_be_opened, already_contact, introducer, shareable_id, session_active,
        introduced_author_id, introduced_author_format_version, introduced_author_name, introduced_author_public_key`

const insertMessage = `INSERT INTO messages (` + messageColumns + `) VALUES (:id, :contact_id, :group_id, :kind, :timestamp,
        :local, :read, :sent, :seen, :text, :has_text, :session_id, :name, :answered, :accepted, :can_be_opened,
        :already_contact, :introducer, :shareable_id, :session_active, :introduced_author_id,
        :introduced_author_format_version, :introduced_author_name, :introduced_author_public_key)`

func (r messageRow) header() models.MessageHeader {
	return models.MessageHeader{
		ID:        r.ID,
		GroupID:   r.GroupID,
		Timestamp: r.Timestamp,
		Local:     r.Local,
		Read:      r.Read,
		Sent:      r.Sent,
		Seen:      r.Seen,
	}
}

func (r messageRow) request() models.ConversationRequest {
	return models.ConversationRequest{
		MessageHeader: r.header(),
		SessionID:     r.SessionID,
		Name:          r.Name.String,
		Answered:      r.Answered,
	}
}

func (r messageRow) response() models.ConversationResponse {
	return models.ConversationResponse{
		MessageHeader: r.header(),
		SessionID:     r.SessionID,
		Accepted:      r.Accepted,
	}
}

func (r messageRow) invitationRequest() models.InvitationRequest {
	return models.InvitationRequest{ConversationRequest: r.request(), CanBeOpened: r.CanBeOpened}
}

func (r messageRow) invitationResponse() models.InvitationResponse {
	return models.InvitationResponse{ConversationResponse: r.response(), ShareableID: r.ShareableID}
}

// toModel rebuilds the message variant stored in r.
func (r messageRow) toModel() (models.ConversationMessage, error) {
	switch r.Kind {
	case kindPrivateMessage:
		return models.PrivateMessageHeader{MessageHeader: r.header(), HasText: r.HasText}, nil
	case kindIntroductionRequest:
		return models.IntroductionRequest{ConversationRequest: r.request(), AlreadyContact: r.AlreadyContact}, nil
	case kindIntroductionResponse:
		return models.IntroductionResponse{
			ConversationResponse: r.response(),
			IntroducedAuthor: models.Author{
				FormatVersion: int(r.IntroducedAuthorFormatVersion.Int32),
				ID:            r.IntroducedAuthorID,
				Name:          r.IntroducedAuthorName.String,
				PublicKey:     r.IntroducedAuthorPublicKey,
			},
			Introducer: r.Introducer,
		}, nil
	case kindForumInvitationRequest:
		return models.ForumInvitationRequest{InvitationRequest: r.invitationRequest()}, nil
	case kindBlogInvitationRequest:
		return models.BlogInvitationRequest{InvitationRequest: r.invitationRequest()}, nil
	case kindGroupInvitationRequest:
		return models.GroupInvitationRequest{InvitationRequest: r.invitationRequest()}, nil
	case kindForumInvitationResponse:
		return models.ForumInvitationResponse{InvitationResponse: r.invitationResponse()}, nil
	case kindBlogInvitationResponse:
		return models.BlogInvitationResponse{InvitationResponse: r.invitationResponse()}, nil
	case kindGroupInvitationResponse:
		return models.GroupInvitationResponse{InvitationResponse: r.invitationResponse()}, nil
	}
	return nil, fmt.Errorf("message %x has unknown kind %q", r.ID, r.Kind)
}

// rowBuilder flattens a message variant into a messageRow.
type rowBuilder struct {
	row messageRow
}

var _ models.MessageVisitor = (*rowBuilder)(nil)

func newMessageRow(contactID models.ContactID, m models.ConversationMessage, text *string) messageRow {
	h := m.Header()
	b := &rowBuilder{row: messageRow{
		ID:        h.ID,
		ContactID: int(contactID),
		GroupID:   h.GroupID,
		Timestamp: h.Timestamp,
		Local:     h.Local,
		Read:      h.Read,
		Sent:      h.Sent,
		Seen:      h.Seen,
	}}
	m.Accept(b)
	if text != nil {
		b.row.Text = sql.NullString{String: *text, Valid: true}
	}
	return b.row
}

func (b *rowBuilder) request(kind string, m models.ConversationRequest) {
	b.row.Kind = kind
	b.row.SessionID = m.SessionID
	b.row.Name = sql.NullString{String: m.Name, Valid: true}
	b.row.Answered = m.Answered
	b.row.SessionActive = !m.Answered
}

func (b *rowBuilder) response(kind string, m models.ConversationResponse) {
	b.row.Kind = kind
	b.row.SessionID = m.SessionID
	b.row.Accepted = m.Accepted
}

func (b *rowBuilder) invitationRequest(kind string, m models.InvitationRequest) {
	b.request(kind, m.ConversationRequest)
	b.row.CanBeOpened = m.CanBeOpened
}

func (b *rowBuilder) invitationResponse(kind string, m models.InvitationResponse) {
	b.response(kind, m.ConversationResponse)
	b.row.ShareableID = m.ShareableID
}

func (b *rowBuilder) VisitPrivateMessage(m models.PrivateMessageHeader) {
	b.row.Kind = kindPrivateMessage
	b.row.HasText = m.HasText
}

func (b *rowBuilder) VisitIntroductionRequest(m models.IntroductionRequest) {
	b.request(kindIntroductionRequest, m.ConversationRequest)
	b.row.AlreadyContact = m.AlreadyContact
}

func (b *rowBuilder) VisitIntroductionResponse(m models.IntroductionResponse) {
	b.response(kindIntroductionResponse, m.ConversationResponse)
	b.row.Introducer = m.Introducer
	b.row.IntroducedAuthorID = m.IntroducedAuthor.ID
	b.row.IntroducedAuthorFormatVersion = sql.NullInt32{Int32: int32(m.IntroducedAuthor.FormatVersion), Valid: true}
	b.row.IntroducedAuthorName = sql.NullString{String: m.IntroducedAuthor.Name, Valid: true}
	b.row.IntroducedAuthorPublicKey = m.IntroducedAuthor.PublicKey
}

func (b *rowBuilder) VisitForumInvitationRequest(m models.ForumInvitationRequest) {
	b.invitationRequest(kindForumInvitationRequest, m.InvitationRequest)
}

func (b *rowBuilder) VisitBlogInvitationRequest(m models.BlogInvitationRequest) {
	b.invitationRequest(kindBlogInvitationRequest, m.InvitationRequest)
}

func (b *rowBuilder) VisitGroupInvitationRequest(m models.GroupInvitationRequest) {
	b.invitationRequest(kindGroupInvitationRequest, m.InvitationRequest)
}

func (b *rowBuilder) VisitForumInvitationResponse(m models.ForumInvitationResponse) {
	b.invitationResponse(kindForumInvitationResponse, m.InvitationResponse)
}

func (b *rowBuilder) VisitBlogInvitationResponse(m models.BlogInvitationResponse) {
	b.invitationResponse(kindBlogInvitationResponse, m.InvitationResponse)
}

func (b *rowBuilder) VisitGroupInvitationResponse(m models.GroupInvitationResponse) {
	b.invitationResponse(kindGroupInvitationResponse, m.InvitationResponse)
}
