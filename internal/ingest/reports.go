package ingest

import (
	"fmt"

	"github.com/samber/lo"

	"briar-gateway/internal/models"
	"briar-gateway/internal/views"
)

var pendingStates = map[string]models.PendingContactState{
	"waiting_for_connection": models.PendingContactWaitingForConnection,
	"offline":                models.PendingContactOffline,
	"connecting":             models.PendingContactConnecting,
	"adding_contact":         models.PendingContactAddingContact,
	"failed":                 models.PendingContactFailed,
}

var blogPostTypes = map[string]models.BlogPostType{
	"post":            models.BlogPost,
	"comment":         models.BlogComment,
	"wrapped_post":    models.BlogWrappedPost,
	"wrapped_comment": models.BlogWrappedComment,
}

type contactReport struct {
	ContactID int `json:"contactId" validate:"gt=0"`
}

type authorReport struct {
	FormatVersion int    `json:"formatVersion" validate:"gt=0"`
	ID            []byte `json:"id" validate:"required"`
	Name          string `json:"name" validate:"required"`
	PublicKey     []byte `json:"publicKey" validate:"required"`
}

func (r authorReport) toModel() models.Author {
	return models.Author{FormatVersion: r.FormatVersion, ID: r.ID, Name: r.Name, PublicKey: r.PublicKey}
}

type contactAddedReport struct {
	PendingContactID []byte       `json:"pendingContactId" validate:"required"`
	Author           authorReport `json:"author"`
	Verified         bool         `json:"verified"`
}

type pendingStateReport struct {
	PendingContactID []byte `json:"pendingContactId" validate:"required"`
	State            string `json:"state" validate:"oneof=waiting_for_connection offline connecting adding_contact failed"`
}

type messagesReport struct {
	ContactID  int      `json:"contactId" validate:"gt=0"`
	MessageIDs [][]byte `json:"messageIds" validate:"min=1,dive,required"`
}

func (r messagesReport) ids() []models.MessageID {
	return lo.Map(r.MessageIDs, func(id []byte, _ int) models.MessageID { return id })
}

type messageReceivedReport struct {
	ContactID int           `json:"contactId" validate:"gt=0"`
	Message   messageReport `json:"message"`
}

// messageReport carries any conversation message variant. Type selects which fields apply;
// it uses the same discriminants as the REST and push representations.
type messageReport struct {
	Type             string        `json:"type" validate:"required"`
	ID               []byte        `json:"id" validate:"required"`
	GroupID          []byte        `json:"groupId" validate:"required"`
	Timestamp        int64         `json:"timestamp"`
	Read             bool          `json:"read"`
	Sent             bool          `json:"sent"`
	Seen             bool          `json:"seen"`
	Text             *string       `json:"text"`
	SessionID        []byte        `json:"sessionId"`
	Name             string        `json:"name"`
	Answered         bool          `json:"answered"`
	Accepted         bool          `json:"accepted"`
	AlreadyContact   bool          `json:"alreadyContact"`
	IntroducedAuthor *authorReport `json:"introducedAuthor" validate:"omitempty"`
	Introducer       bool          `json:"introducer"`
	CanBeOpened      bool          `json:"canBeOpened"`
	ShareableID      []byte        `json:"shareableId"`
}

func (r messageReport) toModel() (models.ConversationMessage, error) {
	header := models.MessageHeader{
		ID:        r.ID,
		GroupID:   r.GroupID,
		Timestamp: r.Timestamp,
		Read:      r.Read,
		Sent:      r.Sent,
		Seen:      r.Seen,
	}
	request := models.ConversationRequest{MessageHeader: header, SessionID: r.SessionID, Name: r.Name, Answered: r.Answered}
	response := models.ConversationResponse{MessageHeader: header, SessionID: r.SessionID, Accepted: r.Accepted}
	invitationRequest := models.InvitationRequest{ConversationRequest: request, CanBeOpened: r.CanBeOpened}
	invitationResponse := models.InvitationResponse{ConversationResponse: response, ShareableID: r.ShareableID}

	switch r.Type {
	case views.TypePrivateMessage:
		return models.PrivateMessageHeader{MessageHeader: header, HasText: r.Text != nil}, nil
	case views.TypeIntroductionRequest:
		return models.IntroductionRequest{ConversationRequest: request, AlreadyContact: r.AlreadyContact}, nil
	case views.TypeIntroductionResponse:
		if r.IntroducedAuthor == nil {
			return nil, fmt.Errorf("introduction response %x has no introduced author", r.ID)
		}
		return models.IntroductionResponse{
			ConversationResponse: response,
			IntroducedAuthor:     r.IntroducedAuthor.toModel(),
			Introducer:           r.Introducer,
		}, nil
	case views.TypeForumInvitationRequest:
		return models.ForumInvitationRequest{InvitationRequest: invitationRequest}, nil
	case views.TypeBlogInvitationRequest:
		return models.BlogInvitationRequest{InvitationRequest: invitationRequest}, nil
	case views.TypeGroupInvitationRequest:
		return models.GroupInvitationRequest{InvitationRequest: invitationRequest}, nil
	case views.TypeForumInvitationResponse:
		return models.ForumInvitationResponse{InvitationResponse: invitationResponse}, nil
	case views.TypeBlogInvitationResponse:
		return models.BlogInvitationResponse{InvitationResponse: invitationResponse}, nil
	case views.TypeGroupInvitationResponse:
		return models.GroupInvitationResponse{InvitationResponse: invitationResponse}, nil
	}
	return nil, fmt.Errorf("unknown message type %q", r.Type)
}

type blogPostReport struct {
	Type      string       `json:"type" validate:"oneof=post comment wrapped_post wrapped_comment"`
	ID        []byte       `json:"id" validate:"required"`
	GroupID   []byte       `json:"groupId" validate:"required"`
	ParentID  []byte       `json:"parentId"`
	Timestamp int64        `json:"timestamp"`
	Author    authorReport `json:"author"`
	RSSFeed   bool         `json:"rssFeed"`
	Text      string       `json:"text"`
}

func (r blogPostReport) toModel() models.BlogPostHeader {
	return models.BlogPostHeader{
		Type:      blogPostTypes[r.Type],
		ID:        r.ID,
		GroupID:   r.GroupID,
		ParentID:  r.ParentID,
		Timestamp: r.Timestamp,
		Author:    r.Author.toModel(),
		RSSFeed:   r.RSSFeed,
	}
}
