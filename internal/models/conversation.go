package models

import "context"

// MaxPrivateMessageTextLength is the maximum private message text length, in UTF-8 bytes.
const MaxPrivateMessageTextLength = 31 * 1024

type (
	GroupID   []byte
	MessageID []byte
	SessionID []byte
)

// MessageHeader carries the fields every conversation message has.
type MessageHeader struct {
	ID        MessageID
	GroupID   GroupID
	Timestamp int64
	Local     bool
	Read      bool
	Sent      bool
	Seen      bool
}

// Header returns the common header; it is promoted into every variant.
func (h MessageHeader) Header() MessageHeader { return h }

// ConversationMessage is one of the closed set of conversation message variants.
//
// Each variant implements Accept by calling exactly one MessageVisitor method, so adding a
// variant means adding a visitor method, and every visitor stops compiling until it handles it.
type ConversationMessage interface {
	Header() MessageHeader
	Accept(v MessageVisitor)
}

// MessageVisitor has one method per conversation message variant.
type MessageVisitor interface {
	VisitPrivateMessage(m PrivateMessageHeader)
	VisitIntroductionRequest(m IntroductionRequest)
	VisitIntroductionResponse(m IntroductionResponse)
	VisitForumInvitationRequest(m ForumInvitationRequest)
	VisitBlogInvitationRequest(m BlogInvitationRequest)
	VisitGroupInvitationRequest(m GroupInvitationRequest)
	VisitForumInvitationResponse(m ForumInvitationResponse)
	VisitBlogInvitationResponse(m BlogInvitationResponse)
	VisitGroupInvitationResponse(m GroupInvitationResponse)
}

// PrivateMessageHeader is the header of a private text message. The text itself is loaded
// separately through MessagingManager.GetMessageText.
type PrivateMessageHeader struct {
	MessageHeader
	HasText bool
}

// ConversationRequest is the shared part of introduction and invitation requests.
type ConversationRequest struct {
	MessageHeader
	SessionID SessionID
	Name      string
	Answered  bool
}

// ConversationResponse is the shared part of introduction and invitation responses.
type ConversationResponse struct {
	MessageHeader
	SessionID SessionID
	Accepted  bool
}

type IntroductionRequest struct {
	ConversationRequest
	AlreadyContact bool
}

type IntroductionResponse struct {
	ConversationResponse
	IntroducedAuthor Author
	Introducer       bool
}

// InvitationRequest is the shared part of forum, blog and private group invitations.
type InvitationRequest struct {
	ConversationRequest
	CanBeOpened bool
}

// InvitationResponse is the shared part of responses to forum, blog and private group invitations.
type InvitationResponse struct {
	ConversationResponse
	ShareableID GroupID
}

type (
	ForumInvitationRequest  struct{ InvitationRequest }
	BlogInvitationRequest   struct{ InvitationRequest }
	GroupInvitationRequest  struct{ InvitationRequest }
	ForumInvitationResponse struct{ InvitationResponse }
	BlogInvitationResponse  struct{ InvitationResponse }
	GroupInvitationResponse struct{ InvitationResponse }
)

func (m PrivateMessageHeader) Accept(v MessageVisitor)    { v.VisitPrivateMessage(m) }
func (m IntroductionRequest) Accept(v MessageVisitor)     { v.VisitIntroductionRequest(m) }
func (m IntroductionResponse) Accept(v MessageVisitor)    { v.VisitIntroductionResponse(m) }
func (m ForumInvitationRequest) Accept(v MessageVisitor)  { v.VisitForumInvitationRequest(m) }
func (m BlogInvitationRequest) Accept(v MessageVisitor)   { v.VisitBlogInvitationRequest(m) }
func (m GroupInvitationRequest) Accept(v MessageVisitor)  { v.VisitGroupInvitationRequest(m) }
func (m ForumInvitationResponse) Accept(v MessageVisitor) { v.VisitForumInvitationResponse(m) }
func (m BlogInvitationResponse) Accept(v MessageVisitor)  { v.VisitBlogInvitationResponse(m) }
func (m GroupInvitationResponse) Accept(v MessageVisitor) { v.VisitGroupInvitationResponse(m) }

// PrivateMessage is a private message created by the local user.
type PrivateMessage struct {
	ID        MessageID
	GroupID   GroupID
	Timestamp int64
	Text      string
}

// GroupCount summarizes a conversation.
type GroupCount struct {
	MsgCount      int
	UnreadCount   int
	LatestMsgTime int64
}

// DeletionResult reports what DeleteAllMessages could not delete and why.
type DeletionResult struct {
	IntroductionSessionInProgress bool
	InvitationSessionInProgress   bool
	NotAllIntroductionSelected    bool
	NotAllInvitationSelected      bool
}

// AllDeleted reports whether every message was deleted.
func (r DeletionResult) AllDeleted() bool {
	return !r.IntroductionSessionInProgress && !r.InvitationSessionInProgress &&
		!r.NotAllIntroductionSelected && !r.NotAllInvitationSelected
}

// ConversationManager is the conversation service of the messaging core.
type ConversationManager interface {
	GetMessageHeaders(ctx context.Context, contactID ContactID) ([]ConversationMessage, error)
	GetGroupCount(ctx context.Context, contactID ContactID) (GroupCount, error)
	SetReadFlag(ctx context.Context, contactID ContactID, messageID MessageID, read bool) error
	DeleteAllMessages(ctx context.Context, contactID ContactID) (DeletionResult, error)
}

// MessagingManager creates private messages and loads their text.
type MessagingManager interface {
	GetMessageText(ctx context.Context, messageID MessageID) (string, error)
	SendPrivateMessage(ctx context.Context, contactID ContactID, text string) (PrivateMessage, error)
}
