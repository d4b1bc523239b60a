package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"briar-gateway/internal/models"
)

type ContactManagerMock struct {
	mock.Mock
}

func (m *ContactManagerMock) GetContacts(ctx context.Context) ([]models.Contact, error) {
	args := m.Called(ctx)
	var contacts []models.Contact
	if val := args.Get(0); val != nil {
		contacts = val.([]models.Contact)
	}
	return contacts, args.Error(1)
}

func (m *ContactManagerMock) GetContact(ctx context.Context, id models.ContactID) (models.Contact, error) {
	args := m.Called(ctx, id)
	var contact models.Contact
	if val := args.Get(0); val != nil {
		contact = val.(models.Contact)
	}
	return contact, args.Error(1)
}

func (m *ContactManagerMock) RemoveContact(ctx context.Context, id models.ContactID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ContactManagerMock) SetContactAlias(ctx context.Context, id models.ContactID, alias string) error {
	args := m.Called(ctx, id, alias)
	return args.Error(0)
}

func (m *ContactManagerMock) GetHandshakeLink(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *ContactManagerMock) AddPendingContact(ctx context.Context, link, alias string) (models.PendingContact, error) {
	args := m.Called(ctx, link, alias)
	var pending models.PendingContact
	if val := args.Get(0); val != nil {
		pending = val.(models.PendingContact)
	}
	return pending, args.Error(1)
}

func (m *ContactManagerMock) GetPendingContacts(ctx context.Context) ([]models.PendingContactWithState, error) {
	args := m.Called(ctx)
	var pending []models.PendingContactWithState
	if val := args.Get(0); val != nil {
		pending = val.([]models.PendingContactWithState)
	}
	return pending, args.Error(1)
}

func (m *ContactManagerMock) RemovePendingContact(ctx context.Context, id models.PendingContactID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type ConversationManagerMock struct {
	mock.Mock
}

func (m *ConversationManagerMock) GetMessageHeaders(ctx context.Context, contactID models.ContactID) ([]models.ConversationMessage, error) {
	args := m.Called(ctx, contactID)
	var headers []models.ConversationMessage
	if val := args.Get(0); val != nil {
		headers = val.([]models.ConversationMessage)
	}
	return headers, args.Error(1)
}

func (m *ConversationManagerMock) GetGroupCount(ctx context.Context, contactID models.ContactID) (models.GroupCount, error) {
	args := m.Called(ctx, contactID)
	var count models.GroupCount
	if val := args.Get(0); val != nil {
		count = val.(models.GroupCount)
	}
	return count, args.Error(1)
}

func (m *ConversationManagerMock) SetReadFlag(ctx context.Context, contactID models.ContactID, messageID models.MessageID, read bool) error {
	args := m.Called(ctx, contactID, messageID, read)
	return args.Error(0)
}

func (m *ConversationManagerMock) DeleteAllMessages(ctx context.Context, contactID models.ContactID) (models.DeletionResult, error) {
	args := m.Called(ctx, contactID)
	var result models.DeletionResult
	if val := args.Get(0); val != nil {
		result = val.(models.DeletionResult)
	}
	return result, args.Error(1)
}

type MessagingManagerMock struct {
	mock.Mock
}

func (m *MessagingManagerMock) GetMessageText(ctx context.Context, messageID models.MessageID) (string, error) {
	args := m.Called(ctx, messageID)
	return args.String(0), args.Error(1)
}

func (m *MessagingManagerMock) SendPrivateMessage(ctx context.Context, contactID models.ContactID, text string) (models.PrivateMessage, error) {
	args := m.Called(ctx, contactID, text)
	var msg models.PrivateMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.PrivateMessage)
	}
	return msg, args.Error(1)
}

type ForumManagerMock struct {
	mock.Mock
}

func (m *ForumManagerMock) GetForums(ctx context.Context) ([]models.Forum, error) {
	args := m.Called(ctx)
	var forums []models.Forum
	if val := args.Get(0); val != nil {
		forums = val.([]models.Forum)
	}
	return forums, args.Error(1)
}

func (m *ForumManagerMock) AddForum(ctx context.Context, name string) (models.Forum, error) {
	args := m.Called(ctx, name)
	var forum models.Forum
	if val := args.Get(0); val != nil {
		forum = val.(models.Forum)
	}
	return forum, args.Error(1)
}

type BlogManagerMock struct {
	mock.Mock
}

func (m *BlogManagerMock) GetPostHeaders(ctx context.Context) ([]models.BlogPostHeader, error) {
	args := m.Called(ctx)
	var headers []models.BlogPostHeader
	if val := args.Get(0); val != nil {
		headers = val.([]models.BlogPostHeader)
	}
	return headers, args.Error(1)
}

func (m *BlogManagerMock) GetPostText(ctx context.Context, id models.MessageID) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *BlogManagerMock) AddLocalPost(ctx context.Context, text string) (models.BlogPostHeader, error) {
	args := m.Called(ctx, text)
	var header models.BlogPostHeader
	if val := args.Get(0); val != nil {
		header = val.(models.BlogPostHeader)
	}
	return header, args.Error(1)
}

type ConnectionRegistryMock struct {
	mock.Mock
}

func (m *ConnectionRegistryMock) IsConnected(id models.ContactID) bool {
	args := m.Called(id)
	return args.Bool(0)
}

type BroadcasterMock struct {
	mock.Mock
}

func (m *BroadcasterMock) Broadcast(ctx context.Context, name string, data any) {
	m.Called(ctx, name, data)
}

var _ models.ContactManager = (*ContactManagerMock)(nil)
var _ models.ConversationManager = (*ConversationManagerMock)(nil)
var _ models.MessagingManager = (*MessagingManagerMock)(nil)
var _ models.ForumManager = (*ForumManagerMock)(nil)
var _ models.BlogManager = (*BlogManagerMock)(nil)
var _ models.ConnectionRegistry = (*ConnectionRegistryMock)(nil)
