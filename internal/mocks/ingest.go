package mocks

import (
	"context"

	"briar-gateway/internal/models"
)

// Ingestion side of the stores, driven by core reports.

func (m *ContactManagerMock) AddContact(ctx context.Context, pendingID models.PendingContactID, remote models.Author, verified bool) (models.Contact, error) {
	args := m.Called(ctx, pendingID, remote, verified)
	var contact models.Contact
	if val := args.Get(0); val != nil {
		contact = val.(models.Contact)
	}
	return contact, args.Error(1)
}

func (m *ContactManagerMock) SetPendingContactState(ctx context.Context, id models.PendingContactID, state models.PendingContactState) error {
	args := m.Called(ctx, id, state)
	return args.Error(0)
}

func (m *ConversationManagerMock) ReceiveMessage(ctx context.Context, contactID models.ContactID, msg models.ConversationMessage, text *string) error {
	args := m.Called(ctx, contactID, msg, text)
	return args.Error(0)
}

func (m *ConversationManagerMock) MarkSent(ctx context.Context, contactID models.ContactID, ids []models.MessageID) error {
	args := m.Called(ctx, contactID, ids)
	return args.Error(0)
}

func (m *ConversationManagerMock) MarkAcked(ctx context.Context, contactID models.ContactID, ids []models.MessageID) error {
	args := m.Called(ctx, contactID, ids)
	return args.Error(0)
}

func (m *ConnectionRegistryMock) MarkConnected(id models.ContactID) {
	m.Called(id)
}

func (m *ConnectionRegistryMock) MarkDisconnected(id models.ContactID) {
	m.Called(id)
}

func (m *BlogManagerMock) ReceivePost(ctx context.Context, header models.BlogPostHeader, text string) error {
	args := m.Called(ctx, header, text)
	return args.Error(0)
}
