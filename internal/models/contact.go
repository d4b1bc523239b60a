package models

import "context"

// ContactID is the local identifier of a contact.
type ContactID int

// PendingContactID identifies a pending contact; it is derived from the remote handshake key.
type PendingContactID []byte

// Contact is a remote author the local user has added.
type Contact struct {
	ID            ContactID
	Author        Author
	LocalAuthorID AuthorID
	Verified      bool
	// Alias and HandshakePublicKey are nil once the contact no longer carries them.
	Alias              *string
	HandshakePublicKey []byte
}

// PendingContact is a contact that was added by link and has not finished the handshake yet.
type PendingContact struct {
	ID        PendingContactID
	Alias     string
	PublicKey []byte
	Timestamp int64
}

// PendingContactState is reported by the core; the gateway never computes transitions.
type PendingContactState int

const (
	PendingContactWaitingForConnection PendingContactState = iota
	PendingContactOffline
	PendingContactConnecting
	PendingContactAddingContact
	PendingContactFailed
)

// PendingContactWithState pairs a pending contact with its current state.
type PendingContactWithState struct {
	PendingContact PendingContact
	State          PendingContactState
}

// ContactManager is the contact service of the messaging core.
type ContactManager interface {
	GetContacts(ctx context.Context) ([]Contact, error)
	GetContact(ctx context.Context, id ContactID) (Contact, error)
	RemoveContact(ctx context.Context, id ContactID) error
	SetContactAlias(ctx context.Context, id ContactID, alias string) error
	GetHandshakeLink(ctx context.Context) (string, error)
	AddPendingContact(ctx context.Context, link, alias string) (PendingContact, error)
	GetPendingContacts(ctx context.Context) ([]PendingContactWithState, error)
	RemovePendingContact(ctx context.Context, id PendingContactID) error
}

// ConnectionRegistry reports which contacts currently have a live transport connection.
type ConnectionRegistry interface {
	IsConnected(id ContactID) bool
}
