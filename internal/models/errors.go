package models

import (
	"errors"
	"fmt"
)

var (
	ErrNoSuchContact        = errors.New("no such contact")
	ErrNoSuchPendingContact = errors.New("no such pending contact")
	ErrNoSuchMessage        = errors.New("no such message")
	ErrNoSuchGroup          = errors.New("no such group")
	// ErrInvalidLink is returned for handshake links that are malformed or use an
	// unsupported format version.
	ErrInvalidLink = errors.New("invalid handshake link")
	// ErrInvalidPublicKey is returned when the key in a handshake link cannot be used.
	ErrInvalidPublicKey = errors.New("invalid handshake public key")
)

// ContactExistsError is returned when a link belongs to an existing contact.
type ContactExistsError struct {
	ContactID        ContactID
	RemoteAuthorName string
}

func (e *ContactExistsError) Error() string {
	return fmt.Sprintf("contact %d already exists (%s)", e.ContactID, e.RemoteAuthorName)
}

// PendingContactExistsError is returned when a link belongs to an existing pending contact.
type PendingContactExistsError struct {
	PendingContact PendingContact
}

func (e *PendingContactExistsError) Error() string {
	return fmt.Sprintf("pending contact %q already exists", e.PendingContact.Alias)
}
