package views

import (
	"fmt"

	"briar-gateway/internal/models"
)

// ContactView is the client-facing projection of a contact. Alias and HandshakePublicKey are
// omitted while the underlying contact does not carry them.
type ContactView struct {
	ContactID          models.ContactID `json:"contactId"`
	Author             AuthorView       `json:"author"`
	Verified           bool             `json:"verified"`
	Alias              *string          `json:"alias,omitempty"`
	HandshakePublicKey []byte           `json:"handshakePublicKey,omitempty"`
	LastChatActivity   int64            `json:"lastChatActivity"`
	Connected          bool             `json:"connected"`
	UnreadCount        int              `json:"unreadCount"`
}

func Contact(c models.Contact, count models.GroupCount, connected bool) ContactView {
	v := ContactView{
		ContactID:        c.ID,
		Author:           Author(c.Author),
		Verified:         c.Verified,
		LastChatActivity: count.LatestMsgTime,
		Connected:        connected,
		UnreadCount:      count.UnreadCount,
	}
	if c.Alias != nil {
		alias := *c.Alias
		v.Alias = &alias
	}
	if c.HandshakePublicKey != nil {
		v.HandshakePublicKey = c.HandshakePublicKey
	}
	return v
}

type PendingContactView struct {
	PendingContactID []byte `json:"pendingContactId"`
	Alias            string `json:"alias"`
	Timestamp        int64  `json:"timestamp"`
}

func PendingContact(p models.PendingContact) PendingContactView {
	return PendingContactView{
		PendingContactID: p.ID,
		Alias:            p.Alias,
		Timestamp:        p.Timestamp,
	}
}

type PendingContactWithStateView struct {
	PendingContact PendingContactView `json:"pendingContact"`
	State          string             `json:"state"`
}

func PendingContactWithState(p models.PendingContactWithState) PendingContactWithStateView {
	return PendingContactWithStateView{
		PendingContact: PendingContact(p.PendingContact),
		State:          PendingContactState(p.State),
	}
}

// PendingContactState renders the state reported by the core verbatim. An unknown state
// means the core and the gateway disagree on the protocol, so it panics.
func PendingContactState(s models.PendingContactState) string {
	switch s {
	case models.PendingContactWaitingForConnection:
		return "waiting_for_connection"
	case models.PendingContactOffline:
		return "offline"
	case models.PendingContactConnecting:
		return "connecting"
	case models.PendingContactAddingContact:
		return "adding_contact"
	case models.PendingContactFailed:
		return "failed"
	}
	panic(fmt.Sprintf("views: unknown pending contact state %d", s))
}
