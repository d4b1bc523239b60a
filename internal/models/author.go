package models

// FormatVersion is the author format version produced by this gateway.
const FormatVersion = 1

// MaxAuthorNameLength is the maximum length of an author name or alias, in UTF-8 bytes.
const MaxAuthorNameLength = 50

// AuthorID is the hash of an author's format version, name and public key.
type AuthorID []byte

// Author is a pseudonymous identity.
type Author struct {
	FormatVersion int
	ID            AuthorID
	Name          string
	PublicKey     []byte
}

// AuthorStatus describes how the local user relates to an author.
type AuthorStatus int

const (
	AuthorStatusNone AuthorStatus = iota
	AuthorStatusAnonymous
	AuthorStatusUnknown
	AuthorStatusUnverified
	AuthorStatusVerified
	AuthorStatusOurselves
)

// AuthorInfo is what the local user knows about an author.
type AuthorInfo struct {
	Status AuthorStatus
	Alias  *string
}

// IdentityManager exposes the local identity.
type IdentityManager interface {
	LocalAuthor() Author
}
