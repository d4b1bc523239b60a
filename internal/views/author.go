package views

import (
	"fmt"

	"briar-gateway/internal/models"
)

type AuthorView struct {
	FormatVersion int    `json:"formatVersion"`
	ID            []byte `json:"id"`
	Name          string `json:"name"`
	PublicKey     []byte `json:"publicKey"`
}

func Author(a models.Author) AuthorView {
	return AuthorView{
		FormatVersion: a.FormatVersion,
		ID:            a.ID,
		Name:          a.Name,
		PublicKey:     a.PublicKey,
	}
}

// AuthorStatus renders an author status token. Unknown values are a programming error.
func AuthorStatus(s models.AuthorStatus) string {
	switch s {
	case models.AuthorStatusNone:
		return "none"
	case models.AuthorStatusAnonymous:
		return "anonymous"
	case models.AuthorStatusUnknown:
		return "unknown"
	case models.AuthorStatusUnverified:
		return "unverified"
	case models.AuthorStatusVerified:
		return "verified"
	case models.AuthorStatusOurselves:
		return "ourselves"
	}
	panic(fmt.Sprintf("views: unknown author status %d", s))
}
