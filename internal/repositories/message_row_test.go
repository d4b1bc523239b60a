package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"briar-gateway/internal/models"
)

func TestMessageRowRoundTrip(t *testing.T) {
	h := models.MessageHeader{ID: models.MessageID{1}, GroupID: models.GroupID{2}, Timestamp: 3, Read: true}
	req := models.ConversationRequest{MessageHeader: h, SessionID: models.SessionID{4}, Name: "n"}
	resp := models.ConversationResponse{MessageHeader: h, SessionID: models.SessionID{4}, Accepted: true}

	messages := []models.ConversationMessage{
		models.PrivateMessageHeader{MessageHeader: h, HasText: true},
		models.IntroductionRequest{ConversationRequest: req, AlreadyContact: true},
		models.IntroductionResponse{
			ConversationResponse: resp,
			IntroducedAuthor:     models.Author{FormatVersion: 1, ID: models.AuthorID{5}, Name: "eve", PublicKey: []byte{6}},
			Introducer:           true,
		},
		models.ForumInvitationRequest{InvitationRequest: models.InvitationRequest{ConversationRequest: req, CanBeOpened: true}},
		models.BlogInvitationRequest{InvitationRequest: models.InvitationRequest{ConversationRequest: req}},
		models.GroupInvitationRequest{InvitationRequest: models.InvitationRequest{ConversationRequest: req}},
		models.ForumInvitationResponse{InvitationResponse: models.InvitationResponse{ConversationResponse: resp, ShareableID: models.GroupID{7}}},
		models.BlogInvitationResponse{InvitationResponse: models.InvitationResponse{ConversationResponse: resp}},
		models.GroupInvitationResponse{InvitationResponse: models.InvitationResponse{ConversationResponse: resp}},
	}

	for _, m := range messages {
		row := newMessageRow(9, m, nil)
		assert.Equal(t, 9, row.ContactID)

		back, err := row.toModel()
		require.NoError(t, err)
		assert.Equal(t, m, back)
	}
}

func TestUnansweredRequestKeepsSessionActive(t *testing.T) {
	req := models.IntroductionRequest{ConversationRequest: models.ConversationRequest{MessageHeader: models.MessageHeader{ID: models.MessageID{1}}}}
	assert.True(t, newMessageRow(1, req, nil).SessionActive)

	req.Answered = true
	assert.False(t, newMessageRow(1, req, nil).SessionActive)
}

func TestMessageRowUnknownKind(t *testing.T) {
	_, err := messageRow{ID: []byte{1}, Kind: "poll"}.toModel()
	assert.Error(t, err)
}
