package views

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"briar-gateway/internal/models"
)

func header(ts int64) models.MessageHeader {
	return models.MessageHeader{ID: models.MessageID{1}, GroupID: models.GroupID{2}, Timestamp: ts, Read: true, Sent: true}
}

func request() models.ConversationRequest {
	return models.ConversationRequest{MessageHeader: header(1), SessionID: models.SessionID{3}, Name: "n", Answered: true}
}

func response() models.ConversationResponse {
	return models.ConversationResponse{MessageHeader: header(1), SessionID: models.SessionID{3}, Accepted: true}
}

func TestConversationMessageDiscriminants(t *testing.T) {
	tests := []struct {
		message models.ConversationMessage
		want    string
	}{
		{models.PrivateMessageHeader{MessageHeader: header(1)}, TypePrivateMessage},
		{models.IntroductionRequest{ConversationRequest: request()}, TypeIntroductionRequest},
		{models.IntroductionResponse{ConversationResponse: response()}, TypeIntroductionResponse},
		{models.ForumInvitationRequest{InvitationRequest: models.InvitationRequest{ConversationRequest: request()}}, TypeForumInvitationRequest},
		{models.BlogInvitationRequest{InvitationRequest: models.InvitationRequest{ConversationRequest: request()}}, TypeBlogInvitationRequest},
		{models.GroupInvitationRequest{InvitationRequest: models.InvitationRequest{ConversationRequest: request()}}, TypeGroupInvitationRequest},
		{models.ForumInvitationResponse{InvitationResponse: models.InvitationResponse{ConversationResponse: response()}}, TypeForumInvitationResponse},
		{models.BlogInvitationResponse{InvitationResponse: models.InvitationResponse{ConversationResponse: response()}}, TypeBlogInvitationResponse},
		{models.GroupInvitationResponse{InvitationResponse: models.InvitationResponse{ConversationResponse: response()}}, TypeGroupInvitationResponse},
	}

	encoder := NewEncoder()
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			view := ConversationMessage(tt.message, 7, nil)
			assert.Equal(t, tt.want, view.Base().Type)
			assert.Equal(t, models.ContactID(7), view.Base().ContactID)

			out, err := encoder.Marshal(view)
			require.NoError(t, err)
			assert.Equal(t, tt.want, encoder.Get(out, "type").ToString())
			assert.Equal(t, 7, encoder.Get(out, "contactId").ToInt())
		})
	}
}

func TestPrivateMessageText(t *testing.T) {
	encoder := NewEncoder()
	m := models.PrivateMessageHeader{MessageHeader: header(1), HasText: true}

	withoutText, err := encoder.Marshal(ConversationMessage(m, 1, nil))
	require.NoError(t, err)
	assert.NotContains(t, string(withoutText), `"text"`)

	text := "hello"
	withText, err := encoder.Marshal(ConversationMessage(m, 1, &text))
	require.NoError(t, err)
	assert.Equal(t, "hello", encoder.Get(withText, "text").ToString())
}

func TestVariantFields(t *testing.T) {
	encoder := NewEncoder()

	intro := models.IntroductionResponse{
		ConversationResponse: response(),
		IntroducedAuthor:     models.Author{FormatVersion: 1, ID: models.AuthorID{9}, Name: "carol", PublicKey: []byte{8}},
		Introducer:           true,
	}
	out, err := encoder.Marshal(ConversationMessage(intro, 1, nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "IntroductionResponse",
		"contactId": 1,
		"timestamp": 1,
		"read": true,
		"seen": false,
		"sent": true,
		"local": false,
		"id": "AQ==",
		"groupId": "Ag==",
		"sessionId": "Aw==",
		"accepted": true,
		"introducedAuthor": {"formatVersion": 1, "id": "CQ==", "name": "carol", "publicKey": "CA=="},
		"introducer": true
	}`, string(out))

	invitation := models.ForumInvitationRequest{InvitationRequest: models.InvitationRequest{ConversationRequest: request(), CanBeOpened: true}}
	out, err = encoder.Marshal(ConversationMessage(invitation, 1, nil))
	require.NoError(t, err)
	assert.Equal(t, "n", encoder.Get(out, "name").ToString())
	assert.True(t, encoder.Get(out, "answered").ToBool())
	assert.True(t, encoder.Get(out, "canBeOpened").ToBool())

	shared := models.BlogInvitationResponse{InvitationResponse: models.InvitationResponse{ConversationResponse: response(), ShareableID: models.GroupID{4}}}
	out, err = encoder.Marshal(ConversationMessage(shared, 1, nil))
	require.NoError(t, err)
	assert.Equal(t, "BA==", encoder.Get(out, "shareableId").ToString())
}

func TestConversationMessageNilPanics(t *testing.T) {
	assert.Panics(t, func() { ConversationMessage(nil, 1, nil) })
}

func TestOwnPrivateMessageFlags(t *testing.T) {
	view := OwnPrivateMessage(models.PrivateMessage{ID: models.MessageID{1}, Timestamp: 3, Text: "x"}, 2)

	assert.Equal(t, TypePrivateMessage, view.Type)
	assert.True(t, view.Read)
	assert.False(t, view.Seen)
	assert.False(t, view.Sent)
	assert.True(t, view.Local)
	require.NotNil(t, view.Text)
	assert.Equal(t, "x", *view.Text)
}

func TestDeletionResult(t *testing.T) {
	assert.True(t, DeletionResult(models.DeletionResult{}).AllDeleted)

	view := DeletionResult(models.DeletionResult{NotAllIntroductionSelected: true})
	assert.False(t, view.AllDeleted)
	assert.True(t, view.HasNotAllIntroductionSelected)
}
