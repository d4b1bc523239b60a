package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"briar-gateway/internal/mocks"
	"briar-gateway/internal/models"
	"briar-gateway/internal/views"
)

var (
	testLog     = logs.GetLoggerFromLevel(slog.LevelDebug)
	testEncoder = views.NewEncoder()
)

const validLink = "briar://" + "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

type contactFixture struct {
	contacts      *mocks.ContactManagerMock
	conversations *mocks.ConversationManagerMock
	connections   *mocks.ConnectionRegistryMock
	broadcaster   *mocks.BroadcasterMock
	handler       *ContactHandler
	router        *gin.Engine
}

func setupContactRouter() *contactFixture {
	gin.SetMode(gin.TestMode)
	f := &contactFixture{
		contacts:      new(mocks.ContactManagerMock),
		conversations: new(mocks.ConversationManagerMock),
		connections:   new(mocks.ConnectionRegistryMock),
		broadcaster:   new(mocks.BroadcasterMock),
	}
	f.handler = NewContactHandler(f.contacts, f.conversations, f.connections, f.broadcaster, testEncoder, nil, testLog)

	r := gin.New()
	v1 := r.Group("/v1")
	v1.GET("/contacts", f.handler.ListContacts)
	v1.GET("/contacts/add/link", f.handler.GetLink)
	v1.GET("/contacts/add/pending", f.handler.ListPendingContacts)
	v1.POST("/contacts/add/pending", f.handler.AddPendingContact)
	v1.DELETE("/contacts/add/pending", f.handler.RemovePendingContact)
	v1.DELETE("/contacts/:contactId", f.handler.DeleteContact)
	v1.PUT("/contacts/:contactId/alias", f.handler.SetContactAlias)
	f.router = r
	return f
}

func (f *contactFixture) assertExpectations(t *testing.T) {
	f.contacts.AssertExpectations(t)
	f.conversations.AssertExpectations(t)
	f.connections.AssertExpectations(t)
	f.broadcaster.AssertExpectations(t)
}

func serve(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = new(bytes.Buffer)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListContacts(t *testing.T) {
	f := setupContactRouter()
	alias := "bob"
	f.contacts.On("GetContacts", mock.Anything).Return([]models.Contact{
		{ID: 1, Author: models.Author{FormatVersion: 1, ID: models.AuthorID{1}, Name: "Bob", PublicKey: []byte{2}}, Verified: true, Alias: &alias},
		{ID: 2, Author: models.Author{FormatVersion: 1, ID: models.AuthorID{3}, Name: "Carol", PublicKey: []byte{4}}},
	}, nil).Once()
	f.conversations.On("GetGroupCount", mock.Anything, models.ContactID(1)).Return(models.GroupCount{MsgCount: 3, UnreadCount: 1, LatestMsgTime: 99}, nil).Once()
	f.conversations.On("GetGroupCount", mock.Anything, models.ContactID(2)).Return(models.GroupCount{}, nil).Once()
	f.connections.On("IsConnected", models.ContactID(1)).Return(true).Once()
	f.connections.On("IsConnected", models.ContactID(2)).Return(false).Once()

	rec := serve(f.router, http.MethodGet, "/v1/contacts", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "bob", resp[0]["alias"])
	assert.Equal(t, true, resp[0]["connected"])
	assert.EqualValues(t, 1, resp[0]["unreadCount"])
	assert.EqualValues(t, 99, resp[0]["lastChatActivity"])
	assert.NotContains(t, resp[1], "alias")
	assert.NotContains(t, resp[1], "handshakePublicKey")
	f.assertExpectations(t)
}

func TestListContactsManagerError(t *testing.T) {
	f := setupContactRouter()
	f.contacts.On("GetContacts", mock.Anything).Return(nil, assert.AnError).Once()

	rec := serve(f.router, http.MethodGet, "/v1/contacts", "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	f.assertExpectations(t)
}

func TestGetLink(t *testing.T) {
	f := setupContactRouter()
	f.contacts.On("GetHandshakeLink", mock.Anything).Return(validLink, nil).Once()

	rec := serve(f.router, http.MethodGet, "/v1/contacts/add/link", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"link":"`+validLink+`"}`, rec.Body.String())
	f.assertExpectations(t)
}

func TestAddPendingContact(t *testing.T) {
	f := setupContactRouter()
	f.contacts.On("AddPendingContact", mock.Anything, validLink, "alice").
		Return(models.PendingContact{ID: models.PendingContactID{1, 2}, Alias: "alice", Timestamp: 42}, nil).Once()

	rec := serve(f.router, http.MethodPost, "/v1/contacts/add/pending", `{"link":"`+validLink+`","alias":"alice"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"pendingContactId":"AQI=","alias":"alice","timestamp":42}`, rec.Body.String())
	f.assertExpectations(t)
}

func TestAddPendingContactBodyMatchesEventEncoding(t *testing.T) {
	f := setupContactRouter()
	pending := models.PendingContact{ID: models.PendingContactID{1, 2}, Alias: "<alice>", Timestamp: 42}
	f.contacts.On("AddPendingContact", mock.Anything, validLink, "<alice>").Return(pending, nil).Once()

	rec := serve(f.router, http.MethodPost, "/v1/contacts/add/pending", `{"link":"`+validLink+`","alias":"<alice>"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	want, err := testEncoder.Marshal(views.PendingContact(pending))
	require.NoError(t, err)
	assert.Equal(t, string(want), rec.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	f.assertExpectations(t)
}

func TestAddPendingContactInvalidLink(t *testing.T) {
	f := setupContactRouter()

	rec := serve(f.router, http.MethodPost, "/v1/contacts/add/pending", `{"link":"foo","alias":"x"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"INVALID_LINK"}`, rec.Body.String())
	f.contacts.AssertNotCalled(t, "AddPendingContact", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddPendingContactAliasTooLong(t *testing.T) {
	f := setupContactRouter()
	body := `{"link":"` + validLink + `","alias":"` + strings.Repeat("a", models.MaxAuthorNameLength+1) + `"}`

	rec := serve(f.router, http.MethodPost, "/v1/contacts/add/pending", body)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	f.contacts.AssertNotCalled(t, "AddPendingContact", mock.Anything, mock.Anything, mock.Anything)
}

func TestAddPendingContactDomainErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		body string
	}{
		{
			name: "unsupported version",
			err:  models.ErrInvalidLink,
			code: http.StatusBadRequest,
			body: `{"error":"INVALID_LINK"}`,
		},
		{
			name: "bad key",
			err:  models.ErrInvalidPublicKey,
			code: http.StatusBadRequest,
			body: `{"error":"INVALID_PUBLIC_KEY"}`,
		},
		{
			name: "contact exists",
			err:  &models.ContactExistsError{ContactID: 4, RemoteAuthorName: "Bob"},
			code: http.StatusForbidden,
			body: `{"error":"CONTACT_EXISTS","remoteAuthorName":"Bob"}`,
		},
		{
			name: "pending exists",
			err:  &models.PendingContactExistsError{PendingContact: models.PendingContact{ID: models.PendingContactID{9}, Alias: "bobby"}},
			code: http.StatusForbidden,
			body: `{"error":"PENDING_EXISTS","pendingContactId":"CQ==","pendingContactAlias":"bobby"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupContactRouter()
			f.contacts.On("AddPendingContact", mock.Anything, validLink, "bob").Return(nil, tt.err).Once()

			rec := serve(f.router, http.MethodPost, "/v1/contacts/add/pending", `{"link":"`+validLink+`","alias":"bob"}`)

			require.Equal(t, tt.code, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
			f.assertExpectations(t)
		})
	}
}

func TestListPendingContacts(t *testing.T) {
	f := setupContactRouter()
	f.contacts.On("GetPendingContacts", mock.Anything).Return([]models.PendingContactWithState{
		{PendingContact: models.PendingContact{ID: models.PendingContactID{1}, Alias: "a", Timestamp: 1}, State: models.PendingContactOffline},
	}, nil).Once()

	rec := serve(f.router, http.MethodGet, "/v1/contacts/add/pending", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"pendingContact":{"pendingContactId":"AQ==","alias":"a","timestamp":1},"state":"offline"}]`, rec.Body.String())
	f.assertExpectations(t)
}

func TestRemovePendingContact(t *testing.T) {
	f := setupContactRouter()
	f.contacts.On("RemovePendingContact", mock.Anything, models.PendingContactID{1, 2}).Return(nil).Once()

	rec := serve(f.router, http.MethodDelete, "/v1/contacts/add/pending", `{"pendingContactId":"AQI="}`)

	require.Equal(t, http.StatusOK, rec.Code)
	f.assertExpectations(t)
}

func TestRemovePendingContactErrors(t *testing.T) {
	f := setupContactRouter()
	f.contacts.On("RemovePendingContact", mock.Anything, models.PendingContactID{7}).Return(models.ErrNoSuchPendingContact).Once()

	rec := serve(f.router, http.MethodDelete, "/v1/contacts/add/pending", `{"pendingContactId":"Bw=="}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(f.router, http.MethodDelete, "/v1/contacts/add/pending", `{"pendingContactId":"%%%"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String())

	rec = serve(f.router, http.MethodDelete, "/v1/contacts/add/pending", `{"pendingContactId":""}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	f.assertExpectations(t)
}

func TestDeleteContact(t *testing.T) {
	f := setupContactRouter()
	f.contacts.On("RemoveContact", mock.Anything, models.ContactID(3)).Return(nil).Once()

	rec := serve(f.router, http.MethodDelete, "/v1/contacts/3", "")

	require.Equal(t, http.StatusOK, rec.Code)
	f.assertExpectations(t)
}

func TestDeleteContactUnknown(t *testing.T) {
	f := setupContactRouter()
	f.contacts.On("RemoveContact", mock.Anything, models.ContactID(1)).Return(models.ErrNoSuchContact).Once()

	rec := serve(f.router, http.MethodDelete, "/v1/contacts/1", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	f.assertExpectations(t)
}

func TestDeleteContactMalformedID(t *testing.T) {
	f := setupContactRouter()

	rec := serve(f.router, http.MethodDelete, "/v1/contacts/abc", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	f.contacts.AssertNotCalled(t, "RemoveContact", mock.Anything, mock.Anything)
}

func TestSetContactAlias(t *testing.T) {
	f := setupContactRouter()
	f.contacts.On("SetContactAlias", mock.Anything, models.ContactID(2), "Bobby").Return(nil).Once()

	rec := serve(f.router, http.MethodPut, "/v1/contacts/2/alias", `{"alias":"Bobby"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(f.router, http.MethodPut, "/v1/contacts/2/alias", `{"alias":"`+strings.Repeat("b", 51)+`"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	f.assertExpectations(t)
}

func TestContactOnEventBroadcastsContactEvents(t *testing.T) {
	f := setupContactRouter()
	f.broadcaster.On("Broadcast", mock.Anything, views.EventContactAdded, views.ContactAddedView{ContactID: 5, Verified: true}).Once()
	f.broadcaster.On("Broadcast", mock.Anything, views.EventPendingContactStateChanged,
		views.PendingContactStateView{PendingContactID: []byte{1}, State: "connecting"}).Once()

	f.handler.OnEvent(models.ContactAddedEvent{ContactID: 5, Verified: true})
	f.handler.OnEvent(models.PendingContactStateChangedEvent{ID: models.PendingContactID{1}, State: models.PendingContactConnecting})
	f.handler.OnEvent(models.MessagesSentEvent{ContactID: 5})

	f.assertExpectations(t)
}

// everyEvent returns one event of each kind the core publishes.
func everyEvent() []models.Event {
	return []models.Event{
		models.ContactAddedEvent{ContactID: 1},
		models.ContactConnectedEvent{ContactID: 1},
		models.ContactDisconnectedEvent{ContactID: 1},
		models.PendingContactAddedEvent{PendingContact: models.PendingContact{ID: models.PendingContactID{1}}},
		models.PendingContactStateChangedEvent{ID: models.PendingContactID{1}},
		models.PendingContactRemovedEvent{ID: models.PendingContactID{1}},
		models.ConversationMessageReceivedEvent{ContactID: 1, Message: models.PrivateMessageHeader{MessageHeader: models.MessageHeader{ID: models.MessageID{1}}}},
		models.MessagesSentEvent{ContactID: 1},
		models.MessagesAckedEvent{ContactID: 1},
	}
}

func broadcastNames(b *mocks.BroadcasterMock) *[]string {
	var names []string
	b.On("Broadcast", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { names = append(names, args.String(1)) })
	return &names
}

func TestContactOnEventRoutesEveryEventKind(t *testing.T) {
	f := setupContactRouter()
	names := broadcastNames(f.broadcaster)

	for _, e := range everyEvent() {
		f.handler.OnEvent(e)
	}

	assert.Equal(t, []string{
		views.EventContactAdded,
		views.EventContactConnected,
		views.EventContactDisconnected,
		views.EventPendingContactAdded,
		views.EventPendingContactStateChanged,
		views.EventPendingContactRemoved,
	}, *names)
}
