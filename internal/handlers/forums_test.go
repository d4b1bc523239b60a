package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"briar-gateway/internal/mocks"
	"briar-gateway/internal/models"
)

func setupForumRouter(forums *mocks.ForumManagerMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewForumHandler(forums, testEncoder, nil, testLog)
	r := gin.New()
	r.GET("/v1/forums", handler.ListForums)
	r.POST("/v1/forums", handler.CreateForum)
	return r
}

func TestListForums(t *testing.T) {
	forums := new(mocks.ForumManagerMock)
	router := setupForumRouter(forums)
	forums.On("GetForums", mock.Anything).Return([]models.Forum{{ID: models.GroupID{1}, Name: "general"}}, nil).Once()

	rec := serve(router, http.MethodGet, "/v1/forums", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"name":"general","id":"AQ=="}]`, rec.Body.String())
	forums.AssertExpectations(t)
}

func TestListForumsEmpty(t *testing.T) {
	forums := new(mocks.ForumManagerMock)
	router := setupForumRouter(forums)
	forums.On("GetForums", mock.Anything).Return([]models.Forum{}, nil).Once()

	rec := serve(router, http.MethodGet, "/v1/forums", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateForum(t *testing.T) {
	forums := new(mocks.ForumManagerMock)
	router := setupForumRouter(forums)
	forums.On("AddForum", mock.Anything, "news").Return(models.Forum{ID: models.GroupID{2}, Name: "news"}, nil).Once()

	rec := serve(router, http.MethodPost, "/v1/forums", `{"name":"news"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"name":"news","id":"Ag=="}`, rec.Body.String())
	forums.AssertExpectations(t)
}

func TestCreateForumNameTooLong(t *testing.T) {
	forums := new(mocks.ForumManagerMock)
	router := setupForumRouter(forums)

	rec := serve(router, http.MethodPost, "/v1/forums", `{"name":"`+strings.Repeat("n", models.MaxForumNameLength+1)+`"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	forums.AssertNotCalled(t, "AddForum", mock.Anything, mock.Anything)
}

func TestCreateForumMalformedBody(t *testing.T) {
	forums := new(mocks.ForumManagerMock)
	router := setupForumRouter(forums)

	rec := serve(router, http.MethodPost, "/v1/forums", `{"name":`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
