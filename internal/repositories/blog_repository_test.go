package repositories

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"briar-gateway/internal/models"
)

func TestBlogPostAuthorInfo(t *testing.T) {
	local := models.AuthorID{1}
	tests := []struct {
		name   string
		row    blogPostRow
		status models.AuthorStatus
		alias  *string
	}{
		{"ourselves", blogPostRow{AuthorID: []byte{1}}, models.AuthorStatusOurselves, nil},
		{"rss feed", blogPostRow{AuthorID: []byte{1}, RSSFeed: true}, models.AuthorStatusNone, nil},
		{"stranger", blogPostRow{AuthorID: []byte{2}}, models.AuthorStatusUnknown, nil},
		{
			"unverified contact",
			blogPostRow{AuthorID: []byte{2}, ContactVerified: sql.NullBool{Valid: true}},
			models.AuthorStatusUnverified, nil,
		},
		{
			"verified contact with alias",
			blogPostRow{
				AuthorID:        []byte{2},
				ContactVerified: sql.NullBool{Bool: true, Valid: true},
				ContactAlias:    sql.NullString{String: "bob", Valid: true},
			},
			models.AuthorStatusVerified, strPtr("bob"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := tt.row.authorInfo(local)
			assert.Equal(t, tt.status, info.Status)
			assert.Equal(t, tt.alias, info.Alias)
		})
	}
}

func TestBlogPostRowToModel(t *testing.T) {
	row := blogPostRow{
		ID:                  []byte{7},
		GroupID:             blogGroupID(models.AuthorID{1}),
		Type:                int(models.BlogComment),
		Timestamp:           10,
		TimeReceived:        11,
		AuthorID:            []byte{1},
		AuthorFormatVersion: 1,
		AuthorName:          "alice",
		AuthorPublicKey:     []byte{3},
		Read:                true,
	}

	header := row.toModel(models.AuthorID{1})
	assert.Equal(t, models.BlogComment, header.Type)
	assert.Equal(t, models.MessageID{7}, header.ID)
	assert.Equal(t, "alice", header.Author.Name)
	assert.Equal(t, models.AuthorStatusOurselves, header.AuthorInfo.Status)
	assert.True(t, header.Read)
}

func TestDerivedGroupIDs(t *testing.T) {
	a, b := models.AuthorID{1, 2}, models.AuthorID{3, 4}

	assert.Equal(t, contactGroupID(a, b), contactGroupID(b, a))
	assert.Len(t, contactGroupID(a, b), 32)
	assert.NotEqual(t, blogGroupID(a), blogGroupID(b))

	first, err := privateMessageID(models.GroupID{9}, 100, "hi")
	require.NoError(t, err)
	second, err := privateMessageID(models.GroupID{9}, 100, "hi")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func strPtr(s string) *string { return &s }
