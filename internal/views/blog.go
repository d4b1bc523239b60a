package views

import (
	"fmt"

	"briar-gateway/internal/models"
)

type BlogPostView struct {
	Text              string     `json:"text"`
	Author            AuthorView `json:"author"`
	AuthorStatus      string     `json:"authorStatus"`
	Type              string     `json:"type"`
	ID                []byte     `json:"id"`
	ParentID          []byte     `json:"parentId,omitempty"`
	Read              bool       `json:"read"`
	RSSFeed           bool       `json:"rssFeed"`
	Timestamp         int64      `json:"timestamp"`
	TimestampReceived int64      `json:"timestampReceived"`
}

func BlogPost(h models.BlogPostHeader, text string) BlogPostView {
	return BlogPostView{
		Text:              text,
		Author:            Author(h.Author),
		AuthorStatus:      AuthorStatus(h.AuthorInfo.Status),
		Type:              BlogPostType(h.Type),
		ID:                h.ID,
		ParentID:          h.ParentID,
		Read:              h.Read,
		RSSFeed:           h.RSSFeed,
		Timestamp:         h.Timestamp,
		TimestampReceived: h.TimeReceived,
	}
}

func BlogPostType(t models.BlogPostType) string {
	switch t {
	case models.BlogPost:
		return "post"
	case models.BlogComment:
		return "comment"
	case models.BlogWrappedPost:
		return "wrapped_post"
	case models.BlogWrappedComment:
		return "wrapped_comment"
	}
	panic(fmt.Sprintf("views: unknown blog post type %d", t))
}
