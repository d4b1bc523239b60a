package models

import "context"

// MaxBlogPostTextLength is the maximum blog post text length, in UTF-8 bytes.
const MaxBlogPostTextLength = 31 * 1024

// BlogPostType distinguishes original posts from comments and reblogged (wrapped) entries.
type BlogPostType int

const (
	BlogPost BlogPostType = iota
	BlogComment
	BlogWrappedPost
	BlogWrappedComment
)

// BlogPostHeader describes a blog post without its text.
type BlogPostHeader struct {
	Type         BlogPostType
	ID           MessageID
	GroupID      GroupID
	ParentID     MessageID
	Timestamp    int64
	TimeReceived int64
	Author       Author
	AuthorInfo   AuthorInfo
	RSSFeed      bool
	Read         bool
}

// BlogManager is the blog service of the messaging core.
type BlogManager interface {
	// GetPostHeaders returns the headers of every post in every blog the local user can see.
	GetPostHeaders(ctx context.Context) ([]BlogPostHeader, error)
	GetPostText(ctx context.Context, id MessageID) (string, error)
	AddLocalPost(ctx context.Context, text string) (BlogPostHeader, error)
}
