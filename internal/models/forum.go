package models

import "context"

// MaxForumNameLength is the maximum forum name length, in UTF-8 bytes.
const MaxForumNameLength = 100

// Forum is a shareable discussion group.
type Forum struct {
	ID   GroupID
	Name string
}

// ForumManager is the forum service of the messaging core.
type ForumManager interface {
	GetForums(ctx context.Context) ([]Forum, error)
	AddForum(ctx context.Context, name string) (Forum, error)
}
