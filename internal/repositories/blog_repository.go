package repositories

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/blake2b"

	"briar-gateway/internal/models"
)

// BlogRepo is a sqlx implementation of models.BlogManager. Every author has one blog; the
// local user writes to theirs, posts of other authors arrive through the transport.
type BlogRepo struct {
	db       *sqlx.DB
	identity *IdentityRepo
}

type blogPostRow struct {
	ID                  []byte         `db:"id"`
	GroupID             []byte         `db:"group_id"`
	ParentID            []byte         `db:"parent_id"`
	Type                int            `db:"type"`
	Timestamp           int64          `db:"timestamp"`
	TimeReceived        int64          `db:"time_received"`
	AuthorID            []byte         `db:"author_id"`
	AuthorFormatVersion int            `db:"author_format_version"`
	AuthorName          string         `db:"author_name"`
	AuthorPublicKey     []byte         `db:"author_public_key"`
	RSSFeed             bool           `db:"rss_feed"`
	Read                bool           `db:"read"`
	Text                string         `db:"text"`
	ContactVerified     sql.NullBool   `db:"contact_verified"`
	ContactAlias        sql.NullString `db:"contact_alias"`
}

const insertBlogPost = `INSERT INTO blog_posts (id, group_id, parent_id, type, timestamp, time_received,
        author_id, author_format_version, author_name, author_public_key, rss_feed, read, text)
        VALUES (:id, :group_id, :parent_id, :type, :timestamp, :time_received,
        :author_id, :author_format_version, :author_name, :author_public_key, :rss_feed, :read, :text)`

var _ models.BlogManager = (*BlogRepo)(nil)

func NewBlogRepo(db *sqlx.DB, identity *IdentityRepo) *BlogRepo {
	return &BlogRepo{db: db, identity: identity}
}

// GetPostHeaders returns the headers of all stored posts. The author info is resolved against
// the local identity and the contact list at read time.
func (r *BlogRepo) GetPostHeaders(ctx context.Context) ([]models.BlogPostHeader, error) {
	var rows []blogPostRow
	err := r.db.SelectContext(ctx, &rows, `SELECT p.id, p.group_id, p.parent_id, p.type, p.timestamp, p.time_received,
        p.author_id, p.author_format_version, p.author_name, p.author_public_key, p.rss_feed, p.read, '' AS text,
        c.verified AS contact_verified, c.alias AS contact_alias
        FROM blog_posts p LEFT JOIN contacts c ON c.author_id = p.author_id
        ORDER BY p.timestamp`)
	if err != nil {
		return nil, fmt.Errorf("select blog posts: %w", err)
	}

	local := r.identity.LocalAuthor()
	headers := make([]models.BlogPostHeader, 0, len(rows))
	for _, row := range rows {
		headers = append(headers, row.toModel(local.ID))
	}
	return headers, nil
}

// GetPostText returns the text of a post.
func (r *BlogRepo) GetPostText(ctx context.Context, id models.MessageID) (string, error) {
	var text string
	err := r.db.GetContext(ctx, &text, `SELECT text FROM blog_posts WHERE id=$1`, []byte(id))
	if errors.Is(err, sql.ErrNoRows) {
		return "", models.ErrNoSuchMessage
	}
	if err != nil {
		return "", fmt.Errorf("select blog post text: %w", err)
	}
	return text, nil
}

// AddLocalPost publishes an original post on the local user's blog.
func (r *BlogRepo) AddLocalPost(ctx context.Context, text string) (models.BlogPostHeader, error) {
	local := r.identity.LocalAuthor()
	now := time.Now().UnixMilli()
	groupID := blogGroupID(local.ID)

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return models.BlogPostHeader{}, fmt.Errorf("generate post salt: %w", err)
	}
	h, _ := blake2b.New256(nil)
	h.Write(groupID)
	_ = binary.Write(h, binary.BigEndian, now)
	h.Write(salt)
	h.Write([]byte(text))

	row := blogPostRow{
		ID:                  h.Sum(nil),
		GroupID:             groupID,
		Type:                int(models.BlogPost),
		Timestamp:           now,
		TimeReceived:        now,
		AuthorID:            local.ID,
		AuthorFormatVersion: local.FormatVersion,
		AuthorName:          local.Name,
		AuthorPublicKey:     local.PublicKey,
		Read:                true,
		Text:                text,
	}
	if _, err := r.db.NamedExecContext(ctx, insertBlogPost, row); err != nil {
		return models.BlogPostHeader{}, fmt.Errorf("insert blog post: %w", err)
	}
	return row.toModel(local.ID), nil
}

// ReceivePost stores a post delivered by the transport. Posts already stored are ignored.
func (r *BlogRepo) ReceivePost(ctx context.Context, header models.BlogPostHeader, text string) error {
	row := blogPostRow{
		ID:                  header.ID,
		GroupID:             header.GroupID,
		ParentID:            header.ParentID,
		Type:                int(header.Type),
		Timestamp:           header.Timestamp,
		TimeReceived:        time.Now().UnixMilli(),
		AuthorID:            header.Author.ID,
		AuthorFormatVersion: header.Author.FormatVersion,
		AuthorName:          header.Author.Name,
		AuthorPublicKey:     header.Author.PublicKey,
		RSSFeed:             header.RSSFeed,
		Text:                text,
	}
	if _, err := r.db.NamedExecContext(ctx, insertBlogPost+` ON CONFLICT (id) DO NOTHING`, row); err != nil {
		return fmt.Errorf("insert received blog post: %w", err)
	}
	return nil
}

func (r blogPostRow) toModel(localAuthorID models.AuthorID) models.BlogPostHeader {
	return models.BlogPostHeader{
		Type:         models.BlogPostType(r.Type),
		ID:           r.ID,
		GroupID:      r.GroupID,
		ParentID:     r.ParentID,
		Timestamp:    r.Timestamp,
		TimeReceived: r.TimeReceived,
		Author: models.Author{
			FormatVersion: r.AuthorFormatVersion,
			ID:            r.AuthorID,
			Name:          r.AuthorName,
			PublicKey:     r.AuthorPublicKey,
		},
		AuthorInfo: r.authorInfo(localAuthorID),
		RSSFeed:    r.RSSFeed,
		Read:       r.Read,
	}
}

func (r blogPostRow) authorInfo(localAuthorID models.AuthorID) models.AuthorInfo {
	switch {
	case r.RSSFeed:
		return models.AuthorInfo{Status: models.AuthorStatusNone}
	case string(r.AuthorID) == string(localAuthorID):
		return models.AuthorInfo{Status: models.AuthorStatusOurselves}
	case !r.ContactVerified.Valid:
		return models.AuthorInfo{Status: models.AuthorStatusUnknown}
	}
	info := models.AuthorInfo{Status: models.AuthorStatusUnverified}
	if r.ContactVerified.Bool {
		info.Status = models.AuthorStatusVerified
	}
	if r.ContactAlias.Valid {
		alias := r.ContactAlias.String
		info.Alias = &alias
	}
	return info
}

// blogGroupID derives the id of an author's blog.
func blogGroupID(authorID models.AuthorID) models.GroupID {
	h, _ := blake2b.New256(nil)
	h.Write([]byte("briar-gateway/blog"))
	h.Write(authorID)
	return h.Sum(nil)
}
