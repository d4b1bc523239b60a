package repositories

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/blake2b"

	"briar-gateway/internal/models"
)

// ForumRepo is a sqlx implementation of models.ForumManager.
type ForumRepo struct {
	db *sqlx.DB
}

type forumRow struct {
	ID        []byte `db:"id"`
	Name      string `db:"name"`
	CreatedAt int64  `db:"created_at"`
}

var _ models.ForumManager = (*ForumRepo)(nil)

func NewForumRepo(db *sqlx.DB) *ForumRepo {
	return &ForumRepo{db: db}
}

// GetForums returns the forums the local user is subscribed to.
func (r *ForumRepo) GetForums(ctx context.Context) ([]models.Forum, error) {
	var rows []forumRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, name, created_at FROM forums ORDER BY created_at, name`); err != nil {
		return nil, fmt.Errorf("select forums: %w", err)
	}
	forums := make([]models.Forum, 0, len(rows))
	for _, row := range rows {
		forums = append(forums, models.Forum{ID: row.ID, Name: row.Name})
	}
	return forums, nil
}

// AddForum creates a forum and subscribes the local user to it. Names need not be unique.
func (r *ForumRepo) AddForum(ctx context.Context, name string) (models.Forum, error) {
	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return models.Forum{}, fmt.Errorf("generate forum salt: %w", err)
	}
	h, _ := blake2b.New256(nil)
	h.Write([]byte("briar-gateway/forum"))
	h.Write([]byte(name))
	h.Write(salt)

	row := forumRow{ID: h.Sum(nil), Name: name, CreatedAt: time.Now().UnixMilli()}
	if _, err := r.db.NamedExecContext(ctx, `INSERT INTO forums (id, name, salt, created_at) VALUES (:id, :name, :salt, :created_at)`, struct {
		forumRow
		Salt []byte `db:"salt"`
	}{row, salt}); err != nil {
		return models.Forum{}, fmt.Errorf("insert forum: %w", err)
	}
	return models.Forum{ID: row.ID, Name: row.Name}, nil
}
