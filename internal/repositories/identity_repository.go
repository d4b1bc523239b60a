package repositories

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/blake2b"

	"briar-gateway/internal/models"
)

// IdentityRepo holds the local author and the handshake key pair. Both are created on first
// start and never change afterwards.
type IdentityRepo struct {
	author              models.Author
	handshakePublicKey  []byte
	handshakePrivateKey []byte
}

type localAuthorRow struct {
	ID                  []byte `db:"id"`
	FormatVersion       int    `db:"format_version"`
	Name                string `db:"name"`
	PublicKey           []byte `db:"public_key"`
	HandshakePublicKey  []byte `db:"handshake_public_key"`
	HandshakePrivateKey []byte `db:"handshake_private_key"`
}

var _ models.IdentityManager = (*IdentityRepo)(nil)

// NewIdentityRepo loads the local identity, creating it with nickname when the database has none.
func NewIdentityRepo(ctx context.Context, db *sqlx.DB, nickname string) (*IdentityRepo, error) {
	if err := createLocalAuthor(ctx, db, nickname); err != nil {
		return nil, err
	}

	var row localAuthorRow
	if err := db.GetContext(ctx, &row, `SELECT id, format_version, name, public_key, handshake_public_key, handshake_private_key FROM local_author`); err != nil {
		return nil, fmt.Errorf("load local author: %w", err)
	}
	return &IdentityRepo{
		author: models.Author{
			FormatVersion: row.FormatVersion,
			ID:            row.ID,
			Name:          row.Name,
			PublicKey:     row.PublicKey,
		},
		handshakePublicKey:  row.HandshakePublicKey,
		handshakePrivateKey: row.HandshakePrivateKey,
	}, nil
}

func createLocalAuthor(ctx context.Context, db *sqlx.DB, nickname string) error {
	if len(nickname) == 0 || len(nickname) > models.MaxAuthorNameLength {
		return fmt.Errorf("nickname must be 1 to %d bytes", models.MaxAuthorNameLength)
	}
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("generate author key: %w", err)
	}
	handshakePublic, handshakePrivate, err := newHandshakeKeyPair()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `INSERT INTO local_author (id, format_version, name, public_key, private_key, handshake_public_key, handshake_private_key)
        VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (singleton) DO NOTHING`,
		authorID(models.FormatVersion, nickname, publicKey), models.FormatVersion, nickname, []byte(publicKey), []byte(privateKey.Seed()),
		handshakePublic, handshakePrivate)
	if err != nil {
		return fmt.Errorf("create local author: %w", err)
	}
	return nil
}

// authorID hashes the fields that identify an author.
func authorID(formatVersion int, name string, publicKey []byte) models.AuthorID {
	h, _ := blake2b.New256(nil)
	h.Write([]byte{byte(formatVersion)})
	h.Write([]byte(name))
	h.Write(publicKey)
	return h.Sum(nil)
}

func (r *IdentityRepo) LocalAuthor() models.Author {
	return r.author
}

// HandshakeLink returns the link other users need to add the local user.
func (r *IdentityRepo) HandshakeLink() string {
	return encodeHandshakeLink(r.handshakePublicKey)
}
