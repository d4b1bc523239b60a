package repositories

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/blake2b"

	"briar-gateway/internal/models"
)

// ContactRepo is a sqlx implementation of models.ContactManager.
type ContactRepo struct {
	db       *sqlx.DB
	identity *IdentityRepo
	events   models.EventPublisher
	log      *slog.Logger
}

type contactRow struct {
	ID                  int            `db:"id"`
	AuthorID            []byte         `db:"author_id"`
	AuthorFormatVersion int            `db:"author_format_version"`
	AuthorName          string         `db:"author_name"`
	AuthorPublicKey     []byte         `db:"author_public_key"`
	LocalAuthorID       []byte         `db:"local_author_id"`
	Verified            bool           `db:"verified"`
	Alias               sql.NullString `db:"alias"`
	HandshakePublicKey  []byte         `db:"handshake_public_key"`
}

func (r contactRow) toModel() models.Contact {
	c := models.Contact{
		ID: models.ContactID(r.ID),
		Author: models.Author{
			FormatVersion: r.AuthorFormatVersion,
			ID:            r.AuthorID,
			Name:          r.AuthorName,
			PublicKey:     r.AuthorPublicKey,
		},
		LocalAuthorID:      r.LocalAuthorID,
		Verified:           r.Verified,
		HandshakePublicKey: r.HandshakePublicKey,
	}
	if r.Alias.Valid {
		alias := r.Alias.String
		c.Alias = &alias
	}
	return c
}

type pendingContactRow struct {
	ID        []byte `db:"id"`
	Alias     string `db:"alias"`
	PublicKey []byte `db:"public_key"`
	State     int    `db:"state"`
	CreatedAt int64  `db:"created_at"`
}

func (r pendingContactRow) toModel() models.PendingContact {
	return models.PendingContact{
		ID:        r.ID,
		Alias:     r.Alias,
		PublicKey: r.PublicKey,
		Timestamp: r.CreatedAt,
	}
}

const contactColumns = `id, author_id, author_format_version, author_name, author_public_key, local_author_id, verified, alias, handshake_public_key`

var _ models.ContactManager = (*ContactRepo)(nil)

// NewContactRepo constructs a ContactRepo. Mutations are announced on events.
func NewContactRepo(db *sqlx.DB, identity *IdentityRepo, events models.EventPublisher, log *slog.Logger) *ContactRepo {
	return &ContactRepo{db: db, identity: identity, events: events, log: log}
}

// GetContacts returns all contacts ordered by id.
func (r *ContactRepo) GetContacts(ctx context.Context) ([]models.Contact, error) {
	var rows []contactRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+contactColumns+` FROM contacts ORDER BY id`); err != nil {
		return nil, fmt.Errorf("select contacts: %w", err)
	}
	contacts := make([]models.Contact, 0, len(rows))
	for _, row := range rows {
		contacts = append(contacts, row.toModel())
	}
	return contacts, nil
}

// GetContact fetches a contact by id.
func (r *ContactRepo) GetContact(ctx context.Context, id models.ContactID) (models.Contact, error) {
	var row contactRow
	err := r.db.GetContext(ctx, &row, `SELECT `+contactColumns+` FROM contacts WHERE id=$1`, int(id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Contact{}, models.ErrNoSuchContact
	}
	if err != nil {
		return models.Contact{}, fmt.Errorf("select contact %d: %w", id, err)
	}
	return row.toModel(), nil
}

// RemoveContact deletes a contact together with its conversation.
func (r *ContactRepo) RemoveContact(ctx context.Context, id models.ContactID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id=$1`, int(id))
	if err != nil {
		return fmt.Errorf("delete contact %d: %w", id, err)
	}
	return requireAffected(res, models.ErrNoSuchContact)
}

// SetContactAlias sets the alias of a contact.
func (r *ContactRepo) SetContactAlias(ctx context.Context, id models.ContactID, alias string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE contacts SET alias=$2 WHERE id=$1`, int(id), alias)
	if err != nil {
		return fmt.Errorf("update alias of contact %d: %w", id, err)
	}
	return requireAffected(res, models.ErrNoSuchContact)
}

func (r *ContactRepo) GetHandshakeLink(ctx context.Context) (string, error) {
	return r.identity.HandshakeLink(), nil
}

// AddPendingContact validates link and stores a pending contact for it.
func (r *ContactRepo) AddPendingContact(ctx context.Context, link, alias string) (models.PendingContact, error) {
	publicKey, err := parseHandshakeLink(link)
	if err != nil {
		return models.PendingContact{}, err
	}
	if bytes.Equal(publicKey, r.identity.handshakePublicKey) {
		return models.PendingContact{}, fmt.Errorf("%w: link is our own", models.ErrInvalidPublicKey)
	}
	if err := checkHandshakeKey(r.identity.handshakePrivateKey, publicKey); err != nil {
		return models.PendingContact{}, err
	}

	var existing contactRow
	err = r.db.GetContext(ctx, &existing, `SELECT `+contactColumns+` FROM contacts WHERE handshake_public_key=$1`, publicKey)
	if err == nil {
		return models.PendingContact{}, &models.ContactExistsError{
			ContactID:        models.ContactID(existing.ID),
			RemoteAuthorName: existing.AuthorName,
		}
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.PendingContact{}, fmt.Errorf("look up contact by key: %w", err)
	}

	id := pendingContactID(publicKey)
	var pending pendingContactRow
	err = r.db.GetContext(ctx, &pending, `SELECT id, alias, public_key, state, created_at FROM pending_contacts WHERE id=$1`, []byte(id))
	if err == nil {
		return models.PendingContact{}, &models.PendingContactExistsError{PendingContact: pending.toModel()}
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.PendingContact{}, fmt.Errorf("look up pending contact: %w", err)
	}

	pending = pendingContactRow{
		ID:        id,
		Alias:     alias,
		PublicKey: publicKey,
		State:     int(models.PendingContactWaitingForConnection),
		CreatedAt: time.Now().UnixMilli(),
	}
	if _, err := r.db.NamedExecContext(ctx, `INSERT INTO pending_contacts (id, alias, public_key, state, created_at)
        VALUES (:id, :alias, :public_key, :state, :created_at)`, pending); err != nil {
		return models.PendingContact{}, fmt.Errorf("insert pending contact: %w", err)
	}

	added := pending.toModel()
	r.log.Info("Pending contact added", "alias", alias)
	r.events.Publish(models.PendingContactAddedEvent{PendingContact: added})
	return added, nil
}

// GetPendingContacts returns the pending contacts, oldest first.
func (r *ContactRepo) GetPendingContacts(ctx context.Context) ([]models.PendingContactWithState, error) {
	var rows []pendingContactRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, alias, public_key, state, created_at FROM pending_contacts ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("select pending contacts: %w", err)
	}
	pending := make([]models.PendingContactWithState, 0, len(rows))
	for _, row := range rows {
		pending = append(pending, models.PendingContactWithState{
			PendingContact: row.toModel(),
			State:          models.PendingContactState(row.State),
		})
	}
	return pending, nil
}

// RemovePendingContact deletes a pending contact.
func (r *ContactRepo) RemovePendingContact(ctx context.Context, id models.PendingContactID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pending_contacts WHERE id=$1`, []byte(id))
	if err != nil {
		return fmt.Errorf("delete pending contact: %w", err)
	}
	if err := requireAffected(res, models.ErrNoSuchPendingContact); err != nil {
		return err
	}
	r.events.Publish(models.PendingContactRemovedEvent{ID: id})
	return nil
}

// AddContact turns a pending contact into a contact once the transport has finished the
// handshake with remote. The pending contact's alias and handshake key move to the contact.
func (r *ContactRepo) AddContact(ctx context.Context, pendingID models.PendingContactID, remote models.Author, verified bool) (models.Contact, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Contact{}, err
	}
	defer tx.Rollback()

	var pending pendingContactRow
	err = tx.GetContext(ctx, &pending, `DELETE FROM pending_contacts WHERE id=$1 RETURNING id, alias, public_key, state, created_at`, []byte(pendingID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Contact{}, models.ErrNoSuchPendingContact
	}
	if err != nil {
		return models.Contact{}, fmt.Errorf("take pending contact: %w", err)
	}

	local := r.identity.LocalAuthor()
	row := contactRow{
		AuthorID:            remote.ID,
		AuthorFormatVersion: remote.FormatVersion,
		AuthorName:          remote.Name,
		AuthorPublicKey:     remote.PublicKey,
		LocalAuthorID:       local.ID,
		Verified:            verified,
		Alias:               sql.NullString{String: pending.Alias, Valid: pending.Alias != ""},
		HandshakePublicKey:  pending.PublicKey,
	}
	if err = tx.QueryRowxContext(ctx, `INSERT INTO contacts (author_id, author_format_version, author_name, author_public_key,
        local_author_id, verified, alias, handshake_public_key, group_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		row.AuthorID, row.AuthorFormatVersion, row.AuthorName, row.AuthorPublicKey,
		row.LocalAuthorID, row.Verified, row.Alias, row.HandshakePublicKey, []byte(contactGroupID(local.ID, remote.ID))).
		Scan(&row.ID); err != nil {
		return models.Contact{}, fmt.Errorf("insert contact: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Contact{}, err
	}

	contact := row.toModel()
	r.log.Info("Contact added", "contact_id", contact.ID, "verified", verified)
	r.events.Publish(models.PendingContactRemovedEvent{ID: pendingID})
	r.events.Publish(models.ContactAddedEvent{ContactID: contact.ID, Verified: verified})
	return contact, nil
}

// SetPendingContactState records a state reported by the transport for a pending contact.
func (r *ContactRepo) SetPendingContactState(ctx context.Context, id models.PendingContactID, state models.PendingContactState) error {
	res, err := r.db.ExecContext(ctx, `UPDATE pending_contacts SET state=$2 WHERE id=$1 AND state<>$2`, []byte(id), int(state))
	if err != nil {
		return fmt.Errorf("update pending contact state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		r.events.Publish(models.PendingContactStateChangedEvent{ID: id, State: state})
		return nil
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM pending_contacts WHERE id=$1)`, []byte(id)); err != nil {
		return fmt.Errorf("check pending contact: %w", err)
	}
	if !exists {
		return models.ErrNoSuchPendingContact
	}
	return nil
}

// contactGroupID derives the id of the private conversation between two authors. Both sides
// compute the same id.
func contactGroupID(a, b models.AuthorID) models.GroupID {
	if bytes.Compare(a, b) > 0 {
		a, b = b, a
	}
	h, _ := blake2b.New256(nil)
	h.Write([]byte("briar-gateway/contact-group"))
	h.Write(a)
	h.Write(b)
	return h.Sum(nil)
}

// requireAffected returns notFound when res changed no rows.
func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
