package repositories

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/crypto/blake2b"

	"briar-gateway/internal/models"
)

// ConversationRepo stores the conversations with contacts. It implements both
// models.ConversationManager and models.MessagingManager.
type ConversationRepo struct {
	db     *sqlx.DB
	events models.EventPublisher
	log    *slog.Logger
}

var (
	_ models.ConversationManager = (*ConversationRepo)(nil)
	_ models.MessagingManager    = (*ConversationRepo)(nil)
)

func NewConversationRepo(db *sqlx.DB, events models.EventPublisher, log *slog.Logger) *ConversationRepo {
	return &ConversationRepo{db: db, events: events, log: log}
}

// GetMessageHeaders returns the headers of every message exchanged with a contact.
func (r *ConversationRepo) GetMessageHeaders(ctx context.Context, contactID models.ContactID) ([]models.ConversationMessage, error) {
	if err := r.requireContact(ctx, r.db, contactID); err != nil {
		return nil, err
	}

	var rows []messageRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+messageColumns+` FROM messages WHERE contact_id=$1 ORDER BY timestamp ASC`, int(contactID)); err != nil {
		return nil, fmt.Errorf("select messages of contact %d: %w", contactID, err)
	}
	headers := make([]models.ConversationMessage, 0, len(rows))
	for _, row := range rows {
		m, err := row.toModel()
		if err != nil {
			return nil, err
		}
		headers = append(headers, m)
	}
	return headers, nil
}

// GetGroupCount summarizes the conversation with a contact.
func (r *ConversationRepo) GetGroupCount(ctx context.Context, contactID models.ContactID) (models.GroupCount, error) {
	var count struct {
		MsgCount      int   `db:"msg_count"`
		UnreadCount   int   `db:"unread_count"`
		LatestMsgTime int64 `db:"latest_msg_time"`
	}
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) AS msg_count,
        COUNT(*) FILTER (WHERE NOT read) AS unread_count,
        COALESCE(MAX(timestamp), 0) AS latest_msg_time
        FROM messages WHERE contact_id=$1`, int(contactID))
	if err != nil {
		return models.GroupCount{}, fmt.Errorf("count messages of contact %d: %w", contactID, err)
	}
	return models.GroupCount{MsgCount: count.MsgCount, UnreadCount: count.UnreadCount, LatestMsgTime: count.LatestMsgTime}, nil
}

// SetReadFlag sets the read flag of a message in the conversation with contactID.
func (r *ConversationRepo) SetReadFlag(ctx context.Context, contactID models.ContactID, messageID models.MessageID, read bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET read=$3 WHERE contact_id=$1 AND id=$2`, int(contactID), []byte(messageID), read)
	if err != nil {
		return fmt.Errorf("update read flag: %w", err)
	}
	return requireAffected(res, models.ErrNoSuchMessage)
}

// DeleteAllMessages deletes the conversation with a contact except messages that belong to an
// introduction or invitation still in progress.
func (r *ConversationRepo) DeleteAllMessages(ctx context.Context, contactID models.ContactID) (models.DeletionResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.DeletionResult{}, err
	}
	defer tx.Rollback()

	if err := r.requireContact(ctx, tx, contactID); err != nil {
		return models.DeletionResult{}, err
	}

	var active struct {
		Introduction bool `db:"introduction"`
		Invitation   bool `db:"invitation"`
	}
	err = tx.GetContext(ctx, &active, `SELECT
        COALESCE(BOOL_OR(session_active) FILTER (WHERE kind IN ($2, $3)), FALSE) AS introduction,
        COALESCE(BOOL_OR(session_active) FILTER (WHERE kind NOT IN ($2, $3, $4)), FALSE) AS invitation
        FROM messages WHERE contact_id=$1`,
		int(contactID), kindIntroductionRequest, kindIntroductionResponse, kindPrivateMessage)
	if err != nil {
		return models.DeletionResult{}, fmt.Errorf("check sessions of contact %d: %w", contactID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE contact_id=$1 AND NOT session_active`, int(contactID)); err != nil {
		return models.DeletionResult{}, fmt.Errorf("delete messages of contact %d: %w", contactID, err)
	}
	if err := tx.Commit(); err != nil {
		return models.DeletionResult{}, err
	}

	return models.DeletionResult{
		IntroductionSessionInProgress: active.Introduction,
		InvitationSessionInProgress:   active.Invitation,
	}, nil
}

// GetMessageText returns the text of a private message.
func (r *ConversationRepo) GetMessageText(ctx context.Context, messageID models.MessageID) (string, error) {
	var text sql.NullString
	err := r.db.GetContext(ctx, &text, `SELECT text FROM messages WHERE id=$1 AND kind=$2`, []byte(messageID), kindPrivateMessage)
	if errors.Is(err, sql.ErrNoRows) {
		return "", models.ErrNoSuchMessage
	}
	if err != nil {
		return "", fmt.Errorf("select message text: %w", err)
	}
	return text.String, nil
}

// SendPrivateMessage stores a private message written by the local user. Delivery is up to the
// transport, which reports it back through MarkSent and MarkAcked.
func (r *ConversationRepo) SendPrivateMessage(ctx context.Context, contactID models.ContactID, text string) (models.PrivateMessage, error) {
	groupID, err := r.conversationGroup(ctx, contactID)
	if err != nil {
		return models.PrivateMessage{}, err
	}

	timestamp := time.Now().UnixMilli()
	id, err := privateMessageID(groupID, timestamp, text)
	if err != nil {
		return models.PrivateMessage{}, err
	}
	header := models.PrivateMessageHeader{
		MessageHeader: models.MessageHeader{ID: id, GroupID: groupID, Timestamp: timestamp, Local: true, Read: true},
		HasText:       true,
	}
	if _, err := r.db.NamedExecContext(ctx, insertMessage, newMessageRow(contactID, header, &text)); err != nil {
		return models.PrivateMessage{}, fmt.Errorf("insert private message: %w", err)
	}
	return models.PrivateMessage{ID: id, GroupID: groupID, Timestamp: timestamp, Text: text}, nil
}

// ReceiveMessage stores a message delivered by the transport and announces it. text is only
// stored for private messages.
func (r *ConversationRepo) ReceiveMessage(ctx context.Context, contactID models.ContactID, m models.ConversationMessage, text *string) error {
	groupID, err := r.conversationGroup(ctx, contactID)
	if err != nil {
		return err
	}
	if _, ok := m.(models.PrivateMessageHeader); !ok {
		text = nil
	}
	row := newMessageRow(contactID, m, text)
	row.GroupID = groupID
	row.Local = false

	res, err := r.db.NamedExecContext(ctx, insertMessage+` ON CONFLICT (id) DO NOTHING`, row)
	if err != nil {
		return fmt.Errorf("insert received message: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		r.log.Debug("Ignoring duplicate message", "contact_id", contactID, "message_id", fmt.Sprintf("%x", row.ID))
		return nil
	}

	stored, err := row.toModel()
	if err != nil {
		return err
	}
	r.events.Publish(models.ConversationMessageReceivedEvent{ContactID: contactID, Message: stored})
	return nil
}

// MarkSent flags messages as handed to the transport.
func (r *ConversationRepo) MarkSent(ctx context.Context, contactID models.ContactID, ids []models.MessageID) error {
	if err := r.setFlag(ctx, "sent", contactID, ids); err != nil {
		return err
	}
	r.events.Publish(models.MessagesSentEvent{ContactID: contactID, MessageIDs: ids})
	return nil
}

// MarkAcked flags messages as received by the contact.
func (r *ConversationRepo) MarkAcked(ctx context.Context, contactID models.ContactID, ids []models.MessageID) error {
	if err := r.setFlag(ctx, "seen", contactID, ids); err != nil {
		return err
	}
	r.events.Publish(models.MessagesAckedEvent{ContactID: contactID, MessageIDs: ids})
	return nil
}

func (r *ConversationRepo) setFlag(ctx context.Context, column string, contactID models.ContactID, ids []models.MessageID) error {
	keys := make(pq.ByteaArray, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, id)
	}
	query := fmt.Sprintf(`UPDATE messages SET %s=TRUE WHERE contact_id=$1 AND id = ANY($2)`, column)
	if _, err := r.db.ExecContext(ctx, query, int(contactID), keys); err != nil {
		return fmt.Errorf("set %s flag: %w", column, err)
	}
	return nil
}

func (r *ConversationRepo) conversationGroup(ctx context.Context, contactID models.ContactID) (models.GroupID, error) {
	var groupID []byte
	err := r.db.GetContext(ctx, &groupID, `SELECT group_id FROM contacts WHERE id=$1`, int(contactID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNoSuchContact
	}
	if err != nil {
		return nil, fmt.Errorf("select group of contact %d: %w", contactID, err)
	}
	return groupID, nil
}

func (r *ConversationRepo) requireContact(ctx context.Context, q sqlx.QueryerContext, contactID models.ContactID) error {
	var exists bool
	if err := sqlx.GetContext(ctx, q, &exists, `SELECT EXISTS(SELECT 1 FROM contacts WHERE id=$1)`, int(contactID)); err != nil {
		return fmt.Errorf("check contact %d: %w", contactID, err)
	}
	if !exists {
		return models.ErrNoSuchContact
	}
	return nil
}

// privateMessageID hashes the message content with a random salt, so identical texts sent in
// the same millisecond still get distinct ids.
func privateMessageID(groupID models.GroupID, timestamp int64, text string) (models.MessageID, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate message salt: %w", err)
	}
	h, _ := blake2b.New256(nil)
	h.Write(groupID)
	_ = binary.Write(h, binary.BigEndian, timestamp)
	h.Write(salt)
	h.Write([]byte(text))
	return h.Sum(nil), nil
}
