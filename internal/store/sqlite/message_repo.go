package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/smashchats/smash-web-client-sub000/internal/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

// Put inserts the message and bumps the owning conversation in one
// transaction. Re-delivery of an id already stored leaves the messages table
// untouched; the conversation bump is guarded by a timestamp comparison, so
// the whole call is idempotent.
func (r *MessageRepo) Put(ctx context.Context, m *domain.Message) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender, timestamp, status, kind, body, media_mime, media_payload, media_alt, media_aspect)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, m.ID, m.ConversationID, m.Sender, m.Timestamp, m.Status, m.Kind, m.Body,
		mediaMime(m), mediaPayload(m), mediaAlt(m), mediaAspect(m)); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	if err := bumpConversation(ctx, tx, m); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// bumpConversation updates the owning conversation's last-message pointer and
// updated-at when the message is at least as new as the current last message,
// creating the conversation when absent (first inbound from an unknown peer).
func bumpConversation(ctx context.Context, tx *sql.Tx, m *domain.Message) error {
	var lastTS sql.NullInt64
	err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(lm.timestamp, 0)
		FROM conversations c
		LEFT JOIN messages lm ON lm.id = c.last_message_id
		WHERE c.id = ?
	`, m.ConversationID).Scan(&lastTS)
	if err == sql.ErrNoRows {
		participants, err := json.Marshal([]string{domain.SelfSender, m.ConversationID})
		if err != nil {
			return fmt.Errorf("marshal participants: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO conversations (id, title, participants, type, last_message_id, unread_count, updated_at)
			VALUES (?, ?, ?, ?, ?, 0, ?)
		`, m.ConversationID, domain.DefaultTitle(m.ConversationID), string(participants),
			domain.ConversationDirect, m.ID, m.Timestamp); err != nil {
			return fmt.Errorf("create conversation: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("get last message timestamp: %w", err)
	}

	if m.Timestamp >= lastTS.Int64 {
		if _, err := tx.ExecContext(ctx, `
			UPDATE conversations SET last_message_id = ?, updated_at = ? WHERE id = ?
		`, m.ID, m.Timestamp, m.ConversationID); err != nil {
			return fmt.Errorf("bump conversation: %w", err)
		}
	}
	return nil
}

const messageColumns = `id, conversation_id, sender, timestamp, status, kind, body, media_mime, media_payload, media_alt, media_aspect`

func (r *MessageRepo) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+messageColumns+` FROM messages WHERE id = ?
	`, id)
	m, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return m, nil
}

func (r *MessageRepo) ListForConversation(ctx context.Context, conversationID string, limit int) ([]*domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE conversation_id = ?
		ORDER BY timestamp ASC
	`
	args := []any{conversationID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var res []*domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

// UpdateStatus is a no-op when the message is absent: status events may
// outrace the message they refer to. The conversation's denormalized last
// message is read through a join, so no propagation step is needed here.
func (r *MessageRepo) UpdateStatus(ctx context.Context, id string, status domain.MessageStatus) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE messages SET status = ? WHERE id = ?
	`, status, id); err != nil {
		return fmt.Errorf("update message status: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*domain.Message, error) {
	m := &domain.Message{}
	var mime, payload, alt sql.NullString
	var aspect sql.NullFloat64
	if err := row.Scan(
		&m.ID,
		&m.ConversationID,
		&m.Sender,
		&m.Timestamp,
		&m.Status,
		&m.Kind,
		&m.Body,
		&mime,
		&payload,
		&alt,
		&aspect,
	); err != nil {
		return nil, err
	}
	if m.Kind == domain.KindMedia {
		m.Media = &domain.MediaContent{
			MimeType:    mime.String,
			Payload:     payload.String,
			Alt:         alt.String,
			AspectRatio: aspect.Float64,
		}
	}
	return m, nil
}

func mediaMime(m *domain.Message) any {
	if m.Media == nil {
		return nil
	}
	return m.Media.MimeType
}

func mediaPayload(m *domain.Message) any {
	if m.Media == nil {
		return nil
	}
	return m.Media.Payload
}

func mediaAlt(m *domain.Message) any {
	if m.Media == nil {
		return nil
	}
	return m.Media.Alt
}

func mediaAspect(m *domain.Message) any {
	if m.Media == nil {
		return nil
	}
	return m.Media.AspectRatio
}
