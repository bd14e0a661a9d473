package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/smashchats/smash-web-client-sub000/internal/domain"
)

type ConversationRepo struct {
	db *sql.DB
}

func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

var _ domain.ConversationRepository = (*ConversationRepo)(nil)

func (r *ConversationRepo) Put(ctx context.Context, c *domain.Conversation) error {
	participants, err := json.Marshal(c.Participants)
	if err != nil {
		return fmt.Errorf("marshal participants: %w", err)
	}
	var lastID any
	if c.LastMessage != nil {
		lastID = c.LastMessage.ID
	}
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO conversations (id, title, participants, type, last_message_id, unread_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			participants = excluded.participants,
			type = excluded.type,
			last_message_id = excluded.last_message_id,
			unread_count = excluded.unread_count,
			updated_at = excluded.updated_at
	`, c.ID, c.Title, string(participants), c.Type, lastID, c.UnreadCount, c.UpdatedAt); err != nil {
		return fmt.Errorf("put conversation: %w", err)
	}
	return nil
}

// conversationQuery joins the denormalized last message in, so status updates
// on the last message are always visible without a propagation step.
const conversationQuery = `
	SELECT c.id, c.title, c.participants, c.type, c.unread_count, c.updated_at,
		lm.id, lm.conversation_id, lm.sender, lm.timestamp, lm.status, lm.kind, lm.body,
		lm.media_mime, lm.media_payload, lm.media_alt, lm.media_aspect
	FROM conversations c
	LEFT JOIN messages lm ON lm.id = c.last_message_id
`

func (r *ConversationRepo) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	row := r.db.QueryRowContext(ctx, conversationQuery+` WHERE c.id = ?`, id)
	c, err := scanConversation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return c, nil
}

func (r *ConversationRepo) List(ctx context.Context) ([]*domain.Conversation, error) {
	rows, err := r.db.QueryContext(ctx, conversationQuery+` ORDER BY c.updated_at DESC, c.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var res []*domain.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r *ConversationRepo) MarkRead(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE conversations SET unread_count = 0 WHERE id = ?
	`, id); err != nil {
		return fmt.Errorf("mark conversation read: %w", err)
	}
	return nil
}

// RecomputeUnread derives the unread count from stored messages. A running
// tally drifts under racing status events; a count query cannot.
func (r *ConversationRepo) RecomputeUnread(ctx context.Context, id string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM messages
		WHERE conversation_id = ? AND sender <> ? AND status <> ?
	`, id, domain.SelfSender, domain.StatusRead).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `
		UPDATE conversations SET unread_count = ? WHERE id = ?
	`, count, id); err != nil {
		return 0, fmt.Errorf("store unread count: %w", err)
	}
	return count, nil
}

func scanConversation(row rowScanner) (*domain.Conversation, error) {
	c := &domain.Conversation{}
	var participants string
	var lmID, lmConv, lmSender, lmStatus, lmKind, lmBody sql.NullString
	var lmTS sql.NullInt64
	var mime, payload, alt sql.NullString
	var aspect sql.NullFloat64
	if err := row.Scan(
		&c.ID,
		&c.Title,
		&participants,
		&c.Type,
		&c.UnreadCount,
		&c.UpdatedAt,
		&lmID, &lmConv, &lmSender, &lmTS, &lmStatus, &lmKind, &lmBody,
		&mime, &payload, &alt, &aspect,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(participants), &c.Participants); err != nil {
		return nil, fmt.Errorf("unmarshal participants: %w", err)
	}
	if lmID.Valid {
		m := &domain.Message{
			ID:             lmID.String,
			ConversationID: lmConv.String,
			Sender:         lmSender.String,
			Timestamp:      lmTS.Int64,
			Status:         domain.MessageStatus(lmStatus.String),
			Kind:           domain.MessageKind(lmKind.String),
			Body:           lmBody.String,
		}
		if m.Kind == domain.KindMedia {
			m.Media = &domain.MediaContent{
				MimeType:    mime.String,
				Payload:     payload.String,
				Alt:         alt.String,
				AspectRatio: aspect.Float64,
			}
		}
		c.LastMessage = m
	}
	return c, nil
}
