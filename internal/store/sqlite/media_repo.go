package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/smashchats/smash-web-client-sub000/internal/domain"
)

type MediaRepo struct {
	db *sql.DB
}

func NewMediaRepo(db *sql.DB) *MediaRepo {
	return &MediaRepo{db: db}
}

var _ domain.MediaRepository = (*MediaRepo)(nil)

func (r *MediaRepo) Put(ctx context.Context, item *domain.MediaItem) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO media (type, mime_type, blob, timestamp, is_pending)
		VALUES (?, ?, ?, ?, ?)
	`, item.Type, item.MimeType, item.Blob, item.Timestamp, item.IsPending)
	if err != nil {
		return 0, fmt.Errorf("insert media: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	item.ID = id
	return id, nil
}

func (r *MediaRepo) GetByID(ctx context.Context, id int64) (*domain.MediaItem, error) {
	item := &domain.MediaItem{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, type, mime_type, blob, timestamp, is_pending FROM media WHERE id = ?
	`, id).Scan(&item.ID, &item.Type, &item.MimeType, &item.Blob, &item.Timestamp, &item.IsPending)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get media: %w", err)
	}
	return item, nil
}

// ListPending returns captured-but-unsent media, oldest first, so an
// interrupted capture-to-send flow can resume after a restart.
func (r *MediaRepo) ListPending(ctx context.Context) ([]*domain.MediaItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, mime_type, blob, timestamp, is_pending
		FROM media WHERE is_pending = 1
		ORDER BY timestamp ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list pending media: %w", err)
	}
	defer rows.Close()

	var res []*domain.MediaItem
	for rows.Next() {
		item := &domain.MediaItem{}
		if err := rows.Scan(&item.ID, &item.Type, &item.MimeType, &item.Blob, &item.Timestamp, &item.IsPending); err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		res = append(res, item)
	}
	return res, rows.Err()
}

func (r *MediaRepo) MarkSent(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE media SET is_pending = 0 WHERE id = ?
	`, id); err != nil {
		return fmt.Errorf("mark media sent: %w", err)
	}
	return nil
}

func (r *MediaRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM media WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	return nil
}
