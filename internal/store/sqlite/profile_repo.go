package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/smashchats/smash-web-client-sub000/internal/domain"
)

type ProfileRepo struct {
	db *sql.DB
}

func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

var _ domain.ProfileRepository = (*ProfileRepo)(nil)

// Put stores a peer profile, last-write-wins.
func (r *ProfileRepo) Put(ctx context.Context, p *domain.Profile) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (peer_id, title, description, avatar, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(peer_id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			avatar = excluded.avatar,
			updated_at = excluded.updated_at
	`, p.PeerID, p.Title, p.Description, p.Avatar, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("put profile: %w", err)
	}
	return nil
}

func (r *ProfileRepo) GetByPeer(ctx context.Context, peerID string) (*domain.Profile, error) {
	p := &domain.Profile{}
	err := r.db.QueryRowContext(ctx, `
		SELECT peer_id, title, description, avatar FROM profiles WHERE peer_id = ?
	`, peerID).Scan(&p.PeerID, &p.Title, &p.Description, &p.Avatar)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}
