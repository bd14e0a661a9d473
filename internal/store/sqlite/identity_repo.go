package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/smashchats/smash-web-client-sub000/internal/domain"
)

// IdentityRepo stores the single device session row. The serialized identity
// arrives here already sealed; this repo never sees plaintext key material.
type IdentityRepo struct {
	db *sql.DB
}

func NewIdentityRepo(db *sql.DB) *IdentityRepo {
	return &IdentityRepo{db: db}
}

func (r *IdentityRepo) Get(ctx context.Context) (*domain.Identity, error) {
	var sealed []byte
	var profileJSON, endpointJSON string
	var createdAt int64
	err := r.db.QueryRowContext(ctx, `
		SELECT serialized, profile, endpoint, created_at FROM identity WHERE id = 1
	`).Scan(&sealed, &profileJSON, &endpointJSON, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get identity: %w", err)
	}

	id := &domain.Identity{Serialized: sealed, CreatedAt: createdAt}
	if err := json.Unmarshal([]byte(profileJSON), &id.Profile); err != nil {
		return nil, fmt.Errorf("unmarshal identity profile: %w", err)
	}
	if err := json.Unmarshal([]byte(endpointJSON), &id.Endpoint); err != nil {
		return nil, fmt.Errorf("unmarshal identity endpoint: %w", err)
	}
	return id, nil
}

func (r *IdentityRepo) Set(ctx context.Context, id *domain.Identity) error {
	profileJSON, err := json.Marshal(id.Profile)
	if err != nil {
		return fmt.Errorf("marshal identity profile: %w", err)
	}
	endpointJSON, err := json.Marshal(id.Endpoint)
	if err != nil {
		return fmt.Errorf("marshal identity endpoint: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO identity (id, serialized, profile, endpoint, created_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			serialized = excluded.serialized,
			profile = excluded.profile,
			endpoint = excluded.endpoint
	`, id.Serialized, string(profileJSON), string(endpointJSON), id.CreatedAt); err != nil {
		return fmt.Errorf("set identity: %w", err)
	}
	return nil
}
