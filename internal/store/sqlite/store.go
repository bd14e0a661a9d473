package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/smashchats/smash-web-client-sub000/internal/domain"
	"github.com/smashchats/smash-web-client-sub000/internal/security"
)

// Store is the durable client store: one SQLite handle opened once and shared
// for the life of the process. Every operation fails with
// domain.ErrStoreNotInitialized until Open has completed; callers are
// expected to Open before anything else and Close on logout or teardown.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	sealer *security.Sealer

	messages      *MessageRepo
	conversations *ConversationRepo
	profiles      *ProfileRepo
	identity      *IdentityRepo
	media         *MediaRepo
}

func NewStore(sealer *security.Sealer) *Store {
	return &Store{sealer: sealer}
}

// Open opens and migrates the database. Calling Open on an already-open
// store is an error; the handle is a process-wide singleton.
func (s *Store) Open(dsn string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return fmt.Errorf("store already open")
	}
	db, err := open(dsn)
	if err != nil {
		return err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return err
	}
	s.db = db
	s.messages = NewMessageRepo(db)
	s.conversations = NewConversationRepo(db)
	s.profiles = NewProfileRepo(db)
	s.identity = NewIdentityRepo(db)
	s.media = NewMediaRepo(db)
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return domain.ErrStoreNotInitialized
	}
	return nil
}

func (s *Store) PutMessage(ctx context.Context, m *domain.Message) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.messages.Put(ctx, m)
}

func (s *Store) GetMessage(ctx context.Context, id string) (*domain.Message, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.messages.GetByID(ctx, id)
}

func (s *Store) GetMessages(ctx context.Context, conversationID string, limit int) ([]*domain.Message, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.messages.ListForConversation(ctx, conversationID, limit)
}

func (s *Store) UpdateMessageStatus(ctx context.Context, id string, status domain.MessageStatus) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.messages.UpdateStatus(ctx, id, status)
}

func (s *Store) PutConversation(ctx context.Context, c *domain.Conversation) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.conversations.Put(ctx, c)
}

func (s *Store) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.conversations.GetByID(ctx, id)
}

func (s *Store) GetAllConversations(ctx context.Context) ([]*domain.Conversation, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.conversations.List(ctx)
}

func (s *Store) MarkConversationRead(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.conversations.MarkRead(ctx, id)
}

func (s *Store) RecomputeUnread(ctx context.Context, id string) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	return s.conversations.RecomputeUnread(ctx, id)
}

func (s *Store) PutProfile(ctx context.Context, p *domain.Profile) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.profiles.Put(ctx, p)
}

func (s *Store) GetProfile(ctx context.Context, peerID string) (*domain.Profile, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.profiles.GetByPeer(ctx, peerID)
}

// GetIdentity loads and unseals the device session, or returns (nil, nil)
// when none is stored.
func (s *Store) GetIdentity(ctx context.Context) (*domain.Identity, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	id, err := s.identity.Get(ctx)
	if err != nil || id == nil {
		return id, err
	}
	plain, err := s.sealer.Open(id.Serialized)
	if err != nil {
		return nil, fmt.Errorf("unseal identity: %w", err)
	}
	id.Serialized = plain
	return id, nil
}

// SetIdentity seals the serialized identity and stores the session row.
func (s *Store) SetIdentity(ctx context.Context, id *domain.Identity) error {
	if err := s.ready(); err != nil {
		return err
	}
	sealed, err := s.sealer.Seal(id.Serialized)
	if err != nil {
		return fmt.Errorf("seal identity: %w", err)
	}
	stored := *id
	stored.Serialized = sealed
	return s.identity.Set(ctx, &stored)
}

func (s *Store) PutMedia(ctx context.Context, item *domain.MediaItem) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	return s.media.Put(ctx, item)
}

func (s *Store) GetMedia(ctx context.Context, id int64) (*domain.MediaItem, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.media.GetByID(ctx, id)
}

func (s *Store) ListPendingMedia(ctx context.Context) ([]*domain.MediaItem, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.media.ListPending(ctx)
}

func (s *Store) MarkMediaSent(ctx context.Context, id int64) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.media.MarkSent(ctx, id)
}

func (s *Store) DeleteMedia(ctx context.Context, id int64) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.media.Delete(ctx, id)
}

// ClearAll wipes messages, conversations, profiles, media, and the identity
// in one transaction. Used only on logout.
func (s *Store) ClearAll(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"messages", "conversations", "profiles", "media", "identity"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

var _ domain.Store = (*Store)(nil)
