package domain

import "context"

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	// Put inserts the message unless one with the same id already exists;
	// duplicate delivery is a no-op. The owning conversation's last-message
	// pointer and updated-at are bumped (or the conversation created) when
	// the message is newer than the conversation's current last message.
	Put(ctx context.Context, m *Message) error
	GetByID(ctx context.Context, id string) (*Message, error)
	// ListForConversation returns messages ordered ascending by timestamp,
	// capped at limit when limit > 0.
	ListForConversation(ctx context.Context, conversationID string, limit int) ([]*Message, error)
	// UpdateStatus is a no-op when the message is absent.
	UpdateStatus(ctx context.Context, id string, status MessageStatus) error
}

// ConversationRepository defines persistence operations for conversations.
type ConversationRepository interface {
	Put(ctx context.Context, c *Conversation) error
	GetByID(ctx context.Context, id string) (*Conversation, error)
	// List returns conversations ordered descending by updated-at.
	List(ctx context.Context) ([]*Conversation, error)
	MarkRead(ctx context.Context, id string) error
	// RecomputeUnread sets the unread count to the stored count of
	// peer-authored messages whose status is not read, and returns it.
	RecomputeUnread(ctx context.Context, id string) (int, error)
}

// ProfileRepository stores per-peer profiles, last-write-wins.
type ProfileRepository interface {
	Put(ctx context.Context, p *Profile) error
	GetByPeer(ctx context.Context, peerID string) (*Profile, error)
}

// IdentityRepository stores the single device session.
type IdentityRepository interface {
	Get(ctx context.Context) (*Identity, error)
	Set(ctx context.Context, id *Identity) error
}

// MediaRepository stores captured media blobs, including the pending markers
// used to resume an interrupted capture-to-send flow.
type MediaRepository interface {
	Put(ctx context.Context, item *MediaItem) (int64, error)
	GetByID(ctx context.Context, id int64) (*MediaItem, error)
	ListPending(ctx context.Context) ([]*MediaItem, error)
	MarkSent(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}
