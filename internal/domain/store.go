package domain

import "context"

// Store is the durable client store consumed by the reconciliation layer.
// Implementations gate every call on a completed Open and return
// ErrStoreNotInitialized otherwise.
type Store interface {
	PutMessage(ctx context.Context, m *Message) error
	GetMessage(ctx context.Context, id string) (*Message, error)
	GetMessages(ctx context.Context, conversationID string, limit int) ([]*Message, error)
	UpdateMessageStatus(ctx context.Context, id string, status MessageStatus) error

	PutConversation(ctx context.Context, c *Conversation) error
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	GetAllConversations(ctx context.Context) ([]*Conversation, error)
	MarkConversationRead(ctx context.Context, id string) error
	RecomputeUnread(ctx context.Context, id string) (int, error)

	PutProfile(ctx context.Context, p *Profile) error
	GetProfile(ctx context.Context, peerID string) (*Profile, error)

	GetIdentity(ctx context.Context) (*Identity, error)
	SetIdentity(ctx context.Context, id *Identity) error

	PutMedia(ctx context.Context, item *MediaItem) (int64, error)
	GetMedia(ctx context.Context, id int64) (*MediaItem, error)
	ListPendingMedia(ctx context.Context) ([]*MediaItem, error)
	MarkMediaSent(ctx context.Context, id int64) error
	DeleteMedia(ctx context.Context, id int64) error

	// ClearAll wipes every table in one unit. Logout only.
	ClearAll(ctx context.Context) error
}
