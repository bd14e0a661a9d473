package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/smashchats/smash-web-client-sub000/internal/cache"
	"github.com/smashchats/smash-web-client-sub000/internal/domain"
)

// Reconciler folds message and status events into conversation-level
// aggregates, keeping the durable store and the in-memory caches consistent.
// It never surfaces inbound-event failures to the user: background errors are
// logged by callers and the event is dropped.
type Reconciler struct {
	log           *slog.Logger
	store         domain.Store
	messages      *cache.MessageCache
	conversations *cache.ConversationCache
}

func NewReconciler(
	log *slog.Logger,
	store domain.Store,
	messages *cache.MessageCache,
	conversations *cache.ConversationCache,
) *Reconciler {
	return &Reconciler{
		log:           log,
		store:         store,
		messages:      messages,
		conversations: conversations,
	}
}

// ApplyOutgoing persists an optimistic local message and folds it into the
// conversation aggregates. Local sends never bump the unread count.
func (r *Reconciler) ApplyOutgoing(ctx context.Context, m *domain.Message) (*domain.Conversation, error) {
	if err := r.store.PutMessage(ctx, m); err != nil {
		return nil, fmt.Errorf("persist outgoing message: %w", err)
	}
	r.messages.AddMessage(m.ConversationID, m)
	return r.refreshConversation(ctx, m.ConversationID)
}

// ApplyIncoming folds a peer-authored message: persist (idempotent on
// duplicate delivery), recompute the unread count against the store, update
// the caches. Exactly one conversation results from any burst of messages
// for the same unknown peer.
func (r *Reconciler) ApplyIncoming(ctx context.Context, m *domain.Message) (*domain.Conversation, error) {
	if err := r.store.PutMessage(ctx, m); err != nil {
		return nil, fmt.Errorf("persist incoming message: %w", err)
	}
	if _, err := r.store.RecomputeUnread(ctx, m.ConversationID); err != nil {
		return nil, fmt.Errorf("recompute unread: %w", err)
	}
	r.messages.AddMessage(m.ConversationID, m)
	return r.refreshConversation(ctx, m.ConversationID)
}

// ApplyStatus validates a status event against the state machine and applies
// it. Unknown message ids and disallowed transitions are dropped without
// error: status events race with delivery and may arrive stale or out of
// order, and prior state wins over an invalid write.
func (r *Reconciler) ApplyStatus(ctx context.Context, messageID string, status domain.MessageStatus) (*domain.Message, bool, error) {
	m, err := r.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, false, fmt.Errorf("lookup message: %w", err)
	}
	if m == nil {
		// The message may simply not be persisted yet.
		r.log.Debug("status event for unknown message dropped", "message_id", messageID, "status", status)
		return nil, false, nil
	}
	if !domain.CanTransition(m.Status, status) {
		r.log.Warn("invalid status transition ignored",
			"message_id", messageID, "from", m.Status, "to", status)
		return nil, false, nil
	}

	if err := r.store.UpdateMessageStatus(ctx, messageID, status); err != nil {
		return nil, false, fmt.Errorf("update status: %w", err)
	}
	m.Status = status
	r.messages.UpdateMessageStatus(m.ConversationID, messageID, status)

	if status == domain.StatusRead && !m.FromSelf() {
		if _, err := r.store.RecomputeUnread(ctx, m.ConversationID); err != nil {
			return nil, false, fmt.Errorf("recompute unread: %w", err)
		}
	}
	if _, err := r.refreshConversation(ctx, m.ConversationID); err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// ApplyProfile stores a peer profile, last-write-wins. Conversation titles
// are never rewritten from profiles; display layers merge at read time via
// domain.DisplayTitle.
func (r *Reconciler) ApplyProfile(ctx context.Context, p *domain.Profile) error {
	if err := r.store.PutProfile(ctx, p); err != nil {
		return fmt.Errorf("persist profile: %w", err)
	}
	return nil
}

// MarkConversationRead zeroes the unread count durably and in the cache.
func (r *Reconciler) MarkConversationRead(ctx context.Context, conversationID string) error {
	if err := r.store.MarkConversationRead(ctx, conversationID); err != nil {
		return err
	}
	r.conversations.MarkRead(conversationID)
	return nil
}

// LoadConversations re-reads the durable conversation list into the cache.
func (r *Reconciler) LoadConversations(ctx context.Context) ([]*domain.Conversation, error) {
	convs, err := r.store.GetAllConversations(ctx)
	if err != nil {
		return nil, err
	}
	r.conversations.SetConversations(convs)
	return convs, nil
}

// LoadMessages re-reads a conversation's messages into the cache.
func (r *Reconciler) LoadMessages(ctx context.Context, conversationID string, limit int) ([]*domain.Message, error) {
	msgs, err := r.store.GetMessages(ctx, conversationID, limit)
	if err != nil {
		return nil, err
	}
	r.messages.SetMessages(conversationID, msgs)
	return msgs, nil
}

// Reset clears the in-memory caches. Used on logout.
func (r *Reconciler) Reset() {
	r.messages.Clear()
	r.conversations.Clear()
}

// refreshConversation re-reads the conversation from the store (the source of
// truth for the denormalized aggregate) and upserts it into the cache, which
// re-sorts the list synchronously.
func (r *Reconciler) refreshConversation(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	conv, err := r.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("refresh conversation: %w", err)
	}
	if conv == nil {
		return nil, domain.ErrConversationNotFound
	}
	r.conversations.Upsert(conv)
	return conv, nil
}
