package cache

import (
	"sort"
	"sync"

	"github.com/smashchats/smash-web-client-sub000/internal/domain"
)

type ConversationEventType string

const (
	ConversationUpdated ConversationEventType = "conversation_updated"
	ConversationsReset  ConversationEventType = "conversations_reset"
)

type ConversationEvent struct {
	Type         ConversationEventType
	Conversation *domain.Conversation // nil for ConversationsReset
}

// ConversationCache keeps the conversation list sorted descending by
// updated-at. The sort happens under the lock on every mutation, so observers
// never see a stale ordering window. Ties keep insertion order (stable sort).
type ConversationCache struct {
	mu      sync.RWMutex
	list    []*domain.Conversation
	subs    map[int]func(ConversationEvent)
	nextSub int
}

func NewConversationCache() *ConversationCache {
	return &ConversationCache{
		subs: make(map[int]func(ConversationEvent)),
	}
}

func (c *ConversationCache) Subscribe(fn func(ConversationEvent)) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSub++
	c.subs[c.nextSub] = fn
	return c.nextSub
}

func (c *ConversationCache) Unsubscribe(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, id)
}

// SetConversations replaces the list wholesale after a load.
func (c *ConversationCache) SetConversations(convs []*domain.Conversation) {
	c.mu.Lock()
	c.list = make([]*domain.Conversation, len(convs))
	copy(c.list, convs)
	sortConversations(c.list)
	c.mu.Unlock()

	c.publish(ConversationEvent{Type: ConversationsReset})
}

// Upsert replaces the entry with the same id, or appends, then re-sorts.
func (c *ConversationCache) Upsert(conv *domain.Conversation) {
	c.mu.Lock()
	replaced := false
	for i, existing := range c.list {
		if existing.ID == conv.ID {
			c.list[i] = conv
			replaced = true
			break
		}
	}
	if !replaced {
		c.list = append(c.list, conv)
	}
	sortConversations(c.list)
	c.mu.Unlock()

	c.publish(ConversationEvent{Type: ConversationUpdated, Conversation: conv})
}

// MarkRead zeroes the cached unread count; no-op when the id is unknown.
func (c *ConversationCache) MarkRead(id string) {
	c.mu.Lock()
	var updated *domain.Conversation
	for _, conv := range c.list {
		if conv.ID == id {
			conv.UnreadCount = 0
			updated = conv
			break
		}
	}
	c.mu.Unlock()

	if updated != nil {
		c.publish(ConversationEvent{Type: ConversationUpdated, Conversation: updated})
	}
}

func (c *ConversationCache) Get(id string) *domain.Conversation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, conv := range c.list {
		if conv.ID == id {
			return conv
		}
	}
	return nil
}

// Snapshot returns the sorted list.
func (c *ConversationCache) Snapshot() []*domain.Conversation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*domain.Conversation, len(c.list))
	copy(out, c.list)
	return out
}

// Clear drops the list and tells observers. Used on logout.
func (c *ConversationCache) Clear() {
	c.mu.Lock()
	c.list = nil
	c.mu.Unlock()

	c.publish(ConversationEvent{Type: ConversationsReset})
}

func (c *ConversationCache) publish(ev ConversationEvent) {
	c.mu.RLock()
	fns := make([]func(ConversationEvent), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.RUnlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func sortConversations(list []*domain.Conversation) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].UpdatedAt > list[j].UpdatedAt
	})
}
