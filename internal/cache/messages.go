// Package cache holds the in-memory observable stores the UI layer reads
// from. They are kept consistent with the durable store by the reconciler but
// only eventually: the durable store is re-read on conversation open and on
// restart, so a lagging cache write is never fatal.
package cache

import (
	"sort"
	"sync"

	"github.com/smashchats/smash-web-client-sub000/internal/domain"
)

type MessageEventType string

const (
	MessageAdded         MessageEventType = "message_added"
	MessageStatusChanged MessageEventType = "message_status"
	MessagesReset        MessageEventType = "messages_reset"
)

// MessageEvent is delivered to every subscriber after a cache mutation.
type MessageEvent struct {
	Type           MessageEventType
	ConversationID string
	Message        *domain.Message // nil for MessagesReset
}

// MessageCache is the per-conversation message list cache.
type MessageCache struct {
	mu      sync.RWMutex
	byConv  map[string][]*domain.Message
	subs    map[int]func(MessageEvent)
	nextSub int
}

func NewMessageCache() *MessageCache {
	return &MessageCache{
		byConv: make(map[string][]*domain.Message),
		subs:   make(map[int]func(MessageEvent)),
	}
}

// Subscribe registers an observer and returns its subscription id.
func (c *MessageCache) Subscribe(fn func(MessageEvent)) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSub++
	c.subs[c.nextSub] = fn
	return c.nextSub
}

func (c *MessageCache) Unsubscribe(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, id)
}

// SetMessages replaces the conversation's list wholesale, establishing the
// baseline after a load from the durable store.
func (c *MessageCache) SetMessages(conversationID string, msgs []*domain.Message) {
	c.mu.Lock()
	list := make([]*domain.Message, len(msgs))
	copy(list, msgs)
	sortMessages(list)
	c.byConv[conversationID] = list
	c.mu.Unlock()

	c.publish(MessageEvent{Type: MessagesReset, ConversationID: conversationID})
}

// AddMessage inserts unless an entry with the same id already exists, then
// re-sorts ascending by timestamp. Returns false on duplicate delivery.
func (c *MessageCache) AddMessage(conversationID string, m *domain.Message) bool {
	c.mu.Lock()
	for _, existing := range c.byConv[conversationID] {
		if existing.ID == m.ID {
			c.mu.Unlock()
			return false
		}
	}
	list := append(c.byConv[conversationID], m)
	sortMessages(list)
	c.byConv[conversationID] = list
	c.mu.Unlock()

	c.publish(MessageEvent{Type: MessageAdded, ConversationID: conversationID, Message: m})
	return true
}

// UpdateMessageStatus replaces the status in place; no-op when the
// conversation or message is absent.
func (c *MessageCache) UpdateMessageStatus(conversationID, messageID string, status domain.MessageStatus) bool {
	c.mu.Lock()
	var updated *domain.Message
	for _, m := range c.byConv[conversationID] {
		if m.ID == messageID {
			m.Status = status
			updated = m
			break
		}
	}
	c.mu.Unlock()

	if updated == nil {
		return false
	}
	c.publish(MessageEvent{Type: MessageStatusChanged, ConversationID: conversationID, Message: updated})
	return true
}

// Messages returns a snapshot of the conversation's list.
func (c *MessageCache) Messages(conversationID string) []*domain.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	list := c.byConv[conversationID]
	out := make([]*domain.Message, len(list))
	copy(out, list)
	return out
}

// Clear drops every cached list and publishes a reset per conversation so
// observers learn the data is gone. Used on logout.
func (c *MessageCache) Clear() {
	c.mu.Lock()
	cleared := make([]string, 0, len(c.byConv))
	for id := range c.byConv {
		cleared = append(cleared, id)
	}
	c.byConv = make(map[string][]*domain.Message)
	c.mu.Unlock()

	for _, id := range cleared {
		c.publish(MessageEvent{Type: MessagesReset, ConversationID: id})
	}
}

// publish fans the event out without holding the lock, so subscribers may
// read back from the cache.
func (c *MessageCache) publish(ev MessageEvent) {
	c.mu.RLock()
	fns := make([]func(MessageEvent), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.RUnlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func sortMessages(list []*domain.Message) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Timestamp < list[j].Timestamp
	})
}
