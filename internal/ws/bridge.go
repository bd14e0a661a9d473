package ws

import (
	"github.com/smashchats/smash-web-client-sub000/internal/cache"
)

// Event is the envelope pushed to UI clients.
type Event struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id,omitempty"`
	Message        any    `json:"message,omitempty"`
	Conversation   any    `json:"conversation,omitempty"`
}

// Bridge subscribes the hub to the observable caches so every cache mutation
// reaches connected UI clients. The returned detach removes both
// subscriptions; call it before discarding the hub.
func Bridge(hub *Hub, messages *cache.MessageCache, conversations *cache.ConversationCache) (detach func()) {
	msgSub := messages.Subscribe(func(ev cache.MessageEvent) {
		out := Event{Type: string(ev.Type), ConversationID: ev.ConversationID}
		if ev.Message != nil {
			out.Message = ev.Message
		}
		hub.Broadcast(out)
	})
	convSub := conversations.Subscribe(func(ev cache.ConversationEvent) {
		out := Event{Type: string(ev.Type)}
		if ev.Conversation != nil {
			out.Conversation = ev.Conversation
			out.ConversationID = ev.Conversation.ID
		}
		hub.Broadcast(out)
	})
	return func() {
		messages.Unsubscribe(msgSub)
		conversations.Unsubscribe(convSub)
	}
}
