// Package messenger declares the contract of the external decentralized
// messaging library. Key generation, peer resolution, transport, and
// encryption all live behind this interface; the client core only translates
// its events. internal/gateway is the sole consumer.
package messenger

import (
	"context"

	"github.com/smashchats/smash-web-client-sub000/internal/domain"
)

// Content is the payload handed to Send or carried by an inbound message.
type Content struct {
	Kind  domain.MessageKind
	Body  string
	Media *domain.MediaContent
}

// Receipt is returned by Send: the collaborator-assigned message id and the
// send timestamp in ms.
type Receipt struct {
	ID        string
	Timestamp int64
}

// IncomingMessage is an inbound text or media message from a peer.
type IncomingMessage struct {
	ID        string
	Peer      string
	Timestamp int64
	Content   Content
}

// StatusEvent reports a delivery-status change for a previously seen message.
type StatusEvent struct {
	Peer      string
	MessageID string
	Status    domain.MessageStatus
}

// ProfileEvent carries a peer's self-published profile.
type ProfileEvent struct {
	Peer        string
	Title       string
	Description string
	Avatar      string
}

// Events is the handler set a subscriber registers. Nil handlers are skipped.
type Events struct {
	OnMessage func(IncomingMessage)
	OnStatus  func(StatusEvent)
	OnProfile func(ProfileEvent)
}

// Messenger is the narrow surface of the messaging collaborator.
type Messenger interface {
	// CreateIdentity generates a fresh serialized device identity. The blob
	// is opaque to the client core.
	CreateIdentity(ctx context.Context) ([]byte, error)

	// SetEndpoint applies the relay rendezvous configuration. Re-applied on
	// every load from the persisted identity record.
	SetEndpoint(ep domain.EndpointConfig) error

	// Send transmits content to the peer and returns the assigned receipt.
	Send(ctx context.Context, peer string, content Content) (Receipt, error)

	// AckMessagesRead sends read acknowledgements for the given message ids.
	AckMessagesRead(ctx context.Context, peer string, messageIDs []string) error

	// Subscribe registers a handler set and returns a detach func. Multiple
	// subscriptions are independent.
	Subscribe(ev Events) (detach func())

	Close() error
}
