// Package loopback is a development implementation of the messenger
// contract: a simulated peer that confirms deliveries and optionally echoes
// text back. It stands in for the real messaging library in dev mode and in
// tests, much like the mock relay the web client was developed against.
package loopback

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smashchats/smash-web-client-sub000/internal/domain"
	"github.com/smashchats/smash-web-client-sub000/internal/messenger"
)

// Peer is the simulated remote party's id.
const Peer = "did:sc:loopback-peer"

type Messenger struct {
	mu       sync.Mutex
	subs     map[int]messenger.Events
	nextSub  int
	endpoint domain.EndpointConfig
	closed   bool

	// Echo makes the simulated peer reply to every text sent to it.
	Echo bool
	// Latency delays simulated delivery confirmations and echoes.
	Latency time.Duration

	// Acked records read acknowledgements by peer, for tests.
	acked map[string][]string
}

var _ messenger.Messenger = (*Messenger)(nil)

func New() *Messenger {
	return &Messenger{
		subs:    make(map[int]messenger.Events),
		acked:   make(map[string][]string),
		Latency: 50 * time.Millisecond,
	}
}

func (l *Messenger) CreateIdentity(ctx context.Context) ([]byte, error) {
	blob := make([]byte, 64)
	if _, err := rand.Read(blob); err != nil {
		return nil, err
	}
	return blob, nil
}

func (l *Messenger) SetEndpoint(ep domain.EndpointConfig) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.endpoint = ep
	return nil
}

func (l *Messenger) Send(ctx context.Context, peer string, content messenger.Content) (messenger.Receipt, error) {
	receipt := messenger.Receipt{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UnixMilli(),
	}

	l.mu.Lock()
	closed := l.closed
	echo := l.Echo
	latency := l.Latency
	l.mu.Unlock()
	if closed {
		return messenger.Receipt{}, context.Canceled
	}

	time.AfterFunc(latency, func() {
		l.EmitStatus(messenger.StatusEvent{
			Peer:      peer,
			MessageID: receipt.ID,
			Status:    domain.StatusDelivered,
		})
		if echo && content.Kind == domain.KindText {
			l.EmitMessage(messenger.IncomingMessage{
				ID:        uuid.NewString(),
				Peer:      peer,
				Timestamp: time.Now().UnixMilli(),
				Content:   messenger.Content{Kind: domain.KindText, Body: content.Body},
			})
		}
	})

	return receipt, nil
}

func (l *Messenger) AckMessagesRead(ctx context.Context, peer string, messageIDs []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return context.Canceled
	}
	l.acked[peer] = append(l.acked[peer], messageIDs...)
	return nil
}

// Acked returns the read acknowledgements recorded for a peer.
func (l *Messenger) Acked(peer string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.acked[peer]))
	copy(out, l.acked[peer])
	return out
}

func (l *Messenger) Subscribe(ev messenger.Events) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextSub++
	id := l.nextSub
	l.subs[id] = ev
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs, id)
	}
}

// SubscriberCount reports active subscriptions, for leak assertions.
func (l *Messenger) SubscriberCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}

func (l *Messenger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.subs = make(map[int]messenger.Events)
	return nil
}

// EmitMessage injects an inbound message, as if delivered from the network.
func (l *Messenger) EmitMessage(msg messenger.IncomingMessage) {
	for _, ev := range l.snapshot() {
		if ev.OnMessage != nil {
			ev.OnMessage(msg)
		}
	}
}

// EmitStatus injects a delivery-status event.
func (l *Messenger) EmitStatus(ev messenger.StatusEvent) {
	for _, sub := range l.snapshot() {
		if sub.OnStatus != nil {
			sub.OnStatus(ev)
		}
	}
}

// EmitProfile injects a peer profile event.
func (l *Messenger) EmitProfile(ev messenger.ProfileEvent) {
	for _, sub := range l.snapshot() {
		if sub.OnProfile != nil {
			sub.OnProfile(ev)
		}
	}
}

func (l *Messenger) snapshot() []messenger.Events {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]messenger.Events, 0, len(l.subs))
	for _, ev := range l.subs {
		out = append(out, ev)
	}
	return out
}
