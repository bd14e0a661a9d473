// Package gateway is the sole integration point with the external messaging
// collaborator. It translates collaborator events into the internal model,
// exposes send/ack/read-through operations, and fans events out to any number
// of subscribers.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/smashchats/smash-web-client-sub000/internal/domain"
	"github.com/smashchats/smash-web-client-sub000/internal/messenger"
	"github.com/smashchats/smash-web-client-sub000/internal/service"
)

type Gateway struct {
	log   *slog.Logger
	store domain.Store
	rec   *service.Reconciler
	msgr  messenger.Messenger

	mu      sync.Mutex
	session *domain.Identity
	detach  func()

	nextSub    int
	msgSubs    map[int]func(*domain.Message)
	convSubs   map[int]func(*domain.Conversation)
	statusSubs map[int]func(conversationID, messageID string, status domain.MessageStatus)
}

var _ service.AckSender = (*Gateway)(nil)

func New(log *slog.Logger, store domain.Store, rec *service.Reconciler, msgr messenger.Messenger) *Gateway {
	return &Gateway{
		log:        log,
		store:      store,
		rec:        rec,
		msgr:       msgr,
		msgSubs:    make(map[int]func(*domain.Message)),
		convSubs:   make(map[int]func(*domain.Conversation)),
		statusSubs: make(map[int]func(string, string, domain.MessageStatus)),
	}
}

// Init binds the gateway to an active device session: applies the session's
// relay endpoint and attaches collaborator listeners. Safe to call again with
// a new session; the previous session's listeners are detached first so they
// cannot leak across identity changes.
func (g *Gateway) Init(ctx context.Context, session *domain.Identity) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	// Apply the endpoint before touching the old session's listeners: a
	// failed re-init must leave the previous session fully attached.
	if err := g.msgr.SetEndpoint(session.Endpoint); err != nil {
		return fmt.Errorf("apply relay endpoint: %w", err)
	}

	if g.detach != nil {
		g.detach()
		g.detach = nil
	}

	g.detach = g.msgr.Subscribe(messenger.Events{
		OnMessage: g.handleIncoming,
		OnStatus:  g.handleStatus,
		OnProfile: g.handleProfile,
	})
	g.session = session
	return nil
}

// Close detaches collaborator listeners. The durable store stays with its
// owner; a full logout goes through Logout.
func (g *Gateway) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.detach != nil {
		g.detach()
		g.detach = nil
	}
	g.session = nil
}

// Logout tears the session down: listeners detached, caches reset, and every
// durable table cleared in one unit.
func (g *Gateway) Logout(ctx context.Context) error {
	g.Close()
	g.rec.Reset()
	if err := g.store.ClearAll(ctx); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}
	return nil
}

func (g *Gateway) ready() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session == nil {
		return domain.ErrGatewayNotInitialized
	}
	return nil
}

// SendMessage hands content to the collaborator and records the resulting
// message optimistically with status sending, returning it for immediate
// display. Sending into a conversation that does not exist is a caller error.
func (g *Gateway) SendMessage(ctx context.Context, conversationID string, content messenger.Content) (*domain.Message, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	conv, err := g.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, domain.ErrConversationNotFound
	}

	receipt, err := g.msgr.Send(ctx, conversationID, content)
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}

	m := &domain.Message{
		ID:             receipt.ID,
		ConversationID: conversationID,
		Sender:         domain.SelfSender,
		Timestamp:      receipt.Timestamp,
		Status:         domain.StatusSending,
		Kind:           content.Kind,
		Body:           content.Body,
		Media:          content.Media,
	}
	updatedConv, err := g.rec.ApplyOutgoing(ctx, m)
	if err != nil {
		return nil, err
	}
	g.publishMessage(m)
	g.publishConversation(updatedConv)
	return m, nil
}

// AddPeerConversation creates (or returns) the conversation for a pasted peer
// descriptor.
func (g *Gateway) AddPeerConversation(ctx context.Context, peerID string) (*domain.Conversation, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	if peerID == "" {
		return nil, domain.ErrInvalidInput
	}
	existing, err := g.store.GetConversation(ctx, peerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	// Adding a peer is a mutation like any other: it moves the conversation
	// to the top of the list.
	conv := &domain.Conversation{
		ID:           peerID,
		Title:        domain.DefaultTitle(peerID),
		Participants: []string{domain.SelfSender, peerID},
		Type:         domain.ConversationDirect,
		UpdatedAt:    time.Now().UnixMilli(),
	}
	if err := g.store.PutConversation(ctx, conv); err != nil {
		return nil, err
	}
	if _, err := g.rec.LoadConversations(ctx); err != nil {
		return nil, err
	}
	g.publishConversation(conv)
	return conv, nil
}

// GetMessages reads through to the durable store.
func (g *Gateway) GetMessages(ctx context.Context, conversationID string, limit int) ([]*domain.Message, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	return g.rec.LoadMessages(ctx, conversationID, limit)
}

// GetConversations reads through to the durable store.
func (g *Gateway) GetConversations(ctx context.Context) ([]*domain.Conversation, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	return g.rec.LoadConversations(ctx)
}

// MarkMessageAsRead delegates to the collaborator's acknowledgement
// primitive. An unknown message id is a benign no-op: the ack flow tolerates
// races with delivery.
func (g *Gateway) MarkMessageAsRead(ctx context.Context, messageID string) error {
	if err := g.ready(); err != nil {
		return err
	}
	m, err := g.store.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if m == nil {
		return nil
	}
	return g.msgr.AckMessagesRead(ctx, m.ConversationID, []string{messageID})
}

// OnMessageReceived registers a subscriber; the returned id unsubscribes via
// OffMessageReceived.
func (g *Gateway) OnMessageReceived(fn func(*domain.Message)) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextSub++
	g.msgSubs[g.nextSub] = fn
	return g.nextSub
}

func (g *Gateway) OffMessageReceived(id int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.msgSubs, id)
}

func (g *Gateway) OnConversationUpdated(fn func(*domain.Conversation)) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextSub++
	g.convSubs[g.nextSub] = fn
	return g.nextSub
}

func (g *Gateway) OffConversationUpdated(id int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.convSubs, id)
}

func (g *Gateway) OnMessageStatusUpdated(fn func(conversationID, messageID string, status domain.MessageStatus)) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextSub++
	g.statusSubs[g.nextSub] = fn
	return g.nextSub
}

func (g *Gateway) OffMessageStatusUpdated(id int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.statusSubs, id)
}

// handleIncoming translates an inbound collaborator message. Failures here
// are logged only; inbound-event errors never interrupt the user.
func (g *Gateway) handleIncoming(ev messenger.IncomingMessage) {
	ctx := context.Background()
	m := &domain.Message{
		ID:             ev.ID,
		ConversationID: ev.Peer,
		Sender:         ev.Peer,
		Timestamp:      ev.Timestamp,
		Status:         domain.StatusDelivered,
		Kind:           ev.Content.Kind,
		Body:           ev.Content.Body,
		Media:          ev.Content.Media,
	}
	conv, err := g.rec.ApplyIncoming(ctx, m)
	if err != nil {
		g.log.Error("incoming message reconciliation failed", "message_id", ev.ID, "peer", ev.Peer, "err", err)
		return
	}
	g.publishMessage(m)
	g.publishConversation(conv)
}

func (g *Gateway) handleStatus(ev messenger.StatusEvent) {
	ctx := context.Background()
	m, applied, err := g.rec.ApplyStatus(ctx, ev.MessageID, ev.Status)
	if err != nil {
		g.log.Error("status event reconciliation failed", "message_id", ev.MessageID, "err", err)
		return
	}
	if !applied {
		return
	}
	g.publishStatus(m.ConversationID, m.ID, m.Status)
	if conv, err := g.store.GetConversation(ctx, m.ConversationID); err == nil && conv != nil {
		g.publishConversation(conv)
	}
}

func (g *Gateway) handleProfile(ev messenger.ProfileEvent) {
	ctx := context.Background()
	p := &domain.Profile{
		PeerID:      ev.Peer,
		Title:       ev.Title,
		Description: ev.Description,
		Avatar:      ev.Avatar,
	}
	if err := g.rec.ApplyProfile(ctx, p); err != nil {
		g.log.Error("profile event reconciliation failed", "peer", ev.Peer, "err", err)
	}
}

func (g *Gateway) publishMessage(m *domain.Message) {
	for _, fn := range g.messageSubscribers() {
		fn(m)
	}
}

func (g *Gateway) publishConversation(c *domain.Conversation) {
	g.mu.Lock()
	fns := make([]func(*domain.Conversation), 0, len(g.convSubs))
	for _, fn := range g.convSubs {
		fns = append(fns, fn)
	}
	g.mu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}

func (g *Gateway) publishStatus(conversationID, messageID string, status domain.MessageStatus) {
	g.mu.Lock()
	fns := make([]func(string, string, domain.MessageStatus), 0, len(g.statusSubs))
	for _, fn := range g.statusSubs {
		fns = append(fns, fn)
	}
	g.mu.Unlock()
	for _, fn := range fns {
		fn(conversationID, messageID, status)
	}
}

func (g *Gateway) messageSubscribers() []func(*domain.Message) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fns := make([]func(*domain.Message), 0, len(g.msgSubs))
	for _, fn := range g.msgSubs {
		fns = append(fns, fn)
	}
	return fns
}
