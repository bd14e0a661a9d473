package loopback_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smashchats/smash-web-client-sub000/internal/domain"
	"github.com/smashchats/smash-web-client-sub000/internal/messenger"
	"github.com/smashchats/smash-web-client-sub000/internal/messenger/loopback"
)

type collector struct {
	mu       sync.Mutex
	messages []messenger.IncomingMessage
	statuses []messenger.StatusEvent
}

func (c *collector) events() messenger.Events {
	return messenger.Events{
		OnMessage: func(m messenger.IncomingMessage) {
			c.mu.Lock()
			c.messages = append(c.messages, m)
			c.mu.Unlock()
		},
		OnStatus: func(ev messenger.StatusEvent) {
			c.mu.Lock()
			c.statuses = append(c.statuses, ev)
			c.mu.Unlock()
		},
	}
}

func (c *collector) statusCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.statuses)
}

func (c *collector) messageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func TestSendConfirmsDelivery(t *testing.T) {
	lb := loopback.New()
	lb.Latency = time.Millisecond
	c := &collector{}
	detach := lb.Subscribe(c.events())
	defer detach()

	receipt, err := lb.Send(context.Background(), loopback.Peer, messenger.Content{Kind: domain.KindText, Body: "hi"})
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.ID)

	assert.Eventually(t, func() bool { return c.statusCount() == 1 }, time.Second, time.Millisecond)
	c.mu.Lock()
	assert.Equal(t, receipt.ID, c.statuses[0].MessageID)
	assert.Equal(t, domain.StatusDelivered, c.statuses[0].Status)
	c.mu.Unlock()
	assert.Equal(t, 0, c.messageCount())
}

func TestEcho(t *testing.T) {
	lb := loopback.New()
	lb.Latency = time.Millisecond
	lb.Echo = true
	c := &collector{}
	defer lb.Subscribe(c.events())()

	_, err := lb.Send(context.Background(), loopback.Peer, messenger.Content{Kind: domain.KindText, Body: "marco"})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return c.messageCount() == 1 }, time.Second, time.Millisecond)
	c.mu.Lock()
	assert.Equal(t, "marco", c.messages[0].Content.Body)
	assert.Equal(t, loopback.Peer, c.messages[0].Peer)
	c.mu.Unlock()
}

func TestAckRecording(t *testing.T) {
	lb := loopback.New()
	require.NoError(t, lb.AckMessagesRead(context.Background(), loopback.Peer, []string{"m1", "m2"}))
	assert.Equal(t, []string{"m1", "m2"}, lb.Acked(loopback.Peer))
}

func TestClose(t *testing.T) {
	lb := loopback.New()
	lb.Subscribe(messenger.Events{})
	require.NoError(t, lb.Close())

	assert.Equal(t, 0, lb.SubscriberCount())
	_, err := lb.Send(context.Background(), loopback.Peer, messenger.Content{Kind: domain.KindText, Body: "hi"})
	assert.Error(t, err)
	assert.Error(t, lb.AckMessagesRead(context.Background(), loopback.Peer, []string{"m1"}))
}

func TestCreateIdentity(t *testing.T) {
	lb := loopback.New()
	a, err := lb.CreateIdentity(context.Background())
	require.NoError(t, err)
	b, err := lb.CreateIdentity(context.Background())
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
