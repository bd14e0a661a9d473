package service_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smashchats/smash-web-client-sub000/internal/domain"
	"github.com/smashchats/smash-web-client-sub000/internal/service"
)

// recordingAck counts acknowledgements and can be made to fail a number of
// times before succeeding.
type recordingAck struct {
	mu       sync.Mutex
	calls    []string
	failures int
}

func (a *recordingAck) MarkMessageAsRead(ctx context.Context, messageID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, messageID)
	if a.failures > 0 {
		a.failures--
		return fmt.Errorf("relay unreachable")
	}
	return nil
}

func (a *recordingAck) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

func newTracker(t *testing.T, f *fixture, ack service.AckSender) *service.ReceiptTracker {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return service.NewReceiptTracker(log, f.store, f.rec, ack, 20*time.Millisecond, 20*time.Millisecond)
}

func messageIsRead(f *fixture, id string) func() bool {
	return func() bool {
		m, err := f.store.GetMessage(context.Background(), id)
		return err == nil && m != nil && m.Status == domain.StatusRead
	}
}

func TestReceiptTrackerAcks(t *testing.T) {
	f := newFixture(t)
	ack := &recordingAck{}
	tracker := newTracker(t, f, ack)
	ctx := context.Background()

	_, err := f.rec.ApplyIncoming(ctx, incoming("in1", "peer-a", 100))
	require.NoError(t, err)

	tracker.OpenView("peer-a")
	tracker.NoteInteraction("peer-a")
	tracker.ReportVisibility("peer-a", "in1", 0.9, true)

	assert.Eventually(t, messageIsRead(f, "in1"), time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, ack.callCount())
	assert.Equal(t, 0, f.conversations.Get("peer-a").UnreadCount)
}

func TestReceiptTrackerRequiresInteraction(t *testing.T) {
	f := newFixture(t)
	ack := &recordingAck{}
	tracker := newTracker(t, f, ack)
	ctx := context.Background()

	_, err := f.rec.ApplyIncoming(ctx, incoming("in1", "peer-a", 100))
	require.NoError(t, err)

	tracker.OpenView("peer-a")
	tracker.ReportVisibility("peer-a", "in1", 1.0, true)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, ack.callCount())

	m, err := f.store.GetMessage(ctx, "in1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, m.Status)
}

func TestReceiptTrackerVisibilityGates(t *testing.T) {
	f := newFixture(t)
	ack := &recordingAck{}
	tracker := newTracker(t, f, ack)
	ctx := context.Background()

	_, err := f.rec.ApplyIncoming(ctx, incoming("in1", "peer-a", 100))
	require.NoError(t, err)

	tracker.OpenView("peer-a")
	tracker.NoteInteraction("peer-a")

	t.Run("BelowRatioNeverArms", func(t *testing.T) {
		tracker.ReportVisibility("peer-a", "in1", 0.3, true)
		time.Sleep(100 * time.Millisecond)
		assert.Equal(t, 0, ack.callCount())
	})

	t.Run("LeavingViewportDisarms", func(t *testing.T) {
		tracker.ReportVisibility("peer-a", "in1", 0.9, true)
		tracker.ReportVisibility("peer-a", "in1", 0.0, false)
		time.Sleep(100 * time.Millisecond)
		assert.Equal(t, 0, ack.callCount())
	})

	t.Run("ClosingViewDisarms", func(t *testing.T) {
		tracker.ReportVisibility("peer-a", "in1", 0.9, true)
		tracker.CloseView("peer-a")
		time.Sleep(100 * time.Millisecond)
		assert.Equal(t, 0, ack.callCount())
	})
}

func TestReceiptTrackerSkipsOwnAndRead(t *testing.T) {
	f := newFixture(t)
	ack := &recordingAck{}
	tracker := newTracker(t, f, ack)
	ctx := context.Background()

	_, err := f.rec.ApplyOutgoing(ctx, outgoing("own1", "peer-a", 100))
	require.NoError(t, err)
	_, err = f.rec.ApplyIncoming(ctx, incoming("in1", "peer-a", 200))
	require.NoError(t, err)
	_, applied, err := f.rec.ApplyStatus(ctx, "in1", domain.StatusRead)
	require.NoError(t, err)
	require.True(t, applied)

	tracker.OpenView("peer-a")
	tracker.NoteInteraction("peer-a")
	tracker.ReportVisibility("peer-a", "own1", 1.0, true)
	tracker.ReportVisibility("peer-a", "in1", 1.0, true)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, ack.callCount())
}

func TestReceiptTrackerRetriesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.rec.ApplyIncoming(ctx, incoming("in1", "peer-a", 100))
	require.NoError(t, err)

	t.Run("SecondAttemptSucceeds", func(t *testing.T) {
		ack := &recordingAck{failures: 1}
		tracker := newTracker(t, f, ack)

		tracker.OpenView("peer-a")
		tracker.NoteInteraction("peer-a")
		tracker.ReportVisibility("peer-a", "in1", 1.0, true)

		assert.Eventually(t, messageIsRead(f, "in1"), time.Second, 5*time.Millisecond)
		assert.Equal(t, 2, ack.callCount())
	})

	t.Run("SecondFailureDropped", func(t *testing.T) {
		_, err := f.rec.ApplyIncoming(ctx, incoming("in2", "peer-b", 100))
		require.NoError(t, err)

		ack := &recordingAck{failures: 2}
		tracker := newTracker(t, f, ack)

		tracker.OpenView("peer-b")
		tracker.NoteInteraction("peer-b")
		tracker.ReportVisibility("peer-b", "in2", 1.0, true)

		assert.Eventually(t, func() bool { return ack.callCount() == 2 }, time.Second, 5*time.Millisecond)
		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, 2, ack.callCount())

		m, err := f.store.GetMessage(ctx, "in2")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusDelivered, m.Status)
	})
}
