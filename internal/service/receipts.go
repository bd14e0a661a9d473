package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/smashchats/smash-web-client-sub000/internal/domain"
)

// MinVisibleRatio is how much of a message's visual region must be on screen
// before a dwell timer starts.
const MinVisibleRatio = 0.5

// AckSender sends a read acknowledgement for one message. Implemented by the
// gateway.
type AckSender interface {
	MarkMessageAsRead(ctx context.Context, messageID string) error
}

// ReceiptTracker decides when a displayed incoming message is acknowledged as
// read. The UI reports view lifecycle, interaction signals, and visibility;
// the tracker enforces that all of the following hold before acknowledging:
// the message is peer-authored, not already read, the user has interacted
// with the view since it opened, and the message stayed at least half visible
// for the dwell interval.
type ReceiptTracker struct {
	log        *slog.Logger
	store      domain.Store
	rec        *Reconciler
	ack        AckSender
	dwell      time.Duration
	retryDelay time.Duration

	mu    sync.Mutex
	views map[string]*viewState
}

type viewState struct {
	interacted bool
	pending    map[string]*time.Timer
}

func NewReceiptTracker(
	log *slog.Logger,
	store domain.Store,
	rec *Reconciler,
	ack AckSender,
	dwell, retryDelay time.Duration,
) *ReceiptTracker {
	return &ReceiptTracker{
		log:        log,
		store:      store,
		rec:        rec,
		ack:        ack,
		dwell:      dwell,
		retryDelay: retryDelay,
		views:      make(map[string]*viewState),
	}
}

// OpenView marks a conversation view as open. Interaction state starts
// cleared: messages scrolling into a freshly opened view are not read until
// the user actually does something.
func (t *ReceiptTracker) OpenView(conversationID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.views[conversationID] = &viewState{pending: make(map[string]*time.Timer)}
}

// CloseView discards the view state and stops pending dwell timers. In-flight
// acknowledgements are not cancelled; their results are simply irrelevant.
func (t *ReceiptTracker) CloseView(conversationID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if v, ok := t.views[conversationID]; ok {
		for _, timer := range v.pending {
			timer.Stop()
		}
		delete(t.views, conversationID)
	}
}

// NoteInteraction records a user presence signal (pointer move, key press,
// click, scroll) for an open view.
func (t *ReceiptTracker) NoteInteraction(conversationID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if v, ok := t.views[conversationID]; ok {
		v.interacted = true
	}
}

// ReportVisibility is called as a message's visual region enters or leaves
// the viewport. Sustained visibility at or above MinVisibleRatio arms a dwell
// timer; dropping below it disarms.
func (t *ReceiptTracker) ReportVisibility(conversationID, messageID string, ratio float64, visible bool) {
	t.mu.Lock()
	v, ok := t.views[conversationID]
	if !ok {
		t.mu.Unlock()
		return
	}

	if !visible || ratio < MinVisibleRatio {
		if timer, armed := v.pending[messageID]; armed {
			timer.Stop()
			delete(v.pending, messageID)
		}
		t.mu.Unlock()
		return
	}

	if _, armed := v.pending[messageID]; armed {
		t.mu.Unlock()
		return
	}
	v.pending[messageID] = time.AfterFunc(t.dwell, func() {
		t.dwellElapsed(conversationID, messageID)
	})
	t.mu.Unlock()
}

// dwellElapsed re-checks every trigger condition once the dwell timer fires.
func (t *ReceiptTracker) dwellElapsed(conversationID, messageID string) {
	t.mu.Lock()
	v, ok := t.views[conversationID]
	if ok {
		delete(v.pending, messageID)
	}
	interacted := ok && v.interacted
	t.mu.Unlock()
	if !interacted {
		return
	}

	ctx := context.Background()
	m, err := t.store.GetMessage(ctx, messageID)
	if err != nil {
		t.log.Error("read receipt lookup failed", "message_id", messageID, "err", err)
		return
	}
	if m == nil || m.FromSelf() || m.Status == domain.StatusRead {
		return
	}

	t.acknowledge(ctx, messageID, true)
}

// acknowledge sends the read ack and applies the local read status. A failed
// ack is retried exactly once after a fixed delay; a second failure is logged
// and dropped. Read receipts are best effort.
func (t *ReceiptTracker) acknowledge(ctx context.Context, messageID string, allowRetry bool) {
	if err := t.ack.MarkMessageAsRead(ctx, messageID); err != nil {
		if allowRetry {
			t.log.Warn("read acknowledgement failed, retrying once",
				"message_id", messageID, "err", err)
			time.AfterFunc(t.retryDelay, func() {
				t.acknowledge(context.Background(), messageID, false)
			})
			return
		}
		t.log.Error("read acknowledgement failed after retry", "message_id", messageID, "err", err)
		return
	}

	if _, _, err := t.rec.ApplyStatus(ctx, messageID, domain.StatusRead); err != nil {
		t.log.Error("applying read status failed", "message_id", messageID, "err", err)
	}
}
