package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smashchats/smash-web-client-sub000/internal/domain"
	"github.com/smashchats/smash-web-client-sub000/internal/security"
	"github.com/smashchats/smash-web-client-sub000/internal/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	sealer, err := security.NewSealer([]byte("test-secret"))
	require.NoError(t, err)
	s := sqlite.NewStore(sealer)
	require.NoError(t, s.Open(":memory:"))
	t.Cleanup(func() { s.Close() })
	return s
}

func textMessage(id, conv, sender string, ts int64, status domain.MessageStatus) *domain.Message {
	return &domain.Message{
		ID:             id,
		ConversationID: conv,
		Sender:         sender,
		Timestamp:      ts,
		Status:         status,
		Kind:           domain.KindText,
		Body:           "hello",
	}
}

func TestStoreNotInitialized(t *testing.T) {
	sealer, err := security.NewSealer([]byte("test-secret"))
	require.NoError(t, err)
	s := sqlite.NewStore(sealer)

	ctx := context.Background()
	_, err = s.GetMessages(ctx, "conv", 0)
	assert.ErrorIs(t, err, domain.ErrStoreNotInitialized)

	err = s.PutMessage(ctx, textMessage("m1", "conv", domain.SelfSender, 1, domain.StatusSending))
	assert.ErrorIs(t, err, domain.ErrStoreNotInitialized)

	_, err = s.GetIdentity(ctx)
	assert.ErrorIs(t, err, domain.ErrStoreNotInitialized)
}

func TestOpenTwice(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.Open(":memory:"))
}

func TestMessageRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t.Run("OrderedByTimestamp", func(t *testing.T) {
		require.NoError(t, s.PutMessage(ctx, textMessage("m2", "peer-a", "peer-a", 200, domain.StatusDelivered)))
		require.NoError(t, s.PutMessage(ctx, textMessage("m1", "peer-a", "peer-a", 100, domain.StatusDelivered)))
		require.NoError(t, s.PutMessage(ctx, textMessage("m3", "peer-a", domain.SelfSender, 300, domain.StatusSending)))

		msgs, err := s.GetMessages(ctx, "peer-a", 0)
		require.NoError(t, err)
		require.Len(t, msgs, 3)
		assert.Equal(t, "m1", msgs[0].ID)
		assert.Equal(t, "m2", msgs[1].ID)
		assert.Equal(t, "m3", msgs[2].ID)
	})

	t.Run("RedeliveryIsNoOp", func(t *testing.T) {
		dup := textMessage("m1", "peer-a", "peer-a", 100, domain.StatusDelivered)
		dup.Body = "tampered"
		require.NoError(t, s.PutMessage(ctx, dup))

		m, err := s.GetMessage(ctx, "m1")
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.Equal(t, "hello", m.Body)
	})

	t.Run("Limit", func(t *testing.T) {
		msgs, err := s.GetMessages(ctx, "peer-a", 2)
		require.NoError(t, err)
		assert.Len(t, msgs, 2)
	})

	t.Run("UnknownIDIsNil", func(t *testing.T) {
		m, err := s.GetMessage(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("MediaPayloadSurvives", func(t *testing.T) {
		m := textMessage("m4", "peer-a", "peer-a", 400, domain.StatusDelivered)
		m.Kind = domain.KindMedia
		m.Body = ""
		m.Media = &domain.MediaContent{MimeType: "image/jpeg", Payload: "ref:42", Alt: "photo", AspectRatio: 1.5}
		require.NoError(t, s.PutMessage(ctx, m))

		got, err := s.GetMessage(ctx, "m4")
		require.NoError(t, err)
		require.NotNil(t, got.Media)
		assert.Equal(t, "image/jpeg", got.Media.MimeType)
		assert.Equal(t, "ref:42", got.Media.Payload)
		assert.Equal(t, 1.5, got.Media.AspectRatio)
	})
}

func TestConversationCreatedOnFirstMessage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutMessage(ctx, textMessage("in1", "did:sc:stranger-long-id", "did:sc:stranger-long-id", 100, domain.StatusDelivered)))

	conv, err := s.GetConversation(ctx, "did:sc:stranger-long-id")
	require.NoError(t, err)
	require.NotNil(t, conv)
	assert.Equal(t, domain.ConversationDirect, conv.Type)
	assert.Equal(t, domain.DefaultTitle("did:sc:stranger-long-id"), conv.Title)
	assert.ElementsMatch(t, []string{domain.SelfSender, "did:sc:stranger-long-id"}, conv.Participants)
	require.NotNil(t, conv.LastMessage)
	assert.Equal(t, "in1", conv.LastMessage.ID)
	assert.Equal(t, int64(100), conv.UpdatedAt)

	// A second message from the same peer reuses the conversation.
	require.NoError(t, s.PutMessage(ctx, textMessage("in2", "did:sc:stranger-long-id", "did:sc:stranger-long-id", 200, domain.StatusDelivered)))
	convs, err := s.GetAllConversations(ctx)
	require.NoError(t, err)
	assert.Len(t, convs, 1)
	assert.Equal(t, "in2", convs[0].LastMessage.ID)
}

func TestLastMessageGuard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutMessage(ctx, textMessage("new", "peer-a", "peer-a", 200, domain.StatusDelivered)))
	// Late delivery of an older message must not move the pointer back.
	require.NoError(t, s.PutMessage(ctx, textMessage("old", "peer-a", "peer-a", 100, domain.StatusDelivered)))

	conv, err := s.GetConversation(ctx, "peer-a")
	require.NoError(t, err)
	assert.Equal(t, "new", conv.LastMessage.ID)
	assert.Equal(t, int64(200), conv.UpdatedAt)
}

func TestLastMessageStatusVisible(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutMessage(ctx, textMessage("m1", "peer-a", domain.SelfSender, 100, domain.StatusSending)))
	require.NoError(t, s.UpdateMessageStatus(ctx, "m1", domain.StatusDelivered))

	conv, err := s.GetConversation(ctx, "peer-a")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, conv.LastMessage.Status)
}

func TestUnreadCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutMessage(ctx, textMessage("p1", "peer-a", "peer-a", 100, domain.StatusDelivered)))
	require.NoError(t, s.PutMessage(ctx, textMessage("p2", "peer-a", "peer-a", 200, domain.StatusDelivered)))
	require.NoError(t, s.PutMessage(ctx, textMessage("own", "peer-a", domain.SelfSender, 300, domain.StatusSending)))

	t.Run("CountsPeerUnreadOnly", func(t *testing.T) {
		n, err := s.RecomputeUnread(ctx, "peer-a")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		conv, err := s.GetConversation(ctx, "peer-a")
		require.NoError(t, err)
		assert.Equal(t, 2, conv.UnreadCount)
	})

	t.Run("ReadMessagesExcluded", func(t *testing.T) {
		require.NoError(t, s.UpdateMessageStatus(ctx, "p1", domain.StatusRead))
		n, err := s.RecomputeUnread(ctx, "peer-a")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("MarkReadZeroes", func(t *testing.T) {
		require.NoError(t, s.MarkConversationRead(ctx, "peer-a"))
		conv, err := s.GetConversation(ctx, "peer-a")
		require.NoError(t, err)
		assert.Equal(t, 0, conv.UnreadCount)
	})
}

func TestConversationListOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutMessage(ctx, textMessage("a1", "peer-a", "peer-a", 100, domain.StatusDelivered)))
	require.NoError(t, s.PutMessage(ctx, textMessage("b1", "peer-b", "peer-b", 300, domain.StatusDelivered)))
	require.NoError(t, s.PutMessage(ctx, textMessage("c1", "peer-c", "peer-c", 200, domain.StatusDelivered)))

	convs, err := s.GetAllConversations(ctx)
	require.NoError(t, err)
	require.Len(t, convs, 3)
	assert.Equal(t, "peer-b", convs[0].ID)
	assert.Equal(t, "peer-c", convs[1].ID)
	assert.Equal(t, "peer-a", convs[2].ID)
}

func TestProfileLastWriteWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutProfile(ctx, &domain.Profile{PeerID: "peer-a", Title: "Alice"}))
	require.NoError(t, s.PutProfile(ctx, &domain.Profile{PeerID: "peer-a", Title: "Alice v2", Description: "hi"}))

	p, err := s.GetProfile(ctx, "peer-a")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Alice v2", p.Title)
	assert.Equal(t, "hi", p.Description)

	missing, err := s.GetProfile(ctx, "peer-z")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestIdentitySealedRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	none, err := s.GetIdentity(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)

	id := &domain.Identity{
		Serialized: []byte("serialized-crypto-identity"),
		Profile:    domain.Profile{PeerID: domain.SelfSender, Title: "Me"},
		Endpoint:   domain.EndpointConfig{URL: "wss://relay.example", PublicKey: "pk"},
		CreatedAt:  1234,
	}
	require.NoError(t, s.SetIdentity(ctx, id))
	// The caller's copy is not mutated by sealing.
	assert.Equal(t, []byte("serialized-crypto-identity"), id.Serialized)

	got, err := s.GetIdentity(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []byte("serialized-crypto-identity"), got.Serialized)
	assert.Equal(t, "Me", got.Profile.Title)
	assert.Equal(t, "wss://relay.example", got.Endpoint.URL)
	assert.Equal(t, int64(1234), got.CreatedAt)
}

func TestPendingMedia(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id1, err := s.PutMedia(ctx, &domain.MediaItem{Type: domain.MediaImage, Blob: []byte{1}, MimeType: "image/png", Timestamp: 100, IsPending: true})
	require.NoError(t, err)
	id2, err := s.PutMedia(ctx, &domain.MediaItem{Type: domain.MediaVideo, Blob: []byte{2}, MimeType: "video/mp4", Timestamp: 50, IsPending: true})
	require.NoError(t, err)
	_, err = s.PutMedia(ctx, &domain.MediaItem{Type: domain.MediaImage, Blob: []byte{3}, MimeType: "image/png", Timestamp: 10})
	require.NoError(t, err)

	t.Run("ListPendingOldestFirst", func(t *testing.T) {
		pending, err := s.ListPendingMedia(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 2)
		assert.Equal(t, id2, pending[0].ID)
		assert.Equal(t, id1, pending[1].ID)
	})

	t.Run("MarkSentRemovesFromPending", func(t *testing.T) {
		require.NoError(t, s.MarkMediaSent(ctx, id2))
		pending, err := s.ListPendingMedia(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, id1, pending[0].ID)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, s.DeleteMedia(ctx, id1))
		item, err := s.GetMedia(ctx, id1)
		require.NoError(t, err)
		assert.Nil(t, item)
	})
}

func TestClearAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutMessage(ctx, textMessage("m1", "peer-a", "peer-a", 100, domain.StatusDelivered)))
	require.NoError(t, s.PutProfile(ctx, &domain.Profile{PeerID: "peer-a", Title: "Alice"}))
	require.NoError(t, s.SetIdentity(ctx, &domain.Identity{Serialized: []byte("id"), CreatedAt: 1}))
	_, err := s.PutMedia(ctx, &domain.MediaItem{Type: domain.MediaImage, Blob: []byte{1}, Timestamp: 1, IsPending: true})
	require.NoError(t, err)

	require.NoError(t, s.ClearAll(ctx))

	msgs, err := s.GetMessages(ctx, "peer-a", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	convs, err := s.GetAllConversations(ctx)
	require.NoError(t, err)
	assert.Empty(t, convs)

	p, err := s.GetProfile(ctx, "peer-a")
	require.NoError(t, err)
	assert.Nil(t, p)

	id, err := s.GetIdentity(ctx)
	require.NoError(t, err)
	assert.Nil(t, id)

	pending, err := s.ListPendingMedia(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// The store stays usable for a fresh session.
	require.NoError(t, s.PutMessage(ctx, textMessage("m1", "peer-a", "peer-a", 100, domain.StatusDelivered)))
}
