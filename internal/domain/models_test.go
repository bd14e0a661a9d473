package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smashchats/smash-web-client-sub000/internal/domain"
)

func TestDisplayTitle(t *testing.T) {
	conv := &domain.Conversation{ID: "did:sc:alice", Title: "did:sc:alice…"}

	t.Run("ProfileWins", func(t *testing.T) {
		p := &domain.Profile{PeerID: "did:sc:alice", Title: "Alice"}
		assert.Equal(t, "Alice", domain.DisplayTitle(conv, p))
	})

	t.Run("FallbackWithoutProfile", func(t *testing.T) {
		assert.Equal(t, "did:sc:alice…", domain.DisplayTitle(conv, nil))
	})

	t.Run("FallbackOnEmptyProfileTitle", func(t *testing.T) {
		p := &domain.Profile{PeerID: "did:sc:alice"}
		assert.Equal(t, "did:sc:alice…", domain.DisplayTitle(conv, p))
	})
}

func TestDefaultTitle(t *testing.T) {
	assert.Equal(t, "did:sc:alice…", domain.DefaultTitle("did:sc:alice-very-long-descriptor"))
	assert.Equal(t, "short", domain.DefaultTitle("short"))
}

func TestFromSelf(t *testing.T) {
	assert.True(t, (&domain.Message{Sender: domain.SelfSender}).FromSelf())
	assert.False(t, (&domain.Message{Sender: "did:sc:alice"}).FromSelf())
}
