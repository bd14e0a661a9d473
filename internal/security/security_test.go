package security_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smashchats/smash-web-client-sub000/internal/security"
)

func TestSealer(t *testing.T) {
	sealer, err := security.NewSealer([]byte("app-secret"))
	require.NoError(t, err)

	t.Run("RoundTrip", func(t *testing.T) {
		sealed, err := sealer.Seal([]byte("device identity"))
		require.NoError(t, err)
		assert.NotEqual(t, []byte("device identity"), sealed)

		plain, err := sealer.Open(sealed)
		require.NoError(t, err)
		assert.Equal(t, []byte("device identity"), plain)
	})

	t.Run("NoncesDiffer", func(t *testing.T) {
		a, err := sealer.Seal([]byte("same input"))
		require.NoError(t, err)
		b, err := sealer.Seal([]byte("same input"))
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("TamperDetected", func(t *testing.T) {
		sealed, err := sealer.Seal([]byte("device identity"))
		require.NoError(t, err)
		sealed[len(sealed)-1] ^= 0xff

		_, err = sealer.Open(sealed)
		assert.Error(t, err)
	})

	t.Run("WrongKeyRejected", func(t *testing.T) {
		sealed, err := sealer.Seal([]byte("device identity"))
		require.NoError(t, err)

		other, err := security.NewSealer([]byte("different-secret"))
		require.NoError(t, err)
		_, err = other.Open(sealed)
		assert.Error(t, err)
	})

	t.Run("TruncatedBlobRejected", func(t *testing.T) {
		_, err := sealer.Open([]byte{1, 2, 3})
		assert.Error(t, err)
	})
}

func TestTokenService(t *testing.T) {
	svc := security.NewTokenService("token-secret", time.Hour)

	t.Run("RoundTrip", func(t *testing.T) {
		token, err := svc.CreateForDevice("local")
		require.NoError(t, err)

		claims, err := svc.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, "local", claims["sub"])
	})

	t.Run("WrongSecretRejected", func(t *testing.T) {
		other := security.NewTokenService("other-secret", time.Hour)
		token, err := other.CreateForDevice("local")
		require.NoError(t, err)

		_, err = svc.Parse(token)
		assert.Error(t, err)
	})

	t.Run("ExpiredRejected", func(t *testing.T) {
		expired := security.NewTokenService("token-secret", -time.Minute)
		token, err := expired.CreateForDevice("local")
		require.NoError(t, err)

		_, err = svc.Parse(token)
		assert.Error(t, err)
	})

	t.Run("GarbageRejected", func(t *testing.T) {
		_, err := svc.Parse("not-a-token")
		assert.Error(t, err)
	})
}
