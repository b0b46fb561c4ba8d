package memory

import (
	"context"
	"testing"
	"time"

	"github.com/NordCoder/Vidrate/internal/auth"
	domainauth "github.com/NordCoder/Vidrate/internal/domain/auth"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*RevocationStore, *auth.Codec, time.Time) {
	t.Helper()
	issued := time.Now().Truncate(time.Second)
	codec, err := auth.NewCodec(auth.CodecConfig{
		Secret: []byte("test-signing-secret"),
		TTL:    time.Hour,
		Now:    func() time.Time { return issued },
	})
	require.NoError(t, err)

	s := NewRevocationStore(codec, time.Hour)
	t.Cleanup(s.Close)
	return s, codec, issued
}

func issue(t *testing.T, c *auth.Codec) string {
	t.Helper()
	tok, err := c.Issue(domainauth.Identity{UserID: "u-1", Username: "alice"})
	require.NoError(t, err)
	return tok.Token
}

func TestRevocationStore_RevokeIsIdempotent(t *testing.T) {
	s, codec, _ := newStore(t)
	ctx := context.Background()
	tok := issue(t, codec)

	revoked, err := s.IsRevoked(ctx, tok)
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, s.Revoke(ctx, tok))
	require.NoError(t, s.Revoke(ctx, tok))
	require.Equal(t, 1, s.Len())

	revoked, err = s.IsRevoked(ctx, tok)
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestRevocationStore_EntryExpiresWithToken(t *testing.T) {
	s, codec, issued := newStore(t)
	ctx := context.Background()
	tok := issue(t, codec)
	s.now = func() time.Time { return issued.Add(time.Hour - 100*time.Millisecond) }

	require.NoError(t, s.Revoke(ctx, tok))
	revoked, err := s.IsRevoked(ctx, tok)
	require.NoError(t, err)
	require.True(t, revoked)

	require.Eventually(t, func() bool {
		revoked, err := s.IsRevoked(ctx, tok)
		return err == nil && !revoked
	}, 2*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool { return s.Len() == 0 }, 2*time.Second, 20*time.Millisecond)
}

func TestRevocationStore_ExpiredTokenNeedsNoEntry(t *testing.T) {
	s, codec, issued := newStore(t)
	tok := issue(t, codec)
	s.now = func() time.Time { return issued.Add(2 * time.Hour) }

	require.NoError(t, s.Revoke(context.Background(), tok))
	require.Zero(t, s.Len())
}

func TestRevocationStore_CanceledContext(t *testing.T) {
	s, codec, _ := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.IsRevoked(ctx, issue(t, codec))
	require.ErrorIs(t, err, context.Canceled)
}
