package redis

import (
	"context"
	"testing"
	"time"

	"github.com/NordCoder/Vidrate/internal/auth"
	domainauth "github.com/NordCoder/Vidrate/internal/domain/auth"
	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store  *RevocationStore
	mini   *miniredis.Miniredis
	codec  *auth.Codec
	issued time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mini.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	issued := time.Now().Truncate(time.Second)
	codec, err := auth.NewCodec(auth.CodecConfig{
		Secret: []byte("test-signing-secret"),
		TTL:    time.Hour,
		Now:    func() time.Time { return issued },
	})
	require.NoError(t, err)

	store := NewRevocationStore(client, "test:revoked:", codec, 24*time.Hour)
	store.now = func() time.Time { return issued.Add(10 * time.Minute) }
	return &fixture{store: store, mini: mini, codec: codec, issued: issued}
}

func (f *fixture) token(t *testing.T) string {
	t.Helper()
	tok, err := f.codec.Issue(domainauth.Identity{UserID: "u-1", Username: "alice"})
	require.NoError(t, err)
	return tok.Token
}

func TestRevocationStore_RevokeThenIsRevoked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tok := f.token(t)

	revoked, err := f.store.IsRevoked(ctx, tok)
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, f.store.Revoke(ctx, tok))

	revoked, err = f.store.IsRevoked(ctx, tok)
	require.NoError(t, err)
	require.True(t, revoked)

	other := f.token(t)
	revoked, err = f.store.IsRevoked(ctx, other)
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestRevocationStore_EntryLivesForRemainingLifetime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tok := f.token(t)

	require.NoError(t, f.store.Revoke(ctx, tok))

	key := "test:revoked:" + auth.Fingerprint(tok)
	require.True(t, f.mini.Exists(key))
	require.Equal(t, 50*time.Minute, f.mini.TTL(key))

	f.mini.FastForward(49 * time.Minute)
	revoked, err := f.store.IsRevoked(ctx, tok)
	require.NoError(t, err)
	require.True(t, revoked)

	f.mini.FastForward(2 * time.Minute)
	revoked, err = f.store.IsRevoked(ctx, tok)
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestRevocationStore_RevokeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tok := f.token(t)

	require.NoError(t, f.store.Revoke(ctx, tok))
	require.NoError(t, f.store.Revoke(ctx, tok))

	require.Len(t, f.mini.Keys(), 1)
	revoked, err := f.store.IsRevoked(ctx, tok)
	require.NoError(t, err)
	require.True(t, revoked)
}

func TestRevocationStore_ExpiredTokenNeedsNoEntry(t *testing.T) {
	f := newFixture(t)
	tok := f.token(t)
	f.store.now = func() time.Time { return f.issued.Add(2 * time.Hour) }

	require.NoError(t, f.store.Revoke(context.Background(), tok))
	require.Empty(t, f.mini.Keys())
}

func TestRevocationStore_UnreadableTokenUsesFallbackTTL(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.store.Revoke(context.Background(), "opaque-garbage"))
	require.Equal(t, 24*time.Hour, f.mini.TTL("test:revoked:"+auth.Fingerprint("opaque-garbage")))
}

func TestRevocationStore_StoreFailureIsDistinct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tok := f.token(t)

	f.mini.SetError("ERR simulated outage")

	revoked, err := f.store.IsRevoked(ctx, tok)
	require.ErrorIs(t, err, domainauth.ErrStoreUnavailable)
	require.False(t, revoked)

	require.ErrorIs(t, f.store.Revoke(ctx, tok), domainauth.ErrStoreUnavailable)
	require.ErrorIs(t, f.store.Ping(ctx), domainauth.ErrStoreUnavailable)

	f.mini.SetError("")
	require.NoError(t, f.store.Ping(ctx))

	f.mini.Close()
	_, err = f.store.IsRevoked(ctx, tok)
	require.ErrorIs(t, err, domainauth.ErrStoreUnavailable)
}

func TestNewClient(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)

	client, err := NewClient(context.Background(), Config{Addr: mini.Addr()})
	require.NoError(t, err)
	require.NoError(t, client.Close())

	_, err = NewClient(context.Background(), Config{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	require.Error(t, err)
}
