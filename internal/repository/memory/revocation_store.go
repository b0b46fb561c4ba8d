package memory

import (
	"context"
	"time"

	"github.com/NordCoder/Vidrate/internal/auth"
	domainauth "github.com/NordCoder/Vidrate/internal/domain/auth"
	"github.com/jellydator/ttlcache/v3"
)

// RevocationStore is a single-process store for development and tests. The
// cache's own expiration loop evicts entries once their token has expired.
type RevocationStore struct {
	cache       *ttlcache.Cache[string, struct{}]
	expiry      auth.ExpiryReader
	fallbackTTL time.Duration
	now         func() time.Time
}

var _ domainauth.RevocationStore = (*RevocationStore)(nil)

func NewRevocationStore(expiry auth.ExpiryReader, fallbackTTL time.Duration) *RevocationStore {
	cache := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, struct{}](),
	)
	go cache.Start()

	return &RevocationStore{
		cache:       cache,
		expiry:      expiry,
		fallbackTTL: fallbackTTL,
		now:         time.Now,
	}
}

func (s *RevocationStore) Revoke(_ context.Context, token string) error {
	ttl := auth.RemainingLifetime(s.expiry, token, s.now(), s.fallbackTTL)
	if ttl <= 0 {
		return nil
	}
	s.cache.Set(auth.Fingerprint(token), struct{}{}, ttl)
	return nil
}

func (s *RevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.cache.Has(auth.Fingerprint(token)), nil
}

func (s *RevocationStore) Ping(context.Context) error { return nil }

func (s *RevocationStore) Len() int { return s.cache.Len() }

// Close stops the expiration loop.
func (s *RevocationStore) Close() { s.cache.Stop() }
