package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/NordCoder/Vidrate/internal/auth"
	domainauth "github.com/NordCoder/Vidrate/internal/domain/auth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	goredis "github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "vidrate:revoked:"

var storeOps = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "revocation_store_op_seconds",
	Help:    "Redis revocation store operation latency.",
	Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5},
}, []string{"op", "result"})

// RevocationStore keeps one key per revoked token fingerprint and lets Redis
// expire it when the token itself expires.
type RevocationStore struct {
	client      goredis.Cmdable
	prefix      string
	expiry      auth.ExpiryReader
	fallbackTTL time.Duration
	now         func() time.Time
}

var _ domainauth.RevocationStore = (*RevocationStore)(nil)

func NewRevocationStore(client goredis.Cmdable, prefix string, expiry auth.ExpiryReader, fallbackTTL time.Duration) *RevocationStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RevocationStore{
		client:      client,
		prefix:      prefix,
		expiry:      expiry,
		fallbackTTL: fallbackTTL,
		now:         time.Now,
	}
}

func (s *RevocationStore) key(token string) string { return s.prefix + auth.Fingerprint(token) }

func (s *RevocationStore) Revoke(ctx context.Context, token string) error {
	ttl := auth.RemainingLifetime(s.expiry, token, s.now(), s.fallbackTTL)
	if ttl <= 0 {
		return nil
	}

	start := time.Now()
	err := s.client.Set(ctx, s.key(token), 1, ttl).Err()
	observe("revoke", start, err)
	if err != nil {
		return fmt.Errorf("%w: revoke: %w", domainauth.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	start := time.Now()
	n, err := s.client.Exists(ctx, s.key(token)).Result()
	observe("is_revoked", start, err)
	if err != nil {
		return false, fmt.Errorf("%w: exists: %w", domainauth.ErrStoreUnavailable, err)
	}
	return n > 0, nil
}

func (s *RevocationStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %w", domainauth.ErrStoreUnavailable, err)
	}
	return nil
}

func observe(op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	storeOps.WithLabelValues(op, result).Observe(time.Since(start).Seconds())
}
