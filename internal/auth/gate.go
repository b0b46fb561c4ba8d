package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainauth "github.com/NordCoder/Vidrate/internal/domain/auth"
	"github.com/NordCoder/Vidrate/internal/obs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const DefaultCheckTimeout = 500 * time.Millisecond

type TokenVerifier interface {
	Verify(token string) (domainauth.Identity, error)
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

var (
	gateDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_gate_decisions_total",
		Help: "Auth gate outcomes per protected request.",
	}, []string{"outcome"})
	revocationCheckLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "auth_revocation_check_seconds",
		Help:    "Latency of revocation lookups made by the auth gate.",
		Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	})
)

// Gate admits a request only when its token verifies and is provably not revoked.
type Gate struct {
	codec   TokenVerifier
	store   RevocationChecker
	timeout time.Duration
	log     *zap.Logger
}

func NewGate(codec TokenVerifier, store RevocationChecker, timeout time.Duration, log *zap.Logger) *Gate {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{codec: codec, store: store, timeout: timeout, log: log.Named("auth.gate")}
}

// Authenticate returns ErrTokenMissing, ErrTokenInvalid, ErrTokenExpired or
// ErrTokenRevoked for rejected credentials and ErrStoreUnavailable when the
// revocation status cannot be established.
func (g *Gate) Authenticate(ctx context.Context, token string) (domainauth.Identity, error) {
	log := obs.WithTrace(ctx, g.log)

	if token == "" {
		gateDecisions.WithLabelValues("missing").Inc()
		log.Debug("rejected", zap.String("reason", "missing token"))
		return domainauth.Identity{}, domainauth.ErrTokenMissing
	}

	id, err := g.codec.Verify(token)
	if err != nil {
		reason := "invalid"
		if errors.Is(err, domainauth.ErrTokenExpired) {
			reason = "expired"
		}
		gateDecisions.WithLabelValues(reason).Inc()
		log.Info("rejected", zap.String("reason", reason), zap.Error(err))
		return domainauth.Identity{}, err
	}

	revoked, err := g.checkRevoked(ctx, token)
	if err != nil {
		gateDecisions.WithLabelValues("store_unavailable").Inc()
		log.Error("revocation check failed, failing closed",
			zap.String("user_id", id.UserID), zap.Error(err))
		return domainauth.Identity{}, err
	}
	if revoked {
		gateDecisions.WithLabelValues("revoked").Inc()
		log.Info("rejected", zap.String("reason", "revoked"), zap.String("user_id", id.UserID))
		return domainauth.Identity{}, domainauth.ErrTokenRevoked
	}

	gateDecisions.WithLabelValues("admitted").Inc()
	return id, nil
}

// checkRevoked bounds the lookup with the gate timeout. An answer that arrives
// after the deadline is discarded.
func (g *Gate) checkRevoked(ctx context.Context, token string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	revoked, err := g.store.IsRevoked(ctx, token)
	revocationCheckLatency.Observe(time.Since(start).Seconds())
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		if errors.Is(err, domainauth.ErrStoreUnavailable) {
			return false, err
		}
		return false, fmt.Errorf("%w: %w", domainauth.ErrStoreUnavailable, err)
	}
	return revoked, nil
}
