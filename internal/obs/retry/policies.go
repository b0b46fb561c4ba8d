package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// DefaultPublishPolicy is used by the outbox relay when handing events to Kafka.
func DefaultPublishPolicy(log *zap.Logger) Policy {
	return Policy{
		Attempts: 6,
		Backoff:  ExpoJitter{Base: 200 * time.Millisecond, Max: 30 * time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("outbox retry", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("outbox retries exhausted", zap.Error(err))
			}
		},
	}
}

// HTTPPolicy retries short-lived outbound HTTP calls. Permanent errors stop it early.
func HTTPPolicy(name string, attempts int, log *zap.Logger) Policy {
	return Policy{
		Name:     name,
		Attempts: attempts,
		Backoff:  ExpoJitter{Base: 100 * time.Millisecond, Max: time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			return !errors.Is(err, context.Canceled)
		},
		OnAttempt: func(i int, err error) {
			if log != nil && !IsPermanent(err) {
				log.Debug("http retry", zap.String("name", name), zap.Int("attempt", i+1), zap.Error(err))
			}
		},
	}
}
