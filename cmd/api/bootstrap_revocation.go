package main

import (
	"context"
	"fmt"

	"github.com/NordCoder/Vidrate/internal/auth"
	config "github.com/NordCoder/Vidrate/internal/config/api"
	domainauth "github.com/NordCoder/Vidrate/internal/domain/auth"
	"github.com/NordCoder/Vidrate/internal/repository/memory"
	redisrepo "github.com/NordCoder/Vidrate/internal/repository/redis"
	"go.uber.org/zap"
)

// initRevocationStore returns the configured store and a function releasing it.
func initRevocationStore(ctx context.Context, cfg *config.Config, codec *auth.Codec, logger *zap.Logger) (domainauth.RevocationStore, func(), error) {
	switch cfg.Revocation.Backend {
	case config.BackendMemory:
		logger.Warn("in-memory revocation store: logouts are not shared between instances")
		store := memory.NewRevocationStore(codec, codec.TTL())
		return store, store.Close, nil
	case config.BackendRedis:
		client, err := redisrepo.NewClient(ctx, cfg.Revocation.Config)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("revocation store connected", zap.String("addr", cfg.Revocation.Addr))
		store := redisrepo.NewRevocationStore(client, cfg.Revocation.KeyPrefix, codec, codec.TTL())
		return store, func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown revocation backend %q", cfg.Revocation.Backend)
	}
}
