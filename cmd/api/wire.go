package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/NordCoder/Vidrate/internal/auth"
	config "github.com/NordCoder/Vidrate/internal/config/api"
	"github.com/NordCoder/Vidrate/internal/oembed"
	pg "github.com/NordCoder/Vidrate/internal/repository/postgres"
	"github.com/NordCoder/Vidrate/internal/services/api"
	authsvc "github.com/NordCoder/Vidrate/internal/services/api/auth"
	contentsvc "github.com/NordCoder/Vidrate/internal/services/api/content"
	"github.com/NordCoder/Vidrate/internal/services/api/httpx"
	"go.uber.org/zap"
	"google.golang.org/grpc/health"
)

type application struct {
	handler http.Handler
	health  *health.Server
	closers []func()
}

func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func wire(ctx context.Context, cfg *config.Config, db *pg.DB, logger *zap.Logger) (*application, error) {
	app := &application{}

	codec, err := auth.NewCodec(auth.CodecConfig{
		Secret: []byte(cfg.Auth.TokenSigningSecret),
		TTL:    cfg.Auth.TokenTTL,
		Issuer: cfg.Auth.Issuer,
	})
	if err != nil {
		return nil, err
	}
	store, closeStore, err := initRevocationStore(ctx, cfg, codec, logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closeStore)

	gate := auth.NewGate(codec, store, cfg.Revocation.CheckTimeout, logger)

	users := pg.NewUserRepo(db)
	outboxRepo := pg.NewOutboxRepo(db)
	tx := pg.NewTransactor(db, logger)

	authUC := authsvc.NewUseCase(authsvc.Deps{
		Users:  users,
		Hasher: auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		Codec:  codec,
		Store:  store,
		Outbox: outboxRepo,
		Tx:     tx,
		Logger: logger,
	}, authsvc.Config{})
	contentUC := contentsvc.NewUseCase(pg.NewContentRepo(db), oembed.New(cfg.OEmbed, logger), outboxRepo, tx, logger)

	proxies, err := httpx.ParseTrustedProxies(cfg.RateLimit.TrustedProxies)
	if err != nil {
		app.Close()
		return nil, err
	}
	limiter := httpx.NewRateLimiter(cfg.RateLimit.LoginRPS, cfg.RateLimit.LoginBurst, 0, proxies)
	app.closers = append(app.closers, limiter.Close)

	ping := func(ctx context.Context) error {
		return errors.Join(db.Ping(ctx), store.Ping(ctx))
	}
	app.health = newHealthServer(ctx, ping, logger)

	app.handler, err = api.NewHandler(api.Deps{
		Logger:       logger,
		Auth:           authsvc.NewController(authUC, logger),
		Content:        contentsvc.NewController(contentUC, logger),
		Gate:           gate,
		LoginLimiter:   limiter,
		TrustedProxies: proxies,
		Health:         ping,
		CORSOrigins:    cfg.CORS.AllowedOrigins,
	})
	if err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}
