package main

import (
	"context"

	config "github.com/NordCoder/Vidrate/internal/config/api"
	pg "github.com/NordCoder/Vidrate/internal/repository/postgres"
	"go.uber.org/zap"
)

func initDB(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pg.DB, error) {
	db, err := pg.NewDB(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	logger.Info("postgres connected", zap.Int32("max_conns", db.Pool.Config().MaxConns))
	return db, nil
}
