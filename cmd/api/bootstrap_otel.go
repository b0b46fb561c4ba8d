package main

import (
	"context"

	config "github.com/NordCoder/Vidrate/internal/config/api"
	"github.com/NordCoder/Vidrate/internal/obs"
)

func initOTel(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	closer, err := obs.SetupOTel(ctx, cfg.OTELConfig())
	if err != nil {
		return nil, err
	}
	return closer.Shutdown, nil
}
