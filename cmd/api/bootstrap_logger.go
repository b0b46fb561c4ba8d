package main

import (
	config "github.com/NordCoder/Vidrate/internal/config/api"
	"github.com/NordCoder/Vidrate/internal/obs"
	"go.uber.org/zap"
)

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	return obs.NewLogger(cfg.LoggerConfig())
}
