package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/NordCoder/Vidrate/internal/config/outbox-relay"
	"github.com/NordCoder/Vidrate/internal/obs"
	"github.com/NordCoder/Vidrate/internal/obs/retry"
	"github.com/NordCoder/Vidrate/internal/outbox"
	"github.com/NordCoder/Vidrate/internal/repository/kafka"
	pg "github.com/NordCoder/Vidrate/internal/repository/postgres"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config (optional)")
	flag.Parse()

	root, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	// logger
	l, err := obs.NewLogger(cfg.LoggerConfig())
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()

	// otel
	otelCloser, err := obs.SetupOTel(root, cfg.OTELConfig())
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	// db
	db, err := pg.NewDB(root, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// metrics
	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, db.Ping, l)

	// kafka
	if err := kafka.EnsureTopic(root, cfg.Kafka.Brokers, cfg.TopicSpec(), l); err != nil {
		l.Warn("ensure topic", zap.Error(err))
	}
	prod := kafka.NewProducer(cfg.Kafka.ProducerConfig, l)
	defer func() { _ = prod.Close() }()

	// wiring
	dispatch := outbox.MakeGlobalOutboxHandler(kafka.NewEvents(prod), retry.DefaultPublishPolicy(l))
	runner := outbox.NewOutboxRunner(l, pg.NewOutboxRepo(db), dispatch, cfg.Outbox)

	l.Info("outbox relay started", zap.String("topic", cfg.Kafka.Topic), zap.Int("workers", cfg.Outbox.Workers))
	runner.Run(root)

	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
