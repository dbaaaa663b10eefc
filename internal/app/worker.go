package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go-skillmatrix/internal/config"
	"go-skillmatrix/internal/messaging/kafka"
	"go-skillmatrix/internal/messaging/kafka/producer"
	"go-skillmatrix/internal/shared/connection"

	"go.uber.org/zap"
)

const outboxBatchSize = 50

// RunWorker relays outbox rows to Kafka until SIGINT or SIGTERM.
func RunWorker(cfg *config.Config, logger *zap.Logger) error {
	log := logger.Named("app.worker")

	gormDB, err := connection.ConnectGORMWithRetry(cfg.Database, logger)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	kafkaWriter, err := connection.ConnectKafkaWithRetry(cfg.Kafka.Brokers, cfg.Database.MaxRetries, logger)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	outboxRepo := kafka.NewOutboxRepository(sqlDB)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	producer.ProcessOutboxEvents(ctx, outboxRepo, kafkaWriter, logger, cfg.Kafka.PollInterval, outboxBatchSize)

	log.Info("worker shutting down")
	return nil
}
