package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go-skillmatrix/internal/config"
	"go-skillmatrix/internal/events"
	"go-skillmatrix/internal/messaging/kafka/consumer"
	"go-skillmatrix/internal/recommendation"
	"go-skillmatrix/internal/shared/connection"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RunConsumer drops cached recommendations whenever a lifecycle event
// changes ratings, requirements or staffing. It runs until SIGINT or SIGTERM.
func RunConsumer(cfg *config.Config, logger *zap.Logger) error {
	log := logger.Named("app.consumer")

	if len(cfg.Kafka.Brokers) == 0 {
		return errors.New("kafka brokers are required")
	}

	rdb, err := connection.ConnectRedisWithRetry(cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer rdb.Close()

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.Kafka.GroupID,
		GroupTopics:    []string{events.SkillRatingTopic, events.StaffingTopic, events.ProjectTopic},
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	cache := recommendation.NewCache(rdb, cfg.Recommendation.CacheTTL, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer.ConsumeRecommendationInvalidation(ctx, reader, cache, logger)

	log.Info("consumer shutting down")
	return nil
}
