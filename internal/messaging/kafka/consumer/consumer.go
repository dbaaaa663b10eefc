package consumer

import (
	"context"
	"encoding/json"

	"go-skillmatrix/internal/events"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the part of *kafkago.Reader the consumers need.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// CacheInvalidator drops every cached recommendation snapshot.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// invalidatingEvents change either a requirement set or an approved rating,
// so any cached ranking may be stale after them.
var invalidatingEvents = map[string]bool{
	events.EventSkillRatingReviewed:      true,
	events.EventDeliverableSkillsChanged: true,
	events.EventAssignmentApproved:       true,
	events.EventProjectCompleted:         true,
	events.EventProjectDeleted:           true,
}

// ConsumeRecommendationInvalidation runs until ctx is cancelled. A message
// is committed only after the cache was invalidated, or when it can never
// be processed (bad payload, unrelated event).
func ConsumeRecommendationInvalidation(
	ctx context.Context,
	reader MessageReader,
	cache CacheInvalidator,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.recommendation_cache")
	log.Info("recommendation cache consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("recommendation cache consumer stopped")
				return
			}
			log.Error("fetch message failed", zap.Error(err))
			continue
		}

		if err := handleMessage(ctx, msg, cache, log); err != nil {
			log.Error("invalidate recommendation cache failed",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit message failed", zap.Error(err))
		}
	}
}

func handleMessage(ctx context.Context, msg kafkago.Message, cache CacheInvalidator, log *zap.Logger) error {
	var env events.Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		log.Warn("decode event failed, skipping", zap.String("topic", msg.Topic), zap.Error(err))
		return nil
	}

	if !invalidatingEvents[env.EventType] {
		log.Debug("event ignored", zap.String("event_type", env.EventType))
		return nil
	}

	if err := cache.Invalidate(ctx); err != nil {
		return err
	}

	log.Info("recommendation cache invalidated",
		zap.String("event_type", env.EventType),
		zap.String("request_id", env.RequestID),
	)
	return nil
}
