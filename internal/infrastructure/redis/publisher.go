package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"visaflow/internal/domain"
)

// EventPublisher publishes order stage changes as JSON on a Redis channel.
type EventPublisher struct {
	rdb     redis.Cmdable
	channel string
	logger  *zap.Logger
}

func NewEventPublisher(rdb redis.Cmdable, channel string, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{rdb: rdb, channel: channel, logger: logger}
}

func (p *EventPublisher) PublishStageChange(ctx context.Context, event domain.StageEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding stage event: %w", err)
	}

	receivers, err := p.rdb.Publish(ctx, p.channel, payload).Result()
	if err != nil {
		return fmt.Errorf("publishing stage event: %w", err)
	}

	p.logger.Debug("stage event published",
		zap.String("orderId", event.OrderID),
		zap.String("to", string(event.To)),
		zap.Int64("receivers", receivers),
	)
	return nil
}
