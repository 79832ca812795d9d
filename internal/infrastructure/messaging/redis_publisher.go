package messaging

import (
	"context"
	"fmt"

	"github.com/gigmile/mobile-money-service/internal/domain"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// DefaultStreamMaxLen caps each stream; trimming is approximate.
const DefaultStreamMaxLen = 100000

type RedisEventPublisher struct {
	client *redis.Client
	logger *zap.Logger
	maxLen int64
}

func NewRedisEventPublisher(client *redis.Client, logger *zap.Logger) *RedisEventPublisher {
	return &RedisEventPublisher{
		client: client,
		logger: logger,
		maxLen: DefaultStreamMaxLen,
	}
}

// WithMaxLen overrides the stream cap. Zero disables trimming.
func (p *RedisEventPublisher) WithMaxLen(n int64) *RedisEventPublisher {
	p.maxLen = n
	return p
}

func (p *RedisEventPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	values, err := encodeEvent(event)
	if err != nil {
		return err
	}

	args := &redis.XAddArgs{
		Stream: StreamKey(event.GetEventType()),
		Values: values,
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		p.logger.Error("publish failed",
			zap.Error(err),
			zap.String("event_type", event.GetEventType()),
			zap.String("reference", event.GetAggregateID()),
		)
		return fmt.Errorf("xadd %s: %w", args.Stream, err)
	}

	p.logger.Debug("event published",
		zap.String("stream", args.Stream),
		zap.String("entry_id", id),
		zap.String("reference", event.GetAggregateID()),
	)
	return nil
}
