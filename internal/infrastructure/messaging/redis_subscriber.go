package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gigmile/mobile-money-service/internal/domain"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const ConsumerGroup = "payment-processors"

const (
	defaultBatchSize   = 10
	defaultBlock       = time.Second
	defaultReclaimIdle = time.Minute

	maxDeliveries = 5
)

// RedisEventSubscriber consumes streams as a member of ConsumerGroup.
// Entries whose handler failed stay pending; once they have been idle for
// reclaimIdle any consumer in the group claims and retries them.
type RedisEventSubscriber struct {
	client   *redis.Client
	logger   *zap.Logger
	handlers map[string]domain.EventHandler
	consumer string
	group    string

	batchSize   int64
	block       time.Duration
	reclaimIdle time.Duration
}

func NewRedisEventSubscriber(client *redis.Client, logger *zap.Logger, consumerName string) *RedisEventSubscriber {
	return &RedisEventSubscriber{
		client:      client,
		logger:      logger.With(zap.String("consumer", consumerName)),
		handlers:    make(map[string]domain.EventHandler),
		consumer:    consumerName,
		group:       ConsumerGroup,
		batchSize:   defaultBatchSize,
		block:       defaultBlock,
		reclaimIdle: defaultReclaimIdle,
	}
}

// WithReclaimIdle sets how long an entry must sit unacknowledged before it
// is claimed from another consumer.
func (s *RedisEventSubscriber) WithReclaimIdle(d time.Duration) *RedisEventSubscriber {
	s.reclaimIdle = d
	return s
}

// Subscribe registers handler and creates the consumer group if needed.
// Call it before Start.
func (s *RedisEventSubscriber) Subscribe(ctx context.Context, eventType string, handler domain.EventHandler) error {
	if _, ok := decoders[eventType]; !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	stream := StreamKey(eventType)
	err := s.client.XGroupCreateMkStream(ctx, stream, s.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	s.handlers[eventType] = handler

	s.logger.Info("subscribed", zap.String("stream", stream), zap.String("group", s.group))
	return nil
}

// Start blocks until ctx is cancelled.
func (s *RedisEventSubscriber) Start(ctx context.Context) error {
	s.logger.Info("event subscriber started", zap.Int("streams", len(s.handlers)))

	for ctx.Err() == nil {
		if err := s.poll(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("stream read failed", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}

	s.logger.Info("event subscriber stopped")
	return nil
}

func (s *RedisEventSubscriber) poll(ctx context.Context) error {
	for eventType := range s.handlers {
		stream := StreamKey(eventType)

		if s.reclaimIdle > 0 {
			claimed, err := s.reclaim(ctx, stream)
			if err != nil {
				return err
			}
			s.deliver(ctx, eventType, stream, claimed)
		}

		res, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    s.group,
			Consumer: s.consumer,
			Streams:  []string{stream, ">"},
			Count:    s.batchSize,
			Block:    s.block,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return fmt.Errorf("xreadgroup %s: %w", stream, err)
		}
		for _, r := range res {
			s.deliver(ctx, eventType, stream, r.Messages)
		}
	}
	return nil
}

// reclaim takes over entries another consumer (or an earlier failed
// attempt by this one) left pending for longer than reclaimIdle. Entries
// delivered maxDeliveries times are acknowledged and dropped.
func (s *RedisEventSubscriber) reclaim(ctx context.Context, stream string) ([]redis.XMessage, error) {
	pending, err := s.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: stream,
		Group:  s.group,
		Start:  "-",
		End:    "+",
		Count:  s.batchSize,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("xpending %s: %w", stream, err)
	}

	var ids []string
	for _, p := range pending {
		if p.Idle < s.reclaimIdle {
			continue
		}
		if p.RetryCount >= maxDeliveries {
			s.logger.Error("dropping undeliverable entry",
				zap.String("stream", stream),
				zap.String("entry_id", p.ID),
				zap.Int64("deliveries", p.RetryCount),
			)
			s.client.XAck(ctx, stream, s.group, p.ID)
			continue
		}
		ids = append(ids, p.ID)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	msgs, err := s.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   stream,
		Group:    s.group,
		Consumer: s.consumer,
		MinIdle:  s.reclaimIdle,
		Messages: ids,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("xclaim %s: %w", stream, err)
	}
	s.logger.Info("reclaimed pending entries", zap.String("stream", stream), zap.Int("count", len(msgs)))
	return msgs, nil
}

func (s *RedisEventSubscriber) deliver(ctx context.Context, eventType, stream string, msgs []redis.XMessage) {
	handler := s.handlers[eventType]
	for _, msg := range msgs {
		event, err := decodeEvent(eventType, msg.Values)
		if err != nil {
			// Undecodable entries never succeed; ack so they stop cycling.
			s.logger.Error("malformed stream entry",
				zap.Error(err),
				zap.String("stream", stream),
				zap.String("entry_id", msg.ID),
			)
			s.client.XAck(ctx, stream, s.group, msg.ID)
			continue
		}

		if err := handler(ctx, event); err != nil {
			s.logger.Error("event handler failed",
				zap.Error(err),
				zap.String("stream", stream),
				zap.String("entry_id", msg.ID),
			)
			continue
		}

		if err := s.client.XAck(ctx, stream, s.group, msg.ID).Err(); err != nil {
			s.logger.Warn("xack failed", zap.Error(err), zap.String("entry_id", msg.ID))
		}
	}
}
