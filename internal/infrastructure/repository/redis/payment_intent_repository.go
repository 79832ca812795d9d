package redisrepository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gigmile/mobile-money-service/internal/domain"
	"github.com/go-redis/redis/v8"
)

// RedisPaymentIntentRepository caches resolved intents. Terminal intents never
// change, so an entry is written once and never invalidated.
type RedisPaymentIntentRepository struct {
	client   *redis.Client
	cacheTTL time.Duration
}

func NewRedisPaymentIntentRepository(client *redis.Client, cacheTTL time.Duration) *RedisPaymentIntentRepository {
	return &RedisPaymentIntentRepository{
		client:   client,
		cacheTTL: cacheTTL,
	}
}

// Save stores a terminal intent. Pending intents are ignored.
func (r *RedisPaymentIntentRepository) Save(ctx context.Context, intent *domain.PaymentIntent) error {
	if !intent.IsTerminal() {
		return nil
	}

	data, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("failed to marshal payment intent: %w", err)
	}

	if err := r.client.SetNX(ctx, r.intentKey(intent.Reference), data, r.cacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to save payment intent: %w", err)
	}

	return nil
}

func (r *RedisPaymentIntentRepository) FindByReference(ctx context.Context, reference string) (*domain.PaymentIntent, error) {
	data, err := r.client.Get(ctx, r.intentKey(reference)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}

	var intent domain.PaymentIntent
	if err := json.Unmarshal(data, &intent); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payment intent: %w", err)
	}

	return &intent, nil
}

func (r *RedisPaymentIntentRepository) intentKey(reference string) string {
	return fmt.Sprintf("intent:%s", reference)
}
