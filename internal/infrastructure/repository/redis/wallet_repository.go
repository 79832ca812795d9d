package redisrepository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gigmile/mobile-money-service/internal/domain"
	"github.com/go-redis/redis/v8"
)

var ErrCacheMiss = errors.New("cache miss")

// RedisWalletRepository is a read-through cache in front of the wallets table.
type RedisWalletRepository struct {
	client   *redis.Client
	cacheTTL time.Duration
}

func NewRedisWalletRepository(client *redis.Client, cacheTTL time.Duration) *RedisWalletRepository {
	return &RedisWalletRepository{
		client:   client,
		cacheTTL: cacheTTL,
	}
}

func (r *RedisWalletRepository) FindByID(ctx context.Context, walletID string) (*domain.Wallet, error) {
	data, err := r.client.Get(ctx, r.walletKey(walletID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	var wallet domain.Wallet
	if err := json.Unmarshal(data, &wallet); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet: %w", err)
	}

	return &wallet, nil
}

func (r *RedisWalletRepository) Save(ctx context.Context, wallet *domain.Wallet) error {
	data, err := json.Marshal(wallet)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet: %w", err)
	}

	if err := r.client.Set(ctx, r.walletKey(wallet.ID), data, r.cacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to save wallet: %w", err)
	}

	return nil
}

func (r *RedisWalletRepository) Delete(ctx context.Context, walletID string) error {
	if err := r.client.Del(ctx, r.walletKey(walletID)).Err(); err != nil {
		return fmt.Errorf("failed to delete wallet: %w", err)
	}
	return nil
}

func (r *RedisWalletRepository) walletKey(walletID string) string {
	return fmt.Sprintf("wallet:%s", walletID)
}
