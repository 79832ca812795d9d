package sqlrepository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gigmile/mobile-money-service/internal/domain"
	"github.com/gigmile/mobile-money-service/internal/infrastructure/persistence"
	redisrepository "github.com/gigmile/mobile-money-service/internal/infrastructure/repository/redis"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GORMWalletRepository struct {
	db     *gorm.DB
	cache  *redisrepository.RedisWalletRepository
	logger *zap.Logger
}

func NewWalletRepository(db *gorm.DB, redisClient *redis.Client, cacheTTL time.Duration, logger *zap.Logger) *GORMWalletRepository {
	repo := &GORMWalletRepository{
		db:     db,
		logger: logger,
	}
	if redisClient != nil {
		repo.cache = redisrepository.NewRedisWalletRepository(redisClient, cacheTTL)
	}
	return repo
}

func (r *GORMWalletRepository) FindByID(ctx context.Context, id string) (*domain.Wallet, error) {
	if r.cache != nil {
		cached, err := r.cache.FindByID(ctx, id)
		if err == nil {
			r.logger.Debug("wallet cache hit", zap.String("wallet_id", id))
			return cached, nil
		}
	}

	var model persistence.WalletModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrWalletNotFound
		}
		r.logger.Error("failed to query wallet", zap.Error(result.Error))
		return nil, fmt.Errorf("database error: %w", result.Error)
	}

	wallet := model.ToDomain()

	if r.cache != nil {
		go r.cache.Save(context.Background(), wallet)
	}

	return wallet, nil
}

func (r *GORMWalletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	model := persistence.WalletModelFromDomain(wallet)

	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		r.logger.Error("failed to create wallet", zap.Error(result.Error))
		return fmt.Errorf("failed to create wallet: %w", result.Error)
	}

	r.logger.Info("wallet created", zap.String("wallet_id", wallet.ID))
	return nil
}

// invalidate drops the cached copy after the balance changed in MySQL.
func (r *GORMWalletRepository) invalidate(ctx context.Context, walletID string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, walletID); err != nil {
		r.logger.Warn("failed to invalidate wallet cache",
			zap.Error(err),
			zap.String("wallet_id", walletID))
	}
}

// credit applies a deposit inside tx using the wallet's version as an
// optimistic lock.
func (r *GORMWalletRepository) credit(tx *gorm.DB, walletID string, amount int64, at time.Time) (*domain.Wallet, error) {
	var model persistence.WalletModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, "id = ?", walletID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrWalletNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	wallet := model.ToDomain()
	if err := wallet.Credit(amount, at); err != nil {
		return nil, err
	}

	result := tx.Model(&persistence.WalletModel{}).
		Where("id = ? AND version = ?", wallet.ID, wallet.Version).
		Updates(map[string]interface{}{
			"balance":         wallet.Balance,
			"total_deposited": wallet.TotalDeposited,
			"last_deposit_at": wallet.LastDepositAt,
			"version":         gorm.Expr("version + 1"),
			"updated_at":      time.Now(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("database error: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrOptimisticLock
	}

	wallet.Version++
	return wallet, nil
}
