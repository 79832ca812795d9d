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
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type GORMPaymentIntentRepository struct {
	db      *gorm.DB
	cache   *redisrepository.RedisPaymentIntentRepository
	wallets *GORMWalletRepository
	logger  *zap.Logger
}

func NewPaymentIntentRepository(db *gorm.DB, redisClient *redis.Client, cacheTTL time.Duration, wallets *GORMWalletRepository, logger *zap.Logger) *GORMPaymentIntentRepository {
	repo := &GORMPaymentIntentRepository{
		db:      db,
		wallets: wallets,
		logger:  logger,
	}
	if redisClient != nil {
		repo.cache = redisrepository.NewRedisPaymentIntentRepository(redisClient, cacheTTL)
	}
	return repo
}

func (r *GORMPaymentIntentRepository) Create(ctx context.Context, intent *domain.PaymentIntent) error {
	if intent.ID == "" {
		intent.ID = uuid.New().String()
	}

	model := persistence.PaymentIntentModelFromDomain(intent)

	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		if isDuplicateError(result.Error) {
			return domain.ErrDuplicateReference
		}
		r.logger.Error("failed to create payment intent", zap.Error(result.Error))
		return fmt.Errorf("database error: %w", result.Error)
	}

	r.logger.Debug("payment intent created",
		zap.String("reference", intent.Reference),
		zap.String("wallet_id", intent.WalletID),
	)

	return nil
}

func (r *GORMPaymentIntentRepository) FindByReference(ctx context.Context, reference string) (*domain.PaymentIntent, error) {
	if r.cache != nil {
		cached, err := r.cache.FindByReference(ctx, reference)
		if err == nil {
			return cached, nil
		}
	}

	var model persistence.PaymentIntentModel
	result := r.db.WithContext(ctx).Where("reference = ?", reference).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrIntentNotFound
		}
		return nil, fmt.Errorf("database error: %w", result.Error)
	}

	intent := model.ToDomain()

	if r.cache != nil && intent.IsTerminal() {
		go r.cache.Save(context.Background(), intent)
	}

	return intent, nil
}

// AttachCheckout records the provider checkout id on a PENDING intent. An
// intent that is already terminal is left untouched.
func (r *GORMPaymentIntentRepository) AttachCheckout(ctx context.Context, reference, checkoutID string) error {
	result := r.db.WithContext(ctx).
		Model(&persistence.PaymentIntentModel{}).
		Where("reference = ? AND status = ?", reference, string(domain.IntentStatusPending)).
		Updates(map[string]interface{}{
			"provider_checkout_id": checkoutID,
			"updated_at":           time.Now(),
		})

	if result.Error != nil {
		r.logger.Error("failed to attach checkout id",
			zap.Error(result.Error),
			zap.String("reference", reference),
		)
		return fmt.Errorf("database error: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&persistence.PaymentIntentModel{}).
		Where("reference = ?", reference).Count(&count).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if count == 0 {
		return domain.ErrIntentNotFound
	}
	r.logger.Debug("checkout id not attached, intent already resolved", zap.String("reference", reference))
	return nil
}

// Resolve performs the PENDING -> terminal compare-and-set and, for a
// success, the ledger side effect in the same transaction.
func (r *GORMPaymentIntentRepository) Resolve(ctx context.Context, res domain.Resolution) (*domain.PaymentIntent, bool, error) {
	var (
		resolved *domain.PaymentIntent
		applied  bool
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":         string(res.Status),
			"resolved_via":   string(res.Via),
			"failure_reason": res.Reason,
			"resolved_at":    res.ResolvedAt,
			"updated_at":     res.ResolvedAt,
		}
		if res.Receipt != "" {
			updates["provider_receipt"] = res.Receipt
		}
		if res.CheckoutID != "" {
			updates["provider_checkout_id"] = gorm.Expr("COALESCE(NULLIF(provider_checkout_id, ''), ?)", res.CheckoutID)
		}

		result := tx.Model(&persistence.PaymentIntentModel{}).
			Where("reference = ? AND status = ?", res.Reference, string(domain.IntentStatusPending)).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("failed to update payment intent: %w", result.Error)
		}

		var model persistence.PaymentIntentModel
		if err := tx.Where("reference = ?", res.Reference).First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrIntentNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}
		resolved = model.ToDomain()

		if result.RowsAffected == 0 {
			return nil
		}
		applied = true

		if resolved.Status != domain.IntentStatusSucceeded {
			return nil
		}
		return r.applySideEffect(tx, resolved)
	})
	if err != nil {
		applied = false
		if !errors.Is(err, domain.ErrIntentNotFound) {
			r.logger.Error("failed to resolve payment intent",
				zap.Error(err),
				zap.String("reference", res.Reference),
			)
		}
		return nil, false, err
	}

	if applied {
		if resolved.Status == domain.IntentStatusSucceeded && resolved.Purpose == domain.PurposeDeposit {
			r.wallets.invalidate(ctx, resolved.WalletID)
		}
		if r.cache != nil {
			if err := r.cache.Save(ctx, resolved); err != nil {
				r.logger.Warn("failed to cache resolved intent",
					zap.Error(err),
					zap.String("reference", resolved.Reference))
			}
		}
	}

	return resolved, applied, nil
}

func (r *GORMPaymentIntentRepository) applySideEffect(tx *gorm.DB, intent *domain.PaymentIntent) error {
	at := intent.UpdatedAt
	if intent.ResolvedAt != nil {
		at = *intent.ResolvedAt
	}

	var balanceAfter int64
	switch intent.Purpose {
	case domain.PurposeDeposit:
		wallet, err := r.wallets.credit(tx, intent.WalletID, intent.Amount, at)
		if err != nil {
			return err
		}
		balanceAfter = wallet.Balance

	case domain.PurposeCardPurchase:
		var wallet persistence.WalletModel
		if err := tx.First(&wallet, "id = ?", intent.WalletID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrWalletNotFound
			}
			return fmt.Errorf("database error: %w", err)
		}
		balanceAfter = wallet.Balance

		card := &domain.VirtualCard{
			ID:        uuid.New().String(),
			WalletID:  intent.WalletID,
			Reference: intent.Reference,
			Status:    domain.VirtualCardStatusActive,
			CreatedAt: at,
		}
		if err := tx.Create(persistence.VirtualCardModelFromDomain(card)).Error; err != nil {
			if isDuplicateError(err) {
				return domain.ErrDuplicateReference
			}
			return fmt.Errorf("failed to activate virtual card: %w", err)
		}

	default:
		return domain.ErrInvalidPurpose
	}

	entry := &domain.LedgerEntry{
		ID:           uuid.New().String(),
		Reference:    intent.Reference,
		WalletID:     intent.WalletID,
		EntryType:    intent.LedgerEntryType(),
		Amount:       intent.Amount,
		BalanceAfter: balanceAfter,
		CreatedAt:    at,
	}
	if err := tx.Create(persistence.LedgerEntryModelFromDomain(entry)).Error; err != nil {
		if isDuplicateError(err) {
			return domain.ErrDuplicateReference
		}
		return fmt.Errorf("failed to write ledger entry: %w", err)
	}

	return nil
}

func (r *GORMPaymentIntentRepository) FindPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*domain.PaymentIntent, error) {
	var models []persistence.PaymentIntentModel

	result := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", string(domain.IntentStatusPending), cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&models)

	if result.Error != nil {
		r.logger.Error("failed to fetch pending payment intents", zap.Error(result.Error))
		return nil, fmt.Errorf("database error: %w", result.Error)
	}

	intents := make([]*domain.PaymentIntent, len(models))
	for i := range models {
		intents[i] = models[i].ToDomain()
	}

	return intents, nil
}

func (r *GORMPaymentIntentRepository) FindByWalletIDWithPagination(ctx context.Context, walletID string, limit, offset int) ([]*domain.PaymentIntent, error) {
	var models []persistence.PaymentIntentModel

	result := r.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&models)

	if result.Error != nil {
		r.logger.Error("failed to fetch payment intents by wallet ID with pagination",
			zap.Error(result.Error),
			zap.String("wallet_id", walletID),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("database error: %w", result.Error)
	}

	intents := make([]*domain.PaymentIntent, len(models))
	for i := range models {
		intents[i] = models[i].ToDomain()
	}

	return intents, nil
}

func (r *GORMPaymentIntentRepository) CountByWalletID(ctx context.Context, walletID string) (int64, error) {
	var count int64

	result := r.db.WithContext(ctx).
		Model(&persistence.PaymentIntentModel{}).
		Where("wallet_id = ?", walletID).
		Count(&count)

	if result.Error != nil {
		r.logger.Error("failed to count payment intents by wallet ID",
			zap.Error(result.Error),
			zap.String("wallet_id", walletID),
		)
		return 0, fmt.Errorf("database error: %w", result.Error)
	}

	return count, nil
}
