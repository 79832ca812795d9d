package sqlrepository

import (
	"errors"
	"time"

	"github.com/gigmile/mobile-money-service/internal/domain"
	"github.com/go-redis/redis/v8"
	mysqldriver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const mysqlDuplicateEntry = 1062

type Repositories struct {
	Wallet        domain.WalletRepository
	PaymentIntent domain.PaymentIntentRepository
	ProviderEvent domain.ProviderEventRepository
}

// NewRepositories wires the MySQL repositories. redisClient may be nil, in
// which case reads go straight to MySQL.
func NewRepositories(db *gorm.DB, redisClient *redis.Client, cacheTTL time.Duration, logger *zap.Logger) *Repositories {
	wallets := NewWalletRepository(db, redisClient, cacheTTL, logger)
	return &Repositories{
		Wallet:        wallets,
		PaymentIntent: NewPaymentIntentRepository(db, redisClient, cacheTTL, wallets, logger),
		ProviderEvent: NewProviderEventRepository(db, logger),
	}
}

func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysqldriver.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
