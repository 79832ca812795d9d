package lock

import (
	"fmt"

	"github.com/gigmile/mobile-money-service/internal/config"
	"github.com/gigmile/mobile-money-service/internal/domain"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// New picks the ReferenceLocker named by cfg.Backend.
func New(cfg config.LockConfig, client *redis.Client, logger *zap.Logger) (domain.ReferenceLocker, error) {
	switch cfg.Backend {
	case "", "redis":
		if client == nil {
			return nil, fmt.Errorf("redis lock backend needs a redis client")
		}
		return NewRedisLocker(client, cfg.TTL, cfg.Wait, logger), nil
	case "memory":
		logger.Warn("using in-process reference locks; run a single instance")
		return NewKeyedMutex(), nil
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.Backend)
	}
}
