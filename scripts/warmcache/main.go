package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gigmile/mobile-money-service/internal/config"
	"github.com/gigmile/mobile-money-service/internal/domain"
	"github.com/gigmile/mobile-money-service/internal/infrastructure/database"
	"github.com/gigmile/mobile-money-service/internal/infrastructure/persistence"
	redisrepository "github.com/gigmile/mobile-money-service/internal/infrastructure/repository/redis"
)

// Loads every active wallet from MySQL into the Redis read cache.
func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := database.OpenMySQL(cfg.MySQL)
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	defer database.Close(db)

	client, err := database.OpenRedis(cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer client.Close()

	var models []persistence.WalletModel
	if err := db.WithContext(ctx).Where("status = ?", string(domain.WalletStatusActive)).Find(&models).Error; err != nil {
		log.Fatalf("load wallets: %v", err)
	}

	cache := redisrepository.NewRedisWalletRepository(client, cfg.Redis.CacheTTL)
	for i := range models {
		if err := cache.Save(ctx, models[i].ToDomain()); err != nil {
			log.Fatalf("cache wallet %s: %v", models[i].ID, err)
		}
	}

	fmt.Printf("warmed %d wallets, ttl %s\n", len(models), cfg.Redis.CacheTTL)
}
