package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gigmile/mobile-money-service/internal/application/service"
	"github.com/gigmile/mobile-money-service/internal/config"
	"github.com/gigmile/mobile-money-service/internal/domain"
	"github.com/gigmile/mobile-money-service/internal/gateway/payhero"
	"github.com/gigmile/mobile-money-service/internal/infrastructure/database"
	"github.com/gigmile/mobile-money-service/internal/infrastructure/lock"
	"github.com/gigmile/mobile-money-service/internal/infrastructure/messaging"
	sqlrepository "github.com/gigmile/mobile-money-service/internal/infrastructure/repository/mysql"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// The worker runs the status poller and consumes settlement events.
func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("zap init: %v", err))
	}
	defer logger.Sync()

	cfg := config.Load()

	db, err := database.OpenMySQL(cfg.MySQL)
	if err != nil {
		logger.Fatal("mysql unavailable", zap.Error(err))
	}
	defer database.Close(db)

	redisClient, err := database.OpenRedis(cfg.Redis)
	if err != nil {
		logger.Fatal("redis unavailable", zap.Error(err))
	}
	defer redisClient.Close()

	locker, err := lock.New(cfg.Lock, redisClient, logger)
	if err != nil {
		logger.Fatal("reference locker", zap.Error(err))
	}

	repos := sqlrepository.NewRepositories(db, redisClient, cfg.Redis.CacheTTL, logger)
	settlement := service.NewSettlementService(
		repos.PaymentIntent,
		locker,
		messaging.NewRedisEventPublisher(redisClient, logger),
		logger,
	)

	gateway, err := payhero.NewClient(cfg.PayHero, logger)
	if err != nil {
		logger.Fatal("payhero client", zap.Error(err))
	}
	poller := service.NewStatusPoller(repos.PaymentIntent, gateway, settlement, repos.ProviderEvent, cfg.Poller, logger)
	notifications := service.NewNotificationService(repos.Wallet, logger)

	hostname, _ := os.Hostname()
	consumer := fmt.Sprintf("worker-%s-%d", hostname, os.Getpid())
	subscriber := messaging.NewRedisEventSubscriber(redisClient, logger, consumer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := subscriber.Subscribe(ctx, domain.EventTypePaymentSettled, notifications.HandlePaymentSettled); err != nil {
		logger.Fatal("subscribe", zap.Error(err))
	}

	logger.Info("worker started",
		zap.String("consumer", consumer),
		zap.Duration("poll_interval", cfg.Poller.Interval),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		poller.Start(gctx)
		return nil
	})
	g.Go(func() error {
		return subscriber.Start(gctx)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Error("worker stopped unexpectedly", zap.Error(err))
	}
	logger.Info("worker exited")
}
