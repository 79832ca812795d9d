package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gigmile/mobile-money-service/internal/application/service"
	"github.com/gigmile/mobile-money-service/internal/config"
	"github.com/gigmile/mobile-money-service/internal/fx"
	"github.com/gigmile/mobile-money-service/internal/gateway/payhero"
	"github.com/gigmile/mobile-money-service/internal/infrastructure/database"
	"github.com/gigmile/mobile-money-service/internal/infrastructure/lock"
	"github.com/gigmile/mobile-money-service/internal/infrastructure/messaging"
	sqlrepository "github.com/gigmile/mobile-money-service/internal/infrastructure/repository/mysql"
	"github.com/gigmile/mobile-money-service/internal/interface/http/handler"
	"github.com/gigmile/mobile-money-service/internal/interface/http/router"
	"go.uber.org/zap"
)

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

	if err := database.Migrate(db); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}
	logger.Info("mysql ready", zap.String("host", cfg.MySQL.Host))

	redisClient, err := database.OpenRedis(cfg.Redis)
	if err != nil {
		logger.Fatal("redis unavailable", zap.Error(err))
	}
	defer redisClient.Close()

	repos := sqlrepository.NewRepositories(db, redisClient, cfg.Redis.CacheTTL, logger)
	locker, err := lock.New(cfg.Lock, redisClient, logger)
	if err != nil {
		logger.Fatal("reference locker", zap.Error(err))
	}
	eventPublisher := messaging.NewRedisEventPublisher(redisClient, logger)

	gateway, err := payhero.NewClient(cfg.PayHero, logger)
	if err != nil {
		logger.Fatal("payhero client", zap.Error(err))
	}

	settlement := service.NewSettlementService(repos.PaymentIntent, locker, eventPublisher, logger)
	paymentService := service.NewPaymentService(
		repos.Wallet,
		repos.PaymentIntent,
		gateway,
		settlement,
		fx.NewConverter(cfg.FX.USDToKESRate),
		cfg.CallbackURL(),
		logger,
	)
	callbackService := service.NewCallbackService(gateway, settlement, repos.ProviderEvent, logger)
	poller := service.NewStatusPoller(repos.PaymentIntent, gateway, settlement, repos.ProviderEvent, cfg.Poller, logger)

	eventService := service.NewProviderEventService(repos.ProviderEvent, repos.PaymentIntent, logger)
	handlers := handler.NewHandlers(paymentService, callbackService, poller, eventService, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.NewRouter(handlers, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if err := serve(srv, logger, cfg.CallbackURL()); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
	logger.Info("api exited")
}

// serve blocks until SIGINT/SIGTERM, then drains in-flight requests.
func serve(srv *http.Server, logger *zap.Logger, callbackURL string) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("address", srv.Addr), zap.String("callback_url", callbackURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("draining connections")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
