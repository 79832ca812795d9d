package router

import (
	"time"

	"github.com/gigmile/mobile-money-service/internal/interface/http/handler"
	"github.com/gigmile/mobile-money-service/internal/interface/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func NewRouter(handlers *handler.Handlers, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(chimiddleware.Compress(5))
	r.Use(chimiddleware.Timeout(30 * time.Second))

	// Routes
	r.Get("/health", handlers.Payment.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/payments", func(r chi.Router) {
			r.Post("/deposits", handlers.Payment.InitiateDeposit)
			r.Post("/card-purchases", handlers.Payment.InitiateCardPurchase)
			r.Get("/{reference}", handlers.Payment.GetPayment)
			r.Post("/{reference}/status-check", handlers.Payment.CheckStatus)
			r.Get("/{reference}/events", handlers.Events.List)
		})

		r.Post("/callbacks/payhero", handlers.Callback.HandlePayHero)

		r.Get("/wallets/{wallet_id}", handlers.Payment.GetWallet)
		r.Get("/wallets/{wallet_id}/payments", handlers.Payment.GetWalletPayments)

		r.Get("/fx/usd-kes", handlers.Payment.QuoteUSD)
	})

	return r
}
