package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ecomarket/ecocoins-backend/api/controllers"
	ordercontrollers "github.com/ecomarket/ecocoins-backend/api/controllers/orders"
	"github.com/ecomarket/ecocoins-backend/api/middleware"
	"github.com/ecomarket/ecocoins-backend/internal/checkout"
	"github.com/ecomarket/ecocoins-backend/internal/orders"
	"github.com/ecomarket/ecocoins-backend/internal/wallet"
	"github.com/ecomarket/ecocoins-backend/pkg/config"
	"github.com/ecomarket/ecocoins-backend/pkg/enums"
	"github.com/ecomarket/ecocoins-backend/pkg/logger"
	"github.com/ecomarket/ecocoins-backend/pkg/redis"
)

// Dependencies are the collaborators mounted by NewRouter. Nil redis
// collaborators disable idempotency replay and rate limiting.
type Dependencies struct {
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Idempotency redis.IdempotencyStore
	RateLimiter redis.RateLimiter
	Metrics     http.Handler

	Wallet   wallet.Service
	Orders   orders.Service
	Checkout checkout.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	checkoutLimit := middleware.UserRateLimitPolicy{
		Scope:  "checkout",
		Window: cfg.RateLimit.CheckoutWindow,
		Limit:  int64(cfg.RateLimit.CheckoutLimit),
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Idempotency, cfg.Idempotency, logg))

		r.Get("/wallet/me", controllers.WalletMe(deps.Wallet, logg))

		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.UserRateLimit(checkoutLimit, deps.RateLimiter, logg)).
				Post("/", ordercontrollers.Create(deps.Checkout, logg))
			r.Get("/my", ordercontrollers.Mine(deps.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))
		r.Use(middleware.Idempotency(deps.Idempotency, cfg.Idempotency, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.AdminList(deps.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.AdminDetail(deps.Orders, logg))
			r.Post("/{orderId}/confirm", ordercontrollers.AdminConfirm(deps.Orders, logg))
			r.Post("/{orderId}/deliver", ordercontrollers.AdminDeliver(deps.Orders, logg))
			r.Post("/{orderId}/cancel", ordercontrollers.AdminCancel(deps.Orders, logg))
		})
		r.Route("/wallets/{userId}", func(r chi.Router) {
			r.Post("/earn", controllers.AdminWalletEarn(deps.Wallet, logg))
			r.Post("/adjust", controllers.AdminWalletAdjust(deps.Wallet, logg))
		})
	})

	return r
}
