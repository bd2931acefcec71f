package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/cardledger/internal/adapter/http/handler"
	"github.com/iho/cardledger/internal/adapter/http/middleware"
	"github.com/iho/cardledger/internal/infrastructure/auth"
	"github.com/iho/cardledger/internal/infrastructure/metrics"
	"github.com/iho/cardledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AuthHandler      *handler.AuthHandler
	UserHandler      *handler.UserHandler
	CardHandler      *handler.CardHandler
	FeeHandler       *handler.FeeHandler
	LedgerHandler    *handler.LedgerHandler
	FundingHandler   *handler.FundingHandler
	WebhookHandler   *handler.WebhookHandler
	HealthHandler    *handler.HealthHandler
	IdempotencyStore usecase.IdempotencyStore
	JWTManager       *auth.JWTManager
	Metrics          *metrics.Metrics
	Logger           zerolog.Logger
	RateLimit        float64
	RateBurst        int
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}
	r.Use(middleware.Recovery)

	if cfg.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)
		r.Use(limiter.Limit)
	}

	// Operational endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// Provider callbacks are unauthenticated; payloads are persisted and
	// verified during processing.
	r.Post("/webhooks/{provider}", cfg.WebhookHandler.Receive)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Public auth endpoints
		r.Post("/auth/register", cfg.AuthHandler.Register)
		r.Post("/auth/login", cfg.AuthHandler.Login)

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(cfg.JWTManager))

			r.Post("/auth/logout", cfg.AuthHandler.Logout)
			r.Get("/auth/me", cfg.AuthHandler.Me)

			r.Route("/users", func(r chi.Router) {
				r.With(middleware.RequireAdmin).Get("/", cfg.UserHandler.List)
				r.Get("/{id}", cfg.UserHandler.Get)
				r.With(middleware.RequireAdmin).Put("/{id}", cfg.UserHandler.Update)
			})

			r.Route("/cards", func(r chi.Router) {
				r.Post("/", cfg.CardHandler.Issue)
				r.Get("/", cfg.CardHandler.List)
				r.Get("/{id}", cfg.CardHandler.Get)
				r.With(middleware.RequireBillingAccess).Post("/{id}/sync", cfg.CardHandler.Sync)
			})

			r.Route("/fees", func(r chi.Router) {
				r.Get("/summary", cfg.FeeHandler.Summary)
				r.Get("/monthly", cfg.FeeHandler.ListMonthly)
				r.Get("/tiers", cfg.FeeHandler.ListTiers)
				r.With(middleware.RequireBillingAccess).
					Post("/billing/{userID}/run", cfg.FeeHandler.RunBilling)
			})

			r.Route("/ledger", func(r chi.Router) {
				r.Get("/entries", cfg.LedgerHandler.ListEntries)
				r.Get("/summary", cfg.LedgerHandler.BalanceSummary)
				r.With(middleware.RequireBillingAccess).Get("/reconcile", cfg.LedgerHandler.Reconcile)
			})

			r.Route("/funding", func(r chi.Router) {
				r.Post("/deposit-address", cfg.FundingHandler.CreateDepositAddress)
				r.Post("/withdrawals", cfg.FundingHandler.RequestWithdrawal)
			})
		})
	})

	return r
}
