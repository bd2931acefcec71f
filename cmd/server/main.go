package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/cardledger/internal/adapter/http"
	"github.com/iho/cardledger/internal/adapter/http/handler"
	"github.com/iho/cardledger/internal/adapter/provider/cardissuer"
	"github.com/iho/cardledger/internal/adapter/provider/cryptopay"
	postgresRepo "github.com/iho/cardledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/cardledger/internal/adapter/repository/redis"
	"github.com/iho/cardledger/internal/infrastructure/auth"
	"github.com/iho/cardledger/internal/infrastructure/config"
	"github.com/iho/cardledger/internal/infrastructure/logger"
	"github.com/iho/cardledger/internal/infrastructure/metrics"
	"github.com/iho/cardledger/internal/infrastructure/postgres"
	"github.com/iho/cardledger/internal/infrastructure/redis"
	"github.com/iho/cardledger/internal/usecase"
	"github.com/iho/cardledger/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	log.Logger = appLogger

	appMetrics := metrics.New()

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	appLogger.Info().Msg("connected to postgres")

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, appLogger); err != nil {
		appLogger.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	appLogger.Info().Msg("connected to redis")

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	userRepo := postgresRepo.NewUserRepository(pool)
	cardRepo := postgresRepo.NewCardRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	feeRepo := postgresRepo.NewMonthlyFeeRepository(pool)
	tierRepo := postgresRepo.NewTierRepository(pool)
	webhookRepo := postgresRepo.NewWebhookRepository(pool)
	retrier := postgresRepo.NewRetrier(appLogger)
	idGen := postgresRepo.NewULIDGenerator()

	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	billingLocker := redisRepo.NewBillingLocker(redisClient, appLogger)
	sessionStore := redisRepo.NewSessionStore(redisClient)
	cache := redisRepo.NewCache(redisClient)

	// Initialize provider clients
	issuerClient := cardissuer.NewClient(cfg.CardIssuerURL, cfg.CardIssuerAPIKey, appLogger)
	cryptoClient := cryptopay.NewClient(cfg.CryptoPayURL, cfg.CryptoPayAPIKey, appLogger)

	// Initialize use cases
	tierUC := usecase.NewTierUseCase(userRepo, tierRepo, cache, appLogger)
	pricingUC := usecase.NewPricingUseCase(userRepo, ledgerRepo, feeRepo, tierUC, idGen, billingLocker, appLogger, appMetrics)
	userUC := usecase.NewUserUseCase(userRepo, sessionStore, idGen)
	cardUC := usecase.NewCardUseCase(cardRepo, userRepo, pricingUC, issuerClient, idGen, appLogger, appMetrics)
	ledgerUC := usecase.NewLedgerUseCase(ledgerRepo)
	fundingUC := usecase.NewFundingUseCase(txManager, userRepo, ledgerRepo, pricingUC, cryptoClient, idempotencyStore, retrier, idGen, appLogger, appMetrics)
	webhookUC := usecase.NewWebhookUseCase(webhookRepo, fundingUC, cardUC, cardRepo, idGen, appLogger, appMetrics)
	reconUC := usecase.NewReconciliationUseCase(userRepo, ledgerRepo, appLogger)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)

	// Background jobs
	workers := worker.NewPool(appLogger, appMetrics)
	mustSchedule := func(spec string, job worker.Job) {
		if err := workers.Schedule(spec, job); err != nil {
			appLogger.Fatal().Err(err).Str("job", job.Name).Msg("failed to schedule job")
		}
	}
	mustSchedule(cfg.BillingSchedule, worker.NewBillingJob(userRepo, pricingUC, appLogger))
	mustSchedule(cfg.FeeSweepSchedule, worker.NewFeeScheduleJob(cardUC, appLogger))
	mustSchedule(cfg.CardSyncSchedule, worker.NewCardSyncJob(cardUC, appLogger))
	mustSchedule(cfg.ReconcileSchedule, worker.NewReconciliationJob(reconUC, appLogger))
	mustSchedule("0 5 * * *", worker.NewCleanupJob(sessionStore, webhookUC, cfg.WebhookRetention, appLogger))
	if err := workers.Every(cfg.WebhookDrainEvery, worker.NewWebhookDrainJob(webhookUC, cfg.WebhookBatchSize)); err != nil {
		appLogger.Fatal().Err(err).Msg("failed to schedule webhook drain")
	}
	workers.Start()
	defer workers.Stop()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(userUC, jwtManager)
	userHandler := handler.NewUserHandler(userUC)
	cardHandler := handler.NewCardHandler(cardUC)
	feeHandler := handler.NewFeeHandler(pricingUC, feeRepo, tierUC)
	ledgerHandler := handler.NewLedgerHandler(ledgerUC, reconUC)
	fundingHandler := handler.NewFundingHandler(fundingUC)
	webhookHandler := handler.NewWebhookHandler(webhookUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AuthHandler:      authHandler,
		UserHandler:      userHandler,
		CardHandler:      cardHandler,
		FeeHandler:       feeHandler,
		LedgerHandler:    ledgerHandler,
		FundingHandler:   fundingHandler,
		WebhookHandler:   webhookHandler,
		HealthHandler:    healthHandler,
		IdempotencyStore: idempotencyStore,
		JWTManager:       jwtManager,
		Metrics:          appMetrics,
		Logger:           appLogger,
	})

	server := buildServer(cfg, router)

	// Start server in goroutine
	go func() {
		appLogger.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info().Msg("server stopped")
}

func buildServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      h,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
}
