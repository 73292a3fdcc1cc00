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

	"bank-service/config"
	httpHandler "bank-service/internal/adapter/http/handler"
	pgStorage "bank-service/internal/adapter/storage/postgres"
	redisStorage "bank-service/internal/adapter/storage/redis"
	"bank-service/internal/core/ports"
	"bank-service/internal/service"
	"bank-service/pkg/apperror"
	"bank-service/pkg/logger"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Bank Service")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	holderRepo := pgStorage.NewHolderRepo(pool)
	accountRepo := pgStorage.NewAccountRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	cardRepo := pgStorage.NewCardRepo(pool)
	ledgerStore := pgStorage.NewLedgerStore(pool, cfg.Ledger.LockTimeout)

	// Initialize Redis stores
	transferCache := redisStorage.NewTransferCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// Initialize business services
	registry := service.NewAccountService(accountRepo, holderRepo, log)
	engine := service.NewTransferService(ledgerStore, transferCache, cfg.Ledger.LockTimeout, cfg.Ledger.TransferCacheTTL, log)
	statementSvc := service.NewStatementService(accountRepo, txRepo)
	authSvc := service.NewAuthService(holderRepo, registry, hashSvc, tokenSvc)
	cardSvc := service.NewCardService(cardRepo, accountRepo, hashSvc, log)

	// Seed demo data (dev environments only)
	if cfg.Seed.Enabled {
		seedDemoHolder(ctx, authSvc, log)
	}

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Load OpenAPI spec for Swagger UI
	if specBytes, err := os.ReadFile("docs/api/openapi.yaml"); err == nil {
		httpHandler.SetSwaggerSpec(specBytes)
		log.Info().Msg("OpenAPI spec loaded for Swagger UI at /swagger")
	} else {
		log.Warn().Err(err).Msg("OpenAPI spec not found, Swagger UI will be unavailable")
	}

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		Registry:       registry,
		Engine:         engine,
		StatementSvc:   statementSvc,
		CardSvc:        cardSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// seedDemoHolder bootstraps a demo holder with a funded debit account.
// Re-running against a seeded database is a no-op.
func seedDemoHolder(ctx context.Context, authSvc ports.AuthService, log zerolog.Logger) {
	resp, err := authSvc.Signup(ctx, ports.SignupRequest{
		Name:     "Demo Holder",
		Username: "demo",
		Password: "demo-password",
		Accounts: []ports.CreateAccountSpec{
			{Type: "DEBIT", InitialBalance: decimal.RequireFromString("1000.00"), Primary: true},
		},
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == apperror.CodeUsernameExists {
			log.Info().Msg("seed data already present")
			return
		}
		log.Error().Err(err).Msg("failed to seed demo holder")
		return
	}
	log.Info().
		Str("holder_id", resp.Holder.ID.String()).
		Str("account_id", resp.Accounts[0].ID.String()).
		Msg("seeded demo holder")
}
