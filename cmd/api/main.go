package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"card-exchange/config"
	httpHandler "card-exchange/internal/adapter/http/handler"
	pgStorage "card-exchange/internal/adapter/storage/postgres"
	redisStorage "card-exchange/internal/adapter/storage/redis"
	"card-exchange/internal/core/domain"
	"card-exchange/internal/core/ports"
	"card-exchange/internal/service"
	"card-exchange/pkg/logger"
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
		Msg("Starting Card Exchange")

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
	cardRepo := pgStorage.NewCardRepo(pool)
	auctionRepo := pgStorage.NewAuctionRepo(pool)
	settingsRepo := pgStorage.NewSettingsRepo(pool)
	roleRepo := pgStorage.NewRoleRepo(pool)
	walletRepo := pgStorage.NewWalletRepo(pool)
	rewardRepo := pgStorage.NewRewardRepo(pool)
	accountRepo := pgStorage.NewAccountRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Seed the single-row tables on first boot
	if err := cfg.Roles.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid role configuration")
	}
	if err := roleRepo.Init(ctx, &domain.RoleSet{
		CEO:   cfg.Roles.CEO,
		CFO:   cfg.Roles.CFO,
		COO:   cfg.Roles.COO,
		Owner: cfg.Roles.Owner,
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed roles")
	}
	if err := settingsRepo.Init(ctx, &domain.Settings{
		CurrentPackID:   1,
		PackPrice:       cfg.Economy.PackPrice,
		CardsPerPack:    cfg.Economy.CardsPerPack,
		SeasonPackLimit: cfg.Economy.SeasonPackLimit,
		MaxCardTypes:    cfg.Economy.MaxCardTypes,
		AscendPrice:     cfg.Economy.AscendPrice,
		TransmogrifyFee: cfg.Economy.TransmogrifyFee,
		OwnerCutBps:     cfg.Economy.OwnerCutBps,
		RewardThreshold: cfg.Economy.RewardThreshold,
		RewardUnit:      cfg.Economy.RewardUnit,
		PackPriceDrem:   cfg.Economy.PackPriceDrem,
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed settings")
	}

	// Initialize core services
	events := redisStorage.NewEventStream(rdb, cfg.Redis.Stream, log)
	clock := service.NewSystemClock()
	traitEngine := service.NewTraitEngine()
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// Initialize business services
	accessSvc := service.NewAccessService(roleRepo, transactor, events, log)
	authSvc := service.NewAuthService(accountRepo, walletRepo, hashSvc, tokenSvc)
	cardSvc := service.NewCardService(cardRepo, auctionRepo, settingsRepo, walletRepo, transactor, accessSvc, traitEngine, clock, events, log)
	auctionSvc := service.NewAuctionService(cardRepo, auctionRepo, settingsRepo, walletRepo, transactor, accessSvc, clock, events, log)
	breedingSvc := service.NewBreedingService(cardRepo, settingsRepo, walletRepo, transactor, accessSvc, traitEngine, clock, events, log)
	rewardSvc := service.NewRewardService(rewardRepo, cardRepo, settingsRepo, transactor, accessSvc, traitEngine, clock, events, log)
	walletSvc := service.NewWalletService(walletRepo, transactor, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		AccessSvc:      accessSvc,
		CardSvc:        cardSvc,
		AuctionSvc:     auctionSvc,
		BreedingSvc:    breedingSvc,
		RewardSvc:      rewardSvc,
		WalletSvc:      walletSvc,
		TokenSvc:       tokenSvc,
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
