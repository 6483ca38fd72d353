package handler

import (
	"card-exchange/internal/adapter/http/middleware"
	"card-exchange/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	AccessSvc      ports.AccessService
	CardSvc        ports.CardService
	AuctionSvc     ports.AuctionService
	BreedingSvc    ports.BreedingService
	RewardSvc      ports.RewardService
	WalletSvc      ports.WalletService
	TokenSvc       ports.TokenService
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	cardHandler := NewCardHandler(deps.CardSvc)
	auctionHandler := NewAuctionHandler(deps.AuctionSvc)
	breedingHandler := NewBreedingHandler(deps.BreedingSvc)

	v1.GET("/cards/supply", cardHandler.TotalSupply)
	v1.GET("/cards/:id", cardHandler.GetCard)
	v1.GET("/cards/:id/cooldown", breedingHandler.GetCooldown)
	v1.GET("/cards", cardHandler.ListByOwner)
	v1.GET("/packs", cardHandler.PackState)
	v1.GET("/auctions", auctionHandler.List)
	v1.GET("/auctions/:token_id", auctionHandler.Get)

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	rewardHandler := NewRewardHandler(deps.RewardSvc)
	walletHandler := NewWalletHandler(deps.WalletSvc)

	authed := v1.Group("", jwtAuth)
	{
		authed.GET("/cards/mine", cardHandler.ListMine)
		authed.POST("/packs/buy", cardHandler.BuyPack)
		authed.POST("/packs/buy-with-drem", rewardHandler.BuyPackWithDrem)

		authed.POST("/auctions", auctionHandler.Create)
		authed.POST("/auctions/:token_id/bid", auctionHandler.Bid)
		authed.DELETE("/auctions/:token_id", auctionHandler.Cancel)

		authed.POST("/breeding/ascend", breedingHandler.Ascend)
		authed.POST("/breeding/transmogrify", breedingHandler.Transmogrify)

		authed.GET("/wallets/balance", walletHandler.Balance)
		authed.POST("/wallets/topup", walletHandler.Topup)

		authed.GET("/rewards/balance", rewardHandler.Balance)
		authed.GET("/rewards/claimable", rewardHandler.PreviewClaim)
		authed.POST("/rewards/claim", rewardHandler.Claim)
	}

	// --- Privileged routes (JWT + role checks in the services) ---
	adminHandler := NewAdminHandler(deps.AccessSvc, deps.CardSvc, deps.AuctionSvc, deps.BreedingSvc, deps.RewardSvc)
	admin := v1.Group("/admin", jwtAuth)
	{
		admin.POST("/promo-cards", adminHandler.CreatePromoCard)
		admin.POST("/promo-auctions", adminHandler.CreatePromoAuction)
		admin.GET("/roles", adminHandler.GetRoles)
		admin.PUT("/roles/:role", adminHandler.SetRole)
		admin.PUT("/knobs/:name", adminHandler.SetKnob)
		admin.POST("/pause/:scope", adminHandler.SetPause(true))
		admin.DELETE("/pause/:scope", adminHandler.SetPause(false))
		admin.POST("/rewards/mint", adminHandler.MintReward)
	}

	return r
}
