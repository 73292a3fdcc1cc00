package handler

import (
	"bank-service/internal/adapter/http/middleware"
	redisStore "bank-service/internal/adapter/storage/redis"
	"bank-service/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	Registry       ports.AccountRegistry
	Engine         ports.TransferEngine
	StatementSvc   ports.StatementGenerator
	CardSvc        ports.CardIssuer
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
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

	// Health check (verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Swagger documentation
	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/signup", rl("auth_signup"), authHandler.Signup)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	accountHandler := NewAccountHandler(deps.Registry, deps.StatementSvc, deps.CardSvc)
	transferHandler := NewTransferHandler(deps.Engine, deps.Registry)

	accounts := v1.Group("/accounts", jwtAuth)
	{
		accounts.POST("", rl("accounts"), accountHandler.Create)
		accounts.GET("", rl("accounts"), accountHandler.List)
		accounts.GET("/:id", rl("accounts"), accountHandler.Get)
		accounts.DELETE("/:id", rl("accounts"), accountHandler.Close)
		accounts.GET("/:id/statement", rl("accounts"), accountHandler.Statement)
		accounts.POST("/:id/cards", rl("cards"), accountHandler.IssueCard)
		accounts.GET("/:id/cards", rl("cards"), accountHandler.ListCards)
	}

	transfers := v1.Group("/transfers", jwtAuth)
	{
		transfers.POST("", rl("transfers"), transferHandler.Transfer)
	}

	return r
}
