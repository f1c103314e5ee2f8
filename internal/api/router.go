package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vidstream/accounts-api/internal/api/handler"
	"github.com/vidstream/accounts-api/internal/api/middleware"
	"github.com/vidstream/accounts-api/internal/core/ports"
	"github.com/vidstream/accounts-api/internal/core/service"
	mongoinfra "github.com/vidstream/accounts-api/internal/infrastructure/db/mongo"
	redisinfra "github.com/vidstream/accounts-api/internal/infrastructure/db/redis"
	"github.com/vidstream/accounts-api/internal/pkg/config"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, uploader ports.MediaUploader, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.BodyLimit("16M"))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowCredentials: true,
	}))
	e.Use(echoprometheus.NewMiddleware("accounts"))

	// --- Dependencies ---
	userRepo := mongoinfra.NewUserRepository(db)
	subsRepo := mongoinfra.NewSubscriptionRepository(db)
	limiter := redisinfra.NewLoginLimiter(rdb, cfg.Auth.MaxLoginAttempts, cfg.Auth.LoginWindow)
	tokenService := service.NewTokenService(
		cfg.Auth.AccessTokenSecret, cfg.Auth.RefreshTokenSecret,
		cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL,
	)
	accountService := service.NewAccountService(userRepo, tokenService, uploader, limiter, log)
	subsService := service.NewSubscriptionService(subsRepo, userRepo)

	accountHandler := handler.NewAccountHandler(accountService, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	subsHandler := handler.NewSubscriptionHandler(subsService)
	authRequired := middleware.Auth(tokenService)

	// --- User / session routes ---
	users := e.Group("/api/v1/users")
	users.POST("/register", accountHandler.Register)
	users.POST("/login", accountHandler.Login)
	users.POST("/refresh-token", accountHandler.Refresh)
	users.POST("/logout", accountHandler.Logout, authRequired)
	users.POST("/change-password", accountHandler.ChangePassword, authRequired)
	users.GET("/current-user", accountHandler.CurrentUser, authRequired)
	users.PATCH("/update-account", accountHandler.UpdateAccount, authRequired)
	users.PATCH("/avatar", accountHandler.UpdateAvatar, authRequired)
	users.PATCH("/cover-image", accountHandler.UpdateCoverImage, authRequired)
	users.GET("/channel/:username", subsHandler.ChannelProfile, authRequired)

	// --- Subscription routes ---
	subs := e.Group("/api/v1/subscriptions", authRequired)
	subs.POST("/:channelId", subsHandler.Toggle)
	subs.GET("/channels", subsHandler.Channels)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)          // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
