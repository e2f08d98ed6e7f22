package api

import (
	"context"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/interimgrowthcollective/portal-system/docs"
	"github.com/interimgrowthcollective/portal-system/internal/api/handler"
	"github.com/interimgrowthcollective/portal-system/internal/api/middleware"
	"github.com/interimgrowthcollective/portal-system/internal/core/service"
	"github.com/interimgrowthcollective/portal-system/internal/infrastructure/config"
	mongodb "github.com/interimgrowthcollective/portal-system/internal/infrastructure/db/mongo"
	redisdb "github.com/interimgrowthcollective/portal-system/internal/infrastructure/db/redis"
	"github.com/interimgrowthcollective/portal-system/internal/infrastructure/email"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("portal"))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	codeRepo := mongodb.NewLoginCodeRepository(db)
	orgRepo := mongodb.NewOrganizationRepository(db)
	mailer := email.NewSMTPSender(email.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		Timeout:  cfg.SMTP.Timeout,
	})
	throttle := redisdb.NewRequestThrottle(rdb, cfg.RateLimit.PerEmail, cfg.RateLimit.PerIP, cfg.RateLimit.Window)

	authService := service.NewAuthService(userRepo, codeRepo, orgRepo, mailer, cfg.OTP.TTL, log)
	authHandler := handler.NewAuthHandler(authService, throttle, log)

	// --- Magic-link routes ---
	magic := e.Group("/send-magic-link")
	magic.POST("/request", authHandler.RequestCode, middleware.RateLimitByIP(throttle, log))
	magic.POST("/verify", authHandler.VerifyCode)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Observability & docs ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	// Startup index creation is cheap and idempotent.
	ensureIndexes(userRepo, codeRepo, log)

	return e
}

func ensureIndexes(users *mongodb.MongoUserRepository, codes *mongodb.MongoLoginCodeRepository, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := users.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to ensure user indexes")
	}
	if err := codes.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to ensure login code indexes")
	}
}
