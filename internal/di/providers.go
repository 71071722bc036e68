package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"travelwatch/internal/app"
	"travelwatch/internal/config"
	"travelwatch/internal/database"
	"travelwatch/internal/health"
	"travelwatch/internal/http/handler"
	"travelwatch/internal/http/middleware"
	"travelwatch/internal/http/router"
	"travelwatch/internal/observability"
	"travelwatch/internal/repository"
	"travelwatch/internal/security"
	"travelwatch/internal/service"
)

// InitializeApp builds the whole object graph by hand, leaves first.
func InitializeApp() (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	runtime, err := observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}
	logger := observability.InitLogger(cfg, runtime.LoggerProvider)

	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	var redisClient redis.UniversalClient
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		redisClient = redis.NewClient(opts)
		observability.InstrumentRedisClient(redisClient, logger)
	}

	userRepo := repository.NewUserRepository(db)
	recordRepo := repository.NewRecordRepository(db)

	jwtMgr := security.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	oauthProvider := service.NewGoogleOAuthProvider(cfg)
	oauthSvc := service.NewOAuthService(oauthProvider, userRepo)
	authSvc := service.NewAuthService(cfg, oauthSvc, userRepo, jwtMgr)
	recordSvc := service.NewRecordService(recordRepo)
	upstream := service.NewUpstreamClient(cfg)

	cookieSecure := cfg.Env == "production"
	authHandler := handler.NewAuthHandler(authSvc, cfg.StateSigningSecret, cfg.FrontendURL, cookieSecure)
	recordHandler := handler.NewRecordHandler(recordSvc)
	externalHandler := handler.NewExternalHandler(upstream)

	var authLimiter func(http.Handler) http.Handler
	if redisClient != nil {
		authLimiter = middleware.NewDistributedRateLimiter(
			middleware.NewRedisFixedWindowLimiter(redisClient),
			cfg.AuthRateLimitPerMin, time.Minute, "auth",
		).Middleware()
	}

	readiness := health.NewProbeRunner(time.Second,
		health.NewDBChecker(db),
		health.NewRedisChecker(redisClient),
	)

	mux := router.NewRouter(router.Dependencies{
		AuthHandler:      authHandler,
		RecordHandler:    recordHandler,
		ExternalHandler:  externalHandler,
		JWTManager:       jwtMgr,
		APIKey:           cfg.APIKey,
		CORSOrigins:      cfg.CORSAllowedOrigins,
		RequestTimeout:   cfg.RequestTimeout,
		AuthRateLimitRPM: cfg.AuthRateLimitPerMin,
		APIRateLimitRPM:  cfg.APIRateLimitPerMin,
		AuthRateLimiter:  authLimiter,
		Readiness:        readiness,
		EnableOTelHTTP:   cfg.OTELTracingEnabled,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &app.App{
		Config:        cfg,
		Logger:        logger,
		Server:        server,
		Observability: runtime,
		DB:            db,
		Redis:         redisClient,

		ShutdownTimeout:              20 * time.Second,
		ShutdownHTTPDrainTimeout:     10 * time.Second,
		ShutdownObservabilityTimeout: 8 * time.Second,
	}, nil
}
