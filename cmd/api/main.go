package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/comics-comments-api/internal/auth"
	"github.com/noah-isme/comics-comments-api/internal/config"
	"github.com/noah-isme/comics-comments-api/internal/database"
	"github.com/noah-isme/comics-comments-api/internal/handler"
	"github.com/noah-isme/comics-comments-api/internal/middleware"
	"github.com/noah-isme/comics-comments-api/internal/observability"
	"github.com/noah-isme/comics-comments-api/internal/ratelimit"
	"github.com/noah-isme/comics-comments-api/internal/repository"
	"github.com/noah-isme/comics-comments-api/internal/router"
	"github.com/noah-isme/comics-comments-api/internal/service"
	"github.com/noah-isme/comics-comments-api/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.AppName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if cfg.AutoMigrate {
		applied, err := database.Migrate(ctx, db, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate database")
		}
		logger.Info().Ints("applied", applied).Msg("database migrations complete")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Drain()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	identityVerifier := auth.NewSupabaseVerifier(auth.SupabaseConfig{
		URL:     cfg.SupabaseURL,
		AnonKey: cfg.SupabaseAnonKey,
		Timeout: cfg.IdentityTimeout,
	})
	adminVerifier := auth.NewAdminTokenVerifier(cfg.AdminJWTSecret)
	if !adminVerifier.Enabled() {
		logger.Warn().Msg("admin token secret not set, admin deletes are disabled")
	}

	limiter := newLimiter(ctx, cfg, redisClient, logger)

	events := service.NewCommentEventHub(redisClient, natsConn, cfg.EventsChannel, logger)
	events.Start(ctx)

	commentRepo := repository.NewCommentRepository(db)
	commentService := service.NewCommentService(commentRepo, events, service.CommentServiceConfig{
		Cache:    redisClient,
		CacheTTL: cfg.ListCacheTTL,
	}, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		ErrorHandler: utils.ErrorHandler,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		DB:             db,
		CommentHandler: handler.NewCommentHandler(commentService, identityVerifier, logger),
		StreamHandler:  handler.NewCommentStreamHandler(events, logger),
		CommentGuards: []fiber.Handler{
			middleware.RateLimit("comments", cfg.IPRateLimitMax, cfg.IPRateLimitSpan),
			middleware.AdminSession(adminVerifier, logger),
		},
		WriteGuards: []fiber.Handler{
			middleware.IdentityRequired(identityVerifier, logger),
			middleware.IdentityRateLimit(limiter, logger),
		},
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	shutdown(app, cfg.ShutdownTimeout, logger)
}

func newLimiter(ctx context.Context, cfg config.Config, redisClient *redis.Client, logger zerolog.Logger) ratelimit.Limiter {
	limits := ratelimit.Config{Max: cfg.RateLimitMax, Window: cfg.RateLimitWindow}

	if cfg.RateLimitBackend == config.RateLimitBackendRedis {
		logger.Info().Msg("using redis rate limiter")
		return ratelimit.NewRedisLimiter(redisClient, limits, "")
	}

	memory := ratelimit.NewMemoryLimiter(limits, cfg.RateLimitSize)
	go memory.Run(ctx, cfg.RateLimitSweep)
	logger.Info().Int("capacity", cfg.RateLimitSize).Msg("using in-memory rate limiter")
	return memory
}

func shutdown(app *fiber.App, timeout time.Duration, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
