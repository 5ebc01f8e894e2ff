package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/jeremykhd/mycoaching/internal/backend"
	"github.com/jeremykhd/mycoaching/internal/config"
	"github.com/jeremykhd/mycoaching/internal/db"
	"github.com/jeremykhd/mycoaching/internal/guard"
	apihttp "github.com/jeremykhd/mycoaching/internal/http"
	"github.com/jeremykhd/mycoaching/internal/metrics"
	"github.com/jeremykhd/mycoaching/internal/repository"
	"github.com/jeremykhd/mycoaching/internal/service"
	"github.com/jeremykhd/mycoaching/internal/store"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sessionTTL := time.Duration(cfg.SessionTTLMinutes) * time.Minute
	otpWindow := time.Duration(cfg.OTPWindowMinutes) * time.Minute

	var (
		storage    = backend.NewMemoryStorage()
		otpLimiter = service.NewOTPRateLimiter(otpWindow, cfg.OTPMaxRequests)
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory session storage", zap.Error(err))
		} else {
			storage = backend.NewRedisStorage(redisClient, sessionTTL)
			otpLimiter = service.NewRedisOTPRateLimiter(redisClient, otpWindow, cfg.OTPMaxRequests)
		}
		cancel()
		defer redisClient.Close()
	}

	var exerciseRepo repository.ExerciseRepository
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		if err := db.Ping(ctx, pool); err != nil {
			logger.Warn("db ping failed, reading exercises from backend", zap.Error(err))
		} else {
			exerciseRepo = repository.NewPgExerciseRepository(pool)
		}
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	client, err := backend.New(backend.Config{
		URL:     cfg.BackendURL,
		AnonKey: cfg.BackendAnonKey,
		Timeout: time.Duration(cfg.BackendTimeoutSeconds) * time.Second,
		Storage: storage,
		Metrics: collector,
	})
	if err != nil {
		logger.Fatal("backend client", zap.Error(err))
	}

	containers := store.NewRegistry(store.Deps{
		Auth:               client.Auth(),
		Accounts:           service.NewAccountService(logger, client),
		Health:             service.NewHealthService(logger, client),
		Objectives:         service.NewObjectivesService(logger, client),
		Exercises:          service.NewExerciseService(logger, client, exerciseRepo),
		Limiter:            otpLimiter,
		Logger:             logger,
		NotificationBuffer: cfg.NotificationBuffer,
	}, sessionTTL)

	scheduler := cron.New()
	if _, err := containers.Schedule(scheduler, "@every 5m"); err != nil {
		logger.Fatal("schedule container sweep", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	signer := service.NewCookieSigner(cfg.SessionSecret, sessionTTL)
	router := apihttp.NewRouter(
		logger,
		apihttp.SessionMiddleware(logger, signer, containers, cfg.CookieSecure),
		apihttp.NewViewHandler(logger, guard.New(logger, collector)),
		apihttp.NewAuthHandler(logger),
		apihttp.NewAccountHandler(logger),
		apihttp.NewWorkoutHandler(logger),
		metrics.Handler(registry),
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
