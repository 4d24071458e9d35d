// Package main is the entry point for the photo-ingest-service API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"photo-ingest-service/internal/app/service"
	"photo-ingest-service/internal/cache"
	"photo-ingest-service/internal/config"
	"photo-ingest-service/internal/imagecheck"
	"photo-ingest-service/internal/infra/postgres"
	"photo-ingest-service/internal/infra/postgres/migrations"
	"photo-ingest-service/internal/infra/provider"
	"photo-ingest-service/internal/infra/provider/places"
	rediscache "photo-ingest-service/internal/infra/redis"
	"photo-ingest-service/internal/job"
	"photo-ingest-service/internal/logger"
	"photo-ingest-service/internal/transport/httpserver"
	"photo-ingest-service/internal/validator"
	"photo-ingest-service/pkg/locker"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(
		logger.Config{
			Level:  cfg.Logger.Level,
			Format: cfg.Logger.Format,
			Output: cfg.Logger.Output,
		},
		logger.SentryConfig{
			Enabled:     cfg.Sentry.Enabled,
			DSN:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			SampleRate:  cfg.Sentry.SampleRate,
		},
	)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting photo-ingest-service",
		zap.String("env", cfg.App.Env),
		zap.Int("port", cfg.App.Port),
	)

	// Connect to database
	db, err := postgres.NewConnection(
		cfg.Database.DSN(),
		postgres.PoolConfig{
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
			MaxLifetime:  cfg.Database.MaxLifetime,
		},
		log.Logger,
	)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() { _ = postgres.Close(db) }()

	// Run migrations
	if err := migrations.Run(db); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("database migrations completed")

	// Create repositories and object store
	repo := postgres.NewRepository(db)
	store := postgres.NewObjectStore(db, cfg.Storage.PublicBaseURL, log.Logger)

	// Create the places photo client
	source := places.New(
		places.Config{
			ClientConfig: provider.ClientConfig{
				BaseURL: cfg.Provider.Places.BaseURL,
				Timeout: cfg.Provider.Places.Timeout,
				Retry: provider.RetryConfig{
					MaxAttempts: cfg.Provider.Places.Retry.MaxAttempts,
					WaitTime:    cfg.Provider.Places.Retry.WaitTime,
					MaxWaitTime: cfg.Provider.Places.Retry.MaxWaitTime,
				},
				CB: provider.CBConfig{
					MaxRequests:  cfg.Provider.Places.CB.MaxRequests,
					Interval:     cfg.Provider.Places.CB.Interval,
					Timeout:      cfg.Provider.Places.CB.Timeout,
					FailureRatio: cfg.Provider.Places.CB.FailureRatio,
				},
			},
			APIKey:   cfg.Provider.Places.APIKey,
			MaxWidth: cfg.Provider.Places.MaxWidth,
		},
		log.Logger,
	)
	if !source.Configured() {
		log.Warn("places API key is not configured, photo migration will be rejected")
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Ping Redis to verify connection
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()
	log.Info("connected to Redis",
		zap.String("host", cfg.Redis.Host),
		zap.Int("port", cfg.Redis.Port),
	)

	// Build the two-tier cache over the persisted Redis tier
	persisted := rediscache.NewCache(redisClient, log.Logger, cfg.Cache.KeyPrefix)
	photoCache := cache.New(persisted, cache.Config{
		MemoryTTL:     cfg.Cache.MemoryTTL,
		MemoryCleanup: cfg.Cache.MemoryCleanup,
		PersistedTTL:  cfg.Cache.PersistedTTL,
	}, log.Logger)

	// Create the URL checker
	checker := imagecheck.New(imagecheck.Config{
		Timeout:        cfg.Validation.Timeout,
		MaxConcurrency: cfg.Validation.MaxConcurrency,
	}, log.Logger)

	// Create services
	migrationSvc := service.NewMigrationService(
		source, store, repo, photoCache, cfg.Migration.DownloadDelay, log.Logger,
	)
	photoSvc := service.NewPhotoService(repo, repo, photoCache, log.Logger)

	// Create the batch runner and scheduler with distributed locking
	runner := job.NewMigrationRunner(repo, migrationSvc, job.RunnerConfig{
		BatchSize:   cfg.Migration.BatchSize,
		EntityDelay: cfg.Migration.EntityDelay,
	}, log.Logger)

	distLocker := locker.NewRedisLocker(redisClient, log.Logger)
	scheduler := job.NewMigrationScheduler(
		runner,
		job.SchedulerConfig{
			Interval:  cfg.Migration.Interval,
			Timeout:   cfg.Migration.Timeout,
			OnStartup: cfg.Migration.OnStartup,
		},
		log.Logger,
		distLocker,
	)
	scheduler.Start(cfg.Migration.OnStartup)

	// Create validator
	v := validator.New()

	// Create HTTP server
	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Port:      cfg.App.Port,
			BodyLimit: 1024 * 1024, // 1MB; photo bytes are served, never uploaded
			Debug:     cfg.App.Debug,
		},
		httpserver.Deps{
			PhotoService:     photoSvc,
			MigrationService: migrationSvc,
			Runner:           runner,
			Entities:         repo,
			Photos:           repo,
			Store:            store,
			Checker:          checker,
			Source:           source,
			DB:               db,
			Validator:        v,
		},
		log.Logger,
	)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutdown signal received")

		// Stop scheduler
		scheduler.Stop()

		// Shutdown server with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.App.ShutdownWithContext(ctx); err != nil {
			log.Error("server shutdown error", zap.Error(err))
		}
	}()

	// Start server
	if err := server.Start(cfg.App.Port); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
