// Planner service entrypoint.
//
// Wires configuration, logging, metrics and the optional Postgres history
// store and result cache, then serves the planner HTTP API until SIGINT or
// SIGTERM. The database and cache are both optional: without a database the
// history endpoints report their feature as unavailable, without a cache
// every flow query is computed from scratch.
package main

import (
	"context"
	"log"

	"transit/migrations"
	"transit/pkg/audit"
	"transit/pkg/cache"
	"transit/pkg/config"
	"transit/pkg/database"
	"transit/pkg/logger"
	"transit/pkg/metrics"
	"transit/pkg/ratelimit"
	"transit/pkg/server"
	"transit/services/planner-svc/internal/engine"
	"transit/services/planner-svc/internal/handlers"
	"transit/services/planner-svc/internal/repository"
	"transit/services/planner-svc/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	ctx := context.Background()

	metrics.InitMetrics(cfg.Metrics.Namespace, cfg.App.Name)

	// Подключение к PostgreSQL (опционально, только для истории расчётов)
	var repo repository.PlanRepository
	if cfg.Database.Enabled {
		db, err := database.NewPostgresDB(ctx, &cfg.Database)
		if err != nil {
			logger.Fatal("failed to connect to database", "error", err)
		}
		defer db.Close()

		if err := database.RunMigrations(ctx, db, migrations.PostgresMigrations, "postgres"); err != nil {
			logger.Fatal("failed to run migrations", "error", err)
		}

		repo = repository.NewPostgresPlanRepository(db)
	} else {
		logger.Info("Database disabled, plan history is unavailable")
	}

	// Кэш результатов расчётов
	var planCache *cache.PlanCache
	if cfg.Cache.Enabled && cfg.Planner.CacheResults {
		c, err := cache.New(cache.FromConfig(&cfg.Cache))
		if err != nil {
			logger.Fatal("failed to create cache", "error", err)
		}
		defer c.Close()

		planCache = cache.NewPlanCache(c, cfg.Cache.DefaultTTL)
		logger.Info("Plan cache initialized", "driver", cfg.Cache.Driver, "ttl", cfg.Cache.DefaultTTL)
	}

	// Журнал аудита
	auditor, err := audit.New(&audit.Config{
		Enabled:     cfg.Audit.Enabled,
		Backend:     cfg.Audit.Backend,
		FilePath:    cfg.Audit.FilePath,
		BufferSize:  cfg.Audit.BufferSize,
		FlushPeriod: cfg.Audit.FlushPeriod,
	})
	if err != nil {
		logger.Fatal("failed to create audit logger", "error", err)
	}
	defer auditor.Close()

	plannerService := service.NewPlannerService(
		cfg.App.Version,
		planCache,
		repo,
		engine.Options{MaxIterations: cfg.Planner.MaxIterations},
	)

	// Общий лимитер для middleware и сервера
	var limiter ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter, err = ratelimit.New(&ratelimit.Config{
			Requests:        cfg.RateLimit.Requests,
			Window:          cfg.RateLimit.Window,
			Strategy:        cfg.RateLimit.Strategy,
			KeyFunc:         cfg.RateLimit.KeyFunc,
			Backend:         cfg.RateLimit.Backend,
			BurstSize:       cfg.RateLimit.BurstSize,
			CleanupInterval: cfg.RateLimit.CleanupInterval,
			RedisAddr:       cfg.RateLimit.RedisAddr,
		})
		if err != nil {
			logger.Warn("Failed to create rate limiter, continuing without it", "error", err)
			limiter = nil
		}
	}

	h := handlers.New(plannerService, cfg, &handlers.Options{
		RateLimiter:  limiter,
		KeyExtractor: ratelimit.ExtractorByName(cfg.RateLimit.KeyFunc),
		Auditor:      auditor,
	})

	srv := server.NewWithOptions(cfg, h.Routes(), &server.Options{RateLimiter: limiter})

	logger.Info("Starting planner service",
		"port", cfg.HTTP.Port,
		"environment", cfg.App.Environment,
		"version", cfg.App.Version,
	)

	if err := srv.Run(); err != nil {
		logger.Fatal("server failed", "error", err)
	}
}
