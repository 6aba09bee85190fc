package main

import (
	"context"

	"github.com/spf13/cobra"

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

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the planner HTTP service",
		Long:  `Serve starts the planner as an HTTP service using the same configuration as the standalone planner binary. Settings come from config files and TRANSIT_* environment variables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loaderOpts := []config.LoaderOption{}
			if configPath != "" {
				loaderOpts = append(loaderOpts, config.WithConfigPaths(configPath))
			}

			cfg, err := config.NewLoader(loaderOpts...).Load()
			if err != nil {
				return err
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

			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	metrics.InitMetrics(cfg.Metrics.Namespace, cfg.App.Name)

	var repo repository.PlanRepository
	if cfg.Database.Enabled {
		db, err := database.NewPostgresDB(ctx, &cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.RunMigrations(ctx, db, migrations.PostgresMigrations, "postgres"); err != nil {
			return err
		}
		repo = repository.NewPostgresPlanRepository(db)
	} else {
		logger.Info("Database disabled, plan history is unavailable")
	}

	var planCache *cache.PlanCache
	if cfg.Cache.Enabled && cfg.Planner.CacheResults {
		c, err := cache.New(cache.FromConfig(&cfg.Cache))
		if err != nil {
			return err
		}
		defer c.Close()

		planCache = cache.NewPlanCache(c, cfg.Cache.DefaultTTL)
	}

	auditor, err := audit.New(&audit.Config{
		Enabled:     cfg.Audit.Enabled,
		Backend:     cfg.Audit.Backend,
		FilePath:    cfg.Audit.FilePath,
		BufferSize:  cfg.Audit.BufferSize,
		FlushPeriod: cfg.Audit.FlushPeriod,
	})
	if err != nil {
		return err
	}
	defer auditor.Close()

	plannerService := service.NewPlannerService(
		cfg.App.Version,
		planCache,
		repo,
		engine.Options{MaxIterations: cfg.Planner.MaxIterations},
	)

	var limiter ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		var err error
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

	return srv.Run()
}
