package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/profitlens/profitlens-backend/api/routes"
	"github.com/profitlens/profitlens-backend/internal/importer"
	"github.com/profitlens/profitlens-backend/internal/marketing"
	"github.com/profitlens/profitlens-backend/internal/pricing"
	"github.com/profitlens/profitlens-backend/internal/reports"
	"github.com/profitlens/profitlens-backend/internal/stats"
	"github.com/profitlens/profitlens-backend/pkg/config"
	"github.com/profitlens/profitlens-backend/pkg/db"
	"github.com/profitlens/profitlens-backend/pkg/logger"
	"github.com/profitlens/profitlens-backend/pkg/metrics"
	"github.com/profitlens/profitlens-backend/pkg/migrate"
	"github.com/profitlens/profitlens-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	// The report cache is optional. A nil client degrades every lookup to a
	// miss, so a missing or unreachable redis never blocks startup.
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Warn(context.Background(), "redis unavailable, running without report cache")
			redisClient = nil
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					logg.Error(context.Background(), "error closing redis", err)
				}
			}()
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	importMetrics := metrics.NewImportMetrics(registry)

	pricingRepo := pricing.NewRepository(dbClient.DB())
	reconciler := pricing.NewReconciler(dbClient, pricingRepo, logg)
	resolver := pricing.NewResolver(pricingRepo, logg)
	detector := pricing.NewMissingDetector(pricingRepo)
	reportsRepo := reports.NewRepository(dbClient.DB())
	reportsSvc := reports.NewService(reportsRepo, redisClient, cfg.Reports, logg)
	importerSvc := importer.NewService(dbClient, cfg.Uploads, logg, importMetrics, redisClient)
	marketingSvc := marketing.NewService(dbClient.DB())
	statsSvc := stats.NewService(dbClient.DB())

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			dbClient,
			redisClient,
			registry,
			reportsSvc,
			reportsRepo,
			pricingRepo,
			reconciler,
			resolver,
			detector,
			importerSvc,
			marketingSvc,
			statsSvc,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
