package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rigmatch/rigmatch/internal/backup"
	"github.com/rigmatch/rigmatch/internal/catalog"
	"github.com/rigmatch/rigmatch/internal/compat"
	"github.com/rigmatch/rigmatch/internal/config"
	"github.com/rigmatch/rigmatch/internal/match"
	"github.com/rigmatch/rigmatch/internal/power"
	"github.com/rigmatch/rigmatch/internal/recommend"
	"github.com/rigmatch/rigmatch/internal/sched"
	"github.com/rigmatch/rigmatch/internal/scrape"
	"github.com/rigmatch/rigmatch/internal/server"
	"github.com/rigmatch/rigmatch/internal/version"
	"github.com/rigmatch/rigmatch/pkg/models"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("RigMatch server starting", zap.String("version", version.Info()))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	store, err := catalog.Open(cfg.Database.Path, logger)
	if err != nil {
		logger.Fatal("failed to open catalog", zap.Error(err))
	}
	defer store.Close()

	categories, err := compat.LoadCategories(cfg.Profiles.Path)
	if err != nil {
		logger.Fatal("failed to load workload categories", zap.Error(err))
	}

	engine := compat.NewEngine(categories, logger)
	matcher := match.New(store, logger)
	ranker := recommend.New(engine, recommend.Options{
		MinMatchScore:      cfg.Recommendation.MinMatchScore,
		MaxRecommendations: cfg.Recommendation.MaxRecommendations,
	}, logger)
	estimator := power.NewEstimator(cfg.Recommendation.PSUOverheadPercent)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	tracker := scrape.NewTracker()
	scraper := scrape.NewScraper(
		scrape.NewClient(cfg.Scrape.RequestsPerSecond, logger),
		store,
		tracker,
		scrape.NewMetrics(registry),
		cfg.Scrape.ComponentLimit,
		logger,
	)

	// The weekly refresh re-scrapes every component type, then archives
	// the catalog.
	refresh := func(ctx context.Context) error {
		types := []models.ComponentType{
			models.TypeCPU, models.TypeGPU, models.TypeRAM, models.TypeStorage,
		}
		if err := scraper.Run(ctx, types); err != nil {
			return fmt.Errorf("scheduled scrape: %w", err)
		}
		if _, err := backup.Create(ctx, cfg.Database.Path, *configPath, cfg.Backup.Dir); err != nil {
			return fmt.Errorf("scheduled backup: %w", err)
		}
		if _, err := backup.Prune(cfg.Backup.Dir, cfg.Backup.Keep); err != nil {
			return fmt.Errorf("prune backups: %w", err)
		}
		return nil
	}

	scheduler, err := sched.New(sched.Config{
		Enabled:  cfg.Scheduler.Enabled,
		Day:      cfg.Scheduler.Day,
		At:       cfg.Scheduler.At,
		Timezone: cfg.Scheduler.Timezone,
	}, refresh, logger)
	if err != nil {
		logger.Fatal("failed to build scheduler", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := server.New(cfg.Server.Addr(), server.Deps{
		Store:     store,
		Matcher:   matcher,
		Engine:    engine,
		Ranker:    ranker,
		Power:     estimator,
		Scraper:   scraper,
		Tracker:   tracker,
		Scheduler: scheduler,
		Auth:      server.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),

		DBPath:       cfg.Database.Path,
		ConfigPath:   *configPath,
		BackupDir:    cfg.Backup.Dir,
		BackupKeep:   cfg.Backup.Keep,
		ProfilesPath: cfg.Profiles.Path,

		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,

		Registry: registry,
		Logger:   logger,
	})

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("RigMatch server ready", zap.String("addr", cfg.Server.Addr()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("RigMatch server stopped")
}
