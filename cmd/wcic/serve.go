package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gcbaptista/what-can-i-cook/api"
	"github.com/gcbaptista/what-can-i-cook/config"
	"github.com/gcbaptista/what-can-i-cook/internal/analytics"
	"github.com/gcbaptista/what-can-i-cook/internal/cache"
	"github.com/gcbaptista/what-can-i-cook/internal/engine"
	"github.com/gcbaptista/what-can-i-cook/internal/jobs"
	"github.com/gcbaptista/what-can-i-cook/internal/logging"
	"github.com/gcbaptista/what-can-i-cook/internal/source/file"
	"github.com/gcbaptista/what-can-i-cook/internal/source/mealdb"
	"github.com/gcbaptista/what-can-i-cook/services"
	"github.com/gcbaptista/what-can-i-cook/store"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(flagConfig)
			if err != nil {
				return err
			}
			if err := logging.Init(cfg.Log.Level, cfg.Log.Format, cfg.App.Name); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer logging.Sync()
			return serve(cfg)
		},
	}
}

func newSource(cfg *config.Config) services.CorpusSource {
	if cfg.Corpus.Source == config.SourceFile {
		return file.NewSource(cfg.Corpus.File)
	}
	return mealdb.NewClient(cfg.MealDB)
}

func serve(cfg *config.Config) error {
	log := logging.L()

	opts := engine.Options{
		Source:       newSource(cfg),
		MaxResults:   cfg.Match.MaxResults,
		FetchTimeout: cfg.Corpus.FetchTimeout,
	}

	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisSnapshotCache(cfg.Redis)
		if err != nil {
			log.Warn("redis snapshot cache disabled", zap.Error(err))
		} else {
			defer redisCache.Close()
			opts.Cache = redisCache
		}
	}

	analyticsFile := ""
	if cfg.Corpus.PersistSnapshots {
		fileStore, err := store.NewFileStore(cfg.Corpus.DataDir)
		if err != nil {
			return fmt.Errorf("open snapshot store: %w", err)
		}
		opts.Store = fileStore
		analyticsFile = filepath.Join(cfg.Corpus.DataDir, "analytics.json")
	}

	jobManager := jobs.NewManager(cfg.Jobs.Workers, cfg.Jobs.Retention)
	jobManager.Start()
	defer jobManager.Stop()
	opts.Jobs = jobManager

	eng := engine.NewEngine(opts)
	defer eng.Close()

	if restored, err := eng.RestoreFromDisk(); err != nil {
		log.Warn("failed to restore corpus snapshot", zap.Error(err))
	} else if restored {
		stats, _ := eng.Stats()
		log.Info("restored corpus snapshot", zap.Int("recipes", stats.Recipes), zap.Time("fetched_at", stats.FetchedAt))
	}

	if _, err := eng.RefreshAsync(); err != nil {
		log.Warn("failed to schedule startup refresh", zap.Error(err))
	}
	eng.StartRefresher(cfg.Corpus.RefreshInterval)

	tracker := analytics.NewService(0, analyticsFile)
	if err := tracker.Load(); err != nil {
		log.Warn("failed to load analytics", zap.Error(err))
	}
	defer func() {
		if err := tracker.Flush(); err != nil {
			log.Warn("failed to save analytics", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewRouter(cfg, eng, tracker),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting server",
			zap.String("addr", srv.Addr),
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.String("source", opts.Source.Name()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-quit:
		log.Info("shutting down server", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server exited")
	return nil
}
