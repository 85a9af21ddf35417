package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"studio/internal/adapter/repo"
	"studio/internal/bootstrap"
	"studio/internal/infra"
	"studio/internal/infra/credentials"
	"studio/internal/jobs"
	"studio/internal/profiles"
	"studio/internal/render"
	"studio/internal/sqlinline"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "worker")
	if err := cfg.RequireDatabase(); err != nil {
		logger.Fatal().Err(err).Msg("worker: invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()
	runner := infra.NewSQLRunner(pool, logger)
	if _, err := runner.Exec(ctx, sqlinline.QEnsureSchema); err != nil {
		logger.Fatal().Err(err).Msg("worker: ensure schema failed")
	}

	store, err := bootstrap.FileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}
	assets := repo.NewAssetRepository(runner, store)

	comp, err := bootstrap.Compositor(cfg.Tuning.Compositor, assets, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure compositor")
	}
	analyzer, err := bootstrap.VisionAnalyzer(ctx, cfg, credentials.NewStore(runner), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure vision")
	}

	profileSvc := profiles.NewService(repo.NewProfileRepository(runner), assets, bootstrap.Extraction(cfg.Tuning, analyzer, logger), logger)
	renderSvc := render.NewService(comp, store, cfg.Tuning.Compositor.MaxCanvas, logger)

	worker := jobs.NewRunner(repo.NewJobRepository(runner), profileSvc, renderSvc, jobs.DefaultPollInterval, logger)
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}
