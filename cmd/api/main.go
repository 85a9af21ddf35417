package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"studio/internal/adapter/repo"
	"studio/internal/bootstrap"
	"studio/internal/http/handlers"
	httpapi "studio/internal/http/httpapi"
	"studio/internal/infra"
	"studio/internal/infra/credentials"
	"studio/internal/profiles"
	"studio/internal/render"
	"studio/internal/sqlinline"
	"studio/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")
	if err := cfg.RequireDatabase(); err != nil {
		logger.Fatal().Err(err).Msg("api: invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: db connection failed")
	}
	defer pool.Close()
	runner := infra.NewSQLRunner(pool, logger)
	if _, err := runner.Exec(ctx, sqlinline.QEnsureSchema); err != nil {
		logger.Fatal().Err(err).Msg("api: ensure schema failed")
	}

	store, err := bootstrap.FileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to configure storage")
	}
	assets := repo.NewAssetRepository(runner, store)

	comp, err := bootstrap.Compositor(cfg.Tuning.Compositor, assets, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to configure compositor")
	}
	analyzer, err := bootstrap.VisionAnalyzer(ctx, cfg, credentials.NewStore(runner), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to configure vision")
	}
	extractor := bootstrap.Extraction(cfg.Tuning, analyzer, logger)

	app := &handlers.App{
		Ingestor: storage.NewIngestor(store, assets, logger),
		Assets:   assets,
		Profiles: profiles.NewService(repo.NewProfileRepository(runner), assets, extractor, logger),
		Renders:  render.NewService(comp, store, cfg.Tuning.Compositor.MaxCanvas, logger),
		Jobs:     repo.NewJobRepository(runner),
		Logger:   logger,

		Vision:         analyzer,
		VisionProvider: cfg.VisionProvider,
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:             logger,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMin:    cfg.RateLimitPerMin,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Bool("vision", analyzer.Available()).Msg("api: listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
