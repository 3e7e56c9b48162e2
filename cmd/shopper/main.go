package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shopper/internal/config"
	logpkg "github.com/kailas-cloud/shopper/internal/logger"
	"github.com/kailas-cloud/shopper/internal/metrics"
	chiTransport "github.com/kailas-cloud/shopper/internal/transport/chi"
	cataloguc "github.com/kailas-cloud/shopper/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/shopper/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/shopper/internal/usecase/recommend"
	"github.com/kailas-cloud/shopper/internal/usecase/retrieval"
	"github.com/kailas-cloud/shopper/internal/version"
)

func main() {
	_ = godotenv.Load() // .env is optional

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting shopper API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("catalog_source", cfg.Catalog.Source),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("generation_provider", cfg.Generation.Provider),
	)

	metrics.Register()

	ctx := logpkg.ContextWithLogger(context.Background(), logger)

	source, closeSource, err := buildCatalogSource(ctx, cfg.Catalog, logger)
	if err != nil {
		logger.Fatal("Failed to create catalog source", zap.Error(err))
	}
	defer closeSource()

	holder := cataloguc.NewHolder(source, cfg.Catalog.Source, logger)
	if _, err := holder.Reload(ctx); err != nil {
		// keep serving: requests get 503 until a reload succeeds
		logger.Error("Initial catalog load failed", zap.Error(err))
	}

	cache, err := openCache(ctx, cfg.Cache)
	if err != nil {
		logger.Fatal("Failed to connect embedding cache", zap.Error(err))
	}

	embedder, err := buildEmbedder(ctx, cfg.Embedding, cfg.Cache, cache, logger)
	if err != nil {
		logger.Fatal("Failed to create embedder", zap.Error(err))
	}
	generator, err := buildGenerator(ctx, cfg.Generation, logger)
	if err != nil {
		logger.Fatal("Failed to create generator", zap.Error(err))
	}
	logger.Info("Providers created",
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.String("generation_model", cfg.Generation.Model),
		zap.String("generation_mode", cfg.Generation.Mode),
		zap.Bool("embedding_cache", cache != nil),
	)

	recommendSvc := recommenduc.New(embedder, generator, holder, retrieval.NewScanRanker(), cfg.Retrieval.MaxCandidates)

	// Pass a nil interface, not a typed nil pointer, when the cache is off.
	var cachePinger healthuc.CachePinger
	if cache != nil {
		cachePinger = cache
		defer cache.Close()
	}
	healthSvc := healthuc.New(holder, embedder, generator, cachePinger)

	server := chiTransport.NewServer(recommendSvc, holder, healthSvc, logger)
	router := chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	go reloadOnSignal(ctx, holder, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// reloadOnSignal reloads the catalog on every SIGHUP. A failed reload keeps the previous catalog.
func reloadOnSignal(ctx context.Context, holder *cataloguc.Holder, logger *zap.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			logger.Info("Received SIGHUP, reloading catalog")
			reloadCtx := logpkg.With(ctx, zap.String("trigger", "sighup"))
			if _, err := holder.Reload(reloadCtx); err != nil {
				logger.Warn("Catalog reload failed, previous catalog kept", zap.Error(err))
			}
		}
	}
}
