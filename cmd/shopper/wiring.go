package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shopper/internal/config"
	dbPostgres "github.com/kailas-cloud/shopper/internal/db/postgres"
	dbRedis "github.com/kailas-cloud/shopper/internal/db/redis"
	"github.com/kailas-cloud/shopper/internal/domain"
	"github.com/kailas-cloud/shopper/internal/metrics"
	catalogrepo "github.com/kailas-cloud/shopper/internal/repository/catalog"
	"github.com/kailas-cloud/shopper/internal/repository/embcache"
	geminiTransport "github.com/kailas-cloud/shopper/internal/transport/gemini"
	openaiTransport "github.com/kailas-cloud/shopper/internal/transport/openai"
	cataloguc "github.com/kailas-cloud/shopper/internal/usecase/catalog"
	embeddinguc "github.com/kailas-cloud/shopper/internal/usecase/embedding"
	generationuc "github.com/kailas-cloud/shopper/internal/usecase/generation"
)

// checkedEmbedder is the outermost link of the embedder chain.
type checkedEmbedder interface {
	domain.Embedder
	domain.HealthChecker
}

// checkedGenerator is the outermost link of the generator chain.
type checkedGenerator interface {
	domain.Generator
	domain.HealthChecker
}

// buildCatalogSource picks the configured catalog driver. The returned func releases its connections.
func buildCatalogSource(
	ctx context.Context, cfg config.CatalogConfig, logger *zap.Logger,
) (cataloguc.Loader, func(), error) {
	switch cfg.Source {
	case config.SourceFile:
		logger.Info("Catalog from files", zap.String("dir", filepath.Clean(cfg.File.Dir)))
		return catalogrepo.NewFileSource(cfg.File.Dir, cfg.File.EmbeddingsFile, cfg.File.ProductsFile), func() {}, nil

	case config.SourceRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Redis.Addrs,
			Password: cfg.Redis.Password,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create redis store: %w", err)
		}
		if err := store.WaitForReady(ctx, time.Duration(cfg.Redis.ReadinessTimeout)*time.Second); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("redis not ready: %w", err)
		}
		logger.Info("Catalog from redis", zap.Strings("addrs", cfg.Redis.Addrs), zap.String("prefix", cfg.Redis.KeyPrefix))
		return catalogrepo.NewRedisSource(store, cfg.Redis.KeyPrefix), store.Close, nil

	case config.SourcePostgres:
		db, err := dbPostgres.Open(ctx, dbPostgres.Config{
			DSN:          cfg.Postgres.DSN,
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		src, err := catalogrepo.NewPostgresSource(db, cfg.Postgres.Table)
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("postgres source: %w", err)
		}
		logger.Info("Catalog from postgres", zap.String("table", cfg.Postgres.Table))
		return src, func() { _ = db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown catalog source %q", cfg.Source)
	}
}

// openCache connects the embedding cache store. Returns nil when the cache is disabled.
func openCache(ctx context.Context, cfg config.CacheConfig) (*dbRedis.Store, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Addrs,
		Password: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create cache store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("cache not ready: %w", err)
	}
	return store, nil
}

// buildEmbedder assembles the decorator chain: provider -> cache -> instrumented -> instruction.
func buildEmbedder(
	ctx context.Context,
	cfg config.EmbeddingConfig,
	cacheCfg config.CacheConfig,
	cache *dbRedis.Store,
	logger *zap.Logger,
) (checkedEmbedder, error) {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second

	var base domain.Embedder
	switch cfg.Provider {
	case config.ProviderOpenAI:
		base = openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Provider:   cfg.Provider,
			Timeout:    timeout,
			Logger:     logger,
		})
	case config.ProviderGemini:
		emb, err := geminiTransport.NewEmbedder(ctx, &geminiTransport.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Provider:   cfg.Provider,
			Timeout:    timeout,
			Logger:     logger,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini embedder: %w", err)
		}
		base = emb
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}

	embedder := base
	if cache != nil {
		// the instruction is applied outside, so cached keys include it
		embedder = embcache.New(base, cache, embcache.Config{
			Prefix:     cacheCfg.KeyPrefix,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			TTL:        cacheCfg.TTL(),
		}, metrics.EmbeddingCacheTotal, logger)
	}

	instrumented := embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, logger)
	if cfg.QueryInstruction != "" {
		return domain.NewInstructionEmbedder(instrumented, cfg.QueryInstruction), nil
	}
	return instrumented, nil
}

// buildGenerator creates the configured generation provider wrapped with logging.
func buildGenerator(ctx context.Context, cfg config.GenerationConfig, logger *zap.Logger) (checkedGenerator, error) {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second

	var base domain.Generator
	switch cfg.Provider {
	case config.ProviderOpenAI:
		base = openaiTransport.NewGenerator(&openaiTransport.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Provider:    cfg.Provider,
			Timeout:     timeout,
			Logger:      logger,
			Mode:        openaiTransport.Mode(cfg.Mode),
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		})
	case config.ProviderGemini:
		gen, err := geminiTransport.NewGenerator(ctx, &geminiTransport.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Provider:    cfg.Provider,
			Timeout:     timeout,
			Logger:      logger,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini generator: %w", err)
		}
		base = gen
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}

	return generationuc.NewInstrumentedGenerator(base, cfg.Provider, cfg.Model, logger), nil
}
