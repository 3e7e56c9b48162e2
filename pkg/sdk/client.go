package shopper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	dbRedis "github.com/kailas-cloud/shopper/internal/db/redis"
	"github.com/kailas-cloud/shopper/internal/domain"
	"github.com/kailas-cloud/shopper/internal/domain/catalog"
	catalogrepo "github.com/kailas-cloud/shopper/internal/repository/catalog"
	cataloguc "github.com/kailas-cloud/shopper/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/shopper/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/shopper/internal/usecase/recommend"
	"github.com/kailas-cloud/shopper/internal/usecase/retrieval"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, replaced in tests.
type recommendUseCase interface {
	Answer(ctx context.Context, query string, labels []string) (string, error)
	Retrieve(ctx context.Context, query string, labels []string, limit int) ([]recommenduc.Match, error)
}

type catalogUseCase interface {
	Current() (*catalog.Catalog, error)
	Reload(ctx context.Context) (*catalog.Catalog, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the shopper SDK entry point.
type Client struct {
	closeFn   func()
	recommend recommendUseCase
	catalogs  catalogUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client and loads the catalog once.
// The provided context is used for the connection check and the initial load.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{maxCandidates: retrieval.DefaultMaxCandidates}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.embedder == nil {
		return nil, errors.New("shopper: embedder required (use WithEmbedder)")
	}

	loader, closeFn, err := createLoader(ctx, cfg)
	if err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		closeFn()
		return nil, err
	}

	c := wireClient(loader, cfg, obs)
	c.closeFn = closeFn

	if _, err := c.catalogs.Reload(ctx); err != nil {
		closeFn()
		return nil, fmt.Errorf("shopper: initial catalog load: %w", err)
	}
	return c, nil
}

func createLoader(ctx context.Context, cfg *clientConfig) (cataloguc.Loader, func(), error) {
	switch cfg.source {
	case "file":
		return catalogrepo.NewFileSource(cfg.dir, cfg.embeddingsFile, cfg.productsFile), func() {}, nil
	case "redis":
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("shopper: create redis store: %w", err)
		}
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("shopper: redis not ready: %w", err)
		}
		return catalogrepo.NewRedisSource(store, cfg.keyPrefix), store.Close, nil
	case "":
		return nil, nil, errors.New("shopper: catalog source required (use WithFileCatalog or WithRedisCatalog)")
	default:
		return nil, nil, fmt.Errorf("shopper: unknown catalog source %q", cfg.source)
	}
}

func wireClient(loader cataloguc.Loader, cfg *clientConfig, obs *observer) *Client {
	holder := cataloguc.NewHolder(loader, cfg.source, zap.NewNop())

	var emb domain.Embedder = &embedderAdapter{inner: cfg.embedder}
	if cfg.queryInstruction != "" {
		emb = domain.NewInstructionEmbedder(emb, cfg.queryInstruction)
	}

	// Generator: noop if not set; Candidates still works
	var gen domain.Generator = noopGenerator{}
	if cfg.generator != nil {
		gen = &generatorAdapter{inner: cfg.generator}
	}

	svc := recommenduc.New(emb, gen, holder, retrieval.NewScanRanker(), cfg.maxCandidates)

	return &Client{
		recommend: svc,
		catalogs:  holder,
		healthSvc: healthuc.New(holder, nil, nil, nil),
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.closeFn != nil {
		c.closeFn()
	}
}

// Recommend embeds the query, ranks the catalog and returns the generated recommendation verbatim.
func (c *Client) Recommend(ctx context.Context, query string, labels []string) (_ Answer, err error) {
	start := time.Now()
	defer func() { c.obs.observe("recommend", start, err) }()

	if err := validateQuery(query, labels); err != nil {
		return Answer{}, err
	}
	ctx, usage := domain.NewContextWithUsage(ctx)
	text, err := c.recommend.Answer(ctx, query, labels)
	if err != nil {
		return Answer{}, fmt.Errorf("recommend: %w", err)
	}
	embTokens, _ := usage.Embedding()
	genTokens, _ := usage.Generation()
	return Answer{Text: text, EmbeddingTokens: embTokens, GenerationTokens: genTokens}, nil
}

// Candidates returns up to limit ranked products for the query without generating an answer.
// limit <= 0 uses the configured maximum.
func (c *Client) Candidates(ctx context.Context, query string, labels []string, limit int) (_ []Candidate, err error) {
	start := time.Now()
	defer func() { c.obs.observe("candidates", start, err) }()

	if err := validateQuery(query, labels); err != nil {
		return nil, err
	}
	matches, err := c.recommend.Retrieve(ctx, query, labels, limit)
	if err != nil {
		return nil, fmt.Errorf("candidates: %w", err)
	}
	out := make([]Candidate, len(matches))
	for i := range matches {
		out[i] = Candidate{Product: productFromDomain(&matches[i].Product), Score: matches[i].Score}
	}
	return out, nil
}

// validateQuery rejects a call with nothing to embed.
func validateQuery(query string, labels []string) error {
	if strings.TrimSpace(query) == "" && len(labels) == 0 {
		return fmt.Errorf("%w: query or labels must be provided", ErrInvalidRequest)
	}
	return nil
}

// Product returns a display record by identifier.
func (c *Client) Product(id string) (Product, error) {
	cat, err := c.catalogs.Current()
	if err != nil {
		return Product{}, fmt.Errorf("product: %w", err)
	}
	p, err := cat.Get(id)
	if err != nil {
		return Product{}, fmt.Errorf("product: %w", err)
	}
	return productFromDomain(&p), nil
}

// Reload loads the catalog again. On failure the previous catalog keeps serving.
func (c *Client) Reload(ctx context.Context) (_ CatalogInfo, err error) {
	start := time.Now()
	defer func() { c.obs.observe("reload", start, err) }()

	cat, err := c.catalogs.Reload(ctx)
	if err != nil {
		return CatalogInfo{}, fmt.Errorf("reload: %w", err)
	}
	return CatalogInfo{Products: cat.Len(), Dimensions: cat.Dimensions()}, nil
}

// noopGenerator fails every completion (used when no generator is configured).
type noopGenerator struct{}

func (noopGenerator) Complete(context.Context, string) (domain.CompletionResult, error) {
	return domain.CompletionResult{}, fmt.Errorf(
		"%w: generator not configured (use WithGenerator)", domain.ErrGenerationProviderError,
	)
}
