// Package recommend runs the retrieval-augmented recommendation pipeline.
package recommend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shopper/internal/domain"
	"github.com/kailas-cloud/shopper/internal/domain/catalog"
	"github.com/kailas-cloud/shopper/internal/domain/product"
	"github.com/kailas-cloud/shopper/internal/domain/ranking"
	"github.com/kailas-cloud/shopper/internal/logger"
	"github.com/kailas-cloud/shopper/internal/metrics"
	"github.com/kailas-cloud/shopper/internal/usecase/prompt"
	"github.com/kailas-cloud/shopper/internal/usecase/retrieval"
)

// Match is a selected product with its similarity score.
type Match struct {
	Product product.Product
	Score   float64
}

// Service answers shopping queries against the active catalog.
// It holds no per-query state; one Service serves any number of concurrent calls.
type Service struct {
	embed         Embedder
	gen           Generator
	catalogs      CatalogProvider
	ranker        Ranker
	maxCandidates int
}

// New creates a recommendation service. maxCandidates <= 0 falls back to retrieval.DefaultMaxCandidates.
func New(embed Embedder, gen Generator, catalogs CatalogProvider, ranker Ranker, maxCandidates int) *Service {
	if maxCandidates <= 0 {
		maxCandidates = retrieval.DefaultMaxCandidates
	}
	return &Service{
		embed:         embed,
		gen:           gen,
		catalogs:      catalogs,
		ranker:        ranker,
		maxCandidates: maxCandidates,
	}
}

// MaxCandidates is the number of products placed in each prompt.
func (s *Service) MaxCandidates() int { return s.maxCandidates }

// Answer embeds the query, selects the closest products, renders the prompt and
// returns the generated text verbatim. Any stage failing fails the whole call.
func (s *Service) Answer(ctx context.Context, query string, labels []string) (string, error) {
	answer, err := s.answer(ctx, query, labels)
	if err != nil {
		metrics.RecommendationsTotal.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.RecommendationsTotal.WithLabelValues("ok").Inc()
	return answer, nil
}

func (s *Service) answer(ctx context.Context, query string, labels []string) (string, error) {
	matches, err := s.retrieve(ctx, query, labels, s.maxCandidates)
	if err != nil {
		return "", err
	}

	candidates := make([]product.Product, len(matches))
	for i, m := range matches {
		candidates[i] = m.Product
	}
	rendered := prompt.Assemble(query, labels, candidates)

	log := logger.FromContext(ctx)
	log.Debug("Prompt assembled",
		zap.Int("candidates", len(candidates)),
		zap.Int("prompt_bytes", len(rendered)),
		zap.String("prompt", rendered),
	)

	start := time.Now()
	res, err := s.gen.Complete(ctx, rendered)
	observeStage("generate", start)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	domain.UsageFromContext(ctx).AddGenerationTokens(res.TotalTokens)

	return res.Text, nil
}

// Retrieve runs the pipeline up to selection without calling the generator.
// limit <= 0 uses the configured candidate count.
func (s *Service) Retrieve(ctx context.Context, query string, labels []string, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = s.maxCandidates
	}
	return s.retrieve(ctx, query, labels, limit)
}

func (s *Service) retrieve(ctx context.Context, query string, labels []string, limit int) ([]Match, error) {
	// Pin one catalog for the whole call so a concurrent reload cannot split it.
	cat, err := s.catalogs.Current()
	if err != nil {
		return nil, fmt.Errorf("current catalog: %w", err)
	}

	start := time.Now()
	emb, err := s.embed.Embed(ctx, EmbeddingText(query, labels))
	observeStage("embed", start)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	domain.UsageFromContext(ctx).AddEmbeddingTokens(emb.TotalTokens)

	start = time.Now()
	ranked, err := s.ranker.Rank(emb.Embedding, cat)
	observeStage("rank", start)
	if err != nil {
		return nil, fmt.Errorf("rank catalog: %w", err)
	}

	start = time.Now()
	matches, err := selectMatches(ranked, cat, limit)
	observeStage("select", start)
	if err != nil {
		return nil, err
	}
	metrics.CandidatesSelected.Observe(float64(len(matches)))

	logger.FromContext(ctx).Debug("Candidates selected",
		zap.Int("catalog_size", cat.Len()),
		zap.Int("selected", len(matches)),
	)
	return matches, nil
}

func selectMatches(ranked []ranking.Candidate, cat *catalog.Catalog, limit int) ([]Match, error) {
	top := retrieval.Top(ranked, limit)
	records, err := retrieval.Select(top, cat, len(top))
	if err != nil {
		return nil, fmt.Errorf("select candidates: %w", err)
	}
	out := make([]Match, len(records))
	for i, p := range records {
		out[i] = Match{Product: p, Score: top[i].Score()}
	}
	return out, nil
}

// EmbeddingText is the string sent to the embedder: the query, then the labels
// joined by ", " when there are any. The prompt shows query and labels separately.
func EmbeddingText(query string, labels []string) string {
	if len(labels) == 0 {
		return query
	}
	return query + " " + strings.Join(labels, ", ")
}

func observeStage(stage string, start time.Time) {
	metrics.PipelineStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
