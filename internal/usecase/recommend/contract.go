package recommend

import (
	"context"

	"github.com/kailas-cloud/shopper/internal/domain"
	"github.com/kailas-cloud/shopper/internal/domain/catalog"
	"github.com/kailas-cloud/shopper/internal/domain/ranking"
)

// Embedder vectorizes the combined query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Generator produces the answer from a rendered prompt.
type Generator interface {
	Complete(ctx context.Context, prompt string) (domain.CompletionResult, error)
}

// CatalogProvider hands out the catalog active at call time.
type CatalogProvider interface {
	Current() (*catalog.Catalog, error)
}

// Ranker orders catalog entries by similarity to a query vector.
type Ranker interface {
	Rank(query []float32, c *catalog.Catalog) ([]ranking.Candidate, error)
}
