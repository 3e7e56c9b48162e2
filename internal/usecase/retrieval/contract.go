package retrieval

import (
	"github.com/kailas-cloud/shopper/internal/domain/catalog"
	"github.com/kailas-cloud/shopper/internal/domain/ranking"
)

// Ranker orders every catalog entry by relevance to a query vector.
// Implementations must return a total order: descending score, ties by descending identifier.
type Ranker interface {
	Rank(query []float32, c *catalog.Catalog) ([]ranking.Candidate, error)
}
