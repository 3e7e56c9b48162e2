package retrieval

import (
	"fmt"
	"slices"

	"github.com/kailas-cloud/shopper/internal/domain"
	"github.com/kailas-cloud/shopper/internal/domain/catalog"
	"github.com/kailas-cloud/shopper/internal/domain/ranking"
	"github.com/kailas-cloud/shopper/internal/domain/vector"
)

// ScanRanker scores every product on each call: O(N) similarities plus an O(N log N) sort.
// Fine at product-catalog scale; larger catalogs can swap in an index behind Ranker.
type ScanRanker struct{}

var _ Ranker = ScanRanker{}

// NewScanRanker creates a full-scan ranker.
func NewScanRanker() ScanRanker { return ScanRanker{} }

// Rank returns one candidate per catalog product, best first.
// An empty catalog yields an empty slice. A query whose dimension differs from the
// catalog's returns domain.ErrVectorDimMismatch.
func (ScanRanker) Rank(query []float32, c *catalog.Catalog) ([]ranking.Candidate, error) {
	if c == nil || c.Len() == 0 {
		return []ranking.Candidate{}, nil
	}
	if len(query) != c.Dimensions() {
		return nil, fmt.Errorf("%w: query has %d dimensions, catalog has %d",
			domain.ErrVectorDimMismatch, len(query), c.Dimensions())
	}

	ranked := make([]ranking.Candidate, 0, c.Len())
	for id, emb := range c.All() {
		ranked = append(ranked, ranking.NewCandidate(id, vector.Similarity(query, emb)))
	}
	slices.SortFunc(ranked, ranking.Compare)
	return ranked, nil
}
