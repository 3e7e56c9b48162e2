package retrieval

import (
	"fmt"

	"github.com/kailas-cloud/shopper/internal/domain/catalog"
	"github.com/kailas-cloud/shopper/internal/domain/product"
	"github.com/kailas-cloud/shopper/internal/domain/ranking"
)

// DefaultMaxCandidates is the number of products placed in a prompt.
// Selection truncates by count, not by a measured token budget.
const DefaultMaxCandidates = 3

// Top returns the first maxCount candidates (all of them if fewer), preserving order.
// maxCount <= 0 returns an empty slice.
func Top(ranked []ranking.Candidate, maxCount int) []ranking.Candidate {
	if maxCount <= 0 {
		return []ranking.Candidate{}
	}
	if maxCount > len(ranked) {
		maxCount = len(ranked)
	}
	return ranked[:maxCount:maxCount]
}

// Select truncates ranked to maxCount entries and resolves each to its display record.
// An identifier missing from the catalog fails with domain.ErrUnknownProduct; it is never skipped.
func Select(ranked []ranking.Candidate, c *catalog.Catalog, maxCount int) ([]product.Product, error) {
	top := Top(ranked, maxCount)
	out := make([]product.Product, 0, len(top))
	for _, cand := range top {
		p, err := c.Get(cand.ID())
		if err != nil {
			return nil, fmt.Errorf("resolve candidate: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}
