package shopper

import "github.com/kailas-cloud/shopper/internal/domain/product"

// Product is a catalog display record.
type Product struct {
	ID          string
	Content     string
	Category    string
	SubCategory string
	Brand       string
	Description string
}

// Candidate is a product ranked against a query.
type Candidate struct {
	Product Product
	Score   float64
}

// Answer is a generated recommendation with the tokens spent on it.
type Answer struct {
	Text             string
	EmbeddingTokens  int
	GenerationTokens int
}

// CatalogInfo describes the active catalog.
type CatalogInfo struct {
	Products   int
	Dimensions int
}

func productFromDomain(p *product.Product) Product {
	return Product{
		ID:          p.ID(),
		Content:     p.Content(),
		Category:    p.Category(),
		SubCategory: p.SubCategory(),
		Brand:       p.Brand(),
		Description: p.Description(),
	}
}
