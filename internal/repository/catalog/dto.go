// Package catalog loads the product catalog from files, Redis or Postgres.
package catalog

import (
	"fmt"

	"github.com/kailas-cloud/shopper/internal/domain/product"
)

// productDTO is the JSON encoding of a display record, keyed by product id.
// Content is the text that was embedded and is kept as loaded, even when empty.
// The hyphenated sub-category key matches the files produced by the embedding builder.
type productDTO struct {
	Category    string `json:"category"`
	SubCategory string `json:"sub-category"`
	Brand       string `json:"brand"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

func (d productDTO) toDomain(id string) (product.Product, error) {
	meta := product.Metadata{
		Category:    d.Category,
		SubCategory: d.SubCategory,
		Brand:       d.Brand,
		Description: d.Description,
	}
	p, err := product.New(id, d.Content, meta)
	if err != nil {
		return product.Product{}, fmt.Errorf("product %q: %w", id, err)
	}
	return p, nil
}
