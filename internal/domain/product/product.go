package product

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxIDLength is the maximum product identifier length in bytes.
const MaxIDLength = 512

// Metadata holds the semantic attributes of a product. Not used for ranking.
type Metadata struct {
	Category    string
	SubCategory string
	Brand       string
	Description string
}

// Product is the display record of a catalog entry (immutable value object).
type Product struct {
	id      string
	content string
	meta    Metadata
}

// New validates and creates a Product.
// ID: non-empty, valid UTF-8, no surrounding whitespace, max 512 bytes.
// Content is the canonical rendered form used for embedding and prompt rendering; it may be empty.
func New(id, content string, meta Metadata) (Product, error) {
	if id == "" {
		return Product{}, fmt.Errorf("product ID is required")
	}
	if len(id) > MaxIDLength {
		return Product{}, fmt.Errorf("product ID too long (max %d)", MaxIDLength)
	}
	if !utf8.ValidString(id) {
		return Product{}, fmt.Errorf("product ID must be valid UTF-8")
	}
	if strings.TrimSpace(id) != id {
		return Product{}, fmt.Errorf("product ID %q has surrounding whitespace", id)
	}
	return Product{id: id, content: content, meta: meta}, nil
}

// Reconstruct creates a Product without validation (storage hydration).
func Reconstruct(id, content string, meta Metadata) Product {
	return Product{id: id, content: content, meta: meta}
}

// ID returns the product identifier.
func (p *Product) ID() string { return p.id }

// Content returns the rendered content text.
func (p *Product) Content() string { return p.content }

// Category returns the product category.
func (p *Product) Category() string { return p.meta.Category }

// SubCategory returns the product sub-category.
func (p *Product) SubCategory() string { return p.meta.SubCategory }

// Brand returns the product brand.
func (p *Product) Brand() string { return p.meta.Brand }

// Description returns the free-text product description.
func (p *Product) Description() string { return p.meta.Description }

// Metadata returns a copy of the semantic attributes.
func (p *Product) Metadata() Metadata { return p.meta }
