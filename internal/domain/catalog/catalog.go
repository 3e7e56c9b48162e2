// Package catalog is the read-only in-memory product dataset ranked against per query.
package catalog

import (
	"context"
	"fmt"
	"iter"
	"slices"

	"github.com/kailas-cloud/shopper/internal/domain"
	"github.com/kailas-cloud/shopper/internal/domain/product"
	"github.com/kailas-cloud/shopper/internal/domain/vector"
)

// Loader deserializes a complete catalog from an external source.
// Implementations fail with an error wrapping domain.ErrCatalogLoad; there is no partial load.
type Loader interface {
	Load(ctx context.Context) (*Catalog, error)
}

// Embedding is one row of the embeddings table.
type Embedding struct {
	ID     string
	Vector []float32
}

// Catalog pairs display records with their embeddings, keyed by the same identifiers.
// It is immutable after New and safe for unbounded concurrent readers.
// Vectors handed out by All and Embedding are shared and must not be modified.
type Catalog struct {
	products   map[string]product.Product
	embeddings map[string][]float32
	ids        []string // ascending, for deterministic iteration
	dims       int
}

// New validates both tables and builds a catalog.
// Identifier sets must be identical and duplicates are rejected (*domain.CatalogIntegrityError);
// every vector must be non-empty, finite and share one dimension (domain.ErrVectorDimMismatch).
// Both failures wrap domain.ErrCatalogLoad.
func New(products []product.Product, embeddings []Embedding) (*Catalog, error) {
	integrity := &domain.CatalogIntegrityError{}

	byID := make(map[string]product.Product, len(products))
	for _, p := range products {
		if _, dup := byID[p.ID()]; dup {
			integrity.Duplicates = append(integrity.Duplicates, p.ID())
			continue
		}
		byID[p.ID()] = p
	}

	vecs := make(map[string][]float32, len(embeddings))
	dims := 0
	for _, e := range embeddings {
		if _, dup := vecs[e.ID]; dup {
			integrity.Duplicates = append(integrity.Duplicates, e.ID)
			continue
		}
		if len(e.Vector) == 0 {
			return nil, fmt.Errorf("%w: empty embedding for %q", domain.ErrCatalogLoad, e.ID)
		}
		if !vector.Finite(e.Vector) {
			return nil, fmt.Errorf("%w: non-finite embedding component for %q", domain.ErrCatalogLoad, e.ID)
		}
		if dims == 0 {
			dims = len(e.Vector)
		} else if len(e.Vector) != dims {
			return nil, fmt.Errorf("%w: %w: %q has %d dimensions, expected %d",
				domain.ErrCatalogLoad, domain.ErrVectorDimMismatch, e.ID, len(e.Vector), dims)
		}
		vecs[e.ID] = e.Vector
	}

	for id := range byID {
		if _, ok := vecs[id]; !ok {
			integrity.MissingEmbeddings = append(integrity.MissingEmbeddings, id)
		}
	}
	for id := range vecs {
		if _, ok := byID[id]; !ok {
			integrity.MissingProducts = append(integrity.MissingProducts, id)
		}
	}
	if !integrity.Empty() {
		slices.Sort(integrity.MissingEmbeddings)
		slices.Sort(integrity.MissingProducts)
		slices.Sort(integrity.Duplicates)
		integrity.Duplicates = slices.Compact(integrity.Duplicates)
		return nil, integrity
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return &Catalog{products: byID, embeddings: vecs, ids: ids, dims: dims}, nil
}

// Empty returns a catalog with no products.
func Empty() *Catalog {
	return &Catalog{products: map[string]product.Product{}, embeddings: map[string][]float32{}}
}

// Len returns the number of products.
func (c *Catalog) Len() int { return len(c.ids) }

// Dimensions returns the shared embedding dimension (0 for an empty catalog).
func (c *Catalog) Dimensions() int { return c.dims }

// Get resolves an identifier to its display record.
// An absent identifier is an integrity inconsistency and returns *domain.UnknownProductError.
func (c *Catalog) Get(id string) (product.Product, error) {
	p, ok := c.products[id]
	if !ok {
		return product.Product{}, domain.NewUnknownProduct(id)
	}
	return p, nil
}

// Embedding returns the vector of a product.
func (c *Catalog) Embedding(id string) ([]float32, bool) {
	v, ok := c.embeddings[id]
	return v, ok
}

// IDs returns all identifiers in ascending order.
func (c *Catalog) IDs() []string {
	return slices.Clone(c.ids)
}

// All iterates identifiers with their embeddings in ascending identifier order.
func (c *Catalog) All() iter.Seq2[string, []float32] {
	return func(yield func(string, []float32) bool) {
		for _, id := range c.ids {
			if !yield(id, c.embeddings[id]) {
				return
			}
		}
	}
}
