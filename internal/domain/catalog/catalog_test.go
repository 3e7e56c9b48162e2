package catalog

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/kailas-cloud/shopper/internal/domain"
	"github.com/kailas-cloud/shopper/internal/domain/product"
)

func mustProduct(t *testing.T, id, content string) product.Product {
	t.Helper()
	p, err := product.New(id, content, product.Metadata{Category: "test"})
	if err != nil {
		t.Fatalf("product.New(%q): %v", id, err)
	}
	return p
}

func TestNew_Valid(t *testing.T) {
	c, err := New(
		[]product.Product{mustProduct(t, "b", "B"), mustProduct(t, "a", "A")},
		[]Embedding{{ID: "a", Vector: []float32{1, 0}}, {ID: "b", Vector: []float32{0, 1}}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
	if c.Dimensions() != 2 {
		t.Errorf("Dimensions = %d, want 2", c.Dimensions())
	}
	if got := c.IDs(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("IDs = %v, want sorted [a b]", got)
	}

	p, err := c.Get("b")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Content() != "B" {
		t.Errorf("Content = %q", p.Content())
	}
	v, ok := c.Embedding("a")
	if !ok || v[0] != 1 {
		t.Errorf("Embedding(a) = %v, %v", v, ok)
	}
}

func TestNew_Empty(t *testing.T) {
	c, err := New(nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 0 || c.Dimensions() != 0 {
		t.Errorf("expected empty catalog, got len=%d dims=%d", c.Len(), c.Dimensions())
	}
	if Empty().Len() != 0 {
		t.Error("Empty() must have no products")
	}
}

func TestNew_MissingEmbedding(t *testing.T) {
	_, err := New(
		[]product.Product{mustProduct(t, "a", "A"), mustProduct(t, "b", "B")},
		[]Embedding{{ID: "a", Vector: []float32{1}}},
	)
	var ie *domain.CatalogIntegrityError
	if !errors.As(err, &ie) {
		t.Fatalf("expected integrity error, got %v", err)
	}
	if !slices.Equal(ie.MissingEmbeddings, []string{"b"}) {
		t.Errorf("MissingEmbeddings = %v", ie.MissingEmbeddings)
	}
	if !errors.Is(err, domain.ErrCatalogLoad) {
		t.Error("expected ErrCatalogLoad")
	}
}

func TestNew_MissingProduct(t *testing.T) {
	_, err := New(
		[]product.Product{mustProduct(t, "a", "A")},
		[]Embedding{{ID: "a", Vector: []float32{1}}, {ID: "z", Vector: []float32{1}}, {ID: "y", Vector: []float32{1}}},
	)
	var ie *domain.CatalogIntegrityError
	if !errors.As(err, &ie) {
		t.Fatalf("expected integrity error, got %v", err)
	}
	if !slices.Equal(ie.MissingProducts, []string{"y", "z"}) {
		t.Errorf("MissingProducts = %v, want sorted [y z]", ie.MissingProducts)
	}
}

func TestNew_Duplicates(t *testing.T) {
	_, err := New(
		[]product.Product{mustProduct(t, "a", "A"), mustProduct(t, "a", "A2")},
		[]Embedding{{ID: "a", Vector: []float32{1}}, {ID: "a", Vector: []float32{1}}},
	)
	var ie *domain.CatalogIntegrityError
	if !errors.As(err, &ie) {
		t.Fatalf("expected integrity error, got %v", err)
	}
	if !slices.Equal(ie.Duplicates, []string{"a"}) {
		t.Errorf("Duplicates = %v, want [a]", ie.Duplicates)
	}
}

func TestNew_DimensionMismatch(t *testing.T) {
	_, err := New(
		[]product.Product{mustProduct(t, "a", "A"), mustProduct(t, "b", "B")},
		[]Embedding{{ID: "a", Vector: []float32{1, 0}}, {ID: "b", Vector: []float32{1, 0, 0}}},
	)
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
	if !errors.Is(err, domain.ErrCatalogLoad) {
		t.Fatalf("expected ErrCatalogLoad, got %v", err)
	}
}

func TestNew_EmptyVector(t *testing.T) {
	_, err := New(
		[]product.Product{mustProduct(t, "a", "A")},
		[]Embedding{{ID: "a"}},
	)
	if !errors.Is(err, domain.ErrCatalogLoad) {
		t.Fatalf("expected ErrCatalogLoad, got %v", err)
	}
}

func TestNew_NonFiniteVector(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	for _, v := range [][]float32{{nan, 0}, {0, inf}, {-inf, 1}} {
		_, err := New(
			[]product.Product{mustProduct(t, "a", "A")},
			[]Embedding{{ID: "a", Vector: v}},
		)
		if !errors.Is(err, domain.ErrCatalogLoad) {
			t.Errorf("vector %v: expected ErrCatalogLoad, got %v", v, err)
		}
	}
}

func TestGet_Unknown(t *testing.T) {
	c := Empty()
	_, err := c.Get("ghost")
	if !errors.Is(err, domain.ErrUnknownProduct) {
		t.Fatalf("expected ErrUnknownProduct, got %v", err)
	}
}

func TestAll_SortedAndStoppable(t *testing.T) {
	c, err := New(
		[]product.Product{mustProduct(t, "c", ""), mustProduct(t, "a", ""), mustProduct(t, "b", "")},
		[]Embedding{{ID: "c", Vector: []float32{1}}, {ID: "a", Vector: []float32{1}}, {ID: "b", Vector: []float32{1}}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var seen []string
	for id := range c.All() {
		seen = append(seen, id)
	}
	if !slices.Equal(seen, []string{"a", "b", "c"}) {
		t.Errorf("All order = %v", seen)
	}

	seen = seen[:0]
	for id := range c.All() {
		seen = append(seen, id)
		if id == "b" {
			break
		}
	}
	if !slices.Equal(seen, []string{"a", "b"}) {
		t.Errorf("early break order = %v", seen)
	}
}

func TestIDs_ReturnsCopy(t *testing.T) {
	c, err := New([]product.Product{mustProduct(t, "a", "")}, []Embedding{{ID: "a", Vector: []float32{1}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ids := c.IDs()
	ids[0] = "mutated"
	if c.IDs()[0] != "a" {
		t.Error("IDs must return a copy")
	}
}
