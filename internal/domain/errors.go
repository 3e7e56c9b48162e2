package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCatalogLoad signals a malformed or unreadable catalog source.
	ErrCatalogLoad = errors.New("catalog load failed")
	// ErrCatalogNotLoaded signals that no catalog has been installed yet.
	ErrCatalogNotLoaded = errors.New("catalog not loaded")
	// ErrUnknownProduct signals an identifier absent from the display records.
	ErrUnknownProduct = errors.New("unknown product")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidRequest signals a malformed recommendation request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationProviderError signals a text generation provider failure.
	ErrGenerationProviderError = errors.New("generation provider error")
)

// UnknownProductError wraps ErrUnknownProduct with the identifier that failed to resolve.
type UnknownProductError struct {
	ID string
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownProduct.Error(), e.ID)
}

func (e *UnknownProductError) Unwrap() error { return ErrUnknownProduct }

// NewUnknownProduct creates an unknown product error.
func NewUnknownProduct(id string) error {
	return &UnknownProductError{ID: id}
}

// CatalogIntegrityError reports identifiers that break the records/embeddings alignment.
// It unwraps to ErrCatalogLoad: an inconsistent catalog is never installed.
type CatalogIntegrityError struct {
	MissingEmbeddings []string // records without an embedding
	MissingProducts   []string // embeddings without a record
	Duplicates        []string // identifiers declared more than once in a source table
}

func (e *CatalogIntegrityError) Error() string {
	var parts []string
	if len(e.MissingEmbeddings) > 0 {
		parts = append(parts, "records without embedding: "+strings.Join(e.MissingEmbeddings, ", "))
	}
	if len(e.MissingProducts) > 0 {
		parts = append(parts, "embeddings without record: "+strings.Join(e.MissingProducts, ", "))
	}
	if len(e.Duplicates) > 0 {
		parts = append(parts, "duplicate identifiers: "+strings.Join(e.Duplicates, ", "))
	}
	return ErrCatalogLoad.Error() + ": integrity: " + strings.Join(parts, "; ")
}

func (e *CatalogIntegrityError) Unwrap() error { return ErrCatalogLoad }

// Empty reports whether no integrity defect was recorded.
func (e *CatalogIntegrityError) Empty() bool {
	return len(e.MissingEmbeddings) == 0 && len(e.MissingProducts) == 0 && len(e.Duplicates) == 0
}
