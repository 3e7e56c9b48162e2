package shopper

import "github.com/kailas-cloud/shopper/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrCatalogLoad             = domain.ErrCatalogLoad
	ErrCatalogNotLoaded        = domain.ErrCatalogNotLoaded
	ErrUnknownProduct          = domain.ErrUnknownProduct
	ErrVectorDimMismatch       = domain.ErrVectorDimMismatch
	ErrInvalidRequest          = domain.ErrInvalidRequest
	ErrEmbeddingProviderError  = domain.ErrEmbeddingProviderError
	ErrGenerationProviderError = domain.ErrGenerationProviderError
)
