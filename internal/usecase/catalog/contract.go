package catalog

import (
	"context"

	domcat "github.com/kailas-cloud/shopper/internal/domain/catalog"
)

// Loader reads a complete catalog from its backing source.
type Loader interface {
	Load(ctx context.Context) (*domcat.Catalog, error)
}
