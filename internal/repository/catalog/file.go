package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/shopper/internal/domain"
	domcat "github.com/kailas-cloud/shopper/internal/domain/catalog"
	"github.com/kailas-cloud/shopper/internal/domain/product"
)

// Default file names inside the catalog directory.
const (
	DefaultEmbeddingsFile = "embeddings.json"
	DefaultProductsFile   = "product_data.json"
)

var _ domcat.Loader = (*FileSource)(nil)

// FileSource reads the two JSON tables written by the offline embedding job:
// embeddings {id: [float, ...]} and display records {id: {category, sub-category, brand, description, content}}.
type FileSource struct {
	embeddingsPath string
	productsPath   string
}

// NewFileSource creates a source for the given files. Relative names resolve against dir.
func NewFileSource(dir, embeddingsFile, productsFile string) *FileSource {
	if embeddingsFile == "" {
		embeddingsFile = DefaultEmbeddingsFile
	}
	if productsFile == "" {
		productsFile = DefaultProductsFile
	}
	return &FileSource{
		embeddingsPath: resolve(dir, embeddingsFile),
		productsPath:   resolve(dir, productsFile),
	}
}

func resolve(dir, name string) string {
	if filepath.IsAbs(name) || dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

// Load reads both files and builds the catalog. Any failure wraps domain.ErrCatalogLoad.
func (s *FileSource) Load(ctx context.Context) (*domcat.Catalog, error) {
	embeddings, err := s.readEmbeddings()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrCatalogLoad, s.embeddingsPath, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCatalogLoad, err)
	}
	products, err := s.readProducts()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrCatalogLoad, s.productsPath, err)
	}
	return domcat.New(products, embeddings)
}

func (s *FileSource) readEmbeddings() ([]domcat.Embedding, error) {
	f, err := os.Open(s.embeddingsPath)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only

	var out []domcat.Embedding
	err = decodeObject(f, func(id string, dec *json.Decoder) error {
		var vec []float32
		if err := dec.Decode(&vec); err != nil {
			return fmt.Errorf("decode vector: %w", err)
		}
		out = append(out, domcat.Embedding{ID: id, Vector: vec})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *FileSource) readProducts() ([]product.Product, error) {
	f, err := os.Open(s.productsPath)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only

	var out []product.Product
	err = decodeObject(f, func(id string, dec *json.Decoder) error {
		var dto productDTO
		if err := dec.Decode(&dto); err != nil {
			return fmt.Errorf("decode record: %w", err)
		}
		p, err := dto.toDomain(id)
		if err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
