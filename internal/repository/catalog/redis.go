package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/shopper/internal/db"
	"github.com/kailas-cloud/shopper/internal/domain"
	domcat "github.com/kailas-cloud/shopper/internal/domain/catalog"
	"github.com/kailas-cloud/shopper/internal/domain/product"
)

// Key layout under the configured prefix.
const (
	productKeyspace   = "product:"
	embeddingKeyspace = "embedding:"
)

// kvScanner is the consumer interface for the Redis source (ISP).
type kvScanner interface {
	Scan(ctx context.Context, pattern string) ([]string, error)
	MGet(ctx context.Context, keys []string) ([][]byte, error)
}

var _ domcat.Loader = (*RedisSource)(nil)

// RedisSource reads display records stored as JSON under <prefix>product:<id> and
// embeddings stored as little-endian float32 blobs under <prefix>embedding:<id>.
type RedisSource struct {
	store  kvScanner
	prefix string
}

// NewRedisSource creates a Redis-backed catalog source.
func NewRedisSource(store kvScanner, prefix string) *RedisSource {
	return &RedisSource{store: store, prefix: prefix}
}

// ProductKey is the key holding a product's display record.
func (s *RedisSource) ProductKey(id string) string { return s.prefix + productKeyspace + id }

// EmbeddingKey is the key holding a product's embedding.
func (s *RedisSource) EmbeddingKey(id string) string { return s.prefix + embeddingKeyspace + id }

// Load scans both keyspaces and builds the catalog. Any failure wraps domain.ErrCatalogLoad.
func (s *RedisSource) Load(ctx context.Context) (*domcat.Catalog, error) {
	products, err := s.loadProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCatalogLoad, err)
	}
	embeddings, err := s.loadEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCatalogLoad, err)
	}
	return domcat.New(products, embeddings)
}

func (s *RedisSource) loadProducts(ctx context.Context) ([]product.Product, error) {
	ids, values, err := s.fetch(ctx, s.prefix+productKeyspace)
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}

	out := make([]product.Product, 0, len(ids))
	for i, id := range ids {
		if values[i] == nil {
			continue // deleted between SCAN and GET
		}
		var dto productDTO
		if err := json.Unmarshal(values[i], &dto); err != nil {
			return nil, fmt.Errorf("decode product %q: %w", id, err)
		}
		p, err := dto.toDomain(id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *RedisSource) loadEmbeddings(ctx context.Context) ([]domcat.Embedding, error) {
	ids, values, err := s.fetch(ctx, s.prefix+embeddingKeyspace)
	if err != nil {
		return nil, fmt.Errorf("fetch embeddings: %w", err)
	}

	out := make([]domcat.Embedding, 0, len(ids))
	for i, id := range ids {
		if values[i] == nil {
			continue
		}
		vec, err := db.DecodeVector(values[i])
		if err != nil {
			return nil, fmt.Errorf("decode embedding %q: %w", id, err)
		}
		out = append(out, domcat.Embedding{ID: id, Vector: vec})
	}
	return out, nil
}

// fetch returns the ids under keyspace and their raw values, index-aligned.
func (s *RedisSource) fetch(ctx context.Context, keyspace string) ([]string, [][]byte, error) {
	keys, err := s.store.Scan(ctx, keyspace+"*")
	if err != nil {
		return nil, nil, fmt.Errorf("scan %s*: %w", keyspace, err)
	}
	// SCAN may return a key more than once; keep the first.
	seen := make(map[string]struct{}, len(keys))
	unique := keys[:0]
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, k)
	}

	values, err := s.store.MGet(ctx, unique)
	if err != nil {
		return nil, nil, fmt.Errorf("get values: %w", err)
	}
	if len(values) != len(unique) {
		return nil, nil, fmt.Errorf("got %d values for %d keys", len(values), len(unique))
	}

	ids := make([]string, len(unique))
	for i, k := range unique {
		ids[i] = strings.TrimPrefix(k, keyspace)
	}
	return ids, values, nil
}
