package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/shopper/internal/db"
	"github.com/kailas-cloud/shopper/internal/domain"
)

// mockKV is an in-memory kvScanner supporting trailing-* patterns.
type mockKV struct {
	data    map[string][]byte
	scanErr error
	dupScan bool // return every key twice, as SCAN may during a rehash
}

func (m *mockKV) Scan(_ context.Context, pattern string) ([]string, error) {
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
			if m.dupScan {
				keys = append(keys, k)
			}
		}
	}
	return keys, nil
}

func (m *mockKV) MGet(_ context.Context, keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = m.data[k]
	}
	return out, nil
}

func seedRedis(t *testing.T, src *RedisSource, kv *mockKV, id string, dto productDTO, vec []float32) {
	t.Helper()
	raw, err := json.Marshal(dto)
	if err != nil {
		t.Fatal(err)
	}
	kv.data[src.ProductKey(id)] = raw
	if vec != nil {
		kv.data[src.EmbeddingKey(id)] = db.EncodeVector(vec)
	}
}

func TestRedisSource_Load(t *testing.T) {
	kv := &mockKV{data: map[string][]byte{}, dupScan: true}
	src := NewRedisSource(kv, "shopper:")
	seedRedis(t, src, kv, "shoe-A", productDTO{Category: "footwear", Content: "name: Shoe A"}, []float32{0.6, 0.8, 0})
	seedRedis(t, src, kv, "bag-B", productDTO{Category: "accessories", Content: "name: Bag B"}, []float32{0.8, 0, 0.6})
	kv.data["other:product:x"] = []byte(`{}`) // foreign prefix, ignored

	c, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 2 || c.Dimensions() != 3 {
		t.Fatalf("got %d products of %d dims", c.Len(), c.Dimensions())
	}
	shoe, err := c.Get("shoe-A")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if shoe.Category() != "footwear" {
		t.Errorf("category = %q", shoe.Category())
	}
	vec, ok := c.Embedding("bag-B")
	if !ok || vec[0] != 0.8 {
		t.Errorf("embedding = %v, %v", vec, ok)
	}
}

func TestRedisSource_MissingEmbedding(t *testing.T) {
	kv := &mockKV{data: map[string][]byte{}}
	src := NewRedisSource(kv, "")
	seedRedis(t, src, kv, "a", productDTO{Content: "a"}, []float32{1})
	seedRedis(t, src, kv, "b", productDTO{Content: "b"}, nil)

	_, err := src.Load(context.Background())
	var integrity *domain.CatalogIntegrityError
	if !errors.As(err, &integrity) || len(integrity.MissingEmbeddings) != 1 || integrity.MissingEmbeddings[0] != "b" {
		t.Fatalf("expected integrity error for b, got %v", err)
	}
}

func TestRedisSource_Errors(t *testing.T) {
	tests := []struct {
		name string
		kv   *mockKV
	}{
		{"scan failure", &mockKV{scanErr: errors.New("connection refused")}},
		{"bad product json", &mockKV{data: map[string][]byte{
			"product:a":   []byte(`{not json`),
			"embedding:a": db.EncodeVector([]float32{1}),
		}}},
		{"bad vector blob", &mockKV{data: map[string][]byte{
			"product:a":   []byte(`{"content":"a"}`),
			"embedding:a": {1, 2, 3},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRedisSource(tt.kv, "").Load(context.Background())
			if !errors.Is(err, domain.ErrCatalogLoad) {
				t.Fatalf("expected ErrCatalogLoad, got %v", err)
			}
		})
	}
}
