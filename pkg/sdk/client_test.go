package shopper

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// --- Fakes ---

type fakeEmbedder struct {
	vec  []float32
	err  error
	seen []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	f.seen = append(f.seen, text)
	if f.err != nil {
		return EmbeddingResult{}, f.err
	}
	return EmbeddingResult{Embedding: f.vec, PromptTokens: 4, TotalTokens: 4}, nil
}

type fakeGenerator struct {
	prompt string
	err    error
}

func (f *fakeGenerator) Complete(_ context.Context, prompt string) (CompletionResult, error) {
	f.prompt = prompt
	if f.err != nil {
		return CompletionResult{}, f.err
	}
	return CompletionResult{Text: " Shoe A fits you.", TotalTokens: 126}, nil
}

func writeCatalog(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"embeddings.json": `{"shoe-A": [0.6, 0.8, 0], "bag-B": [0.8, 0, 0.6]}`,
		"product_data.json": `{
			"shoe-A": {"category": "footwear", "content": "name: Shoe A\ncategory: footwear"},
			"bag-B": {"category": "accessories", "content": "name: Bag B\ncategory: accessories"}
		}`,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// --- Tests ---

func TestNew_Validation(t *testing.T) {
	ctx := context.Background()
	if _, err := New(ctx, WithFileCatalog(t.TempDir())); err == nil {
		t.Error("expected error without embedder")
	}
	if _, err := New(ctx, WithEmbedder(&fakeEmbedder{})); err == nil {
		t.Error("expected error without catalog source")
	}
	_, err := New(ctx, WithEmbedder(&fakeEmbedder{}), WithFileCatalog(t.TempDir()))
	if !errors.Is(err, ErrCatalogLoad) {
		t.Errorf("missing files: expected ErrCatalogLoad, got %v", err)
	}
}

func TestRecommend(t *testing.T) {
	emb := &fakeEmbedder{vec: []float32{0.6, 0.8, 0}}
	gen := &fakeGenerator{}
	client, err := New(context.Background(),
		WithFileCatalog(writeCatalog(t)),
		WithEmbedder(emb),
		WithGenerator(gen),
		WithMaxCandidates(1),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	answer, err := client.Recommend(context.Background(), "running shoes", []string{"shoe"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer.Text != " Shoe A fits you." || answer.EmbeddingTokens != 4 || answer.GenerationTokens != 126 {
		t.Errorf("unexpected answer %+v", answer)
	}
	if !strings.Contains(gen.prompt, "name: Shoe A; category: footwear") || strings.Contains(gen.prompt, "Bag B") {
		t.Errorf("prompt must hold only the top candidate:\n%s", gen.prompt)
	}
	if emb.seen[0] != "running shoes shoe" {
		t.Errorf("embedded text = %q", emb.seen[0])
	}
}

func TestRecommend_ProviderErrors(t *testing.T) {
	emb := &fakeEmbedder{vec: []float32{0.6, 0.8, 0}}
	gen := &fakeGenerator{err: errors.New("quota")}
	client, err := New(context.Background(), WithFileCatalog(writeCatalog(t)), WithEmbedder(emb), WithGenerator(gen))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := client.Recommend(context.Background(), "q", nil); !errors.Is(err, ErrGenerationProviderError) {
		t.Errorf("expected ErrGenerationProviderError, got %v", err)
	}

	emb.err = errors.New("timeout")
	if _, err := client.Recommend(context.Background(), "q", nil); !errors.Is(err, ErrEmbeddingProviderError) {
		t.Errorf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestRecommend_NoGenerator(t *testing.T) {
	client, err := New(context.Background(),
		WithFileCatalog(writeCatalog(t)), WithEmbedder(&fakeEmbedder{vec: []float32{0.6, 0.8, 0}}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := client.Recommend(context.Background(), "q", nil); !errors.Is(err, ErrGenerationProviderError) {
		t.Errorf("expected ErrGenerationProviderError, got %v", err)
	}
	if _, err := client.Candidates(context.Background(), "q", nil, 0); err != nil {
		t.Errorf("candidates must work without a generator: %v", err)
	}
}

func TestCandidates(t *testing.T) {
	client, err := New(context.Background(),
		WithFileCatalog(writeCatalog(t)),
		WithEmbedder(&fakeEmbedder{vec: []float32{0.8, 0, 0.6}}),
		WithQueryInstruction("query: "),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, err := client.Candidates(context.Background(), "weekender", nil, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Product.ID != "bag-B" || got[1].Product.ID != "shoe-A" {
		t.Fatalf("unexpected order %+v", got)
	}
	if got[0].Score < got[1].Score {
		t.Error("scores must be non-increasing")
	}
	if got[1].Product.Category != "footwear" {
		t.Errorf("metadata missing: %+v", got[1].Product)
	}

	if _, err := client.Candidates(context.Background(), "  ", nil, 1); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("blank query: expected ErrInvalidRequest, got %v", err)
	}
	if _, err := client.Candidates(context.Background(), "", []string{"shoe"}, 1); err != nil {
		t.Errorf("labels-only query: %v", err)
	}
}

func TestProductAndReload(t *testing.T) {
	dir := writeCatalog(t)
	client, err := New(context.Background(), WithFileCatalog(dir), WithEmbedder(&fakeEmbedder{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	p, err := client.Product("bag-B")
	if err != nil || p.Category != "accessories" {
		t.Fatalf("Product = %+v, %v", p, err)
	}
	if _, err := client.Product("ghost"); !errors.Is(err, ErrUnknownProduct) {
		t.Errorf("expected ErrUnknownProduct, got %v", err)
	}

	info, err := client.Reload(context.Background())
	if err != nil || info.Products != 2 || info.Dimensions != 3 {
		t.Fatalf("Reload = %+v, %v", info, err)
	}

	// a broken source keeps the previous catalog
	if err := os.WriteFile(filepath.Join(dir, "embeddings.json"), []byte(`{`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := client.Reload(context.Background()); !errors.Is(err, ErrCatalogLoad) {
		t.Errorf("expected ErrCatalogLoad, got %v", err)
	}
	if _, err := client.Product("shoe-A"); err != nil {
		t.Errorf("previous catalog must keep serving: %v", err)
	}

	if h := client.Health(context.Background()); h.Status != "ok" || h.Checks["catalog"] != "ok" {
		t.Errorf("unexpected health %+v", h)
	}
}

func TestObserver_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	client, err := New(context.Background(),
		WithFileCatalog(writeCatalog(t)),
		WithEmbedder(&fakeEmbedder{vec: []float32{0.6, 0.8, 0}}),
		WithGenerator(&fakeGenerator{}),
		WithPrometheus(reg),
		WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, _ = client.Recommend(context.Background(), "q", nil)
	_, _ = client.Recommend(context.Background(), "", nil)

	if got := testutil.ToFloat64(client.obs.metrics.operations.WithLabelValues("recommend", "ok")); got != 1 {
		t.Errorf("ok operations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(client.obs.metrics.operations.WithLabelValues("recommend", "error")); got != 1 {
		t.Errorf("error operations = %v, want 1", got)
	}

	// a second client on the same registry reuses the collectors
	second, err := New(context.Background(),
		WithFileCatalog(writeCatalog(t)), WithEmbedder(&fakeEmbedder{}), WithPrometheus(reg))
	if err != nil {
		t.Fatalf("second client: %v", err)
	}
	if second.obs.metrics.operations != client.obs.metrics.operations {
		t.Error("expected shared collector")
	}
}

func TestObserver_NilSafe(t *testing.T) {
	var o *observer
	o.observe("noop", time.Time{}, nil)
}
