package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/shopper/internal/domain"
	"github.com/kailas-cloud/shopper/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.Register()
	os.Exit(m.Run())
}

type mockEmbedder struct {
	result    domain.EmbeddingResult
	err       error
	healthErr error
	texts     []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.texts = append(m.texts, text)
	return m.result, m.err
}

func (m *mockEmbedder) HealthCheck(_ context.Context) error { return m.healthErr }

type plainEmbedder struct{}

func (plainEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, nil
}

func TestInstrumentedEmbedder_Success(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:    []float32{0.1, 0.2, 0.3},
		PromptTokens: 5,
		TotalTokens:  5,
	}}
	core, logs := observer.New(zap.DebugLevel)
	p := NewInstrumentedEmbedder(inner, "test", "test-model", zap.New(core))

	result, err := p.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 || result.TotalTokens != 5 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(inner.texts) != 1 || inner.texts[0] != "hello" {
		t.Errorf("inner saw %v", inner.texts)
	}
	if logs.FilterMessage("Embedding request completed").Len() != 1 {
		t.Errorf("expected one completion log, got %v", logs.All())
	}
}

func TestInstrumentedEmbedder_Error(t *testing.T) {
	inner := &mockEmbedder{err: fmt.Errorf("%w: boom", domain.ErrEmbeddingProviderError)}
	core, logs := observer.New(zap.ErrorLevel)
	p := NewInstrumentedEmbedder(inner, "test", "test-model", zap.New(core))

	_, err := p.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
	if logs.FilterMessage("Embedding request failed").Len() != 1 {
		t.Error("expected failure to be logged")
	}
}

func TestInstrumentedEmbedder_HealthCheck(t *testing.T) {
	ok := NewInstrumentedEmbedder(&mockEmbedder{}, "test", "m", zap.NewNop())
	if err := ok.HealthCheck(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	before := testutil.ToFloat64(metrics.EmbeddingErrorsTotal.WithLabelValues("test-h", "m", "health"))
	bad := NewInstrumentedEmbedder(&mockEmbedder{healthErr: errors.New("unreachable")}, "test-h", "m", zap.NewNop())
	if err := bad.HealthCheck(context.Background()); err == nil {
		t.Error("expected health error")
	}
	after := testutil.ToFloat64(metrics.EmbeddingErrorsTotal.WithLabelValues("test-h", "m", "health"))
	if after-before != 1 {
		t.Errorf("expected health error counter +1, got %f", after-before)
	}

	plain := NewInstrumentedEmbedder(plainEmbedder{}, "test", "m", zap.NewNop())
	if err := plain.HealthCheck(context.Background()); err != nil {
		t.Errorf("embedder without health check must report healthy: %v", err)
	}
}
