package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMain(m *testing.M) {
	Register()
	os.Exit(m.Run())
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Route("/v1", func(r chi.Router) {
		r.Get("/products/{id}", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("ok"))
		})
	})

	for _, id := range []string{"shoe-A", "bag-B", "hat-C"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/products/"+id, http.NoBody))
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d", rr.Code)
		}
	}

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/v1/products/{id}", "200"))
	if got != 3 {
		t.Errorf("requests for pattern = %v, want 3", got)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected duration observations")
	}
}

func TestMiddleware_StatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/v1/recommendations", func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Query().Get("fail") {
		case "provider":
			w.WriteHeader(http.StatusBadGateway)
		case "input":
			w.WriteHeader(http.StatusBadRequest)
		default:
			_, _ = w.Write([]byte(`{"answer":"x"}`))
		}
	})

	tests := []struct {
		query  string
		status string
	}{
		{"", "200"},
		{"?fail=provider", "502"},
		{"?fail=input", "400"},
	}
	for _, tc := range tests {
		before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodPost, "/v1/recommendations", tc.status))
		r.ServeHTTP(httptest.NewRecorder(),
			httptest.NewRequest(http.MethodPost, "/v1/recommendations"+tc.query, http.NoBody))
		after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodPost, "/v1/recommendations", tc.status))
		if after-before != 1 {
			t.Errorf("status %s: counter moved by %v", tc.status, after-before)
		}
	}
}

func TestMiddleware_InFlight(t *testing.T) {
	var during float64
	handler := Middleware()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		during = testutil.ToFloat64(httpRequestsInFlight)
	}))
	before := testutil.ToFloat64(httpRequestsInFlight)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if during != before+1 {
		t.Errorf("in flight during request = %v, want %v", during, before+1)
	}
	if got := testutil.ToFloat64(httpRequestsInFlight); got != before {
		t.Errorf("in flight after request = %v, want %v", got, before)
	}

	// unrouted requests land under "unknown"
	if testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "unknown", "200")) < 1 {
		t.Error("expected unknown path label")
	}
}

func TestRegister_Idempotent(t *testing.T) {
	Register()
	Register()

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() == "shopper_http_requests_in_flight" {
			found = true
		}
	}
	if !found {
		t.Error("http in-flight gauge not registered")
	}
}
