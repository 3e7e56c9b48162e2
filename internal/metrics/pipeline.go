package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Recommendation pipeline and catalog metrics.
var (
	PipelineStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Duration of a recommendation pipeline stage",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 20},
		},
		[]string{"stage"}, // embed / rank / select / generate
	)

	RecommendationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_total",
			Help:      "Total recommendation requests by outcome",
		},
		[]string{"status"},
	)

	CandidatesSelected = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "candidates_selected",
			Help:      "Number of products placed in a prompt",
			Buckets:   prometheus.LinearBuckets(0, 1, 11),
		},
	)

	CatalogProducts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_products",
			Help:      "Number of products in the active catalog",
		},
	)

	CatalogReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_reloads_total",
			Help:      "Catalog load attempts by source and outcome",
		},
		[]string{"source", "status"},
	)

	CatalogLastLoadTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_last_load_timestamp_seconds",
			Help:      "Unix time of the last successful catalog load",
		},
	)
)

var registerOnce sync.Once

// Register registers the provider, pipeline, catalog and HTTP metrics. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingTokensTotal,
			EmbeddingErrorsTotal,
			EmbeddingCacheTotal,
			GenerationRequestsTotal,
			GenerationRequestDuration,
			GenerationTokensTotal,
			GenerationErrorsTotal,
			PipelineStageDuration,
			RecommendationsTotal,
			CandidatesSelected,
			CatalogProducts,
			CatalogReloadsTotal,
			CatalogLastLoadTimestamp,
			httpRequestDuration,
			httpRequestsTotal,
			httpRequestsInFlight,
		)
	})
}
