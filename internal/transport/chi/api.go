package chi

import (
	"time"

	"github.com/kailas-cloud/shopper/internal/domain/product"
)

// ErrorCode is the machine-readable error identifier returned to clients.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest              ErrorCode = "bad_request"
	CodeUnauthorized            ErrorCode = "unauthorized"
	CodeValidationFailed        ErrorCode = "validation_failed"
	CodeProductNotFound         ErrorCode = "product_not_found"
	CodeCatalogNotLoaded        ErrorCode = "catalog_not_loaded"
	CodeCatalogLoadFailed       ErrorCode = "catalog_load_failed"
	CodeVectorDimMismatch       ErrorCode = "vector_dim_mismatch"
	CodeEmbeddingProviderError  ErrorCode = "embedding_provider_error"
	CodeGenerationProviderError ErrorCode = "generation_provider_error"
	CodeInternalError           ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// RecommendationRequest is the body of POST /v1/recommendations.
type RecommendationRequest struct {
	Query  string   `json:"query"`
	Labels []string `json:"labels,omitempty"`
}

// RecommendationResponse carries the generated answer verbatim.
type RecommendationResponse struct {
	Answer string `json:"answer"`
}

// CandidatesRequest is the body of POST /v1/candidates.
type CandidatesRequest struct {
	Query  string   `json:"query"`
	Labels []string `json:"labels,omitempty"`
	Limit  *int     `json:"limit,omitempty"`
}

// CandidateItem is one ranked product.
type CandidateItem struct {
	Score   float64         `json:"score"`
	Product ProductResponse `json:"product"`
}

// CandidatesResponse lists candidates in rank order.
type CandidatesResponse struct {
	Items []CandidateItem `json:"items"`
}

// ProductResponse is the display record of a product.
type ProductResponse struct {
	ID          string `json:"id"`
	Content     string `json:"content"`
	Category    string `json:"category,omitempty"`
	SubCategory string `json:"sub_category,omitempty"`
	Brand       string `json:"brand,omitempty"`
	Description string `json:"description,omitempty"`
}

// ReloadResponse reports the catalog installed by a reload.
type ReloadResponse struct {
	Products   int       `json:"products"`
	Dimensions int       `json:"dimensions"`
	LoadedAt   time.Time `json:"loaded_at"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version"`
	Commit  string            `json:"commit"`
}

func productToResponse(p *product.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID(),
		Content:     p.Content(),
		Category:    p.Category(),
		SubCategory: p.SubCategory(),
		Brand:       p.Brand(),
		Description: p.Description(),
	}
}
