package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/shopper/internal/domain"
	domcat "github.com/kailas-cloud/shopper/internal/domain/catalog"
	"github.com/kailas-cloud/shopper/internal/domain/product"
)

// DefaultTable is the catalog table name.
const DefaultTable = "products"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// rows is the subset of *sql.Rows the source reads.
type rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

type queryFunc func(ctx context.Context, query string) (rows, error)

var _ domcat.Loader = (*PostgresSource)(nil)

// PostgresSource reads one row per product, with the embedding in a pgvector column:
//
//	id, category, sub_category, brand, description, content, embedding vector(N)
//
// NULL text columns read as empty; a NULL embedding is a missing embedding.
type PostgresSource struct {
	query queryFunc
	table string
}

// NewPostgresSource creates a source reading from table (optionally schema-qualified).
func NewPostgresSource(db *sql.DB, table string) (*PostgresSource, error) {
	return newPostgresSource(func(ctx context.Context, q string) (rows, error) {
		return db.QueryContext(ctx, q) //nolint:rowserrcheck // checked by the caller
	}, table)
}

func newPostgresSource(query queryFunc, table string) (*PostgresSource, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &PostgresSource{query: query, table: table}, nil
}

// Load selects every row and builds the catalog. Any failure wraps domain.ErrCatalogLoad.
func (s *PostgresSource) Load(ctx context.Context) (*domcat.Catalog, error) {
	q := `SELECT id, category, sub_category, brand, description, content, embedding::text FROM ` + s.table

	rs, err := s.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %w", domain.ErrCatalogLoad, s.table, err)
	}
	defer rs.Close() //nolint:errcheck // read-only

	var (
		products   []product.Product
		embeddings []domcat.Embedding
	)
	for rs.Next() {
		var (
			id                                                 string
			category, subCategory, brand, description, content sql.NullString
			embedding                                          sql.NullString
		)
		if err := rs.Scan(&id, &category, &subCategory, &brand, &description, &content, &embedding); err != nil {
			return nil, fmt.Errorf("%w: scan row: %w", domain.ErrCatalogLoad, err)
		}

		dto := productDTO{
			Category:    category.String,
			SubCategory: subCategory.String,
			Brand:       brand.String,
			Description: description.String,
			Content:     content.String,
		}
		p, err := dto.toDomain(id)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrCatalogLoad, err)
		}
		products = append(products, p)

		if !embedding.Valid {
			continue
		}
		vec, err := parseVector(embedding.String)
		if err != nil {
			return nil, fmt.Errorf("%w: embedding for %q: %w", domain.ErrCatalogLoad, id, err)
		}
		embeddings = append(embeddings, domcat.Embedding{ID: id, Vector: vec})
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("%w: read rows: %w", domain.ErrCatalogLoad, err)
	}

	return domcat.New(products, embeddings)
}

// parseVector parses the pgvector text form "[0.1,0.2,0.3]".
func parseVector(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("malformed vector %q", truncate(s, 32))
	}
	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return []float32{}, nil
	}

	parts := strings.Split(body, ",")
	vec := make([]float32, len(parts))
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		vec[i] = float32(f)
	}
	return vec, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
