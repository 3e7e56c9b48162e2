package shopper

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	source string // "file" or "redis"

	dir            string
	embeddingsFile string
	productsFile   string

	addrs     []string
	password  string
	keyPrefix string

	embedder         Embedder
	generator        Generator
	queryInstruction string
	maxCandidates    int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithFileCatalog reads embeddings.json and product_data.json from dir.
func WithFileCatalog(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.source = "file"
		c.dir = dir
	})
}

// WithCatalogFiles overrides the catalog file names inside the WithFileCatalog directory.
func WithCatalogFiles(embeddingsFile, productsFile string) Option {
	return optionFunc(func(c *clientConfig) {
		c.embeddingsFile = embeddingsFile
		c.productsFile = productsFile
	})
}

// WithRedisCatalog reads the catalog from <prefix>product:* and <prefix>embedding:* keys.
func WithRedisCatalog(addr, password, prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.source = "redis"
		c.addrs = []string{addr}
		c.password = password
		c.keyPrefix = prefix
	})
}

// WithEmbedder sets the query embedding provider. Required.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithGenerator sets the text generation provider. Required for Recommend.
func WithGenerator(g Generator) Option {
	return optionFunc(func(c *clientConfig) {
		c.generator = g
	})
}

// WithQueryInstruction prefixes every query before embedding, e.g. "query: ".
func WithQueryInstruction(instruction string) Option {
	return optionFunc(func(c *clientConfig) {
		c.queryInstruction = instruction
	})
}

// WithMaxCandidates sets how many products go into the prompt. Default: 3.
func WithMaxCandidates(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxCandidates = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
