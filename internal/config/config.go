// Package config loads the service configuration from config/<ENV>.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Catalog source drivers.
const (
	SourceFile     = "file"
	SourceRedis    = "redis"
	SourcePostgres = "postgres"
)

// Provider names.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds the shopper API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Cache      CacheConfig      `yaml:"cache"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// RedisConfig holds connection settings shared by the Redis catalog source and the cache.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// CatalogConfig selects and configures the catalog source.
type CatalogConfig struct {
	Source   string                `yaml:"source"` // file, redis, postgres (default: file)
	File     FileCatalogConfig     `yaml:"file"`
	Redis    RedisCatalogConfig    `yaml:"redis"`
	Postgres PostgresCatalogConfig `yaml:"postgres"`
}

// FileCatalogConfig points at the reference JSON encoding.
type FileCatalogConfig struct {
	Dir            string `yaml:"dir"`
	EmbeddingsFile string `yaml:"embeddings_file"`
	ProductsFile   string `yaml:"products_file"`
}

// RedisCatalogConfig reads products and embeddings from a keyspace.
type RedisCatalogConfig struct {
	RedisConfig `yaml:",inline"`
	KeyPrefix   string `yaml:"key_prefix"`
}

// PostgresCatalogConfig reads the catalog from a single table.
type PostgresCatalogConfig struct {
	DSN          string `yaml:"dsn"`
	Table        string `yaml:"table"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// CacheConfig enables the Redis query-embedding cache when addrs is set.
type CacheConfig struct {
	RedisConfig `yaml:",inline"`
	KeyPrefix   string `yaml:"key_prefix"`
	TTLSec      int    `yaml:"ttl_sec"` // 0 keeps entries forever
}

// Enabled reports whether the cache is configured.
func (c CacheConfig) Enabled() bool { return len(c.Addrs) > 0 }

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration { return time.Duration(c.TTLSec) * time.Second }

// EmbeddingConfig holds the query embedding provider settings.
type EmbeddingConfig struct {
	Provider         string `yaml:"provider"` // openai, gemini (default: openai)
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
	TimeoutSec       int    `yaml:"timeout_sec"`
}

// GenerationConfig holds the answer generation provider settings.
type GenerationConfig struct {
	Provider    string   `yaml:"provider"` // openai, gemini (default: openai)
	APIKey      string   `yaml:"api_key"`
	BaseURL     string   `yaml:"base_url"`
	Model       string   `yaml:"model"`
	Mode        string   `yaml:"mode"` // completion, chat (openai only, default: chat)
	Temperature *float32 `yaml:"temperature"`
	MaxTokens   int      `yaml:"max_tokens"`
	TimeoutSec  int      `yaml:"timeout_sec"`
}

// RetrievalConfig controls candidate selection.
type RetrievalConfig struct {
	MaxCandidates int `yaml:"max_candidates"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse expands environment variables, decodes, defaults and validates raw YAML.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// two provider round trips per answer
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	if c.Catalog.Source == "" {
		c.Catalog.Source = SourceFile
	}
	if c.Catalog.File.Dir == "" {
		c.Catalog.File.Dir = "data"
	}
	if c.Catalog.Redis.KeyPrefix == "" {
		c.Catalog.Redis.KeyPrefix = "shopper:"
	}
	if c.Catalog.Redis.ReadinessTimeout <= 0 {
		c.Catalog.Redis.ReadinessTimeout = 10
	}
	if c.Catalog.Postgres.Table == "" {
		c.Catalog.Postgres.Table = "products"
	}

	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "shopper:"
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderOpenAI
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 30
	}
	if c.Generation.Provider == "" {
		c.Generation.Provider = ProviderOpenAI
	}
	if c.Generation.TimeoutSec <= 0 {
		c.Generation.TimeoutSec = 60
	}
	if c.Generation.Mode == "" {
		c.Generation.Mode = "chat"
	}

	if c.Retrieval.MaxCandidates == 0 {
		c.Retrieval.MaxCandidates = 3
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Catalog.Source {
	case SourceFile:
	case SourceRedis:
		if len(c.Catalog.Redis.Addrs) == 0 {
			return fmt.Errorf("catalog.redis.addrs is required for the redis source")
		}
	case SourcePostgres:
		if c.Catalog.Postgres.DSN == "" {
			return fmt.Errorf("catalog.postgres.dsn is required for the postgres source")
		}
	default:
		return fmt.Errorf("catalog.source must be %q, %q or %q, got %q",
			SourceFile, SourceRedis, SourcePostgres, c.Catalog.Source)
	}

	if err := validateProvider("embedding", c.Embedding.Provider, c.Embedding.Model); err != nil {
		return err
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}
	if err := validateProvider("generation", c.Generation.Provider, c.Generation.Model); err != nil {
		return err
	}
	switch c.Generation.Mode {
	case "completion", "chat":
	default:
		return fmt.Errorf("generation.mode must be \"completion\" or \"chat\", got %q", c.Generation.Mode)
	}
	if t := c.Generation.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("generation.temperature must be between 0 and 2, got %v", *t)
	}
	if c.Generation.MaxTokens < 0 {
		return fmt.Errorf("generation.max_tokens must not be negative, got %d", c.Generation.MaxTokens)
	}

	if c.Retrieval.MaxCandidates < 0 {
		return fmt.Errorf("retrieval.max_candidates must not be negative, got %d", c.Retrieval.MaxCandidates)
	}
	if c.Cache.TTLSec < 0 {
		return fmt.Errorf("cache.ttl_sec must not be negative, got %d", c.Cache.TTLSec)
	}
	return nil
}

func validateProvider(section, provider, model string) error {
	switch provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("%s.provider must be %q or %q, got %q", section, ProviderOpenAI, ProviderGemini, provider)
	}
	if model == "" {
		return fmt.Errorf("%s.model is required", section)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// relative to the source file, for tests and go run from subdirectories
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
