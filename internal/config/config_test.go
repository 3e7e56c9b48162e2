package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const minimalYAML = `
http:
  port: 8080
embedding:
  model: text-embedding-ada-002
generation:
  model: gpt-3.5-turbo-instruct
`

func validConfig() Config {
	cfg := Config{
		HTTP:       HTTPConfig{Port: 8080},
		Embedding:  EmbeddingConfig{Model: "text-embedding-ada-002"},
		Generation: GenerationConfig{Model: "gpt-3.5-turbo-instruct"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Catalog.Source != SourceFile || cfg.Catalog.File.Dir != "data" {
		t.Errorf("unexpected catalog defaults %+v", cfg.Catalog)
	}
	if cfg.Embedding.Provider != ProviderOpenAI || cfg.Generation.Provider != ProviderOpenAI {
		t.Errorf("unexpected provider defaults %q / %q", cfg.Embedding.Provider, cfg.Generation.Provider)
	}
	if cfg.Generation.Mode != "chat" || cfg.Generation.Temperature != nil {
		t.Errorf("unexpected generation defaults %+v", cfg.Generation)
	}
	if cfg.Retrieval.MaxCandidates != 3 {
		t.Errorf("max_candidates = %d, want 3", cfg.Retrieval.MaxCandidates)
	}
	if cfg.Cache.Enabled() {
		t.Error("cache must be disabled without addrs")
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("shutdown = %d", cfg.HTTP.ShutdownSec)
	}
}

func TestParse_FullDocument(t *testing.T) {
	doc := `
http:
  port: 9090
auth:
  api_keys: [k1, k2]
catalog:
  source: redis
  redis:
    addrs: ["localhost:6379"]
    key_prefix: "shop:"
cache:
  addrs: ["localhost:6380"]
  ttl_sec: 3600
embedding:
  provider: gemini
  api_key: g
  model: text-embedding-004
  dimensions: 768
  query_instruction: "query: "
generation:
  provider: openai
  model: gpt-3.5-turbo-instruct
  mode: completion
  temperature: 0
  max_tokens: 300
retrieval:
  max_candidates: 5
`
	cfg, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Auth.APIKeys) != 2 || cfg.Catalog.Redis.KeyPrefix != "shop:" || cfg.Catalog.Redis.Addrs[0] != "localhost:6379" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if !cfg.Cache.Enabled() || cfg.Cache.TTL().Hours() != 1 {
		t.Errorf("unexpected cache %+v", cfg.Cache)
	}
	if cfg.Embedding.QueryInstruction != "query: " || cfg.Embedding.Dimensions != 768 {
		t.Errorf("unexpected embedding %+v", cfg.Embedding)
	}
	if cfg.Generation.Temperature == nil || *cfg.Generation.Temperature != 0 {
		t.Error("explicit zero temperature must be kept")
	}
	if cfg.Retrieval.MaxCandidates != 5 {
		t.Errorf("max_candidates = %d", cfg.Retrieval.MaxCandidates)
	}
}

func TestParse_EnvExpansion(t *testing.T) {
	t.Setenv("SHOPPER_TEST_KEY", "sk-123")
	doc := minimalYAML + `
  api_key: ${SHOPPER_TEST_KEY}
  base_url: ${SHOPPER_TEST_UNSET:-https://api.example.com/v1}
`
	cfg, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Generation.APIKey != "sk-123" {
		t.Errorf("api_key = %q", cfg.Generation.APIKey)
	}
	if cfg.Generation.BaseURL != "https://api.example.com/v1" {
		t.Errorf("base_url = %q", cfg.Generation.BaseURL)
	}
}

func TestValidate(t *testing.T) {
	neg := float32(-1)
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"port", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"source", func(c *Config) { c.Catalog.Source = "s3" }, "catalog.source"},
		{"redis addrs", func(c *Config) { c.Catalog.Source = SourceRedis }, "catalog.redis.addrs"},
		{"postgres dsn", func(c *Config) { c.Catalog.Source = SourcePostgres }, "catalog.postgres.dsn"},
		{"embedding provider", func(c *Config) { c.Embedding.Provider = "cohere" }, "embedding.provider"},
		{"embedding model", func(c *Config) { c.Embedding.Model = "" }, "embedding.model"},
		{"generation model", func(c *Config) { c.Generation.Model = "" }, "generation.model"},
		{"mode", func(c *Config) { c.Generation.Mode = "edit" }, "generation.mode"},
		{"temperature", func(c *Config) { c.Generation.Temperature = &neg }, "generation.temperature"},
		{"max tokens", func(c *Config) { c.Generation.MaxTokens = -1 }, "generation.max_tokens"},
		{"max candidates", func(c *Config) { c.Retrieval.MaxCandidates = -1 }, "retrieval.max_candidates"},
		{"cache ttl", func(c *Config) { c.Cache.TTLSec = -5 }, "cache.ttl_sec"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("config/local.yaml must load: %v", err)
	}
	if cfg.Catalog.Source != SourceFile {
		t.Errorf("local config should read the file catalog, got %q", cfg.Catalog.Source)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if GetEnv() != "local" {
		t.Errorf("default env = %q", GetEnv())
	}
	t.Setenv("ENV", "prod")
	if GetEnv() != "prod" {
		t.Errorf("env = %q", GetEnv())
	}
}
