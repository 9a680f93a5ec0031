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

	"github.com/eecar/partsearch/internal/domain"
)

// Config holds the partsearch API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Storage    StorageConfig    `yaml:"storage"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Search     SearchConfig     `yaml:"search"`
	Cache      CacheConfig      `yaml:"cache"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
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

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// EmbeddingConfig holds the embedding provider settings.
type EmbeddingConfig struct {
	Provider         string `yaml:"provider"`
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
	TimeoutSec       int    `yaml:"timeout_sec"`
	CacheTTLHours    int    `yaml:"cache_ttl_hours"` // 0 disables the query embedding cache
}

// GenerationConfig holds the text-generation provider settings.
type GenerationConfig struct {
	APIKey            string  `yaml:"api_key"`
	BaseURL           string  `yaml:"base_url"`
	Model             string  `yaml:"model"`
	TimeoutSec        int     `yaml:"timeout_sec"`
	RequestsPerMinute float64 `yaml:"requests_per_minute"`
	Burst             int     `yaml:"burst"`
	Temperature       float32 `yaml:"temperature"`
}

// RetrievalConfig holds the backend settings.
type RetrievalConfig struct {
	TimeoutSec    int                 `yaml:"timeout_sec"` // bounds one backend call, catalog scans included
	VectorIndex   VectorIndexConfig   `yaml:"vector_index"`
	KnowledgeBase KnowledgeBaseConfig `yaml:"knowledge_base"`
	Legacy        LegacyConfig        `yaml:"legacy"`
}

// VectorIndexConfig selects and configures the server-side vector index.
type VectorIndexConfig struct {
	Enabled   bool         `yaml:"enabled"`
	Driver    string       `yaml:"driver"` // redis, qdrant
	IndexName string       `yaml:"index_name"`
	DocPrefix string       `yaml:"doc_prefix"`
	Qdrant    QdrantConfig `yaml:"qdrant"`
}

// QdrantConfig holds qdrant connection settings.
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	APIKey     string `yaml:"api_key"`
	UseTLS     bool   `yaml:"use_tls"`
	Collection string `yaml:"collection"`
}

// KnowledgeBaseConfig configures the embedded text-in retrieval store.
type KnowledgeBaseConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Path           string `yaml:"path"` // empty = in-memory
	Compress       bool   `yaml:"compress"`
	Collection     string `yaml:"collection"`
	Concurrency    int    `yaml:"concurrency"`
	IndexOnStartup bool   `yaml:"index_on_startup"`
}

// LegacyConfig bounds the brute-force scan.
type LegacyConfig struct {
	Concurrency   int `yaml:"concurrency"`
	MaxCandidates int `yaml:"max_candidates"`
}

// SearchConfig holds ranking and enrichment settings.
type SearchConfig struct {
	Alpha        *float64          `yaml:"alpha"` // nil = default; 0 is pure BM25
	BM25         BM25Config        `yaml:"bm25"`
	Overfetch    int               `yaml:"overfetch"`
	MaxTopK      int               `yaml:"max_top_k"`
	Expansion    ExpansionConfig   `yaml:"expansion"`
	Explanations ExplanationConfig `yaml:"explanations"`
}

// BM25Config holds BM25 parameters.
type BM25Config struct {
	K1 float64 `yaml:"k1"`
	B  float64 `yaml:"b"`
}

// ExpansionConfig controls LLM query expansion and multi-query embedding.
type ExpansionConfig struct {
	Enabled     bool `yaml:"enabled"`
	TimeoutSec  int  `yaml:"timeout_sec"`
	MaxTokens   int  `yaml:"max_tokens"`
	Concurrency int  `yaml:"concurrency"`
}

// ExplanationConfig controls LLM result explanations.
type ExplanationConfig struct {
	Enabled    bool `yaml:"enabled"`
	TimeoutSec int  `yaml:"timeout_sec"`
	MaxTokens  int  `yaml:"max_tokens"`
}

// CacheConfig controls the search result cache.
type CacheConfig struct {
	Enabled  bool `yaml:"enabled"`
	TTLHours int  `yaml:"ttl_hours"`
}

// TTL returns the result cache TTL.
func (c CacheConfig) TTL() time.Duration { return time.Duration(c.TTLHours) * time.Hour }

// HybridAlpha returns the configured fusion weight or the default when unset.
func (s SearchConfig) HybridAlpha() float64 {
	if s.Alpha == nil {
		return DefaultAlpha
	}
	return *s.Alpha
}

// DefaultAlpha weights vector similarity over BM25 when search.alpha is absent.
const DefaultAlpha = 0.7

// Seconds converts a *_sec setting to a duration.
func Seconds(n int) time.Duration { return time.Duration(n) * time.Second }

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse expands ${VAR} references, decodes YAML, applies defaults and validates.
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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
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
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "eecar:"
	}

	c.Embedding.applyDefaults()
	c.Generation.applyDefaults()
	c.Retrieval.applyDefaults()
	c.Search.applyDefaults()

	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = 7 * 24
	}
}

func (e *EmbeddingConfig) applyDefaults() {
	if e.Provider == "" {
		e.Provider = "openai"
	}
	vc := domain.DefaultVectorConfig()
	if e.Model == "" {
		e.Model = vc.Model
	}
	if e.Dimensions <= 0 {
		e.Dimensions = vc.Dimensions
	}
	if e.TimeoutSec <= 0 {
		e.TimeoutSec = 10
	}
}

func (g *GenerationConfig) applyDefaults() {
	if g.Model == "" {
		g.Model = "anthropic.claude-3-haiku-20240307-v1:0"
	}
	if g.TimeoutSec <= 0 {
		g.TimeoutSec = 15
	}
	if g.RequestsPerMinute <= 0 {
		g.RequestsPerMinute = 50
	}
	if g.Burst <= 0 {
		g.Burst = 5
	}
}

func (r *RetrievalConfig) applyDefaults() {
	if r.TimeoutSec <= 0 {
		r.TimeoutSec = 10
	}
	vi := &r.VectorIndex
	if vi.Driver == "" {
		vi.Driver = "redis"
	}
	if vi.IndexName == "" {
		vi.IndexName = "idx:parts"
	}
	if vi.Qdrant.Port <= 0 {
		vi.Qdrant.Port = 6334
	}
	if vi.Qdrant.Collection == "" {
		vi.Qdrant.Collection = "parts"
	}
	if r.KnowledgeBase.Collection == "" {
		r.KnowledgeBase.Collection = "parts"
	}
	if r.KnowledgeBase.Concurrency <= 0 {
		r.KnowledgeBase.Concurrency = 4
	}
	if r.Legacy.Concurrency <= 0 {
		r.Legacy.Concurrency = 16
	}
	if r.Legacy.MaxCandidates <= 0 {
		r.Legacy.MaxCandidates = 10000
	}
}

func (s *SearchConfig) applyDefaults() {
	if s.Alpha == nil {
		alpha := DefaultAlpha
		s.Alpha = &alpha
	}
	if s.BM25.K1 <= 0 {
		s.BM25.K1 = 1.2
	}
	if s.BM25.B <= 0 {
		s.BM25.B = 0.75
	}
	if s.Overfetch <= 0 {
		s.Overfetch = 2
	}
	if s.MaxTopK <= 0 {
		s.MaxTopK = 50
	}
	if s.Expansion.TimeoutSec <= 0 {
		s.Expansion.TimeoutSec = 5
	}
	if s.Expansion.MaxTokens <= 0 {
		s.Expansion.MaxTokens = 200
	}
	if s.Expansion.Concurrency <= 0 {
		s.Expansion.Concurrency = 4
	}
	if s.Explanations.TimeoutSec <= 0 {
		s.Explanations.TimeoutSec = 15
	}
	if s.Explanations.MaxTokens <= 0 {
		s.Explanations.MaxTokens = 1024
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Database.Driver != "redis" {
		return fmt.Errorf("database.driver must be \"redis\", got %q", c.Database.Driver)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if a := c.Search.HybridAlpha(); a < 0 || a > 1 {
		return fmt.Errorf("search.alpha must be in [0, 1], got %v", a)
	}
	if c.Retrieval.TimeoutSec <= 0 {
		return fmt.Errorf("retrieval.timeout_sec must be positive, got %d", c.Retrieval.TimeoutSec)
	}
	if c.Search.BM25.B > 1 {
		return fmt.Errorf("search.bm25.b must be in (0, 1], got %v", c.Search.BM25.B)
	}
	vi := c.Retrieval.VectorIndex
	switch vi.Driver {
	case "redis":
	case "qdrant":
		if vi.Enabled && vi.Qdrant.Host == "" {
			return fmt.Errorf("retrieval.vector_index.qdrant.host is required for the qdrant driver")
		}
	default:
		return fmt.Errorf("retrieval.vector_index.driver must be \"redis\" or \"qdrant\", got %q", vi.Driver)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
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
