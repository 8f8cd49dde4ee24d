package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for docqa.
type Config struct {
	Ingest      IngestConfig      `yaml:"ingest"`
	Store       StoreConfig       `yaml:"store"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Retrieve    RetrieveConfig    `yaml:"retrieve"`
	LLM         LLMConfig         `yaml:"llm"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// IngestConfig holds loading and chunking configuration.
type IngestConfig struct {
	DocumentPath string   `yaml:"document_path"`
	ChunkSize    int      `yaml:"chunk_size"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
	Excludes     []string `yaml:"excludes"`
}

// StoreConfig holds persistent store configuration.
type StoreConfig struct {
	PersistDir      string `yaml:"persist_dir"`
	LockTimeoutSecs int    `yaml:"lock_timeout_secs"`
	StrictBackend   bool   `yaml:"strict_backend"` // reject reopening a collection with another backend
}

// EmbeddingConfig selects the embedding backend and its options.
type EmbeddingConfig struct {
	Class       string         `yaml:"class"`   // "ollama", "openai", "gemini", "hashing"
	Options     map[string]any `yaml:"options"` // backend-specific, validated by the backend
	TimeoutSecs int            `yaml:"timeout_secs"`
	BatchSize   int            `yaml:"batch_size"`
}

// RetrieveConfig holds optional reranking and caching of search results.
type RetrieveConfig struct {
	MMRLambda    float64 `yaml:"mmr_lambda"` // 0 disables MMR reranking
	DedupJaccard float64 `yaml:"dedup_jaccard"`
	MinScore     float64 `yaml:"min_score"`
	CacheSize    int     `yaml:"cache_size"` // 0 disables the search cache
	CacheTTLSecs int     `yaml:"cache_ttl_secs"`
}

// LLMConfig holds question-answering model configuration.
type LLMConfig struct {
	Provider         string  `yaml:"provider"` // "openai", "ollama", "gemini"
	Model            string  `yaml:"model"`
	BaseURL          string  `yaml:"base_url"`
	TimeoutSecs      int     `yaml:"timeout_secs"`
	TopK             int     `yaml:"top_k"`
	MaxContextTokens int     `yaml:"max_context_tokens"`
	Temperature      float64 `yaml:"temperature"`
}

// CredentialsConfig names where API keys come from.
type CredentialsConfig struct {
	EnvFile         string `yaml:"env_file"`
	OpenAIAPIKeyEnv string `yaml:"openai_api_key_env"`
	GeminiAPIKeyEnv string `yaml:"gemini_api_key_env"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// Credentials are resolved secret values handed to backend constructors.
type Credentials struct {
	OpenAIAPIKey string
	GeminiAPIKey string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Ingest: IngestConfig{
			DocumentPath: "./data",
			ChunkSize:    1000,
			ChunkOverlap: 100,
			Excludes:     []string{"**/.git/**", "**/node_modules/**", "**/vendor/**", "**/__pycache__/**", "**/.venv/**"},
		},
		Store: StoreConfig{
			PersistDir:      "./db",
			LockTimeoutSecs: 5,
		},
		Embedding: EmbeddingConfig{
			Class:       "ollama",
			Options:     map[string]any{"model": "all-minilm"},
			TimeoutSecs: 120,
			BatchSize:   64,
		},
		Retrieve: RetrieveConfig{
			DedupJaccard: 0.9,
			CacheSize:    128,
			CacheTTLSecs: 600,
		},
		LLM: LLMConfig{
			Provider:         "openai",
			Model:            "gpt-4o-mini",
			TimeoutSecs:      120,
			TopK:             4,
			MaxContextTokens: 3000,
			Temperature:      0,
		},
		Credentials: CredentialsConfig{
			EnvFile:         ".env",
			OpenAIAPIKeyEnv: "OPENAI_API_KEY",
			GeminiAPIKeyEnv: "GEMINI_API_KEY",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	// Options belong to one backend; a file that sets them replaces the
	// defaults instead of merging into them.
	defaultOptions := cfg.Embedding.Options
	cfg.Embedding.Options = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Embedding.Options == nil {
		cfg.Embedding.Options = defaultOptions
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for docqa.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "docqa.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".docqa", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks values that would otherwise fail deep inside the pipeline.
func (c *Config) Validate() error {
	if c.Ingest.ChunkSize < 16 {
		return fmt.Errorf("ingest.chunk_size must be at least 16, got %d", c.Ingest.ChunkSize)
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("ingest.chunk_overlap must be in [0, chunk_size), got %d", c.Ingest.ChunkOverlap)
	}
	if c.Ingest.ChunkSize-c.Ingest.ChunkOverlap < 4 {
		return fmt.Errorf("ingest.chunk_size must exceed chunk_overlap by at least 4")
	}
	if c.Embedding.BatchSize <= 0 {
		return fmt.Errorf("embedding.batch_size must be positive, got %d", c.Embedding.BatchSize)
	}
	if c.LLM.TopK <= 0 {
		return fmt.Errorf("llm.top_k must be positive, got %d", c.LLM.TopK)
	}
	if c.Retrieve.MMRLambda < 0 || c.Retrieve.MMRLambda > 1 {
		return fmt.Errorf("retrieve.mmr_lambda must be in [0, 1], got %g", c.Retrieve.MMRLambda)
	}
	if c.Retrieve.CacheSize < 0 {
		return fmt.Errorf("retrieve.cache_size must not be negative, got %d", c.Retrieve.CacheSize)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// ResolveCredentials reads API keys from the environment, falling back to
// the configured dotenv file. The process environment is never modified.
func (c CredentialsConfig) ResolveCredentials() (Credentials, error) {
	fileVars := map[string]string{}
	if c.EnvFile != "" {
		vars, err := godotenv.Read(c.EnvFile)
		if err != nil && !os.IsNotExist(err) {
			return Credentials{}, fmt.Errorf("read env file %s: %w", c.EnvFile, err)
		}
		if vars != nil {
			fileVars = vars
		}
	}

	lookup := func(key string) string {
		if key == "" {
			return ""
		}
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v
		}
		return fileVars[key]
	}

	return Credentials{
		OpenAIAPIKey: lookup(c.OpenAIAPIKeyEnv),
		GeminiAPIKey: lookup(c.GeminiAPIKeyEnv),
	}, nil
}

// EnsureStoreDir creates the store directory if it does not exist.
func EnsureStoreDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
