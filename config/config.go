package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"docqa/internal/domain"
)

// Config holds all configuration for docqa.
type Config struct {
	Documents  DocumentsConfig  `yaml:"documents"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Retrieve   RetrieveConfig   `yaml:"retrieve"`
	Context    ContextConfig    `yaml:"context"`
	Generation GenerationConfig `yaml:"generation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DocumentsConfig selects the files that make up the corpus.
type DocumentsConfig struct {
	Dir      string   `yaml:"dir" validate:"required"`
	Includes []string `yaml:"includes" validate:"min=1"`
	Excludes []string `yaml:"excludes"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider" validate:"oneof=tfidf mock openai ollama compatible"`
	Model     string `yaml:"model"`       // e.g., "text-embedding-3-small"
	BaseURL   string `yaml:"base_url"`    // overrides the provider endpoint
	APIKeyEnv string `yaml:"api_key_env"` // Environment variable for API key
	BatchSize int    `yaml:"batch_size" validate:"gt=0"`
	Workers   int    `yaml:"workers" validate:"gt=0"`
	CachePath string `yaml:"cache_path"` // bbolt file for cached vectors; empty disables
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK      int           `yaml:"top_k" validate:"gt=0"`
	CacheSize int           `yaml:"cache_size" validate:"gte=0"` // remembered queries; 0 disables
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// ContextConfig bounds the context handed to the generator.
type ContextConfig struct {
	Budget int    `yaml:"budget" validate:"gte=0"`
	Unit   string `yaml:"unit" validate:"oneof=rune grapheme"`
}

// GenerationConfig holds answer generation configuration.
type GenerationConfig struct {
	Provider              string `yaml:"provider" validate:"required"` // "extractive", "openai", "deepseek", "ollama" or a custom name with base_url
	Model                 string `yaml:"model"`
	BaseURL               string `yaml:"base_url"`
	APIKeyEnv             string `yaml:"api_key_env"`
	domain.SamplingConfig `yaml:",inline"`
	EchoPrompt            bool `yaml:"echo_prompt"` // prepend the prompt to every answer
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// DefaultConfig returns the default configuration. It runs fully offline.
func DefaultConfig() *Config {
	return &Config{
		Documents: DocumentsConfig{
			Dir:      "data",
			Includes: []string{"**/*.txt"},
			Excludes: []string{"**/.git/**"},
		},
		Embedding: EmbeddingConfig{
			Provider:  "tfidf",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			BatchSize: 32,
			Workers:   1,
		},
		Retrieve: RetrieveConfig{
			TopK:      2,
			CacheSize: 128,
			CacheTTL:  10 * time.Minute,
		},
		Context: ContextConfig{
			Budget: 1500,
			Unit:   "rune",
		},
		Generation: GenerationConfig{
			Provider: "extractive",
			Model:    "gpt-4o-mini",
			SamplingConfig: domain.SamplingConfig{
				MaxNewTokens: 200,
				DoSample:     true,
				Temperature:  0.7,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
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

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
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

// Validate checks every section against its constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// CacheDBPath returns the default location of the embedding cache.
func CacheDBPath(dir string) string {
	return filepath.Join(dir, ".docqa", "embeddings.db")
}
