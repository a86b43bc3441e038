// Package config provides configuration loading for the loreseek server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Cache     CacheConfig     `yaml:"cache"`
	Query     QueryConfig     `yaml:"query"`
	Session   SessionConfig   `yaml:"session"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the post database and the vector index.
type StorageConfig struct {
	DatabasePath    string `yaml:"database_path"`
	VectorIndexPath string `yaml:"vector_index_path"`
}

// EmbeddingConfig holds embedding provider settings. APIKeyEnv names the
// environment variable carrying the key; keys never live in the file.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"` // openai, genai, or mock
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	Dimensions  int    `yaml:"dimensions"`
	CacheSize   int    `yaml:"cache_size"`
	BatchSize   int    `yaml:"batch_size"`
	Concurrency int    `yaml:"concurrency"`
}

// LLMConfig holds completion provider settings.
type LLMConfig struct {
	Provider      string `yaml:"provider"` // gemini or disabled
	Model         string `yaml:"model"`
	APIKeyEnv     string `yaml:"api_key_env"`
	RerankEnabled bool   `yaml:"rerank_enabled"`
}

// FetchConfig holds source endpoint settings.
type FetchConfig struct {
	RedditBaseURL  string `yaml:"reddit_base_url"`
	SearchBaseURL  string `yaml:"search_base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// CacheConfig holds the sufficiency-gate tunables. These reload at
// runtime when the config file changes.
type CacheConfig struct {
	DistanceThreshold float64 `yaml:"distance_threshold"`
	MinMatches        int     `yaml:"min_matches"`
}

// QueryConfig holds request validation settings.
type QueryConfig struct {
	MaxLength int `yaml:"max_length"`
}

// SessionConfig holds result-retention settings.
type SessionConfig struct {
	TTLMinutes int `yaml:"ttl_minutes"`
}

// Load reads and parses the config file at path, expands paths, and
// applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.VectorIndexPath = expandPath(cfg.Storage.VectorIndexPath, configDir)

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
