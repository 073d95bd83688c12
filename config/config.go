// Package config provides configuration loading and structs for larder.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all configuration for the application.
type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Dedup     DedupConfig     `yaml:"dedup"`
	Splitter  SplitterConfig  `yaml:"splitter"`
	Index     IndexConfig     `yaml:"index"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Embedding EmbeddingConfig `yaml:"embedding"`
}

// CorpusConfig holds the locations of scraped shards and the cleaned corpus.
type CorpusConfig struct {
	ShardDir    string `yaml:"shard_dir"`
	CleanedFile string `yaml:"cleaned_file"`
}

// DedupConfig holds near-duplicate detection settings.
type DedupConfig struct {
	Threshold float64 `yaml:"threshold"`
}

// SplitterConfig holds parent and child chunk sizes, in characters.
type SplitterConfig struct {
	ParentChunkSize int `yaml:"parent_chunk_size"`
	ChildChunkSize  int `yaml:"child_chunk_size"`
	Overlap         int `yaml:"overlap"`
}

// IndexConfig holds vector index location and build settings.
type IndexConfig struct {
	Path                  string        `yaml:"path"`
	RebuildOnMissingIndex bool          `yaml:"rebuild_on_missing_index"`
	PersistParents        bool          `yaml:"persist_parents"`
	PoolSize              int           `yaml:"pool_size"`
	BatchSize             int           `yaml:"batch_size"`
	MaxAttempts           int           `yaml:"max_attempts"`
	RetryBaseDelay        time.Duration `yaml:"retry_base_delay"`
	RequestsPerSecond     float64       `yaml:"requests_per_second"`
	Burst                 int           `yaml:"burst"`
}

// RetrievalConfig holds query-time settings.
type RetrievalConfig struct {
	K int `yaml:"k"`
}

// EmbeddingConfig holds the OpenAI-compatible service settings.
// The API key is never read from the file; it comes from the environment.
type EmbeddingConfig struct {
	Host         string  `yaml:"host"`
	PassageModel string  `yaml:"passage_model"`
	QueryModel   string  `yaml:"query_model"`
	ChatModel    string  `yaml:"chat_model"`
	Temperature  float64 `yaml:"temperature"`
}

// Load reads the config file at path on top of DefaultConfig, resolves
// relative paths against the file's directory and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(cfg)

	configDir := filepath.Dir(path)
	cfg.Corpus.ShardDir = expandPath(cfg.Corpus.ShardDir, configDir)
	cfg.Corpus.CleanedFile = expandPath(cfg.Corpus.CleanedFile, configDir)
	cfg.Index.Path = expandPath(cfg.Index.Path, configDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
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

// Validate checks values that ApplyDefaults cannot repair.
func (c *Config) Validate() error {
	if math.IsNaN(c.Dedup.Threshold) || c.Dedup.Threshold < 0 || c.Dedup.Threshold > 1 {
		return fmt.Errorf("%w: dedup.threshold must be between 0 and 1, got %v", ErrInvalidConfig, c.Dedup.Threshold)
	}
	if c.Splitter.Overlap < 0 || c.Splitter.Overlap >= c.Splitter.ChildChunkSize {
		return fmt.Errorf("%w: splitter.overlap must be in [0, child_chunk_size), got %d", ErrInvalidConfig, c.Splitter.Overlap)
	}
	if c.Splitter.ParentChunkSize < 0 {
		return fmt.Errorf("%w: splitter.parent_chunk_size cannot be negative", ErrInvalidConfig)
	}
	if c.Index.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: index.requests_per_second cannot be negative", ErrInvalidConfig)
	}
	if c.Embedding.Temperature < 0 || c.Embedding.Temperature > 2 {
		return fmt.Errorf("%w: embedding.temperature must be between 0 and 2", ErrInvalidConfig)
	}
	return nil
}

// expandPath resolves a relative path against configDir.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(configDir, path)
}
