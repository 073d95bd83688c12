package config

import (
	"time"

	"github.com/poiesic/larder/ai"
	"github.com/poiesic/larder/dedup"
	"github.com/poiesic/larder/splitter"
)

// Default values not owned by another package.
const (
	DefaultShardDir    = "crawled_data"
	DefaultCleanedFile = "preprocessed_data/all_recipes_cleaned.json"
	DefaultIndexPath   = "index_db"
	DefaultK           = 4
	DefaultBatchSize   = 32
)

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	aiDefaults := ai.DefaultConfig()
	backoff := ai.DefaultBackoff()
	split := splitter.DefaultConfig()

	return &Config{
		LogLevel: "info",
		Corpus: CorpusConfig{
			ShardDir:    DefaultShardDir,
			CleanedFile: DefaultCleanedFile,
		},
		Dedup: DedupConfig{
			Threshold: dedup.DefaultThreshold,
		},
		Splitter: SplitterConfig{
			ParentChunkSize: split.ParentChunkSize,
			ChildChunkSize:  split.ChildChunkSize,
			Overlap:         split.Overlap,
		},
		Index: IndexConfig{
			Path:                  DefaultIndexPath,
			RebuildOnMissingIndex: true,
			BatchSize:             DefaultBatchSize,
			MaxAttempts:           backoff.MaxAttempts,
			RetryBaseDelay:        backoff.BaseDelay,
		},
		Retrieval: RetrievalConfig{
			K: DefaultK,
		},
		Embedding: EmbeddingConfig{
			Host:         aiDefaults.Host,
			PassageModel: aiDefaults.PassageModel,
			QueryModel:   aiDefaults.QueryModel,
			ChatModel:    aiDefaults.ChatModel,
			Temperature:  aiDefaults.Temperature,
		},
	}
}

// ApplyDefaults sets default values for zero values that are never valid.
// Zero is a meaningful value for the dedup threshold, the overlap, the parent
// chunk size and the temperature, so those are left alone.
func ApplyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}
	if cfg.Corpus.ShardDir == "" {
		cfg.Corpus.ShardDir = defaults.Corpus.ShardDir
	}
	if cfg.Corpus.CleanedFile == "" {
		cfg.Corpus.CleanedFile = defaults.Corpus.CleanedFile
	}
	if cfg.Splitter.ChildChunkSize <= 0 {
		cfg.Splitter.ChildChunkSize = defaults.Splitter.ChildChunkSize
	}
	if cfg.Index.Path == "" {
		cfg.Index.Path = defaults.Index.Path
	}
	if cfg.Index.BatchSize <= 0 {
		cfg.Index.BatchSize = defaults.Index.BatchSize
	}
	if cfg.Index.MaxAttempts <= 0 {
		cfg.Index.MaxAttempts = defaults.Index.MaxAttempts
	}
	if cfg.Index.RetryBaseDelay <= 0 {
		cfg.Index.RetryBaseDelay = time.Second
	}
	if cfg.Retrieval.K <= 0 {
		cfg.Retrieval.K = defaults.Retrieval.K
	}
	if cfg.Embedding.Host == "" {
		cfg.Embedding.Host = defaults.Embedding.Host
	}
	if cfg.Embedding.PassageModel == "" {
		cfg.Embedding.PassageModel = defaults.Embedding.PassageModel
	}
	if cfg.Embedding.QueryModel == "" {
		cfg.Embedding.QueryModel = defaults.Embedding.QueryModel
	}
	if cfg.Embedding.ChatModel == "" {
		cfg.Embedding.ChatModel = defaults.Embedding.ChatModel
	}
}

// SplitterConfig converts the splitter section to a splitter.Config.
func (c *Config) SplitterConfig() splitter.Config {
	return splitter.Config{
		ParentChunkSize: c.Splitter.ParentChunkSize,
		ChildChunkSize:  c.Splitter.ChildChunkSize,
		Overlap:         c.Splitter.Overlap,
	}
}

// AIConfig builds the AI service configuration. The key is supplied by the caller.
func (c *Config) AIConfig(apiKey string) *ai.Config {
	return ai.NewConfig(
		ai.WithHost(c.Embedding.Host),
		ai.WithAPIKey(apiKey),
		ai.WithPassageModel(c.Embedding.PassageModel),
		ai.WithQueryModel(c.Embedding.QueryModel),
		ai.WithChatModel(c.Embedding.ChatModel),
		ai.WithTemperature(c.Embedding.Temperature),
	)
}
