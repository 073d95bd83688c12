package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/larder/dedup"
	"github.com/poiesic/larder/splitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "larder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, dedup.DefaultThreshold, cfg.Dedup.Threshold)
	assert.Equal(t, splitter.DefaultConfig(), cfg.SplitterConfig())
	assert.True(t, cfg.Index.RebuildOnMissingIndex)
	assert.False(t, cfg.Index.PersistParents)
	assert.Equal(t, DefaultK, cfg.Retrieval.K)
	assert.Equal(t, "solar-embedding-1-large-passage", cfg.Embedding.PassageModel)
	assert.Equal(t, "solar-embedding-1-large-query", cfg.Embedding.QueryModel)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
corpus:
  shard_dir: ./shards
  cleaned_file: /var/lib/larder/cleaned.json
dedup:
  threshold: 0.9
splitter:
  child_chunk_size: 300
  overlap: 30
index:
  path: ./db
  persist_parents: true
  retry_base_delay: 250ms
  requests_per_second: 5
embedding:
  host: http://localhost:11434
  passage_model: nomic-embed-text
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	dir := filepath.Dir(path)
	assert.Equal(t, filepath.Join(dir, "shards"), cfg.Corpus.ShardDir)
	assert.Equal(t, "/var/lib/larder/cleaned.json", cfg.Corpus.CleanedFile)
	assert.Equal(t, filepath.Join(dir, "db"), cfg.Index.Path)
	assert.Equal(t, 0.9, cfg.Dedup.Threshold)
	assert.Equal(t, 300, cfg.Splitter.ChildChunkSize)
	assert.Equal(t, 30, cfg.Splitter.Overlap)
	assert.Equal(t, splitter.DefaultParentChunkSize, cfg.Splitter.ParentChunkSize, "unset keys keep defaults")
	assert.True(t, cfg.Index.PersistParents)
	assert.True(t, cfg.Index.RebuildOnMissingIndex)
	assert.Equal(t, 250*time.Millisecond, cfg.Index.RetryBaseDelay)
	assert.Equal(t, 5.0, cfg.Index.RequestsPerSecond)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.PassageModel)
	assert.Equal(t, "solar-embedding-1-large-query", cfg.Embedding.QueryModel)
}

func TestLoad_ExplicitZerosAreKept(t *testing.T) {
	path := writeConfig(t, `
dedup:
  threshold: 0
splitter:
  parent_chunk_size: 0
  overlap: 0
index:
  rebuild_on_missing_index: false
embedding:
  temperature: 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.Dedup.Threshold)
	assert.Equal(t, 0, cfg.Splitter.ParentChunkSize)
	assert.Equal(t, 0, cfg.Splitter.Overlap)
	assert.False(t, cfg.Index.RebuildOnMissingIndex)
	assert.Equal(t, 0.0, cfg.Embedding.Temperature)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"threshold above one", "dedup:\n  threshold: 1.5\n", ErrInvalidConfig},
		{"overlap not below chunk size", "splitter:\n  child_chunk_size: 100\n  overlap: 100\n", ErrInvalidConfig},
		{"negative parent size", "splitter:\n  parent_chunk_size: -1\n", ErrInvalidConfig},
		{"negative rate", "index:\n  requests_per_second: -2\n", ErrInvalidConfig},
		{"bad yaml", "dedup: [", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.Contains(t, err.Error(), "failed to parse config")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "larder.yaml")

	cfg := DefaultConfig()
	cfg.Corpus.ShardDir = filepath.Join(dir, "shards")
	cfg.Corpus.CleanedFile = filepath.Join(dir, "cleaned.json")
	cfg.Index.Path = filepath.Join(dir, "db")
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultShardDir, cfg.Corpus.ShardDir)
	assert.Equal(t, splitter.DefaultChildChunkSize, cfg.Splitter.ChildChunkSize)
	assert.Equal(t, DefaultK, cfg.Retrieval.K)
	assert.Equal(t, DefaultBatchSize, cfg.Index.BatchSize)
	assert.Equal(t, 0.0, cfg.Dedup.Threshold, "zero threshold is a valid setting")
}

func TestAIConfig(t *testing.T) {
	cfg := DefaultConfig()
	aiCfg := cfg.AIConfig("secret")

	assert.Equal(t, "secret", aiCfg.APIKey)
	assert.Equal(t, cfg.Embedding.PassageModel, aiCfg.PassageModel)
	assert.NoError(t, aiCfg.Validate())
}
