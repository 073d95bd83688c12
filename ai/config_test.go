package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "https://api.upstage.ai/v1", cfg.Host)
	assert.Equal(t, "solar-embedding-1-large-passage", cfg.PassageModel)
	assert.Equal(t, "solar-embedding-1-large-query", cfg.QueryModel)
	assert.Equal(t, "solar-pro2", cfg.ChatModel)
	assert.Equal(t, 0.2, cfg.Temperature)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with custom host and key", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"), WithAPIKey("secret"))

		assert.Equal(t, "http://custom:8080/v1", cfg.Host)
		assert.Equal(t, "secret", cfg.APIKey)
	})

	t.Run("with separate models", func(t *testing.T) {
		cfg := NewConfig(
			WithPassageModel("passage"),
			WithQueryModel("query"),
			WithChatModel("chat"),
			WithTemperature(0.7),
		)

		assert.Equal(t, "passage", cfg.PassageModel)
		assert.Equal(t, "query", cfg.QueryModel)
		assert.Equal(t, "chat", cfg.ChatModel)
		assert.Equal(t, 0.7, cfg.Temperature)
	})

	t.Run("with symmetric embedding model", func(t *testing.T) {
		cfg := NewConfig(WithEmbeddingModel("nomic-embed-text"))

		assert.Equal(t, "nomic-embed-text", cfg.PassageModel)
		assert.Equal(t, "nomic-embed-text", cfg.QueryModel)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		wantHost string
	}{
		{name: "adds /v1", host: "http://localhost:11434", wantHost: "http://localhost:11434/v1"},
		{name: "strips trailing slash", host: "http://localhost:11434/", wantHost: "http://localhost:11434/v1"},
		{name: "keeps existing /v1", host: "https://api.upstage.ai/v1", wantHost: "https://api.upstage.ai/v1"},
		{name: "empty stays empty", host: "", wantHost: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Host: tt.host}
			cfg.Normalize()
			assert.Equal(t, tt.wantHost, cfg.Host)
			assert.Equal(t, "none", cfg.APIKey)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid default config", func(t *testing.T) {
		require.NoError(t, DefaultConfig().Validate())
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{name: "missing host", mutate: func(c *Config) { c.Host = "" }, wantMsg: "Host is required"},
		{name: "missing passage model", mutate: func(c *Config) { c.PassageModel = "" }, wantMsg: "PassageModel is required"},
		{name: "missing query model", mutate: func(c *Config) { c.QueryModel = "" }, wantMsg: "QueryModel is required"},
		{name: "missing chat model", mutate: func(c *Config) { c.ChatModel = "" }, wantMsg: "ChatModel is required"},
		{name: "temperature too high", mutate: func(c *Config) { c.Temperature = 2.5 }, wantMsg: "Temperature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
