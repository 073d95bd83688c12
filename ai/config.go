// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// Host is the base URL of an OpenAI-compatible API.
	// Example: "https://api.upstage.ai/v1" or "http://localhost:11434/v1"
	Host string

	// APIKey is the bearer token sent to Host. Local servers accept any value.
	APIKey string

	// PassageModel embeds stored document content.
	// Example: "solar-embedding-1-large-passage"
	PassageModel string

	// QueryModel embeds incoming questions.
	// Example: "solar-embedding-1-large-query"
	QueryModel string

	// ChatModel answers questions from retrieved context.
	// Example: "solar-pro2", "gpt-4o-mini"
	ChatModel string

	// Temperature is the sampling temperature for ChatModel.
	// Default: 0.2
	Temperature float64
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the service host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithPassageModel sets the document embedding model.
func WithPassageModel(model string) ConfigOption {
	return func(c *Config) {
		c.PassageModel = model
	}
}

// WithQueryModel sets the query embedding model.
func WithQueryModel(model string) ConfigOption {
	return func(c *Config) {
		c.QueryModel = model
	}
}

// WithEmbeddingModel uses the same model for passages and queries.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.PassageModel = model
		c.QueryModel = model
	}
}

// WithChatModel sets the chat model identifier.
func WithChatModel(model string) ConfigOption {
	return func(c *Config) {
		c.ChatModel = model
	}
}

// WithTemperature sets the chat sampling temperature.
func WithTemperature(temperature float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = temperature
	}
}

// DefaultConfig returns a Config for the Upstage Solar embedding pair.
func DefaultConfig() *Config {
	return &Config{
		Host:         "https://api.upstage.ai/v1",
		PassageModel: "solar-embedding-1-large-passage",
		QueryModel:   "solar-embedding-1-large-query",
		ChatModel:    "solar-pro2",
		Temperature:  0.2,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://localhost:11434/v1"),
//	    WithEmbeddingModel("nomic-embed-text"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to the host if missing and substitutes "none" for an
// empty API key.
func (c *Config) Normalize() {
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/")
		c.Host = c.Host + "/v1"
	}
	if c.APIKey == "" {
		c.APIKey = "none"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Host == "" {
		return errors.New("ai config: Host is required")
	}
	if c.PassageModel == "" {
		return errors.New("ai config: PassageModel is required")
	}
	if c.QueryModel == "" {
		return errors.New("ai config: QueryModel is required")
	}
	if c.ChatModel == "" {
		return errors.New("ai config: ChatModel is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("ai config: Temperature must be between 0 and 2")
	}
	return nil
}
