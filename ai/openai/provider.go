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


package openai

import (
	"log/slog"

	"github.com/poiesic/larder/ai"
)

// Provider implements ai.AIProvider using OpenAI-compatible services.
// It manages the passage and query embedders and the chat responder.
type Provider struct {
	config    *ai.Config
	passage   *Embedder
	query     *Embedder
	responder *Responder
	logger    *slog.Logger
}

// NewProvider creates a new AI provider with OpenAI-compatible services.
// The config is validated and normalized before use.
//
// Returns ai.AIProvider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	passage, err := newEmbedder(config, config.PassageModel)
	if err != nil {
		return nil, err
	}

	query, err := newEmbedder(config, config.QueryModel)
	if err != nil {
		return nil, err
	}

	responder, err := newResponder(config)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:    config,
		passage:   passage,
		query:     query,
		responder: responder,
		logger:    slog.Default().With("component", "openai-provider"),
	}, nil
}

// PassageEmbedder returns the document encoder.
func (p *Provider) PassageEmbedder() ai.Embedder {
	return p.passage
}

// QueryEmbedder returns the question encoder.
func (p *Provider) QueryEmbedder() ai.Embedder {
	return p.query
}

// Responder returns the chat service.
func (p *Provider) Responder() ai.Responder {
	return p.responder
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
