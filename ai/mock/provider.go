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


package mock

import "github.com/poiesic/larder/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates separate passage and query embedders and a responder.
type MockProvider struct {
	passage   *MockEmbedder
	query     *MockEmbedder
	responder *MockResponder
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns *MockProvider so tests can reach the concrete mocks.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		passage:   NewMockEmbedder(),
		query:     NewMockEmbedder(),
		responder: NewMockResponder(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
func NewMockProviderWithServices(passage, query *MockEmbedder, responder *MockResponder) *MockProvider {
	return &MockProvider{
		passage:   passage,
		query:     query,
		responder: responder,
	}
}

// PassageEmbedder returns the mock document encoder.
func (p *MockProvider) PassageEmbedder() ai.Embedder {
	return p.passage
}

// QueryEmbedder returns the mock question encoder.
func (p *MockProvider) QueryEmbedder() ai.Embedder {
	return p.query
}

// Responder returns the mock responder.
func (p *MockProvider) Responder() ai.Responder {
	return p.responder
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockPassageEmbedder returns the concrete passage embedder for assertions.
func (p *MockProvider) GetMockPassageEmbedder() *MockEmbedder {
	return p.passage
}

// GetMockQueryEmbedder returns the concrete query embedder for assertions.
func (p *MockProvider) GetMockQueryEmbedder() *MockEmbedder {
	return p.query
}

// GetMockResponder returns the concrete responder for assertions.
func (p *MockProvider) GetMockResponder() *MockResponder {
	return p.responder
}
