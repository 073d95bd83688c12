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

// Package ai provides abstractions for the AI services used by larder.
//
// The rest of the module depends only on these interfaces:
//
//   - Embedder: turns text into vectors
//   - Responder: answers a chat transcript
//   - AIProvider: bundles a passage embedder, a query embedder and a responder
//
// Passages and queries use different encoders. The indexer always embeds
// stored content with the passage embedder and the retriever always embeds
// questions with the query embedder; mixing them degrades relevance.
//
// # Implementation Packages
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: deterministic test doubles with no network access
//
// # Constructor Return Types
//
// Public constructors (openai.NewProvider, openai.NewPassageEmbedder, ...)
// return interface types. Mock constructors return concrete types so tests
// can inject behavior and assert on call counts:
//
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("service unavailable")
//	}
//	_ = embedder.CallCount()
//
// # Retries
//
// Backoff retries an operation with exponential delay. Errors wrapped with
// Permanent stop the loop immediately:
//
//	err := ai.DefaultBackoff().Do(ctx, func(ctx context.Context) error {
//	    vectors, err = embedder.EmbedTexts(ctx, texts)
//	    return err
//	})
package ai
