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


// Package search provides parent/child retrieval over the chunk index.
//
// The Retriever embeds a query with the query encoder, finds the nearest
// child chunks and returns their parent documents:
//   - child chunks are small, so similarity is precise
//   - parents are large, so callers get whole recipes as context
//
// Several children of one parent collapse into a single result at the
// position of the best-scoring child. A child whose parent cannot be found
// fails the retrieval with core.ErrMissingParent, because it means the
// parent store was not rehydrated from the corpus the index was built from.
package search
