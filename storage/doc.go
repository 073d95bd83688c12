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


// Package storage provides the storage abstraction layer for larder.
//
// Two interfaces decouple the pipeline from any particular backend:
//
//   - ParentStore: doc id to ParentDocument mapping used to expand search hits
//   - VectorIndex: embedded child chunks plus the build manifest
//
// The badger subpackage persists both in a single BadgerDB directory. The
// memory subpackage holds a volatile ParentStore that is rebuilt on every
// process start by replaying reconstruction over the cleaned corpus.
//
// # Constructor Return Type Pattern
//
// Public constructors return the interface so callers never couple to a
// backend:
//
//	index := badger.NewVectorIndex(backend)   // returns storage.VectorIndex
//	parents := memory.NewParentStore()        // returns storage.ParentStore
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/index", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	manifest, err := badger.NewVectorIndex(backend).LoadManifest(ctx)
//	if errors.Is(err, storage.ErrNotFound) {
//	    // build required
//	}
//
// # Serialization
//
// Values are MUS-encoded (see core.ChildChunkMUS and friends); keys are plain
// prefixed strings.
//
// # Thread Safety
//
// All implementations must be thread-safe and support concurrent access
// from multiple goroutines.
package storage
