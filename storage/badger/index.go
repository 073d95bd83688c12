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


package badger

import (
	"context"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/larder/ai"
	"github.com/poiesic/larder/core"
	"github.com/poiesic/larder/storage"
)

// VectorIndex implements storage.VectorIndex for BadgerDB.
// Search is exhaustive: every stored chunk is scored by dot product.
type VectorIndex struct {
	backend *Backend
}

var _ storage.VectorIndex = (*VectorIndex)(nil)

// NewVectorIndex creates a VectorIndex over backend.
func NewVectorIndex(backend *Backend) storage.VectorIndex {
	return &VectorIndex{backend: backend}
}

// AddChunks persists one or more embedded chunks.
// Chunks are validated before anything is written.
func (v *VectorIndex) AddChunks(ctx context.Context, chunks ...*core.ChildChunk) error {
	for _, chunk := range chunks {
		if err := core.ValidateChildChunk(chunk); err != nil {
			return err
		}
	}

	return v.backend.WriteBatch(func(wb *badger.WriteBatch) error {
		for _, chunk := range chunks {
			if err := wb.Set(makeChunkKey(uint64(chunk.ID)), storage.MarshalChildChunk(chunk)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Search returns up to k chunks ordered by similarity to vector (highest first).
// Ties keep key order.
func (v *VectorIndex) Search(ctx context.Context, vector []float32, k int) ([]*core.ChunkMatch, error) {
	if k <= 0 || len(vector) == 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.ChunkMatch
	err := v.eachChunk(ctx, func(chunk *core.ChildChunk) {
		results = append(results, &core.ChunkMatch{
			Chunk: chunk,
			Score: ai.DotProduct(vector, chunk.Embedding),
		})
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(results, func(a, b *core.ChunkMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > k {
		results = results[:k]
	}

	return results, nil
}

// DocIDs returns the distinct parent ids referenced by stored chunks, sorted.
func (v *VectorIndex) DocIDs(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	err := v.eachChunk(ctx, func(chunk *core.ChildChunk) {
		seen[chunk.DocID] = struct{}{}
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// Count returns the number of stored chunks.
func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	count := 0
	err := v.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// SaveManifest records a completed build.
func (v *VectorIndex) SaveManifest(ctx context.Context, manifest *core.IndexManifest) error {
	if manifest == nil {
		return storage.ErrInvalidManifest
	}
	value := storage.MarshalManifest(manifest)
	return v.backend.WithTx(func(tx *badger.Txn) error {
		return tx.Set([]byte(manifestKey), value)
	}, true)
}

// LoadManifest returns the manifest of the last completed build.
// Returns storage.ErrNotFound if no build has completed.
func (v *VectorIndex) LoadManifest(ctx context.Context) (*core.IndexManifest, error) {
	var manifest *core.IndexManifest
	err := v.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(manifestKey))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			manifest, unmarshalErr = storage.UnmarshalManifest(val)
			return unmarshalErr
		})
	}, false)

	return manifest, err
}

// Clear removes the manifest first, then every chunk, so an interrupted
// clear never leaves a ready-looking index.
func (v *VectorIndex) Clear(ctx context.Context) error {
	if err := v.backend.DropPrefix([]byte(manifestKey)); err != nil {
		return err
	}
	return v.backend.DropPrefix([]byte(chunkPrefix))
}

func (v *VectorIndex) eachChunk(ctx context.Context, fn func(chunk *core.ChildChunk)) error {
	return v.backend.iteratePrefix([]byte(chunkPrefix), func(item *badger.Item) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			chunk, err := storage.UnmarshalChildChunk(val)
			if err != nil {
				return err
			}
			fn(chunk)
			return nil
		})
	})
}
