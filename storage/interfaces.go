package storage

import (
	"context"

	"github.com/poiesic/larder/core"
)

// ParentStore maps doc ids to parent documents.
// Implementations must be thread-safe and support concurrent access.
type ParentStore interface {
	// Set stores a parent document under id, replacing any previous entry.
	Set(ctx context.Context, id string, doc *core.ParentDocument) error

	// Get retrieves the parent document stored under id.
	// Returns ErrNotFound if the id has no entry.
	Get(ctx context.Context, id string) (*core.ParentDocument, error)

	// BulkSet stores every document under its DocID.
	BulkSet(ctx context.Context, docs ...*core.ParentDocument) error

	// DocIDs returns the ids of every stored document, sorted.
	DocIDs(ctx context.Context) ([]string, error)

	// Clear removes every stored document.
	Clear(ctx context.Context) error
}

// VectorIndex stores embedded child chunks and answers nearest-neighbor queries.
// Implementations must be thread-safe and support concurrent access.
type VectorIndex interface {
	// AddChunks persists one or more embedded chunks.
	// Chunks without an embedding are rejected.
	AddChunks(ctx context.Context, chunks ...*core.ChildChunk) error

	// Search returns up to k chunks ordered by similarity to vector (highest first).
	Search(ctx context.Context, vector []float32, k int) ([]*core.ChunkMatch, error)

	// DocIDs returns the distinct parent ids referenced by stored chunks, sorted.
	DocIDs(ctx context.Context) ([]string, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// SaveManifest records a completed build. It must be the last write of a build.
	SaveManifest(ctx context.Context, manifest *core.IndexManifest) error

	// LoadManifest returns the manifest of the last completed build.
	// Returns ErrNotFound if no build has completed.
	LoadManifest(ctx context.Context) (*core.IndexManifest, error)

	// Clear removes every chunk and the manifest.
	Clear(ctx context.Context) error
}
