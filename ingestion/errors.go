package ingestion

import "errors"

var (
	// ErrVectorIndexRequired is returned when a vector index is not provided.
	ErrVectorIndexRequired = errors.New("vector index required")

	// ErrParentStoreRequired is returned when a parent store is not provided.
	ErrParentStoreRequired = errors.New("parent store required")

	// ErrEmbedderRequired is returned when a passage embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrSplitterRequired is returned when a splitter is not provided.
	ErrSplitterRequired = errors.New("splitter required")

	// ErrEmbeddingMismatch is returned when the service returns a different number of vectors than texts.
	ErrEmbeddingMismatch = errors.New("embedding result mismatch")
)
