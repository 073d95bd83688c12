package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Responder produces an answer from a conversation transcript.
// Implementations must be thread-safe for concurrent use.
type Responder interface {
	// Respond returns the assistant's reply to the given messages.
	Respond(ctx context.Context, messages []Message) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// Passages and queries are embedded by separate encoders; the indexer must always use
// PassageEmbedder and the retriever must always use QueryEmbedder.
type AIProvider interface {
	// PassageEmbedder returns the encoder for stored document content.
	PassageEmbedder() Embedder

	// QueryEmbedder returns the encoder for incoming questions.
	QueryEmbedder() Embedder

	// Responder returns the chat service.
	Responder() Responder

	// Close releases resources held by the provider and its services.
	Close() error
}
