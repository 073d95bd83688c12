package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/larder/ai"
	"github.com/poiesic/larder/core"
	"github.com/poiesic/larder/storage"
)

// Retriever resolves queries to parent documents via child-chunk similarity.
type Retriever struct {
	index    storage.VectorIndex
	parents  storage.ParentStore
	embedder ai.Embedder
	backoff  ai.Backoff
	logger   *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger.With("component", "retriever")
		r.backoff.Logger = r.logger
		return nil
	}
}

// WithBackoff sets how query embedding is retried.
func WithBackoff(backoff ai.Backoff) Option {
	return func(r *Retriever) error {
		if backoff.MaxAttempts <= 0 {
			return ai.ErrInvalidMaxAttempts
		}
		if backoff.Logger == nil {
			backoff.Logger = r.logger
		}
		r.backoff = backoff
		return nil
	}
}

// NewRetriever creates a Retriever. The embedder must be the query encoder.
func NewRetriever(
	index storage.VectorIndex,
	parents storage.ParentStore,
	embedder ai.Embedder,
	opts ...Option,
) (*Retriever, error) {
	if index == nil {
		return nil, ErrVectorIndexRequired
	}
	if parents == nil {
		return nil, ErrParentStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &Retriever{
		index:    index,
		parents:  parents,
		embedder: embedder,
		backoff:  ai.DefaultBackoff(),
		logger:   slog.Default().With("component", "retriever"),
	}
	r.backoff.Logger = r.logger

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Retrieve returns the parents of the k nearest child chunks, best first.
// Fewer than k parents are returned when several children share a parent.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]*core.ParentDocument, error) {
	scored, err := r.RetrieveScored(ctx, query, k)
	if err != nil {
		return nil, err
	}
	docs := make([]*core.ParentDocument, len(scored))
	for i, result := range scored {
		docs[i] = result.Document
	}
	return docs, nil
}

// RetrieveScored is Retrieve with each parent's best child similarity.
func (r *Retriever) RetrieveScored(ctx context.Context, query string, k int) ([]core.RetrievedDocument, error) {
	return r.RetrieveWithMonitor(ctx, query, k, nil)
}

// RetrieveWithMonitor retrieves parents while reporting each stage to monitor.
func (r *Retriever) RetrieveWithMonitor(ctx context.Context, query string, k int, monitor RetrievalMonitor) ([]core.RetrievedDocument, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if k <= 0 {
		return nil, ErrInvalidK
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	monitor.Start(query, k)

	if _, err := r.index.LoadManifest(ctx); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, core.ErrIndexNotFound
		}
		return nil, err
	}

	var embedding []float32
	err := r.backoff.Do(ctx, func(ctx context.Context) error {
		var err error
		embedding, err = r.embedder.EmbedText(ctx, query)
		return err
	})
	if err != nil {
		r.logger.Error("error generating embedding for query", "err", err)
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", core.ErrEmbeddingService, err)
	}
	embedding = ai.NormalizeVector(embedding)
	monitor.AfterEmbedding(len(embedding))

	matches, err := r.index.Search(ctx, embedding, k)
	if err != nil {
		r.logger.Error("error searching child chunks", "err", err)
		return nil, err
	}
	monitor.AfterChildSearch(matches)

	seen := make(map[string]struct{}, len(matches))
	results := make([]core.RetrievedDocument, 0, len(matches))
	for _, match := range matches {
		docID := match.Chunk.DocID
		parent, err := r.parents.Get(ctx, docID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: chunk %d references doc id %s", core.ErrMissingParent, match.Chunk.ID, docID)
		}
		if err != nil {
			return nil, err
		}

		_, duplicate := seen[docID]
		monitor.ParentResolved(match, parent, duplicate)
		if duplicate {
			continue
		}
		seen[docID] = struct{}{}
		results = append(results, core.RetrievedDocument{Document: parent, Score: match.Score})
	}

	r.logger.Debug("retrieved parents", "children", len(matches), "parents", len(results))
	monitor.Finish(results)
	return results, nil
}
