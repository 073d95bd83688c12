package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/larder/ai"
	"github.com/poiesic/larder/core"
	"github.com/poiesic/larder/splitter"
	"github.com/poiesic/larder/storage"
	"golang.org/x/time/rate"
)

const (
	// ManifestVersion identifies the layout of indexes written by this package.
	ManifestVersion = 1

	// DefaultBatchSize is the number of chunks sent per embedding request.
	DefaultBatchSize = 32
)

// BuildReport summarizes a completed build.
type BuildReport struct {
	Records  int
	Parents  int
	Children int
	Duration time.Duration
}

// LoadReport summarizes a completed load.
type LoadReport struct {
	Manifest *core.IndexManifest
	Parents  int
	Children int
}

// Indexer embeds child chunks into a vector index and keeps the parent store in step.
type Indexer struct {
	index            storage.VectorIndex
	parents          storage.ParentStore
	embedder         ai.Embedder
	splitter         *splitter.Splitter
	pool             *ants.Pool
	batchSize        int
	backoff          ai.Backoff
	limiter          *rate.Limiter
	progress         io.Writer
	progressInterval int
	passageModel     string
	logger           *slog.Logger
}

// Option configures an Indexer.
type Option func(*Indexer) error

// WithPoolSize sets the number of embedding batches in flight.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(ix *Indexer) error {
		if size < 1 {
			size = 1
		}
		pool, err := newPool(size, ix.logger)
		if err != nil {
			return err
		}
		if ix.pool != nil {
			ix.pool.Release()
		}
		ix.pool = pool
		return nil
	}
}

// WithBatchSize sets the number of chunks per embedding request.
func WithBatchSize(size int) Option {
	return func(ix *Indexer) error {
		if size < 1 {
			return fmt.Errorf("batch size must be positive, got %d", size)
		}
		ix.batchSize = size
		return nil
	}
}

// WithRetry sets how embedding requests are retried.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(ix *Indexer) error {
		if maxAttempts < 1 {
			return ai.ErrInvalidMaxAttempts
		}
		ix.backoff.MaxAttempts = maxAttempts
		ix.backoff.BaseDelay = baseDelay
		return nil
	}
}

// WithRateLimit caps embedding requests per second. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(ix *Indexer) error {
		if rps <= 0 {
			ix.limiter = nil
			return nil
		}
		if burst < 1 {
			burst = 1
		}
		ix.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		return nil
	}
}

// WithProgress writes embedding progress to w every interval chunks.
func WithProgress(w io.Writer, interval int) Option {
	return func(ix *Indexer) error {
		ix.progress = w
		ix.progressInterval = interval
		return nil
	}
}

// WithPassageModel records the passage model name in the manifest.
func WithPassageModel(model string) Option {
	return func(ix *Indexer) error {
		ix.passageModel = model
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Indexer) error {
		if logger == nil {
			logger = slog.Default()
		}
		ix.logger = logger.With("component", "indexer")
		ix.backoff.Logger = ix.logger
		return nil
	}
}

func newPool(size int, logger *slog.Logger) (*ants.Pool, error) {
	return ants.NewPool(size, ants.WithPanicHandler(func(p any) {
		logger.Error("embedding worker panicked", "panic", p)
	}))
}

// NewIndexer creates an Indexer. The embedder must be the passage encoder.
func NewIndexer(
	index storage.VectorIndex,
	parents storage.ParentStore,
	embedder ai.Embedder,
	split *splitter.Splitter,
	opts ...Option,
) (*Indexer, error) {
	if index == nil {
		return nil, ErrVectorIndexRequired
	}
	if parents == nil {
		return nil, ErrParentStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if split == nil {
		return nil, ErrSplitterRequired
	}

	ix := &Indexer{
		index:     index,
		parents:   parents,
		embedder:  embedder,
		splitter:  split,
		batchSize: DefaultBatchSize,
		backoff:   ai.DefaultBackoff(),
	}
	ix.logger = slog.Default().With("component", "indexer")
	ix.backoff.Logger = ix.logger

	for _, opt := range opts {
		if err := opt(ix); err != nil {
			ix.Release()
			return nil, err
		}
	}

	if ix.pool == nil {
		poolSize := runtime.NumCPU() / 2
		if poolSize < 1 {
			poolSize = 1
		}
		pool, err := newPool(poolSize, ix.logger)
		if err != nil {
			return nil, err
		}
		ix.pool = pool
	}

	return ix, nil
}

// Release releases the worker pool.
// The indexer should not be used after calling Release.
func (ix *Indexer) Release() {
	if ix.pool != nil {
		ix.pool.Release()
	}
}

// Ready reports whether a completed build exists.
func (ix *Indexer) Ready(ctx context.Context) (bool, error) {
	_, err := ix.index.LoadManifest(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// buildParents constructs parent documents for every record. Records without a
// stable identity are skipped: their doc id would change on every replay.
// Parents whose doc id was already produced by an earlier record, and parents
// that split into no chunks, are skipped. The returned chunks are unembedded.
func (ix *Indexer) buildParents(records []core.NormalizedRecord) ([]*core.ParentDocument, []*core.ChildChunk, error) {
	seen := make(map[string]struct{}, len(records))
	parents := make([]*core.ParentDocument, 0, len(records))
	var chunks []*core.ChildChunk
	unstable := 0
	for _, record := range records {
		if !core.HasStableIdentity(record) {
			unstable++
			continue
		}
		docs, err := ix.splitter.Parents(record)
		if err != nil {
			return nil, nil, err
		}
		for _, doc := range docs {
			if _, dup := seen[doc.DocID]; dup {
				ix.logger.Debug("skipping parent with repeated doc id", "docID", doc.DocID, "recordID", record.ID)
				continue
			}
			seen[doc.DocID] = struct{}{}
			children, err := ix.splitter.Split(doc)
			if err != nil {
				return nil, nil, err
			}
			if len(children) == 0 {
				ix.logger.Debug("skipping parent without chunks", "docID", doc.DocID)
				continue
			}
			parents = append(parents, doc)
			chunks = append(chunks, children...)
		}
	}
	if unstable > 0 {
		ix.logger.Warn("skipped records without url, title, ingredients or id", "count", unstable)
	}
	return parents, chunks, nil
}

// Build replaces the index with one built from records.
// The previous index is cleared first; the manifest is only written once every
// chunk has been embedded and stored.
func (ix *Indexer) Build(ctx context.Context, records []core.NormalizedRecord) (*BuildReport, error) {
	start := time.Now()
	if len(records) == 0 {
		return nil, core.ErrEmptyCorpus
	}

	parents, chunks, err := ix.buildParents(records)
	if err != nil {
		return nil, err
	}
	if len(parents) == 0 {
		return nil, core.ErrEmptyCorpus
	}
	ix.logger.Info("split corpus", "records", len(records), "parents", len(parents), "children", len(chunks))

	if err := ix.index.Clear(ctx); err != nil {
		return nil, fmt.Errorf("clearing index: %w", err)
	}
	if err := ix.parents.Clear(ctx); err != nil {
		return nil, fmt.Errorf("clearing parent store: %w", err)
	}
	if err := ix.parents.BulkSet(ctx, parents...); err != nil {
		return nil, fmt.Errorf("storing parents: %w", err)
	}

	if err := ix.embedChunks(ctx, chunks); err != nil {
		return nil, err
	}

	config := ix.splitter.Config()
	manifest := &core.IndexManifest{
		Version:         ManifestVersion,
		PassageModel:    ix.passageModel,
		Dimension:       len(chunks[0].Embedding),
		Parents:         len(parents),
		Children:        len(chunks),
		ParentChunkSize: config.ParentChunkSize,
		ChildChunkSize:  config.ChildChunkSize,
		Overlap:         config.Overlap,
		BuiltAt:         time.Now().UTC(),
	}
	if err := ix.index.SaveManifest(ctx, manifest); err != nil {
		return nil, fmt.Errorf("saving manifest: %w", err)
	}

	report := &BuildReport{
		Records:  len(records),
		Parents:  len(parents),
		Children: len(chunks),
		Duration: time.Since(start),
	}
	ix.logger.Info("index built", "parents", report.Parents, "children", report.Children, "duration", report.Duration)
	return report, nil
}

// embedChunks embeds and stores chunks batch by batch on the worker pool.
// The first failure cancels the remaining batches.
func (ix *Indexer) embedChunks(ctx context.Context, chunks []*core.ChildChunk) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var tracker *ProgressTracker
	if ix.progress != nil {
		batches := (len(chunks) + ix.batchSize - 1) / ix.batchSize
		tracker = NewProgressTracker(ix.progress, len(chunks), batches, ix.progressInterval)
		tracker.Start()
	}

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for start := 0; start < len(chunks); start += ix.batchSize {
		end := min(start+ix.batchSize, len(chunks))
		batch := chunks[start:end]

		wg.Add(1)
		err := ix.pool.Submit(func() {
			defer wg.Done()
			if err := ix.embedBatch(ctx, batch); err != nil {
				fail(err)
				return
			}
			if tracker != nil {
				tracker.BatchDone(len(batch))
			}
		})
		if err != nil {
			wg.Done()
			fail(err)
			break
		}
	}
	wg.Wait()

	if tracker != nil {
		tracker.Finish()
	}
	return firstErr
}

func (ix *Indexer) embedBatch(ctx context.Context, batch []*core.ChildChunk) error {
	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Content
	}

	var vectors [][]float32
	err := ix.backoff.Do(ctx, func(ctx context.Context) error {
		if ix.limiter != nil {
			if err := ix.limiter.Wait(ctx); err != nil {
				return ai.Permanent(err)
			}
		}
		var err error
		vectors, err = ix.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(texts) {
			return ai.Permanent(fmt.Errorf("%w: expected %d, received %d", ErrEmbeddingMismatch, len(texts), len(vectors)))
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return err
		}
		return fmt.Errorf("%w: %w", core.ErrEmbeddingService, err)
	}

	for i, chunk := range batch {
		chunk.Embedding = ai.NormalizeVector(vectors[i])
	}
	return ix.index.AddChunks(ctx, batch...)
}

// Load reopens a completed index without embedding anything. When records is
// non-nil the parent store is cleared and repopulated from them; the records
// must be the same cleaned corpus the index was built from. The parent store
// must then hold exactly the doc ids referenced by the index.
func (ix *Indexer) Load(ctx context.Context, records []core.NormalizedRecord) (*LoadReport, error) {
	manifest, err := ix.index.LoadManifest(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, core.ErrIndexNotFound
	}
	if err != nil {
		return nil, err
	}

	config := ix.splitter.Config()
	if manifest.ParentChunkSize != config.ParentChunkSize {
		ix.logger.Warn("parent chunk size differs from the one the index was built with",
			"built", manifest.ParentChunkSize, "configured", config.ParentChunkSize)
	}

	if records != nil {
		parents, _, err := ix.buildParents(records)
		if err != nil {
			return nil, err
		}
		if err := ix.parents.Clear(ctx); err != nil {
			return nil, fmt.Errorf("clearing parent store: %w", err)
		}
		if err := ix.parents.BulkSet(ctx, parents...); err != nil {
			return nil, fmt.Errorf("storing parents: %w", err)
		}
		ix.logger.Info("parent store rehydrated", "records", len(records), "parents", len(parents))
	}

	stored, err := ix.verify(ctx)
	if err != nil {
		return nil, err
	}

	children, err := ix.index.Count(ctx)
	if err != nil {
		return nil, err
	}
	if children != manifest.Children {
		ix.logger.Warn("stored chunk count differs from the manifest", "stored", children, "manifest", manifest.Children)
	}
	ix.logger.Info("index loaded", "children", children, "parents", stored, "builtAt", manifest.BuiltAt)
	return &LoadReport{Manifest: manifest, Parents: stored, Children: children}, nil
}

// verify checks that the parent store holds exactly the doc ids referenced by
// the index and returns how many there are.
func (ix *Indexer) verify(ctx context.Context) (int, error) {
	indexed, err := ix.index.DocIDs(ctx)
	if err != nil {
		return 0, err
	}
	stored, err := ix.parents.DocIDs(ctx)
	if err != nil {
		return 0, err
	}

	storedSet := make(map[string]struct{}, len(stored))
	for _, id := range stored {
		storedSet[id] = struct{}{}
	}
	var missing []string
	for _, id := range indexed {
		if _, ok := storedSet[id]; !ok {
			missing = append(missing, id)
		}
		delete(storedSet, id)
	}
	if len(missing) > 0 {
		return 0, fmt.Errorf("%w: %d of %d indexed doc ids have no parent (first: %s)",
			core.ErrMissingParent, len(missing), len(indexed), missing[0])
	}
	if len(storedSet) > 0 {
		return 0, fmt.Errorf("%w: %d stored parents are not referenced by the index",
			core.ErrOrphanParent, len(storedSet))
	}
	return len(stored), nil
}
