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


package larder

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/poiesic/larder/ai"
	"github.com/poiesic/larder/ai/openai"
	"github.com/poiesic/larder/config"
	"github.com/poiesic/larder/conversation"
	"github.com/poiesic/larder/core"
	"github.com/poiesic/larder/corpus"
	"github.com/poiesic/larder/ingestion"
	"github.com/poiesic/larder/search"
	"github.com/poiesic/larder/splitter"
	"github.com/poiesic/larder/storage"
	"github.com/poiesic/larder/storage/badger"
	"github.com/poiesic/larder/storage/memory"
)

// Engine wires the corpus, the index and the AI services behind one handle.
type Engine struct {
	cfg       *config.Config
	backend   *badger.Backend
	index     storage.VectorIndex
	parents   storage.ParentStore
	provider  ai.AIProvider
	indexer   *ingestion.Indexer
	retriever *search.Retriever
	logger    *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	provider ai.AIProvider
	apiKey   string
	progress io.Writer
	logger   *slog.Logger
}

// WithProvider replaces the OpenAI-compatible provider built from the config.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithAPIKey sets the key sent to the embedding and chat service.
func WithAPIKey(key string) EngineOption {
	return func(o *engineOptions) {
		o.apiKey = key
	}
}

// WithProgress writes embedding progress to w during builds.
func WithProgress(w io.Writer) EngineOption {
	return func(o *engineOptions) {
		o.progress = w
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewEngine opens the index directory named by cfg and prepares the pipeline.
// Zero values in cfg that are never valid are replaced with defaults. Nothing
// is built or loaded until Open, Build or Load is called.
func NewEngine(cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	config.ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	split, err := splitter.New(cfg.SplitterConfig())
	if err != nil {
		return nil, err
	}

	backend, err := badger.OpenBackend(cfg.Index.Path, false)
	if err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(cfg.AIConfig(options.apiKey))
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	index := badger.NewVectorIndex(backend)
	parents := memory.NewParentStore()
	if cfg.Index.PersistParents {
		parents = badger.NewParentStore(backend)
	}

	indexerOpts := []ingestion.Option{
		ingestion.WithLogger(options.logger),
		ingestion.WithBatchSize(cfg.Index.BatchSize),
		ingestion.WithRetry(cfg.Index.MaxAttempts, cfg.Index.RetryBaseDelay),
		ingestion.WithRateLimit(cfg.Index.RequestsPerSecond, cfg.Index.Burst),
		ingestion.WithPassageModel(cfg.Embedding.PassageModel),
	}
	if cfg.Index.PoolSize > 0 {
		indexerOpts = append(indexerOpts, ingestion.WithPoolSize(cfg.Index.PoolSize))
	}
	if options.progress != nil {
		indexerOpts = append(indexerOpts, ingestion.WithProgress(options.progress, cfg.Index.BatchSize))
	}

	indexer, err := ingestion.NewIndexer(index, parents, provider.PassageEmbedder(), split, indexerOpts...)
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	backoff := ai.DefaultBackoff()
	backoff.MaxAttempts = cfg.Index.MaxAttempts
	backoff.BaseDelay = cfg.Index.RetryBaseDelay
	retriever, err := search.NewRetriever(index, parents, provider.QueryEmbedder(),
		search.WithLogger(options.logger),
		search.WithBackoff(backoff),
	)
	if err != nil {
		indexer.Release()
		provider.Close()
		backend.Close()
		return nil, err
	}

	return &Engine{
		cfg:       cfg,
		backend:   backend,
		index:     index,
		parents:   parents,
		provider:  provider,
		indexer:   indexer,
		retriever: retriever,
		logger:    options.logger,
	}, nil
}

// Close releases the worker pool, the provider and the index.
func (e *Engine) Close() error {
	e.indexer.Release()

	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}

	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Preprocess writes the cleaned corpus from the shard directory. An existing
// cleaned file is kept unless force is set; the returned report is nil then.
func (e *Engine) Preprocess(force bool) (*corpus.Report, error) {
	return Preprocess(e.cfg, force, e.logger)
}

// Preprocess runs the preprocessing stage without opening an index or
// contacting the embedding service.
func Preprocess(cfg *config.Config, force bool, logger *slog.Logger) (*corpus.Report, error) {
	if logger == nil {
		logger = slog.Default()
	}
	exists, err := corpus.Exists(cfg.Corpus.CleanedFile)
	if err != nil {
		return nil, err
	}
	if exists && !force {
		logger.Info("cleaned corpus exists, skipping preprocessing", "path", cfg.Corpus.CleanedFile)
		return nil, nil
	}

	p, err := corpus.NewPreprocessor(cfg.Dedup.Threshold, logger)
	if err != nil {
		return nil, err
	}
	return p.Run(cfg.Corpus.ShardDir, cfg.Corpus.CleanedFile)
}

// Build indexes the cleaned corpus from scratch.
func (e *Engine) Build(ctx context.Context) (*ingestion.BuildReport, error) {
	records, err := corpus.LoadCleaned(e.cfg.Corpus.CleanedFile)
	if err != nil {
		return nil, err
	}
	return e.indexer.Build(ctx, records)
}

// Load reopens the persisted index. A volatile parent store is rehydrated
// from the cleaned corpus; a persisted one is only verified.
func (e *Engine) Load(ctx context.Context) (*ingestion.LoadReport, error) {
	if e.cfg.Index.PersistParents {
		return e.indexer.Load(ctx, nil)
	}
	records, err := corpus.LoadCleaned(e.cfg.Corpus.CleanedFile)
	if err != nil {
		return nil, err
	}
	return e.indexer.Load(ctx, records)
}

// Open makes the engine ready to answer queries. It builds when rebuild is
// set, or when no index exists and the config allows building on demand;
// otherwise it loads. It reports whether a build happened.
func (e *Engine) Open(ctx context.Context, rebuild bool) (bool, error) {
	ready, err := e.indexer.Ready(ctx)
	if err != nil {
		return false, err
	}

	switch {
	case rebuild:
		e.logger.Info("rebuilding index", "path", e.cfg.Index.Path)
	case !ready && e.cfg.Index.RebuildOnMissingIndex:
		e.logger.Info("no index found, building", "path", e.cfg.Index.Path)
	case !ready:
		return false, core.ErrIndexNotFound
	default:
		_, err := e.Load(ctx)
		return false, err
	}

	if _, err := e.Build(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Ready reports whether a completed index exists.
func (e *Engine) Ready(ctx context.Context) (bool, error) {
	return e.indexer.Ready(ctx)
}

// Retrieve returns the parents of the k nearest child chunks.
func (e *Engine) Retrieve(ctx context.Context, query string, k int) ([]*core.ParentDocument, error) {
	return e.retriever.Retrieve(ctx, query, k)
}

// Retriever exposes the retriever for scored or monitored queries.
func (e *Engine) Retriever() *search.Retriever {
	return e.retriever
}

// NewChat creates a chat over this engine's retriever and responder.
func (e *Engine) NewChat() (*conversation.Chat, error) {
	return conversation.NewChat(e.retriever, e.provider.Responder(), e.cfg.Retrieval.K, e.logger)
}

// IsIndexNotFound reports whether err means a build is required.
func IsIndexNotFound(err error) bool {
	return errors.Is(err, core.ErrIndexNotFound)
}
