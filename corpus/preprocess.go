package corpus

import (
	"fmt"
	"log/slog"

	"github.com/poiesic/larder/core"
	"github.com/poiesic/larder/dedup"
	"github.com/poiesic/larder/normalize"
)

// Report summarizes a preprocessing run.
type Report struct {
	Loaded  int
	Removed int
	Written int
}

// Preprocessor merges shards into a cleaned corpus file.
type Preprocessor struct {
	normalizer *normalize.Normalizer
	dedup      *dedup.Deduplicator
	logger     *slog.Logger
}

// NewPreprocessor creates a Preprocessor deduplicating at threshold.
func NewPreprocessor(threshold float64, logger *slog.Logger) (*Preprocessor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "preprocess")

	d, err := dedup.New(threshold, dedup.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return &Preprocessor{
		normalizer: normalize.New(),
		dedup:      d,
		logger:     logger,
	}, nil
}

// Clean normalizes and deduplicates raw records, preserving their order.
// Returns core.ErrEmptyCorpus when nothing survives.
func (p *Preprocessor) Clean(raw []core.RawRecord) (dedup.Result, error) {
	if len(raw) == 0 {
		return dedup.Result{}, core.ErrEmptyCorpus
	}

	normalized := make([]core.NormalizedRecord, len(raw))
	for i, record := range raw {
		normalized[i] = p.normalizer.Normalize(record)
	}

	result := p.dedup.Run(normalized)
	if len(result.Kept) == 0 {
		return result, core.ErrEmptyCorpus
	}
	return result, nil
}

// Run loads every shard in inputDir, cleans the records and writes them to outputPath.
// Nothing is written when loading or cleaning fails.
func (p *Preprocessor) Run(inputDir, outputPath string) (*Report, error) {
	raw, err := LoadShards(inputDir, p.logger)
	if err != nil {
		return nil, err
	}

	result, err := p.Clean(raw)
	if err != nil {
		return nil, err
	}

	if err := WriteCleaned(outputPath, result.Kept); err != nil {
		return nil, fmt.Errorf("writing cleaned corpus: %w", err)
	}

	report := &Report{Loaded: len(raw), Removed: result.Removed, Written: len(result.Kept)}
	p.logger.Info("cleaned corpus written", "path", outputPath, "loaded", report.Loaded, "removed", report.Removed, "written", report.Written)
	return report, nil
}
