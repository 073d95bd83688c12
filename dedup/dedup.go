package dedup

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/poiesic/larder/core"
)

// DefaultThreshold is the similarity above which two cleaned titles are duplicates.
const DefaultThreshold = 0.75

// ErrInvalidThreshold is returned when a threshold lies outside [0, 1].
var ErrInvalidThreshold = errors.New("threshold must be between 0 and 1")

// Result reports the outcome of a deduplication run.
type Result struct {
	Kept    []core.NormalizedRecord
	Removed int
}

// Deduplicator clusters records by cleaned-title similarity and keeps the
// earliest record of each cluster.
type Deduplicator struct {
	threshold float64
	metric    strutil.StringMetric
	logger    *slog.Logger
}

// Option configures a Deduplicator.
type Option func(*Deduplicator)

// WithMetric sets the string metric used to compare titles.
// Default is a rune-based Levenshtein ratio.
func WithMetric(metric strutil.StringMetric) Option {
	return func(d *Deduplicator) {
		if metric != nil {
			d.metric = metric
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Deduplicator) {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
	}
}

// New creates a Deduplicator for the given threshold.
func New(threshold float64, opts ...Option) (*Deduplicator, error) {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidThreshold, threshold)
	}
	d := &Deduplicator{
		threshold: threshold,
		metric:    metrics.NewLevenshtein(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", "dedup")
	return d, nil
}

// Deduplicate removes near-duplicate records using the default metric.
func Deduplicate(records []core.NormalizedRecord, threshold float64) ([]core.NormalizedRecord, error) {
	d, err := New(threshold)
	if err != nil {
		return nil, err
	}
	return d.Run(records).Kept, nil
}

// Similarity returns the metric's score for two titles. Identical titles score 1.
func (d *Deduplicator) Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	return strutil.Similarity(a, b, d.metric)
}

// IsDuplicate reports whether two cleaned titles belong to the same cluster.
func (d *Deduplicator) IsDuplicate(a, b string) bool {
	return a == b || d.Similarity(a, b) > d.threshold
}

// Run walks the records in order, discarding any record whose title matches an
// already kept one. The kept records preserve their original relative order.
func (d *Deduplicator) Run(records []core.NormalizedRecord) Result {
	kept := make([]core.NormalizedRecord, 0, len(records))
	for _, record := range records {
		duplicate := false
		for _, unique := range kept {
			if d.IsDuplicate(record.Title, unique.Title) {
				d.logger.Debug("duplicate title", "title", record.Title, "kept", unique.Title, "id", record.ID)
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, record)
		}
	}

	removed := len(records) - len(kept)
	d.logger.Info("deduplication complete", "input", len(records), "kept", len(kept), "removed", removed, "threshold", d.threshold)
	return Result{Kept: kept, Removed: removed}
}
