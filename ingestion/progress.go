package ingestion

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Progress is a snapshot of an embedding run.
type Progress struct {
	Chunks       int
	TotalChunks  int
	Batches      int
	TotalBatches int
}

// ProgressTracker prints embedding progress as batches complete.
// BatchDone is safe to call from pool workers.
type ProgressTracker struct {
	mu       sync.Mutex
	w        io.Writer
	progress Progress
	every    int
	printed  int
	start    time.Time
	running  bool
}

// NewProgressTracker creates a tracker for totalChunks chunks sent in
// totalBatches batches. A line is printed whenever at least every chunks
// completed since the last one.
func NewProgressTracker(w io.Writer, totalChunks, totalBatches, every int) *ProgressTracker {
	if every < 1 {
		every = 1
	}
	return &ProgressTracker{
		w:        w,
		progress: Progress{TotalChunks: totalChunks, TotalBatches: totalBatches},
		every:    every,
	}
}

// Start resets the counters and the clock.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.progress.Chunks = 0
	p.progress.Batches = 0
	p.printed = 0
	p.start = time.Now()
	p.running = true
}

// BatchDone records a finished batch of chunks.
func (p *ProgressTracker) BatchDone(chunks int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.progress.Batches++
	p.progress.Chunks = min(p.progress.Chunks+chunks, p.progress.TotalChunks)

	if p.progress.Chunks-p.printed >= p.every {
		p.print()
		p.printed = p.progress.Chunks
	}
}

// Finish prints the final line and stops tracking.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.print()
	fmt.Fprintf(p.w, " done in %s\n", time.Since(p.start).Round(time.Millisecond))
	p.running = false
}

// Snapshot returns the current counters.
func (p *ProgressTracker) Snapshot() Progress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progress
}

// print writes the progress line. Callers hold mu.
func (p *ProgressTracker) print() {
	cur := p.progress
	elapsed := time.Since(p.start).Seconds()

	var rate float64
	if elapsed > 0 {
		rate = float64(cur.Chunks) / elapsed
	}
	percent := 100.0
	if cur.TotalChunks > 0 {
		percent = float64(cur.Chunks) / float64(cur.TotalChunks) * 100
	}

	eta := "?"
	if rate > 0 {
		remaining := time.Duration(float64(cur.TotalChunks-cur.Chunks) / rate * float64(time.Second))
		eta = remaining.Round(time.Second).String()
	}

	fmt.Fprintf(p.w, "\rEmbedding: %d/%d chunks, %d/%d batches (%.1f%%) %.1f chunks/s, eta %s",
		cur.Chunks, cur.TotalChunks, cur.Batches, cur.TotalBatches, percent, rate, eta)
}
