package main

import (
	"fmt"
	"io"

	"github.com/poiesic/larder/core"
	"github.com/poiesic/larder/search"
)

// printingMonitor writes each retrieval step to w.
type printingMonitor struct {
	w io.Writer
}

var _ search.RetrievalMonitor = (*printingMonitor)(nil)

func newPrintingMonitor(w io.Writer) *printingMonitor {
	return &printingMonitor{w: w}
}

func (m *printingMonitor) Start(query string, k int) {
	fmt.Fprintf(m.w, "[query] %q k=%d\n", query, k)
}

func (m *printingMonitor) AfterEmbedding(dimension int) {
	fmt.Fprintf(m.w, "[embed] dimension=%d\n", dimension)
}

func (m *printingMonitor) AfterChildSearch(matches []*core.ChunkMatch) {
	fmt.Fprintf(m.w, "[search] %d child chunks\n", len(matches))
	for i, match := range matches {
		fmt.Fprintf(m.w, "  %d: %s#%d [%0.3f] %s\n", i, match.Chunk.DocID, match.Chunk.Ordinal, match.Score, preview(match.Chunk.Content, 40))
	}
}

func (m *printingMonitor) ParentResolved(match *core.ChunkMatch, parent *core.ParentDocument, duplicate bool) {
	if duplicate {
		fmt.Fprintf(m.w, "[parent] %s (duplicate)\n", parent.DocID)
		return
	}
	fmt.Fprintf(m.w, "[parent] %s %s\n", parent.DocID, parent.Metadata.Title)
}

func (m *printingMonitor) Finish(results []core.RetrievedDocument) {
	fmt.Fprintf(m.w, "[done] %d parents\n\n", len(results))
}

func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
