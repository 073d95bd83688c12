package search

import (
	"github.com/poiesic/larder/core"
)

// RetrievalMonitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps and results.
type RetrievalMonitor interface {
	Start(query string, k int)
	AfterEmbedding(dimension int)
	AfterChildSearch(matches []*core.ChunkMatch)
	ParentResolved(match *core.ChunkMatch, parent *core.ParentDocument, duplicate bool)
	Finish(results []core.RetrievedDocument)
}

// noopMonitor is a no-op implementation of RetrievalMonitor
type noopMonitor struct{}

var _ RetrievalMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ int)                                             {}
func (n *noopMonitor) AfterEmbedding(_ int)                                              {}
func (n *noopMonitor) AfterChildSearch(_ []*core.ChunkMatch)                             {}
func (n *noopMonitor) ParentResolved(_ *core.ChunkMatch, _ *core.ParentDocument, _ bool) {}
func (n *noopMonitor) Finish(_ []core.RetrievedDocument)                                 {}
