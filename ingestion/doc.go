// Package ingestion builds and reloads the child-chunk vector index.
//
// Indexer.Build turns normalized records into parent documents, stores them in
// the ParentStore, splits them into child chunks and embeds the children with
// the passage encoder. Embedding batches run concurrently on a worker pool,
// each retried with exponential backoff and optionally rate limited. The
// index manifest is written last, so an interrupted build never looks ready.
//
// Indexer.Load reopens a persisted index without embedding anything. It
// replays parent construction over the same records to repopulate a volatile
// ParentStore and verifies every doc id referenced by the index resolves.
package ingestion
