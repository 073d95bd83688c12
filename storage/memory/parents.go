// Package memory provides a volatile storage.ParentStore.
//
// Contents live for the lifetime of the process. After a restart the store
// is repopulated by replaying reconstruction over the cleaned corpus.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/poiesic/larder/core"
	"github.com/poiesic/larder/storage"
)

// ParentStore is a map-backed storage.ParentStore guarded by a RWMutex.
type ParentStore struct {
	mu   sync.RWMutex
	docs map[string]*core.ParentDocument
}

var _ storage.ParentStore = (*ParentStore)(nil)

// NewParentStore creates an empty in-memory parent store.
func NewParentStore() storage.ParentStore {
	return &ParentStore{docs: make(map[string]*core.ParentDocument)}
}

// Set stores doc under id, replacing any previous entry. The document is
// kept by reference.
func (s *ParentStore) Set(ctx context.Context, id string, doc *core.ParentDocument) error {
	if id == "" {
		return core.ErrEmptyDocID
	}
	if doc == nil {
		return core.ErrInvalidParentDocument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[id] = doc
	return nil
}

// Get returns the document stored under id, or storage.ErrNotFound.
func (s *ParentStore) Get(ctx context.Context, id string) (*core.ParentDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return doc, nil
}

// BulkSet validates every document before storing any of them.
func (s *ParentStore) BulkSet(ctx context.Context, docs ...*core.ParentDocument) error {
	for _, doc := range docs {
		if err := core.ValidateParentDocument(doc); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		s.docs[doc.DocID] = doc
	}
	return nil
}

// DocIDs returns the stored ids, sorted.
func (s *ParentStore) DocIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	slices.Sort(ids)
	return ids, nil
}

// Clear removes every document.
func (s *ParentStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.docs)
	return nil
}
