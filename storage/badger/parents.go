package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/larder/core"
	"github.com/poiesic/larder/storage"
)

// ParentStore implements storage.ParentStore for BadgerDB.
// Used when parents should survive restarts without replaying the corpus.
type ParentStore struct {
	backend *Backend
}

var _ storage.ParentStore = (*ParentStore)(nil)

// NewParentStore creates a ParentStore over backend.
func NewParentStore(backend *Backend) storage.ParentStore {
	return &ParentStore{backend: backend}
}

// Set stores a parent document under id.
func (s *ParentStore) Set(ctx context.Context, id string, doc *core.ParentDocument) error {
	if id == "" {
		return core.ErrEmptyDocID
	}
	if doc == nil {
		return core.ErrInvalidParentDocument
	}
	value := storage.MarshalParentDocument(doc)
	return s.backend.WithTx(func(tx *badger.Txn) error {
		return tx.Set(makeParentKey(id), value)
	}, true)
}

// Get retrieves the parent document stored under id.
func (s *ParentStore) Get(ctx context.Context, id string) (*core.ParentDocument, error) {
	var doc *core.ParentDocument
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeParentKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			doc, unmarshalErr = storage.UnmarshalParentDocument(val)
			return unmarshalErr
		})
	}, false)
	return doc, err
}

// BulkSet stores every document under its DocID in one batch.
func (s *ParentStore) BulkSet(ctx context.Context, docs ...*core.ParentDocument) error {
	for _, doc := range docs {
		if err := core.ValidateParentDocument(doc); err != nil {
			return err
		}
	}
	return s.backend.WriteBatch(func(wb *badger.WriteBatch) error {
		for _, doc := range docs {
			if err := wb.Set(makeParentKey(doc.DocID), storage.MarshalParentDocument(doc)); err != nil {
				return err
			}
		}
		return nil
	})
}

// DocIDs returns the ids of every stored document in key order.
func (s *ParentStore) DocIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(parentPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			ids = append(ids, docIDFromParentKey(iter.Item().KeyCopy(nil)))
		}
		return nil
	}, false)
	return ids, err
}

// Clear removes every stored parent.
func (s *ParentStore) Clear(ctx context.Context) error {
	return s.backend.DropPrefix([]byte(parentPrefix))
}
