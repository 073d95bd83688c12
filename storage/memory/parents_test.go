package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/poiesic/larder/core"
	"github.com/poiesic/larder/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParentStore(t *testing.T) {
	ctx := context.Background()
	store := NewParentStore()

	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Set(ctx, "a", &core.ParentDocument{DocID: "a", Content: "1"}))
	require.NoError(t, store.BulkSet(ctx,
		&core.ParentDocument{DocID: "c", Content: "3"},
		&core.ParentDocument{DocID: "b", Content: "2"},
	))

	doc, err := store.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "2", doc.Content)

	ids, err := store.DocIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	require.NoError(t, store.Clear(ctx))
	ids, err = store.DocIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestParentStore_Invalid(t *testing.T) {
	ctx := context.Background()
	store := NewParentStore()

	assert.ErrorIs(t, store.Set(ctx, "", &core.ParentDocument{}), core.ErrEmptyDocID)
	assert.ErrorIs(t, store.Set(ctx, "a", nil), core.ErrInvalidParentDocument)

	err := store.BulkSet(ctx,
		&core.ParentDocument{DocID: "a", Content: "1"},
		&core.ParentDocument{DocID: "b"},
	)
	assert.ErrorIs(t, err, core.ErrEmptyContent)

	ids, err := store.DocIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestParentStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := NewParentStore()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("doc-%02d", i)
			assert.NoError(t, store.Set(ctx, id, &core.ParentDocument{DocID: id, Content: id}))
			_, err := store.Get(ctx, id)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	ids, err := store.DocIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 16)
}
