package core

import (
	"reflect"
	"testing"
	"time"

	musgen "github.com/mus-format/musgen-go/mus"
	genops "github.com/mus-format/musgen-go/options/generate"
	structops "github.com/mus-format/musgen-go/options/struct"
	typeops "github.com/mus-format/musgen-go/options/type"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChildChunkMUS_RoundTrip(t *testing.T) {
	chunk := ChildChunk{
		ID:        ChunkID("doc", 1, "김치를 볶는다"),
		DocID:     "doc",
		Ordinal:   1,
		Content:   "김치를 볶는다",
		Embedding: []float32{0.1, -0.2, 0.3},
	}

	bs := make([]byte, ChildChunkMUS.Size(chunk))
	n := ChildChunkMUS.Marshal(chunk, bs)
	assert.Equal(t, len(bs), n)

	got, m, err := ChildChunkMUS.Unmarshal(bs)
	require.NoError(t, err)
	assert.Equal(t, n, m)
	assert.Equal(t, chunk, got)

	skipped, err := ChildChunkMUS.Skip(bs)
	require.NoError(t, err)
	assert.Equal(t, n, skipped)
}

func TestIndexManifestMUS_Skip(t *testing.T) {
	manifest := IndexManifest{Version: 2, PassageModel: "p", Dimension: 8, Children: 1, BuiltAt: time.Unix(1700000000, 0)}
	bs := make([]byte, IndexManifestMUS.Size(manifest))
	IndexManifestMUS.Marshal(manifest, bs)

	n, err := IndexManifestMUS.Skip(bs)
	require.NoError(t, err)
	assert.Equal(t, len(bs), n)
}

func TestEmbeddingMUS_RejectsBadLength(t *testing.T) {
	tests := []struct {
		name string
		bs   []byte
	}{
		// zigzag varint for -1
		{name: "negative", bs: []byte{0x01}},
		// claims 4 values, carries one
		{name: "oversized", bs: []byte{0x08, 0, 0, 0x80, 0x3f}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := EmbeddingMUS.Unmarshal(tt.bs)
			assert.Error(t, err)
			_, err = EmbeddingMUS.Skip(tt.bs)
			assert.Error(t, err)
		})
	}
}

// Persisted record types stay expressible for musgen-go.
func TestRecordTypesGenerate(t *testing.T) {
	g, err := musgen.NewCodeGenerator(
		genops.WithPkgPath("github.com/poiesic/larder/core"),
	)
	require.NoError(t, err)

	g.AddDefinedType(reflect.TypeFor[ID]())

	require.NoError(t, g.AddStruct(reflect.TypeFor[ParentMetadata](),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField()))
	require.NoError(t, g.AddStruct(reflect.TypeFor[ParentDocument](),
		structops.WithField(),
		structops.WithField(),
		structops.WithField()))
	require.NoError(t, g.AddStruct(reflect.TypeFor[ChildChunk](),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField()))
	require.NoError(t, g.AddStruct(reflect.TypeFor[IndexManifest](),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(),
		structops.WithField(typeops.WithTimeUnit(typeops.Micro))))

	bs, err := g.Generate()
	require.NoError(t, err)
	for _, name := range []string{"IDMUS", "ParentMetadataMUS", "ParentDocumentMUS", "ChildChunkMUS", "IndexManifestMUS"} {
		assert.Contains(t, string(bs), name)
	}
}
