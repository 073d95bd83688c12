// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"errors"
	"time"

	mus "github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the records persisted by the storage layer. Field order
// is the wire order; append new fields at the end and bump IndexVersion.

var (
	errNegativeLength = errors.New("mus: negative length")
	errTooSmallSlice  = errors.New("mus: byte slice is too small")
)

var (
	IDMUS             mus.Serializer[ID]             = idMUS{}
	ParentMetadataMUS mus.Serializer[ParentMetadata] = parentMetadataMUS{}
	ParentDocumentMUS mus.Serializer[ParentDocument] = parentDocumentMUS{}
	ChildChunkMUS     mus.Serializer[ChildChunk]     = childChunkMUS{}
	IndexManifestMUS  mus.Serializer[IndexManifest]  = indexManifestMUS{}
	EmbeddingMUS      mus.Serializer[[]float32]      = embeddingMUS{}
)

type idMUS struct{}

func (s idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (s idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	tmp, n, err := varint.Uint64.Unmarshal(bs)
	return ID(tmp), n, err
}

func (s idMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

func (s idMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

// embeddingMUS writes a length prefix followed by fixed-width float32 values.
// A zero length decodes to a nil slice.
type embeddingMUS struct{}

func (s embeddingMUS) Marshal(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return
}

func (s embeddingMUS) Unmarshal(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	if length < 0 {
		err = errNegativeLength
		return
	}
	if length > (len(bs)-n)/4 {
		err = errTooSmallSlice
		return
	}
	if length == 0 {
		return
	}
	v = make([]float32, length)
	var n1 int
	for i := range v {
		v[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return
}

func (s embeddingMUS) Size(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return
}

func (s embeddingMUS) Skip(bs []byte) (n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	if length < 0 {
		err = errNegativeLength
		return
	}
	if length > (len(bs)-n)/4 {
		err = errTooSmallSlice
		return
	}
	n += length * 4
	return
}

type parentMetadataMUS struct{}

func (s parentMetadataMUS) Marshal(v ParentMetadata, bs []byte) (n int) {
	n = ord.String.Marshal(v.Title, bs)
	n += ord.String.Marshal(v.Ingredients, bs[n:])
	n += ord.String.Marshal(v.URL, bs[n:])
	return n + ord.String.Marshal(v.OriginalID, bs[n:])
}

func (s parentMetadataMUS) Unmarshal(bs []byte) (v ParentMetadata, n int, err error) {
	v.Title, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Ingredients, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.URL, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.OriginalID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (s parentMetadataMUS) Size(v ParentMetadata) (size int) {
	size = ord.String.Size(v.Title)
	size += ord.String.Size(v.Ingredients)
	size += ord.String.Size(v.URL)
	return size + ord.String.Size(v.OriginalID)
}

func (s parentMetadataMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	for range 4 {
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

type parentDocumentMUS struct{}

func (s parentDocumentMUS) Marshal(v ParentDocument, bs []byte) (n int) {
	n = ord.String.Marshal(v.DocID, bs)
	n += ord.String.Marshal(v.Content, bs[n:])
	return n + ParentMetadataMUS.Marshal(v.Metadata, bs[n:])
}

func (s parentDocumentMUS) Unmarshal(bs []byte) (v ParentDocument, n int, err error) {
	v.DocID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Metadata, n1, err = ParentMetadataMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (s parentDocumentMUS) Size(v ParentDocument) (size int) {
	size = ord.String.Size(v.DocID)
	size += ord.String.Size(v.Content)
	return size + ParentMetadataMUS.Size(v.Metadata)
}

func (s parentDocumentMUS) Skip(bs []byte) (n int, err error) {
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ParentMetadataMUS.Skip(bs[n:])
	n += n1
	return
}

type childChunkMUS struct{}

func (s childChunkMUS) Marshal(v ChildChunk, bs []byte) (n int) {
	n = IDMUS.Marshal(v.ID, bs)
	n += ord.String.Marshal(v.DocID, bs[n:])
	n += varint.Int.Marshal(v.Ordinal, bs[n:])
	n += ord.String.Marshal(v.Content, bs[n:])
	return n + EmbeddingMUS.Marshal(v.Embedding, bs[n:])
}

func (s childChunkMUS) Unmarshal(bs []byte) (v ChildChunk, n int, err error) {
	v.ID, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.DocID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Ordinal, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Embedding, n1, err = EmbeddingMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (s childChunkMUS) Size(v ChildChunk) (size int) {
	size = IDMUS.Size(v.ID)
	size += ord.String.Size(v.DocID)
	size += varint.Int.Size(v.Ordinal)
	size += ord.String.Size(v.Content)
	return size + EmbeddingMUS.Size(v.Embedding)
}

func (s childChunkMUS) Skip(bs []byte) (n int, err error) {
	n, err = IDMUS.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = EmbeddingMUS.Skip(bs[n:])
	n += n1
	return
}

// indexManifestMUS stores BuiltAt as UTC Unix microseconds.
type indexManifestMUS struct{}

func (s indexManifestMUS) Marshal(v IndexManifest, bs []byte) (n int) {
	n = varint.Int.Marshal(v.Version, bs)
	n += ord.String.Marshal(v.PassageModel, bs[n:])
	for _, i := range [...]int{v.Dimension, v.Parents, v.Children, v.ParentChunkSize, v.ChildChunkSize, v.Overlap} {
		n += varint.Int.Marshal(i, bs[n:])
	}
	return n + varint.Int64.Marshal(v.BuiltAt.UnixMicro(), bs[n:])
}

func (s indexManifestMUS) Unmarshal(bs []byte) (v IndexManifest, n int, err error) {
	v.Version, n, err = varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.PassageModel, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	for _, dst := range [...]*int{&v.Dimension, &v.Parents, &v.Children, &v.ParentChunkSize, &v.ChildChunkSize, &v.Overlap} {
		*dst, n1, err = varint.Int.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	var micros int64
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.BuiltAt = time.UnixMicro(micros).UTC()
	return
}

func (s indexManifestMUS) Size(v IndexManifest) (size int) {
	size = varint.Int.Size(v.Version)
	size += ord.String.Size(v.PassageModel)
	for _, i := range [...]int{v.Dimension, v.Parents, v.Children, v.ParentChunkSize, v.ChildChunkSize, v.Overlap} {
		size += varint.Int.Size(i)
	}
	return size + varint.Int64.Size(v.BuiltAt.UnixMicro())
}

func (s indexManifestMUS) Skip(bs []byte) (n int, err error) {
	n, err = varint.Int.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	for range 6 {
		n1, err = varint.Int.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	n1, err = varint.Int64.Skip(bs[n:])
	n += n1
	return
}
