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


package storage

import (
	"fmt"

	"github.com/poiesic/larder/core"
)

// MarshalChildChunk serializes a ChildChunk to bytes.
func MarshalChildChunk(chunk *core.ChildChunk) []byte {
	buf := make([]byte, core.ChildChunkMUS.Size(*chunk))
	core.ChildChunkMUS.Marshal(*chunk, buf)
	return buf
}

// UnmarshalChildChunk deserializes a ChildChunk from bytes.
func UnmarshalChildChunk(data []byte) (*core.ChildChunk, error) {
	chunk, _, err := core.ChildChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &chunk, nil
}

// MarshalParentDocument serializes a ParentDocument to bytes.
func MarshalParentDocument(doc *core.ParentDocument) []byte {
	buf := make([]byte, core.ParentDocumentMUS.Size(*doc))
	core.ParentDocumentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalParentDocument deserializes a ParentDocument from bytes.
func UnmarshalParentDocument(data []byte) (*core.ParentDocument, error) {
	doc, _, err := core.ParentDocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &doc, nil
}

// MarshalManifest serializes an IndexManifest to bytes.
func MarshalManifest(manifest *core.IndexManifest) []byte {
	buf := make([]byte, core.IndexManifestMUS.Size(*manifest))
	core.IndexManifestMUS.Marshal(*manifest, buf)
	return buf
}

// UnmarshalManifest deserializes an IndexManifest from bytes.
func UnmarshalManifest(data []byte) (*core.IndexManifest, error) {
	manifest, _, err := core.IndexManifestMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &manifest, nil
}
