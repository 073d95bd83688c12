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

import "errors"

// Pipeline errors. Callers match them with errors.Is.
var (
	// ErrMalformedInput indicates a source file is missing or is not valid structured data.
	ErrMalformedInput = errors.New("malformed input")

	// ErrEmptyCorpus indicates zero records remained after loading or deduplication.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrMissingParent indicates a child chunk references a doc_id with no parent document.
	ErrMissingParent = errors.New("missing parent document")

	// ErrOrphanParent indicates the parent store holds a doc_id no child chunk references.
	ErrOrphanParent = errors.New("orphan parent document")

	// ErrIndexNotFound indicates no successfully built index exists.
	ErrIndexNotFound = errors.New("index not found: build the index first (run with --rebuild-db)")

	// ErrEmbeddingService indicates the embedding service kept failing after retries.
	ErrEmbeddingService = errors.New("embedding service failure")
)

// Domain validation errors
var (
	// ErrInvalidParentDocument indicates a ParentDocument failed validation.
	ErrInvalidParentDocument = errors.New("invalid parent document")

	// ErrInvalidChildChunk indicates a ChildChunk failed validation.
	ErrInvalidChildChunk = errors.New("invalid child chunk")

	// ErrEmptyDocID indicates the DocID field is empty.
	ErrEmptyDocID = errors.New("doc_id cannot be empty")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptyEmbedding indicates a chunk has no embedding vector.
	ErrEmptyEmbedding = errors.New("embedding cannot be empty")
)
