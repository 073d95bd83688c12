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

import "fmt"

// ValidateParentDocument validates a ParentDocument before it is stored.
//
// Validation rules:
//   - DocID must not be empty
//   - Content must not be empty
//
// Metadata fields may be empty.
func ValidateParentDocument(doc *ParentDocument) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidParentDocument)
	}

	if doc.DocID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidParentDocument, ErrEmptyDocID)
	}

	if doc.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidParentDocument, ErrEmptyContent)
	}

	return nil
}

// ValidateChildChunk validates a ChildChunk before it is written to the vector index.
//
// Validation rules:
//   - DocID must not be empty
//   - Content must not be empty
//   - Embedding must not be empty
func ValidateChildChunk(chunk *ChildChunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChildChunk)
	}

	if chunk.DocID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChildChunk, ErrEmptyDocID)
	}

	if chunk.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChildChunk, ErrEmptyContent)
	}

	if len(chunk.Embedding) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChildChunk, ErrEmptyEmbedding)
	}

	return nil
}
