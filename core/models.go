package core

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a compact identifier for stored child chunks.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ChunkID derives the storage ID of a child chunk from its parent, position and content.
func ChunkID(docID string, ordinal int, content string) ID {
	return IDFromContent(fmt.Sprintf("%s\x00%d\x00%s", docID, ordinal, content))
}

// RawRecord is a recipe as produced by the scraper.
type RawRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Ingredients string `json:"ingredients"`
	Steps       string `json:"steps"`
	URL         string `json:"url"`
}

// UnmarshalJSON decodes a raw record leniently. Missing, null or non-string
// fields become empty strings; numbers keep their literal text.
func (r *RawRecord) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*r = RawRecord{
		ID:          looseString(fields["id"]),
		Title:       looseString(fields["title"]),
		Ingredients: looseString(fields["ingredients"]),
		Steps:       looseString(fields["steps"]),
		URL:         looseString(fields["url"]),
	}
	return nil
}

func looseString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return string(raw)
	}
	return ""
}

// NormalizedRecord is a RawRecord whose title and ingredients have been
// rewritten to canonical form, plus the embeddable body.
type NormalizedRecord struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Ingredients  string `json:"ingredients"`
	Steps        string `json:"steps"`
	URL          string `json:"url"`
	CombinedText string `json:"combined_text"`
}

// ParentMetadata holds the descriptive fields carried alongside a parent document.
type ParentMetadata struct {
	Title       string
	Ingredients string
	URL         string
	OriginalID  string
}

// ParentDocument is the unit of context returned to callers.
// DocID is derived from record content, never random when a stable signal exists.
type ParentDocument struct {
	DocID    string
	Content  string
	Metadata ParentMetadata
}

// ChildChunk is a contiguous piece of a parent's content. DocID is a back-reference
// to the owning parent.
type ChildChunk struct {
	ID        ID
	DocID     string
	Ordinal   int
	Content   string
	Embedding []float32 // populated by the indexer
}

// ChunkMatch is a child chunk hit from nearest-neighbor search.
type ChunkMatch struct {
	Chunk *ChildChunk
	Score float32
}

// RetrievedDocument is a parent document with the best score of any of its children.
type RetrievedDocument struct {
	Document *ParentDocument
	Score    float32
}

// IndexManifest describes a completed index build. Its presence marks the index ready.
type IndexManifest struct {
	Version         int
	PassageModel    string
	Dimension       int
	Parents         int
	Children        int
	ParentChunkSize int
	ChildChunkSize  int
	Overlap         int
	BuiltAt         time.Time
}
