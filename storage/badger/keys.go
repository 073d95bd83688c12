package badger

import (
	"encoding/binary"
)

// Key prefixes for different data types
const (
	chunkPrefix  = "chunk:"
	parentPrefix = "parent:"
	manifestKey  = "index:manifest"
)

// makeChunkKey generates a key for a child chunk.
// Format: prefix + BigEndian(id) so iteration order is stable.
func makeChunkKey(id uint64) []byte {
	buf := make([]byte, len(chunkPrefix)+8)
	offset := copy(buf, chunkPrefix)
	binary.BigEndian.PutUint64(buf[offset:], id)
	return buf
}

// makeParentKey generates a key for a parent document by doc id.
func makeParentKey(docID string) []byte {
	return []byte(parentPrefix + docID)
}

// docIDFromParentKey strips the prefix from a parent key.
func docIDFromParentKey(key []byte) string {
	return string(key[len(parentPrefix):])
}
